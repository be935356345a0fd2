package repository

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/bytedance/sonic"
)

// TableRepository stores each column as one entity in an Azure table:
// PartitionKey is the board partition and RowKey the storage key.
type TableRepository struct {
	client    *aztables.Client
	partition string
}

type boardEntity struct {
	aztables.Entity
	Value string `json:"Value"`
}

func NewTableRepository(connStr, table, partition string) (*TableRepository, error) {
	opts := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute,
				RetryDelay:    time.Second,
				MaxRetryDelay: 15 * time.Second,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &opts)
	if err != nil {
		return nil, err
	}
	return &TableRepository{client: svc.NewClient(table), partition: partition}, nil
}

// EnsureTable creates the table unless it already exists
func (r *TableRepository) EnsureTable(ctx context.Context) error {
	if _, err := r.client.CreateTable(ctx, nil); err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) && respErr.ErrorCode == string(aztables.TableAlreadyExists) {
			return nil
		}
		return err
	}
	return nil
}

func (r *TableRepository) Get(ctx context.Context, key string) ([]byte, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}

	resp, err := r.client.GetEntity(ctx, r.partition, key, nil)
	if err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	return decodeEntity(resp.Value)
}

func (r *TableRepository) Set(ctx context.Context, key string, value []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}

	payload, err := encodeEntity(r.partition, key, value)
	if err != nil {
		return err
	}
	_, err = r.client.UpsertEntity(ctx, payload, &aztables.UpsertEntityOptions{UpdateMode: aztables.UpdateModeReplace})
	return err
}

func encodeEntity(partition, key string, value []byte) ([]byte, error) {
	return sonic.Marshal(boardEntity{
		Entity: aztables.Entity{PartitionKey: partition, RowKey: key},
		Value:  string(value),
	})
}

func decodeEntity(payload []byte) ([]byte, error) {
	var ent boardEntity
	if err := sonic.Unmarshal(payload, &ent); err != nil {
		return nil, err
	}
	return []byte(ent.Value), nil
}
