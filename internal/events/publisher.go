// Package events publishes board notifications to an Azure Storage queue.
package events

import (
	"context"
	"errors"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"

	"progressboard/internal/board"
)

const (
	TypeChanged         = "board.changed"
	TypePersistFailed   = "board.persist_failed"
	TypeHydrationFailed = "board.hydration_failed"
)

// maxMessage is the queue service limit for a single message body.
const maxMessage = 64 << 10

// Event is the queue message body.
type Event struct {
	Type  string          `json:"type"`
	At    time.Time       `json:"at"`
	Tasks int             `json:"tasks,omitempty"`
	Key   string          `json:"key,omitempty"`
	Error string          `json:"error,omitempty"`
	Board *board.Snapshot `json:"board,omitempty"`
}

// Sender delivers one encoded event.
type Sender interface {
	Send(ctx context.Context, body string) error
}

// QueueSender sends to a single Azure Storage queue.
type QueueSender struct {
	client *azqueue.QueueClient
}

func NewQueueSender(connStr, queue string) (*QueueSender, error) {
	opts := azqueue.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    5,
				TryTimeout:    time.Minute,
				RetryDelay:    time.Second,
				MaxRetryDelay: time.Second * 30,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	client, err := azqueue.NewQueueClientFromConnectionString(connStr, queue, &opts)
	if err != nil {
		return nil, err
	}
	return &QueueSender{client: client}, nil
}

// EnsureQueue creates the queue if it does not exist yet.
func (s *QueueSender) EnsureQueue(ctx context.Context) error {
	_, err := s.client.Create(ctx, nil)
	if err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) && respErr.ErrorCode == "QueueAlreadyExists" {
			return nil
		}
		return err
	}
	return nil
}

func (s *QueueSender) Send(ctx context.Context, body string) error {
	_, err := s.client.EnqueueMessage(ctx, body, nil)
	return err
}

// Publisher is a board.Observer. Notifications are queued in memory and sent by
// Run; when the buffer is full new notifications are dropped.
type Publisher struct {
	sender Sender
	queue  chan Event
	logger log.FieldLogger
	now    func() time.Time
}

func NewPublisher(sender Sender, buffer int, logger log.FieldLogger) *Publisher {
	if buffer < 1 {
		buffer = 1
	}
	return &Publisher{
		sender: sender,
		queue:  make(chan Event, buffer),
		logger: logger,
		now:    time.Now,
	}
}

func (p *Publisher) BoardChanged(snapshot board.Snapshot) {
	p.offer(Event{Type: TypeChanged, Tasks: snapshot.Len(), Board: &snapshot})
}

func (p *Publisher) PersistFailed(key string, err error) {
	p.offer(Event{Type: TypePersistFailed, Key: key, Error: err.Error()})
}

func (p *Publisher) HydrationFailed(err error) {
	p.offer(Event{Type: TypeHydrationFailed, Error: err.Error()})
}

func (p *Publisher) offer(e Event) {
	e.At = p.now().UTC()
	select {
	case p.queue <- e:
	default:
		p.logger.WithField("type", e.Type).Warn("⚠️  event buffer full, dropping board event")
	}
}

// Run sends queued events until ctx is done.
func (p *Publisher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-p.queue:
			if err := p.send(ctx, e); err != nil {
				p.logger.WithError(err).WithField("type", e.Type).Warn("⚠️  failed to publish board event")
			}
		}
	}
}

func (p *Publisher) send(ctx context.Context, e Event) error {
	body, err := sonic.MarshalString(e)
	if err != nil {
		return err
	}
	if len(body) > maxMessage && e.Board != nil {
		e.Board = nil
		if body, err = sonic.MarshalString(e); err != nil {
			return err
		}
	}
	return p.sender.Send(ctx, body)
}
