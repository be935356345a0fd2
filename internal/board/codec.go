package board

import (
	"bytes"
	"errors"

	"github.com/bytedance/sonic"

	"progressboard/internal/model"
)

var errNotAList = errors.New("stored value is not a list")

func encodeColumn(tasks []model.Task) ([]byte, error) {
	if tasks == nil {
		tasks = []model.Task{}
	}
	return sonic.Marshal(tasks)
}

func decodeColumn(raw []byte) ([]model.Task, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, errNotAList
	}
	tasks := []model.Task{}
	if err := sonic.Unmarshal(trimmed, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}
