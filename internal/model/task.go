package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Status is the workflow state of a task. It always mirrors the column holding the task.
type Status string

const (
	StatusTodo     Status = "todo"
	StatusDone     Status = "done"
	StatusInReview Status = "inReview"
	StatusBacklog  Status = "backlog"
)

type Task struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Status    Status `json:"status"`
	Completed bool   `json:"completed"`
}

// In returns a copy of the task with status and completed derived from column.
func (t Task) In(column Column) Task {
	t.Status = column.Status()
	t.Completed = column.Completed()
	return t
}

// NormalizeTitle trims surrounding whitespace. An empty result means the title is rejected.
func NormalizeTitle(title string) string {
	return strings.TrimSpace(title)
}

// UnmarshalJSON accepts ids encoded either as strings or as JSON numbers.
func (t *Task) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID        json.RawMessage `json:"id"`
		Title     string          `json:"title"`
		Status    Status          `json:"status"`
		Completed bool            `json:"completed"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	id, err := decodeID(raw.ID)
	if err != nil {
		return fmt.Errorf("task id: %w", err)
	}

	*t = Task{ID: id, Title: raw.Title, Status: raw.Status, Completed: raw.Completed}
	return nil
}

func decodeID(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}
