package model_test

import (
	"testing"

	"progressboard/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestColumnMapping(t *testing.T) {
	tests := []struct {
		column    model.Column
		status    model.Status
		completed bool
		key       string
		droppable string
	}{
		{model.ColumnTodo, model.StatusTodo, false, "incomplete", "1"},
		{model.ColumnDone, model.StatusDone, true, "completed", "2"},
		{model.ColumnInReview, model.StatusInReview, false, "inReview", "3"},
		{model.ColumnBacklog, model.StatusBacklog, false, "backlog", "4"},
	}

	for _, tt := range tests {
		t.Run(tt.column.String(), func(t *testing.T) {
			assert.True(t, tt.column.Valid())
			assert.Equal(t, tt.status, tt.column.Status())
			assert.Equal(t, tt.completed, tt.column.Completed())
			assert.Equal(t, tt.key, tt.column.StorageKey())
			assert.Equal(t, tt.droppable, tt.column.DroppableID())

			byStatus, ok := model.ColumnForStatus(tt.status)
			assert.True(t, ok)
			assert.Equal(t, tt.column, byStatus)

			byDroppable, ok := model.ColumnForDroppable(tt.droppable)
			assert.True(t, ok)
			assert.Equal(t, tt.column, byDroppable)
		})
	}
}

func TestColumnLookup_Unknown(t *testing.T) {
	_, ok := model.ColumnForStatus("archived")
	assert.False(t, ok)

	_, ok = model.ColumnForDroppable("5")
	assert.False(t, ok)

	assert.False(t, model.Column(0).Valid())
	assert.Equal(t, "unknown", model.Column(9).String())
}

func TestOnlyBacklogIsAppendOnly(t *testing.T) {
	for _, c := range model.Columns() {
		assert.Equal(t, c == model.ColumnBacklog, c.AppendOnly(), c.String())
	}
}

func TestTaskIn(t *testing.T) {
	task := model.Task{ID: "1", Title: "A", Status: model.StatusTodo}

	moved := task.In(model.ColumnDone)

	assert.Equal(t, model.StatusDone, moved.Status)
	assert.True(t, moved.Completed)
	assert.Equal(t, model.StatusTodo, task.Status)
}
