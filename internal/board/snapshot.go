package board

import "progressboard/internal/model"

// Snapshot is an immutable copy of the four columns.
type Snapshot struct {
	Todo     []model.Task `json:"todo"`
	Done     []model.Task `json:"done"`
	InReview []model.Task `json:"inReview"`
	Backlog  []model.Task `json:"backlog"`
}

// Column returns the tasks of c in order.
func (s Snapshot) Column(c model.Column) []model.Task {
	switch c {
	case model.ColumnTodo:
		return s.Todo
	case model.ColumnDone:
		return s.Done
	case model.ColumnInReview:
		return s.InReview
	case model.ColumnBacklog:
		return s.Backlog
	}
	return nil
}

// Len is the total number of tasks on the board.
func (s Snapshot) Len() int {
	return len(s.Todo) + len(s.Done) + len(s.InReview) + len(s.Backlog)
}

func newSnapshot(columns map[model.Column][]model.Task) Snapshot {
	clone := func(c model.Column) []model.Task {
		return append(make([]model.Task, 0, len(columns[c])), columns[c]...)
	}
	return Snapshot{
		Todo:     clone(model.ColumnTodo),
		Done:     clone(model.ColumnDone),
		InReview: clone(model.ColumnInReview),
		Backlog:  clone(model.ColumnBacklog),
	}
}
