package board

import (
	"context"

	log "github.com/sirupsen/logrus"

	"progressboard/internal/model"
)

// Position is a slot within a column.
type Position struct {
	Column model.Column
	Index  int
}

// Move describes a completed drag. A nil To means the gesture was cancelled.
type Move struct {
	TaskID string
	From   Position
	To     *Position
}

// Relocate moves the task at From to To. The task found at From must carry TaskID;
// otherwise the drag is stale and ignored. Drops into an append-only column land at
// the end whatever index was requested.
func (m *Manager) Relocate(ctx context.Context, mv Move) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if mv.To == nil || mv.From == *mv.To {
		return newSnapshot(m.columns), nil
	}

	from, to := mv.From, *mv.To
	entry := m.logger.WithFields(log.Fields{
		"task_id": mv.TaskID,
		"from":    from.Column.String(),
		"to":      to.Column.String(),
	})
	if !from.Column.Valid() || !to.Column.Valid() {
		entry.Warn("ignoring drop on unknown column")
		return newSnapshot(m.columns), nil
	}

	source := m.columns[from.Column]
	if from.Index < 0 || from.Index >= len(source) || source[from.Index].ID != mv.TaskID {
		entry.WithField("index", from.Index).Warn("ignoring stale drop")
		return newSnapshot(m.columns), nil
	}

	task := source[from.Index].In(to.Column)
	m.columns[from.Column] = removeAt(source, from.Index)

	dest := m.columns[to.Column]
	if to.Column.AppendOnly() {
		m.columns[to.Column] = insertAt(dest, len(dest), task)
	} else {
		m.columns[to.Column] = insertAt(dest, clamp(to.Index, 0, len(dest)), task)
	}

	err := m.persist(ctx, from.Column, to.Column)
	m.notifyChanged()
	return newSnapshot(m.columns), err
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
