package board_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"progressboard/internal/board"
	"progressboard/internal/model"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu     sync.Mutex
	data   map[string][]byte
	writes []string
	setErr error
	getErr error
}

func newMemStore() *memStore {
	return &memStore{data: map[string][]byte{}}
}

func (s *memStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	v, ok := s.data[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

func (s *memStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = append(s.writes, key)
	if s.setErr != nil {
		return s.setErr
	}
	s.data[key] = append([]byte(nil), value...)
	return nil
}

func (s *memStore) put(t *testing.T, key string, tasks []model.Task) {
	t.Helper()
	raw, err := json.Marshal(tasks)
	require.NoError(t, err)
	s.data[key] = raw
}

func (s *memStore) tasks(t *testing.T, key string) []model.Task {
	t.Helper()
	var tasks []model.Task
	require.NoError(t, json.Unmarshal(s.data[key], &tasks))
	return tasks
}

type stubSource struct {
	tasks []model.Task
	err   error
	calls int
}

func (s *stubSource) FetchTasks(context.Context) ([]model.Task, error) {
	s.calls++
	return s.tasks, s.err
}

type recordingObserver struct {
	snapshots   []board.Snapshot
	persistKeys []string
	hydration   []error
}

func (o *recordingObserver) BoardChanged(s board.Snapshot)       { o.snapshots = append(o.snapshots, s) }
func (o *recordingObserver) PersistFailed(key string, err error) { o.persistKeys = append(o.persistKeys, key) }
func (o *recordingObserver) HydrationFailed(err error)           { o.hydration = append(o.hydration, err) }

func quietLogger() log.FieldLogger {
	logger, _ := test.NewNullLogger()
	return logger
}

// newBoard restores a manager from a store seeded with the given columns.
func newBoard(t *testing.T, seed map[model.Column][]model.Task) (*board.Manager, *memStore, *recordingObserver) {
	t.Helper()
	store := newMemStore()
	for _, c := range model.Columns() {
		store.put(t, c.StorageKey(), append([]model.Task{}, seed[c]...))
	}
	obs := &recordingObserver{}
	m := board.NewManager(store, nil, board.Options{Observers: []board.Observer{obs}, Logger: quietLogger()})
	valid, err := m.Restore(context.Background())
	require.NoError(t, err)
	require.True(t, valid)
	store.writes = nil
	return m, store, obs
}

func task(id, title string, status model.Status) model.Task {
	return model.Task{ID: id, Title: title, Status: status, Completed: status == model.StatusDone}
}

func allIDs(s board.Snapshot) []string {
	var ids []string
	for _, c := range model.Columns() {
		for _, t := range s.Column(c) {
			ids = append(ids, t.ID)
		}
	}
	return ids
}
