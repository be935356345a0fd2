package board

import (
	"context"
	"errors"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"progressboard/internal/model"
)

const tracerName = "progressboard/internal/board"

var (
	// ErrPersist wraps every failed durable write. The in-memory change is kept.
	ErrPersist = errors.New("board persistence failed")

	// ErrStoreUnavailable means a column could not be read at all. Unlike an
	// absent or malformed entry it never triggers hydration.
	ErrStoreUnavailable = errors.New("board store unavailable")

	// ErrNoSource is returned by Hydrate when no remote source is configured.
	ErrNoSource = errors.New("no remote task source configured")
)

type Options struct {
	// Strict requires every stored column to be non-empty before local state is trusted.
	Strict    bool
	IDs       IDGenerator
	Observers []Observer
	Logger    log.FieldLogger
}

// Manager owns the board. All reads and writes go through its methods.
type Manager struct {
	mu        sync.Mutex
	columns   map[model.Column][]model.Task
	store     Store
	source    Source
	ids       IDGenerator
	observers []Observer
	strict    bool
	logger    log.FieldLogger
}

func NewManager(store Store, source Source, opts Options) *Manager {
	if store == nil {
		panic("board.NewManager: store is nil")
	}
	if opts.IDs == nil {
		opts.IDs = &SequenceIDs{}
	}
	if opts.Logger == nil {
		opts.Logger = log.StandardLogger()
	}
	return &Manager{
		columns:   make(map[model.Column][]model.Task, len(model.Columns())),
		store:     store,
		source:    source,
		ids:       opts.IDs,
		observers: opts.Observers,
		strict:    opts.Strict,
		logger:    opts.Logger,
	}
}

// Snapshot returns a copy of the current board.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return newSnapshot(m.columns)
}

// Load restores the board from the store and falls back to the remote source
// when local state is missing or invalid. An unreadable store is returned as an
// error and the remote source is not consulted.
func (m *Manager) Load(ctx context.Context) error {
	valid, err := m.Restore(ctx)
	if err != nil {
		return err
	}
	if valid || m.source == nil {
		return nil
	}
	return m.Hydrate(ctx)
}

// Restore reads all four columns from the store. It reports whether local state
// was complete enough to use; columns that did parse are kept either way.
// If any read fails the board is left untouched and the error wraps ErrStoreUnavailable.
func (m *Manager) Restore(ctx context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	valid := true
	restored := make(map[model.Column][]model.Task, len(model.Columns()))
	var errs []error
	for _, c := range model.Columns() {
		tasks, ok, err := m.readColumn(ctx, c)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, c.StorageKey(), err))
			continue
		}
		if !ok || (m.strict && len(tasks) == 0) {
			valid = false
		}
		restored[c] = tasks
	}
	if len(errs) > 0 {
		err := errors.Join(errs...)
		m.logger.WithError(err).Error("❌ board store unreadable, stored state left untouched")
		return false, err
	}

	m.adopt(restored)
	m.logger.WithFields(log.Fields{"valid": valid, "tasks": m.countLocked()}).Info("board restored from store")
	m.notifyChanged()
	return valid, nil
}

// Hydrate fetches the remote task list once, partitions it by status and persists
// all four columns. A failed fetch leaves the board untouched and is not retried.
func (m *Manager) Hydrate(ctx context.Context) error {
	if m.source == nil {
		return ErrNoSource
	}

	m.logger.Info("📡 Fetching tasks from remote source")
	tasks, err := m.source.FetchTasks(ctx)
	if err != nil {
		err = fmt.Errorf("hydrate board: %w", err)
		for _, o := range m.observers {
			o.HydrationFailed(err)
		}
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.adopt(Partition(tasks))
	perr := m.persist(ctx, model.Columns()...)
	m.logger.WithField("tasks", m.countLocked()).Info("✅ board hydrated from remote source")
	m.notifyChanged()
	return perr
}

// AddTask appends a new task to the todo column. Blank titles are ignored.
func (m *Manager) AddTask(ctx context.Context, title string) (Snapshot, error) {
	title = model.NormalizeTitle(title)

	m.mu.Lock()
	defer m.mu.Unlock()

	if title == "" {
		return newSnapshot(m.columns), nil
	}

	task := model.Task{ID: m.ids.Next(m.containsLocked), Title: title}.In(model.ColumnTodo)
	m.columns[model.ColumnTodo] = append(m.columns[model.ColumnTodo], task)

	err := m.persist(ctx, model.ColumnTodo)
	m.notifyChanged()
	return newSnapshot(m.columns), err
}

// DeleteTask removes the task from whichever column holds it. Unknown ids are ignored.
func (m *Manager) DeleteTask(ctx context.Context, id string) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	column, index, ok := m.findLocked(id)
	if !ok {
		return newSnapshot(m.columns), nil
	}
	m.columns[column] = removeAt(m.columns[column], index)

	err := m.persist(ctx, column)
	m.notifyChanged()
	return newSnapshot(m.columns), err
}

// EditTask replaces a task's title. Blank titles and unknown ids are ignored.
func (m *Manager) EditTask(ctx context.Context, id, title string) (Snapshot, error) {
	title = model.NormalizeTitle(title)

	m.mu.Lock()
	defer m.mu.Unlock()

	if title == "" {
		return newSnapshot(m.columns), nil
	}
	column, index, ok := m.findLocked(id)
	if !ok || m.columns[column][index].Title == title {
		return newSnapshot(m.columns), nil
	}

	tasks := append([]model.Task(nil), m.columns[column]...)
	tasks[index].Title = title
	m.columns[column] = tasks

	err := m.persist(ctx, column)
	m.notifyChanged()
	return newSnapshot(m.columns), err
}

// Partition splits a flat task list into columns by status. Tasks with an unknown
// status, an empty id, a blank title or an id seen earlier are dropped.
func Partition(tasks []model.Task) map[model.Column][]model.Task {
	out := make(map[model.Column][]model.Task, len(model.Columns()))
	for _, c := range model.Columns() {
		out[c] = []model.Task{}
	}

	seen := make(map[string]struct{}, len(tasks))
	for _, t := range tasks {
		column, ok := model.ColumnForStatus(t.Status)
		if !ok || !usable(t, seen) {
			continue
		}
		out[column] = append(out[column], t.In(column))
	}
	return out
}

// adopt replaces the board, rewriting derived fields and dropping duplicates.
func (m *Manager) adopt(columns map[model.Column][]model.Task) {
	seen := make(map[string]struct{})
	for _, c := range model.Columns() {
		kept := make([]model.Task, 0, len(columns[c]))
		for _, t := range columns[c] {
			if !usable(t, seen) {
				m.logger.WithFields(log.Fields{"task_id": t.ID, "column": c.String()}).Warn("dropping unusable task")
				continue
			}
			kept = append(kept, t.In(c))
			m.ids.Observe(t.ID)
		}
		m.columns[c] = kept
	}
}

func usable(t model.Task, seen map[string]struct{}) bool {
	if t.ID == "" || model.NormalizeTitle(t.Title) == "" {
		return false
	}
	if _, dup := seen[t.ID]; dup {
		return false
	}
	seen[t.ID] = struct{}{}
	return true
}

// readColumn reports ok=false for an absent or malformed entry. A non-nil error
// means the store itself failed.
func (m *Manager) readColumn(ctx context.Context, c model.Column) ([]model.Task, bool, error) {
	raw, err := m.store.Get(ctx, c.StorageKey())
	if err != nil {
		return nil, false, err
	}
	if raw == nil {
		return []model.Task{}, false, nil
	}
	tasks, err := decodeColumn(raw)
	if err != nil {
		m.logger.WithError(err).WithField("key", c.StorageKey()).Warn("malformed stored column, treating as absent")
		return []model.Task{}, false, nil
	}
	return tasks, true, nil
}

// persist writes each distinct column once. Failures are reported to observers
// and joined into the returned error.
func (m *Manager) persist(ctx context.Context, columns ...model.Column) error {
	tracer := otel.Tracer(tracerName)

	var errs []error
	written := make(map[model.Column]bool, len(columns))
	for _, c := range columns {
		if written[c] {
			continue
		}
		written[c] = true

		key := c.StorageKey()
		spanCtx, span := tracer.Start(ctx, "board.persist")
		span.SetAttributes(
			attribute.String("board.key", key),
			attribute.Int("board.tasks", len(m.columns[c])),
		)

		err := m.writeColumn(spanCtx, key, m.columns[c])
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "write failed")
			for _, o := range m.observers {
				o.PersistFailed(key, err)
			}
			errs = append(errs, fmt.Errorf("%w: %s: %w", ErrPersist, key, err))
		}
		span.End()
	}
	return errors.Join(errs...)
}

func (m *Manager) writeColumn(ctx context.Context, key string, tasks []model.Task) error {
	data, err := encodeColumn(tasks)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return m.store.Set(ctx, key, data)
}

func (m *Manager) notifyChanged() {
	if len(m.observers) == 0 {
		return
	}
	snapshot := newSnapshot(m.columns)
	for _, o := range m.observers {
		o.BoardChanged(snapshot)
	}
}

func (m *Manager) findLocked(id string) (model.Column, int, bool) {
	if id == "" {
		return 0, 0, false
	}
	for _, c := range model.Columns() {
		for i, t := range m.columns[c] {
			if t.ID == id {
				return c, i, true
			}
		}
	}
	return 0, 0, false
}

func (m *Manager) containsLocked(id string) bool {
	_, _, ok := m.findLocked(id)
	return ok
}

func (m *Manager) countLocked() int {
	n := 0
	for _, tasks := range m.columns {
		n += len(tasks)
	}
	return n
}

// removeAt returns a new slice without tasks[i]; snapshots never share backing arrays.
func removeAt(tasks []model.Task, i int) []model.Task {
	out := make([]model.Task, 0, len(tasks)-1)
	out = append(out, tasks[:i]...)
	return append(out, tasks[i+1:]...)
}

func insertAt(tasks []model.Task, i int, task model.Task) []model.Task {
	out := make([]model.Task, 0, len(tasks)+1)
	out = append(out, tasks[:i]...)
	out = append(out, task)
	return append(out, tasks[i:]...)
}
