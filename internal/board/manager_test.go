package board_test

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"progressboard/internal/board"
	"progressboard/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestAddTask_AppendsToTodo(t *testing.T) {
	// Arrange
	m, store, obs := newBoard(t, map[model.Column][]model.Task{
		model.ColumnTodo: {task("1", "A", model.StatusTodo)},
	})

	// Act
	snap, err := m.AddTask(context.Background(), "  Write tests ")

	// Assert
	require.NoError(t, err)
	require.Len(t, snap.Todo, 2)
	assert.Equal(t, model.Task{ID: "2", Title: "Write tests", Status: model.StatusTodo}, snap.Todo[1])
	assert.Equal(t, []string{"incomplete"}, store.writes)
	assert.Equal(t, snap.Todo, store.tasks(t, "incomplete"))
	assert.Len(t, obs.snapshots, 1)
}

func TestAddTask_RejectsBlankTitle(t *testing.T) {
	m, store, obs := newBoard(t, map[model.Column][]model.Task{
		model.ColumnTodo: {task("1", "A", model.StatusTodo)},
	})
	before := m.Snapshot()

	for _, title := range []string{"", "   ", "\t\n"} {
		snap, err := m.AddTask(context.Background(), title)
		assert.NoError(t, err)
		assert.Equal(t, before, snap)
	}

	assert.Empty(t, store.writes)
	assert.Empty(t, obs.snapshots)
}

func TestAddTask_DoesNotReuseDeletedIDs(t *testing.T) {
	m, _, _ := newBoard(t, map[model.Column][]model.Task{
		model.ColumnTodo: {task("1", "A", model.StatusTodo), task("2", "B", model.StatusTodo)},
		model.ColumnDone: {task("3", "C", model.StatusDone)},
	})
	ctx := context.Background()

	_, err := m.DeleteTask(ctx, "3")
	require.NoError(t, err)
	_, err = m.DeleteTask(ctx, "1")
	require.NoError(t, err)

	snap, err := m.AddTask(ctx, "D")
	require.NoError(t, err)

	assert.Equal(t, "4", snap.Todo[len(snap.Todo)-1].ID)
}

func TestAddTask_SkipsNonNumericIDsWhenSeeding(t *testing.T) {
	m, _, _ := newBoard(t, map[model.Column][]model.Task{
		model.ColumnTodo:    {task("abc", "A", model.StatusTodo)},
		model.ColumnBacklog: {task("7", "B", model.StatusBacklog)},
	})

	snap, err := m.AddTask(context.Background(), "C")

	require.NoError(t, err)
	assert.Equal(t, "8", snap.Todo[1].ID)
}

func TestAddTask_UUIDStrategy(t *testing.T) {
	store := newMemStore()
	m := board.NewManager(store, nil, board.Options{IDs: board.NewIDGenerator("uuid"), Logger: quietLogger()})

	snap, err := m.AddTask(context.Background(), "A")

	require.NoError(t, err)
	require.Len(t, snap.Todo, 1)
	assert.Len(t, snap.Todo[0].ID, 36)
}

func TestDeleteTask_Idempotent(t *testing.T) {
	m, store, _ := newBoard(t, map[model.Column][]model.Task{
		model.ColumnTodo:     {task("1", "A", model.StatusTodo)},
		model.ColumnInReview: {task("2", "B", model.StatusInReview)},
	})
	ctx := context.Background()

	once, err := m.DeleteTask(ctx, "2")
	require.NoError(t, err)
	twice, err := m.DeleteTask(ctx, "2")
	require.NoError(t, err)

	assert.Equal(t, once, twice)
	assert.Empty(t, twice.InReview)
	assert.Equal(t, []string{"inReview"}, store.writes)
}

func TestDeleteTask_UnknownID(t *testing.T) {
	m, store, _ := newBoard(t, map[model.Column][]model.Task{
		model.ColumnTodo: {task("1", "A", model.StatusTodo)},
	})
	before := m.Snapshot()

	snap, err := m.DeleteTask(context.Background(), "42")

	assert.NoError(t, err)
	assert.Equal(t, before, snap)
	assert.Empty(t, store.writes)
}

func TestEditTask(t *testing.T) {
	m, store, _ := newBoard(t, map[model.Column][]model.Task{
		model.ColumnDone: {task("1", "A", model.StatusDone), task("2", "B", model.StatusDone)},
	})
	ctx := context.Background()

	snap, err := m.EditTask(ctx, "2", " Renamed ")

	require.NoError(t, err)
	assert.Equal(t, "Renamed", snap.Done[1].Title)
	assert.Equal(t, model.StatusDone, snap.Done[1].Status)
	assert.Equal(t, []string{"completed"}, store.writes)
}

func TestEditTask_NoOps(t *testing.T) {
	m, store, _ := newBoard(t, map[model.Column][]model.Task{
		model.ColumnTodo: {task("1", "A", model.StatusTodo)},
	})
	ctx := context.Background()
	before := m.Snapshot()

	tests := []struct {
		name  string
		id    string
		title string
	}{
		{"empty title", "1", ""},
		{"blank title", "1", "   "},
		{"unknown id", "9", "X"},
		{"same title", "1", "A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap, err := m.EditTask(ctx, tt.id, tt.title)
			assert.NoError(t, err)
			assert.Equal(t, before, snap)
		})
	}
	assert.Empty(t, store.writes)
}

func TestMutation_PersistFailureIsReported(t *testing.T) {
	// Arrange
	m, store, obs := newBoard(t, nil)
	store.setErr = errors.New("disk full")

	// Act
	snap, err := m.AddTask(context.Background(), "A")

	// Assert
	require.Error(t, err)
	assert.ErrorIs(t, err, board.ErrPersist)
	assert.Contains(t, err.Error(), "incomplete")
	assert.Len(t, snap.Todo, 1, "in-memory change is kept")
	assert.Equal(t, []string{"incomplete"}, obs.persistKeys)
}

func TestInvariants_RandomAddDelete(t *testing.T) {
	m, _, _ := newBoard(t, nil)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 500; i++ {
		snap := m.Snapshot()
		ids := allIDs(snap)
		switch {
		case len(ids) > 0 && rng.Intn(3) == 0:
			_, _ = m.DeleteTask(ctx, ids[rng.Intn(len(ids))])
		case len(ids) > 1 && rng.Intn(3) == 0:
			from := model.Columns()[rng.Intn(4)]
			if src := snap.Column(from); len(src) > 0 {
				idx := rng.Intn(len(src))
				_, _ = m.Relocate(ctx, board.Move{
					TaskID: src[idx].ID,
					From:   board.Position{Column: from, Index: idx},
					To:     &board.Position{Column: model.Columns()[rng.Intn(4)], Index: rng.Intn(5)},
				})
			}
		default:
			_, _ = m.AddTask(ctx, "task")
		}

		snap = m.Snapshot()
		seen := map[string]bool{}
		for _, c := range model.Columns() {
			for _, tk := range snap.Column(c) {
				require.False(t, seen[tk.ID], "duplicate id %s", tk.ID)
				seen[tk.ID] = true
				require.Equal(t, c.Status(), tk.Status)
				require.Equal(t, c.Completed(), tk.Completed)
			}
		}
	}
}

func TestPersist_RecordsSpan(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})

	m, _, _ := newBoard(t, nil)
	_, err := m.AddTask(context.Background(), "A")
	require.NoError(t, err)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "board.persist", spans[0].Name)
	assert.Contains(t, spans[0].Attributes, attribute.String("board.key", "incomplete"))
}
