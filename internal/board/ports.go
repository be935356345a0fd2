package board

import (
	"context"

	log "github.com/sirupsen/logrus"

	"progressboard/internal/model"
)

// Store is the durable key-value port. Get returns (nil, nil) when the key is absent.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Source is the read-only remote task list used to hydrate an empty board.
type Source interface {
	FetchTasks(ctx context.Context) ([]model.Task, error)
}

// Observer receives board snapshots and diagnostics. Implementations must not block
// and must not call back into the Manager.
type Observer interface {
	BoardChanged(snapshot Snapshot)
	PersistFailed(key string, err error)
	HydrationFailed(err error)
}

// LogObserver reports failures through logrus.
type LogObserver struct {
	Logger log.FieldLogger
}

func (o LogObserver) BoardChanged(snapshot Snapshot) {
	o.Logger.WithField("tasks", snapshot.Len()).Debug("board changed")
}

func (o LogObserver) PersistFailed(key string, err error) {
	o.Logger.WithError(err).WithField("key", key).Warn("⚠️  board write failed")
}

func (o LogObserver) HydrationFailed(err error) {
	o.Logger.WithError(err).Error("❌ remote hydration failed, board left as restored")
}
