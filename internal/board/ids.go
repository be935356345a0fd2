package board

import (
	"math"
	"strconv"

	"github.com/google/uuid"
)

// IDGenerator hands out task ids that never collide with a task currently on the board.
type IDGenerator interface {
	// Observe records an id already in use.
	Observe(id string)
	// Next returns a fresh id; taken reports ids currently on the board.
	Next(taken func(id string) bool) string
}

// SequenceIDs issues dense integer ids from a high-water mark that only grows,
// so deleting the newest task never frees its id for reuse.
type SequenceIDs struct {
	high uint64
}

func (s *SequenceIDs) Observe(id string) {
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return
	}
	if n > s.high {
		s.high = n
	}
}

// Next hands out high+1. Once the counter reaches the top of its range it issues
// UUIDs rather than wrapping around.
func (s *SequenceIDs) Next(taken func(id string) bool) string {
	for {
		if s.high == math.MaxUint64 {
			return UUIDs{}.Next(taken)
		}
		s.high++
		id := strconv.FormatUint(s.high, 10)
		if taken == nil || !taken(id) {
			return id
		}
	}
}

// UUIDs issues random opaque ids.
type UUIDs struct{}

func (UUIDs) Observe(string) {}

func (UUIDs) Next(taken func(id string) bool) string {
	for {
		id := uuid.NewString()
		if taken == nil || !taken(id) {
			return id
		}
	}
}

// NewIDGenerator picks a generator by strategy name; anything but "uuid" is a sequence.
func NewIDGenerator(strategy string) IDGenerator {
	if strategy == "uuid" {
		return UUIDs{}
	}
	return &SequenceIDs{}
}
