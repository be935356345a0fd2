// Package dragdrop translates drag-completion events from the front end's
// drag-and-drop library into board moves.
package dragdrop

import (
	"context"

	"progressboard/internal/board"
	"progressboard/internal/model"
)

// Location is a droppable container and an index within it.
type Location struct {
	DroppableID string `json:"droppableId"`
	Index       int    `json:"index"`
}

// DropResult mirrors the payload the drag library hands to its onDragEnd callback.
// Destination is nil when the drag was cancelled or released outside any column.
type DropResult struct {
	DraggableID string    `json:"draggableId"`
	Source      Location  `json:"source"`
	Destination *Location `json:"destination"`
	Reason      string    `json:"reason,omitempty"`
}

// Relocator is the part of the board the adapter drives.
type Relocator interface {
	Relocate(ctx context.Context, mv board.Move) (board.Snapshot, error)
}

type Adapter struct {
	board Relocator
}

func NewAdapter(r Relocator) *Adapter {
	return &Adapter{board: r}
}

// DragEnd forwards the drop to the board unchanged.
func (a *Adapter) DragEnd(ctx context.Context, result DropResult) (board.Snapshot, error) {
	return a.board.Relocate(ctx, ToMove(result))
}

// ToMove converts a drop into a board move. Unknown droppable ids resolve to an
// invalid column, which the board ignores; an unknown destination counts as a cancel.
func ToMove(result DropResult) board.Move {
	source, _ := model.ColumnForDroppable(result.Source.DroppableID)
	mv := board.Move{
		TaskID: result.DraggableID,
		From:   board.Position{Column: source, Index: result.Source.Index},
	}
	if result.Destination == nil {
		return mv
	}
	if dest, ok := model.ColumnForDroppable(result.Destination.DroppableID); ok {
		mv.To = &board.Position{Column: dest, Index: result.Destination.Index}
	}
	return mv
}
