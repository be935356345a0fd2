package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"progressboard/internal/board"
	"progressboard/internal/dragdrop"
	"progressboard/internal/model"
)

// BoardService is the board surface the handlers drive.
type BoardService interface {
	Snapshot() board.Snapshot
	AddTask(ctx context.Context, title string) (board.Snapshot, error)
	EditTask(ctx context.Context, id, title string) (board.Snapshot, error)
	DeleteTask(ctx context.Context, id string) (board.Snapshot, error)
	Relocate(ctx context.Context, mv board.Move) (board.Snapshot, error)
}

// Subscriber hands out live snapshot feeds.
type Subscriber interface {
	Subscribe() (<-chan board.Snapshot, func())
}

type BoardHandler struct {
	board  BoardService
	drags  *dragdrop.Adapter
	events Subscriber
	logger log.FieldLogger
}

func NewBoardHandler(svc BoardService, events Subscriber, logger log.FieldLogger) *BoardHandler {
	return &BoardHandler{
		board:  svc,
		drags:  dragdrop.NewAdapter(svc),
		events: events,
		logger: logger,
	}
}

// TaskRequest carries a title for create and edit. Blank titles are accepted
// on the wire and ignored by the board.
type TaskRequest struct {
	Title string `json:"title"`
}

// BoardResponse is the full board after an operation.
type BoardResponse struct {
	Todo         []model.Task `json:"todo"`
	Done         []model.Task `json:"done"`
	InReview     []model.Task `json:"inReview"`
	Backlog      []model.Task `json:"backlog"`
	PersistError string       `json:"persist_error,omitempty"`
}

func newBoardResponse(s board.Snapshot, err error) BoardResponse {
	resp := BoardResponse{
		Todo:     nonNil(s.Todo),
		Done:     nonNil(s.Done),
		InReview: nonNil(s.InReview),
		Backlog:  nonNil(s.Backlog),
	}
	if err != nil {
		resp.PersistError = err.Error()
	}
	return resp
}

func nonNil(tasks []model.Task) []model.Task {
	if tasks == nil {
		return []model.Task{}
	}
	return tasks
}

// GetBoard возвращает текущее состояние доски
func (h *BoardHandler) GetBoard(c *gin.Context) {
	c.JSON(http.StatusOK, newBoardResponse(h.board.Snapshot(), nil))
}

// CreateTask добавляет задачу в колонку TO DO
func (h *BoardHandler) CreateTask(c *gin.Context) {
	var req TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	snapshot, err := h.board.AddTask(c.Request.Context(), req.Title)
	h.respond(c, snapshot, err)
}

// UpdateTask меняет заголовок задачи
func (h *BoardHandler) UpdateTask(c *gin.Context) {
	var req TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	snapshot, err := h.board.EditTask(c.Request.Context(), c.Param("id"), req.Title)
	h.respond(c, snapshot, err)
}

// DeleteTask удаляет задачу из любой колонки
func (h *BoardHandler) DeleteTask(c *gin.Context) {
	snapshot, err := h.board.DeleteTask(c.Request.Context(), c.Param("id"))
	h.respond(c, snapshot, err)
}

// DragEnd применяет результат перетаскивания
func (h *BoardHandler) DragEnd(c *gin.Context) {
	var req dragdrop.DropResult
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	snapshot, err := h.drags.DragEnd(c.Request.Context(), req)
	h.respond(c, snapshot, err)
}

// Events streams a snapshot on connect and after every change.
func (h *BoardHandler) Events(c *gin.Context) {
	feed, cancel := h.events.Subscribe()
	defer cancel()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent("board", newBoardResponse(h.board.Snapshot(), nil))
	c.Writer.Flush()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case snapshot, ok := <-feed:
			if !ok {
				return false
			}
			c.SSEvent("board", newBoardResponse(snapshot, nil))
			return true
		}
	})
}

// respond always returns the board; a persistence failure is reported alongside it.
func (h *BoardHandler) respond(c *gin.Context, snapshot board.Snapshot, err error) {
	if err != nil {
		h.logger.WithError(err).WithField("route", c.FullPath()).Warn("⚠️  board change not persisted")
		_ = c.Error(err)
	}
	c.JSON(http.StatusOK, newBoardResponse(snapshot, err))
}
