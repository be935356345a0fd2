// Package remote reads the read-only task list used to seed an empty board.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"progressboard/internal/model"
)

const tracerName = "progressboard/internal/remote"

// maxPayload caps how much of the response body is read.
const maxPayload = 8 << 20

var (
	// ErrUnavailable covers transport failures and non-2xx responses.
	ErrUnavailable = errors.New("remote task source unavailable")

	// ErrInvalidPayload means the body was not a JSON array of objects.
	ErrInvalidPayload = errors.New("remote task source returned an invalid payload")
)

// taskListSchema checks only the payload shape. Individual fields are read
// leniently so one odd record never costs the rest of the list.
const taskListSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {"type": "object"}
}`

var (
	schema = jsonschema.MustCompileString("task-list.json", taskListSchema)

	// numbers stay json.Number so large integer ids keep every digit
	payloadAPI = sonic.Config{UseNumber: true}.Froze()
)

// Source fetches the flat task list with a single GET.
type Source struct {
	url    string
	client *http.Client
}

// NewSource builds a Source. A zero timeout means the request is bounded only by ctx.
func NewSource(url string, timeout time.Duration) *Source {
	return &Source{url: url, client: &http.Client{Timeout: timeout}}
}

// FetchTasks returns the records exactly as served; partitioning and filtering
// by status belong to the board.
func (s *Source) FetchTasks(ctx context.Context) ([]model.Task, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "remote.fetch_tasks")
	defer span.End()
	span.SetAttributes(attribute.String("http.url", s.url))

	tasks, err := s.fetch(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return nil, err
	}
	span.SetAttributes(attribute.Int("tasks.count", len(tasks)))
	return tasks, nil
}

func (s *Source) fetch(ctx context.Context) ([]model.Task, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayload))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrUnavailable, err)
	}
	return Decode(body)
}

// Decode validates body against the task list schema and converts each record.
// Fields of the wrong type decode to their zero value; the board later drops
// records left without an id, a title or a known status.
func Decode(body []byte) ([]model.Task, error) {
	var doc interface{}
	if err := payloadAPI.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPayload, describe(err))
	}

	items, _ := doc.([]interface{})
	tasks := make([]model.Task, 0, len(items))
	for _, item := range items {
		record, _ := item.(map[string]interface{})
		tasks = append(tasks, toTask(record))
	}
	return tasks, nil
}

func toTask(record map[string]interface{}) model.Task {
	t := model.Task{ID: recordID(record["id"])}
	t.Title, _ = record["title"].(string)
	if status, ok := record["status"].(string); ok {
		t.Status = model.Status(status)
	}
	t.Completed, _ = record["completed"].(bool)
	return t
}

// recordID accepts string ids and integral numeric ids. Anything else is empty.
func recordID(v interface{}) string {
	switch id := v.(type) {
	case string:
		return id
	case json.Number:
		if strings.ContainsAny(id.String(), ".eE") {
			return ""
		}
		return id.String()
	case float64:
		if id != math.Trunc(id) {
			return ""
		}
		return strconv.FormatFloat(id, 'f', -1, 64)
	}
	return ""
}

// describe flattens a schema validation error into its leaf causes.
func describe(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}

	var msgs []string
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			msgs = append(msgs, fmt.Sprintf("%s: %s", pointerOrRoot(e.InstanceLocation), e.Message))
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(ve)
	return strings.Join(msgs, "; ")
}

func pointerOrRoot(p string) string {
	if p == "" {
		return "/"
	}
	return p
}
