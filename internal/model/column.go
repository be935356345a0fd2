package model

// Column identifies one of the four fixed board columns.
type Column int

const (
	ColumnTodo Column = iota + 1
	ColumnDone
	ColumnInReview
	ColumnBacklog
)

type columnSpec struct {
	status      Status
	completed   bool
	storageKey  string
	droppableID string
	title       string
	appendOnly  bool
}

// columns is the only place a column's status, storage key and drag id are defined.
var columns = map[Column]columnSpec{
	ColumnTodo:     {status: StatusTodo, completed: false, storageKey: "incomplete", droppableID: "1", title: "TO DO"},
	ColumnDone:     {status: StatusDone, completed: true, storageKey: "completed", droppableID: "2", title: "DONE"},
	ColumnInReview: {status: StatusInReview, completed: false, storageKey: "inReview", droppableID: "3", title: "IN REVIEW"},
	ColumnBacklog:  {status: StatusBacklog, completed: false, storageKey: "backlog", droppableID: "4", title: "BACKLOG", appendOnly: true},
}

// Columns returns every column in display order.
func Columns() []Column {
	return []Column{ColumnTodo, ColumnDone, ColumnInReview, ColumnBacklog}
}

func (c Column) Valid() bool {
	_, ok := columns[c]
	return ok
}

func (c Column) Status() Status      { return columns[c].status }
func (c Column) Completed() bool     { return columns[c].completed }
func (c Column) StorageKey() string  { return columns[c].storageKey }
func (c Column) DroppableID() string { return columns[c].droppableID }
func (c Column) Title() string       { return columns[c].title }

// AppendOnly reports whether drops into the column ignore the requested index.
func (c Column) AppendOnly() bool { return columns[c].appendOnly }

func (c Column) String() string {
	if !c.Valid() {
		return "unknown"
	}
	return string(c.Status())
}

// ColumnForStatus maps a status to the column that holds tasks in that state.
func ColumnForStatus(s Status) (Column, bool) {
	for _, c := range Columns() {
		if columns[c].status == s {
			return c, true
		}
	}
	return 0, false
}

// ColumnForDroppable resolves a drag-and-drop container id ("1".."4").
func ColumnForDroppable(id string) (Column, bool) {
	for _, c := range Columns() {
		if columns[c].droppableID == id {
			return c, true
		}
	}
	return 0, false
}
