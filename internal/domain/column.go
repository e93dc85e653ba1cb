package domain

import (
	"fmt"
	"strings"
)

// Column identifies one of the four fixed board columns.
type Column string

// ColumnToDo and related constants define the board columns in display order.
const (
	ColumnToDo          Column = "toDo"
	ColumnInProgress    Column = "inProgress"
	ColumnAwaitFeedback Column = "awaitFeedback"
	ColumnDone          Column = "done"
)

// ZoneID identifies a drop-zone container on the rendered board.
type ZoneID string

// ZoneToDo and related constants name the drop-zone container of each column.
const (
	ZoneToDo          ZoneID = "categoryToDo"
	ZoneInProgress    ZoneID = "categoryInProgress"
	ZoneAwaitFeedback ZoneID = "categoryAwaitFeedback"
	ZoneDone          ZoneID = "categoryDone"
)

var boardColumns = []Column{ColumnToDo, ColumnInProgress, ColumnAwaitFeedback, ColumnDone}

var columnZones = map[Column]ZoneID{
	ColumnToDo:          ZoneToDo,
	ColumnInProgress:    ZoneInProgress,
	ColumnAwaitFeedback: ZoneAwaitFeedback,
	ColumnDone:          ZoneDone,
}

var columnTitles = map[Column]string{
	ColumnToDo:          "To do",
	ColumnInProgress:    "In progress",
	ColumnAwaitFeedback: "Await feedback",
	ColumnDone:          "Done",
}

// Columns returns the board columns in display order.
func Columns() []Column {
	return append([]Column(nil), boardColumns...)
}

// ParseColumn validates a raw column value.
func ParseColumn(raw string) (Column, error) {
	col := Column(strings.TrimSpace(raw))
	if !col.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidColumn, raw)
	}
	return col, nil
}

// Valid reports whether c is one of the board columns.
func (c Column) Valid() bool {
	_, ok := columnZones[c]
	return ok
}

// Index returns the display position of c, or -1.
func (c Column) Index() int {
	for idx, col := range boardColumns {
		if col == c {
			return idx
		}
	}
	return -1
}

// ZoneID returns the drop-zone container identity for c.
func (c Column) ZoneID() ZoneID {
	return columnZones[c]
}

// Title returns the human label for c.
func (c Column) Title() string {
	if title, ok := columnTitles[c]; ok {
		return title
	}
	return string(c)
}

// ColumnForZone maps a drop-zone identity back to its column.
func ColumnForZone(zone ZoneID) (Column, bool) {
	for col, z := range columnZones {
		if z == zone {
			return col, true
		}
	}
	return "", false
}
