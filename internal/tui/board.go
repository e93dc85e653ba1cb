package tui

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"sync"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"
	"github.com/hylla/joinboard/internal/app"
	"github.com/hylla/joinboard/internal/domain"
	"github.com/hylla/joinboard/internal/dragdrop"
)

// Board layout constants, in terminal cells.
const (
	minColumnInner = 22
	maxColumnInner = 40
	columnGap      = 1
	columnHeader   = 2
	cardRows       = 3
	cardBodyRows   = 2
)

// Board holds the rendered task layout and maps terminal cells to logical pixels.
// It is the drag engine's container, hit tester, highlighter, and renderer, and
// is safe for concurrent use because engine timers scroll it off the update loop.
type Board struct {
	mu sync.Mutex

	userID string
	cellW  float64
	cellH  float64

	top    int
	width  int
	height int

	tasks       []domain.Task
	query       string
	columns     []app.BoardColumn
	contacts    map[string]domain.Contact
	elements    map[string]*cardElement
	highlighted map[domain.ZoneID]struct{}

	scrollX float64
	scrollY float64
}

// boardLayout is one snapshot of derived geometry.
type boardLayout struct {
	inner       int
	stride      int
	innerHeight int
	windowRows  int
	scrollCols  int
	scrollRows  int
}

// cardElement is the lift target of one rendered card.
type cardElement struct {
	board  *Board
	taskID string
	lifted bool
}

// SetLifted raises or lowers the card. The engine calls it while holding its own lock.
func (c *cardElement) SetLifted(lifted bool) {
	c.board.mu.Lock()
	defer c.board.mu.Unlock()
	c.lifted = lifted
}

// NewBoard constructs an empty board for userID. Cell sizes convert cells to logical pixels.
func NewBoard(userID string, cellWidthPx, cellHeightPx int) *Board {
	if cellWidthPx <= 0 {
		cellWidthPx = 10
	}
	if cellHeightPx <= 0 {
		cellHeightPx = 20
	}
	b := &Board{
		userID:      userID,
		cellW:       float64(cellWidthPx),
		cellH:       float64(cellHeightPx),
		contacts:    map[string]domain.Contact{},
		elements:    map[string]*cardElement{},
		highlighted: map[domain.ZoneID]struct{}{},
	}
	b.columns = app.GroupBoard(userID, nil).Columns
	return b
}

// SetViewport places the board area at terminal row top with the given size.
func (b *Board) SetViewport(top, width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.top = max(0, top)
	b.width = max(0, width)
	b.height = max(0, height)
	b.clampScrollLocked()
}

// Load replaces tasks and contacts from a freshly fetched board. An active
// search filter stays applied.
func (b *Board) Load(view app.BoardView) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.contacts = map[string]domain.Contact{}
	for id, contact := range view.Contacts {
		b.contacts[id] = contact
	}
	tasks := []domain.Task{}
	for _, col := range view.Columns {
		tasks = append(tasks, col.Tasks...)
	}
	b.tasks = tasks
	b.regroupLocked()
}

// RenderBoard regroups the board after a committed move.
func (b *Board) RenderBoard(tasks []domain.Task) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tasks = slices.Clone(tasks)
	b.regroupLocked()
}

// SetFilter shows only tasks whose title or description contains query and
// returns how many remain. An empty query shows every task.
func (b *Board) SetFilter(query string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.query = query
	b.regroupLocked()
	n := 0
	for _, col := range b.columns {
		n += len(col.Tasks)
	}
	return n
}

func (b *Board) regroupLocked() {
	b.setColumnsLocked(app.GroupBoard(b.userID, app.SearchTasks(b.tasks, b.query)).Columns)
}

// UpdateTask replaces one task in place.
func (b *Board) UpdateTask(task domain.Task) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.tasks {
		if b.tasks[i].ID == task.ID {
			b.tasks[i] = task
		}
	}
	for ci := range b.columns {
		for ti := range b.columns[ci].Tasks {
			if b.columns[ci].Tasks[ti].ID == task.ID {
				b.columns[ci].Tasks[ti] = task
				return
			}
		}
	}
}

func (b *Board) setColumnsLocked(columns []app.BoardColumn) {
	b.columns = columns
	seen := map[string]struct{}{}
	for _, col := range columns {
		for _, task := range col.Tasks {
			seen[task.ID] = struct{}{}
			if _, ok := b.elements[task.ID]; !ok {
				b.elements[task.ID] = &cardElement{board: b, taskID: task.ID}
			}
		}
	}
	for id := range b.elements {
		if _, ok := seen[id]; !ok {
			delete(b.elements, id)
		}
	}
	b.clampScrollLocked()
}

// Task finds one task on the board.
func (b *Board) Task(taskID string) (domain.Task, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, col := range b.columns {
		for _, task := range col.Tasks {
			if task.ID == taskID {
				return task, true
			}
		}
	}
	return domain.Task{}, false
}

// ColumnTasks returns the task ids of col in display order.
func (b *Board) ColumnTasks(col domain.Column) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, c := range b.columns {
		if c.Column != col {
			continue
		}
		out := make([]string, 0, len(c.Tasks))
		for _, task := range c.Tasks {
			out = append(out, task.ID)
		}
		return out
	}
	return nil
}

// ContactNames resolves assigned contact ids, skipping unknown ones.
func (b *Board) ContactNames(task domain.Task) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(task.Assigned))
	for _, id := range task.Assigned {
		if contact, ok := b.contacts[id]; ok {
			out = append(out, contact.Name)
		}
	}
	return out
}

// Lifted reports whether the card for taskID is raised.
func (b *Board) Lifted(taskID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	el, ok := b.elements[taskID]
	return ok && el.lifted
}

// Highlighted reports whether zone is marked as the hover target.
func (b *Board) Highlighted(zone domain.ZoneID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.highlighted[zone]
	return ok
}

// ClearHighlights removes every hover mark.
func (b *Board) ClearHighlights() {
	b.mu.Lock()
	defer b.mu.Unlock()
	clear(b.highlighted)
}

// Highlight marks zone as the hover target.
func (b *Board) Highlight(zone domain.ZoneID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.highlighted[zone] = struct{}{}
}

// Bounds returns the visible board area in logical pixels.
func (b *Board) Bounds() dragdrop.Rect {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cellRect(0, b.top, b.width, b.top+b.height)
}

// ScrollBy moves the board content, clamped to its extent.
func (b *Board) ScrollBy(dx, dy float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.scrollX += dx
	b.scrollY += dy
	b.clampScrollLocked()
}

// ScrollOffset returns the current scroll position in logical pixels.
func (b *Board) ScrollOffset() (float64, float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.scrollX, b.scrollY
}

// PointAt returns the logical-pixel center of terminal cell (x, y).
func (b *Board) PointAt(x, y int) dragdrop.Point {
	return dragdrop.Point{
		X: (float64(x) + 0.5) * b.cellW,
		Y: (float64(y) + 0.5) * b.cellH,
	}
}

// ZoneAt returns the column drop zone under p.
func (b *Board) ZoneAt(p dragdrop.Point) (domain.ZoneID, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.cellRect(0, b.top, b.width, b.top+b.height).Contains(p) {
		return "", false
	}
	l := b.layoutLocked()
	for idx, col := range b.columns {
		left := idx*l.stride - l.scrollCols
		if b.cellRect(left, b.top, left+l.inner+2, b.top+b.height).Contains(p) {
			return col.Column.ZoneID(), true
		}
	}
	return "", false
}

// Cards lists every fully visible card with its bounds in logical pixels.
func (b *Board) Cards() []dragdrop.Card {
	b.mu.Lock()
	defer b.mu.Unlock()
	l := b.layoutLocked()
	windowTop := b.top + 1 + columnHeader
	windowBottom := b.top + 1 + l.innerHeight
	out := []dragdrop.Card{}
	for ci, col := range b.columns {
		left := ci*l.stride - l.scrollCols + 1
		right := left + l.inner
		if right <= 0 || left >= b.width {
			continue
		}
		for ti, task := range col.Tasks {
			rowTop := windowTop + ti*cardRows - l.scrollRows
			if rowTop < windowTop || rowTop+cardBodyRows > windowBottom {
				continue
			}
			out = append(out, dragdrop.Card{
				TaskID:  task.ID,
				Element: b.elements[task.ID],
				Bounds:  b.cellRect(max(0, left), rowTop, min(b.width, right), rowTop+cardBodyRows),
			})
		}
	}
	return out
}

// CardAt returns the visible card under p.
func (b *Board) CardAt(p dragdrop.Point) (dragdrop.Card, bool) {
	for _, card := range b.Cards() {
		if card.Bounds.Contains(p) {
			return card, true
		}
	}
	return dragdrop.Card{}, false
}

func (b *Board) cellRect(x0, y0, x1, y1 int) dragdrop.Rect {
	return dragdrop.Rect{
		Left:   float64(x0) * b.cellW,
		Top:    float64(y0) * b.cellH,
		Right:  float64(x1) * b.cellW,
		Bottom: float64(y1) * b.cellH,
	}
}

func (b *Board) layoutLocked() boardLayout {
	cols := max(1, len(b.columns))
	inner := (b.width - cols*(2+columnGap)) / cols
	inner = clamp(inner, minColumnInner, maxColumnInner)
	innerHeight := max(columnHeader+cardBodyRows, b.height-2)
	return boardLayout{
		inner:       inner,
		stride:      inner + 2 + columnGap,
		innerHeight: innerHeight,
		windowRows:  innerHeight - columnHeader,
		scrollCols:  int(math.Floor(b.scrollX / b.cellW)),
		scrollRows:  int(math.Floor(b.scrollY / b.cellH)),
	}
}

func (b *Board) clampScrollLocked() {
	l := b.layoutLocked()
	contentWidth := len(b.columns)*l.stride - columnGap
	maxX := float64(max(0, contentWidth-b.width)) * b.cellW
	tallest := 0
	for _, col := range b.columns {
		tallest = max(tallest, len(col.Tasks)*cardRows)
	}
	maxY := float64(max(0, tallest-l.windowRows)) * b.cellH
	b.scrollX = math.Max(0, math.Min(b.scrollX, maxX))
	b.scrollY = math.Max(0, math.Min(b.scrollY, maxY))
}

// View renders the visible board area.
func (b *Board) View() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.width <= 0 || b.height <= 0 {
		return ""
	}
	l := b.layoutLocked()

	dim := lipgloss.Color("239")
	accent := lipgloss.Color("62")
	muted := lipgloss.Color("241")
	baseColStyle := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(dim)
	hoverColStyle := baseColStyle.BorderForeground(accent)
	colTitle := lipgloss.NewStyle().Bold(true).Foreground(accent)
	cardTitle := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	liftedTitle := lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	metaStyle := lipgloss.NewStyle().Foreground(muted)
	emptyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	block := lipgloss.NewStyle().Width(l.inner).MaxWidth(l.inner)

	parts := make([]string, 0, len(b.columns)*2)
	for idx, col := range b.columns {
		header := truncate(fmt.Sprintf("%s (%d)", col.Title, len(col.Tasks)), l.inner)
		cards := make([]string, 0, len(col.Tasks)*cardRows)
		if len(col.Tasks) == 0 {
			cards = append(cards, emptyStyle.Render("No tasks"))
		}
		for _, task := range col.Tasks {
			titleStyle, prefix := cardTitle, "  "
			if el := b.elements[task.ID]; el != nil && el.lifted {
				titleStyle, prefix = liftedTitle, "» "
			}
			cards = append(cards,
				titleStyle.Render(prefix+truncate(task.Title, l.inner-2)),
				metaStyle.Render("  "+truncate(b.cardMetaLocked(task), l.inner-2)),
				"",
			)
		}
		if l.scrollRows < len(cards) {
			cards = cards[l.scrollRows:]
		} else {
			cards = nil
		}
		lines := append([]string{colTitle.Render(header), ""}, cards...)
		content := block.Render(strings.Join(clipLines(lines, l.innerHeight), "\n"))

		style := baseColStyle
		if _, ok := b.highlighted[col.Column.ZoneID()]; ok {
			style = hoverColStyle
		}
		if idx > 0 {
			parts = append(parts, strings.Repeat(" ", columnGap))
		}
		parts = append(parts, style.Render(content))
	}

	rows := strings.Split(lipgloss.JoinHorizontal(lipgloss.Top, parts...), "\n")
	for i, row := range rows {
		rows[i] = ansi.Cut(row, l.scrollCols, l.scrollCols+b.width)
	}
	return strings.Join(clipLines(rows, b.height), "\n")
}

// cardMetaLocked summarizes category, priority, subtasks, and assignees.
func (b *Board) cardMetaLocked(task domain.Task) string {
	parts := []string{}
	if task.Category != "" {
		parts = append(parts, task.Category)
	}
	if task.Priority != "" {
		parts = append(parts, string(task.Priority))
	}
	if done, total := task.SubtaskProgress(); total > 0 {
		parts = append(parts, fmt.Sprintf("%d/%d", done, total))
	}
	initials := []string{}
	for _, id := range task.Assigned {
		if contact, ok := b.contacts[id]; ok {
			initials = append(initials, contact.Initials())
		}
	}
	if len(initials) > 0 {
		parts = append(parts, strings.Join(initials, " "))
	}
	return strings.Join(parts, " · ")
}

// clipLines pads or cuts lines to exactly n entries.
func clipLines(lines []string, n int) []string {
	if n <= 0 {
		return nil
	}
	if len(lines) >= n {
		return lines[:n]
	}
	return append(lines, make([]string, n-len(lines))...)
}
