package tui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/hylla/joinboard/internal/app"
	"github.com/hylla/joinboard/internal/domain"
	"github.com/hylla/joinboard/internal/dragdrop"
)

// Service is the board data surface the model reads and writes through.
type Service interface {
	dragdrop.TaskStore
	Board(context.Context, string) (app.BoardView, error)
	ToggleSubtask(context.Context, string, string, int) (domain.Task, error)
	CreateTask(context.Context, string, domain.TaskInput) (domain.Task, error)
	DeleteTask(context.Context, string, string) error
}

const (
	// boardTop is the first terminal row of the board: header plus one spacer.
	boardTop = 2
	// footerRows covers the status line and the bordered help line.
	footerRows = 3

	loadTimeout   = 10 * time.Second
	commitTimeout = 10 * time.Second
)

// Model is the bubbletea board program. Board, engine, and renderer state live
// behind pointers so value copies made by Update share them.
type Model struct {
	svc      Service
	settings settings

	board    *Board
	engine   *dragdrop.Engine
	taps     *tapInbox
	markdown *markdownRenderer

	ready  bool
	width  int
	height int
	err    error
	status string

	help help.Model
	keys keyMap

	ticking    bool
	press      pointerPress
	detailID   string
	awaitDigit bool

	prompt    promptKind
	input     textinput.Model
	query     string
	addColumn domain.Column
}

// pointerPress remembers a pointer-mode press until motion turns it into a drag.
type pointerPress struct {
	active   bool
	dragging bool
	taskID   string
	target   dragdrop.Element
	point    dragdrop.Point
}

// tapInbox receives taps reported by the engine during EndTouch.
type tapInbox struct {
	mu     sync.Mutex
	taskID string
}

func (t *tapInbox) record(taskID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.taskID = taskID
}

func (t *tapInbox) take() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.taskID
	t.taskID = ""
	return id
}

// boardLoadedMsg carries one fetched board.
type boardLoadedMsg struct {
	view app.BoardView
	err  error
}

// movedMsg reports one committed drop.
type movedMsg struct {
	move dragdrop.Move
	err  error
}

// subtaskToggledMsg carries the task after a subtask flip.
type subtaskToggledMsg struct {
	task domain.Task
	err  error
}

// frameMsg repaints while a gesture or auto-scroll is running.
type frameMsg struct{}

// NewModel constructs the board model and its drag engine.
func NewModel(svc Service, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false
	m := Model{
		svc:      svc,
		settings: defaultSettings(),
		taps:     &tapInbox{},
		markdown: &markdownRenderer{},
		status:   "loading...",
		help:     h,
		keys:     newKeyMap(),
		input:    newPromptInput(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}

	m.board = NewBoard(m.settings.userID, m.settings.cellWidthPx, m.settings.cellHeightPx)
	cfg := dragdrop.Config{
		Container:    m.board,
		Zones:        m.board,
		Highlights:   m.board,
		Renderer:     m.board,
		UserID:       m.settings.userID,
		Cards:        m.board.Cards,
		TouchEnabled: m.settings.touchEnabled,
		TapHandler:   m.taps.record,
		Tuning:       m.settings.tuning,
		Scheduler:    m.settings.scheduler,
		Logger:       m.settings.logger,
	}
	if svc != nil {
		cfg.Store = svc
	}
	engine, err := dragdrop.New(cfg)
	if err != nil {
		m.err = fmt.Errorf("configure drag engine: %w", err)
		return m
	}
	m.engine = engine
	return m
}

// Init loads the board.
func (m Model) Init() tea.Cmd {
	if m.engine == nil {
		return nil
	}
	return m.loadData
}

// Close stops engine timers. Call it after the program exits.
func (m Model) Close() {
	if m.engine != nil {
		m.engine.Close()
	}
}

// Update applies one message.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		m.board.SetViewport(boardTop, m.width, m.boardHeight())
		if m.engine != nil {
			m.engine.OnResize()
		}
		return m, nil

	case boardLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.board.Load(msg.view)
		m.engine.BindCards()
		if m.detailID != "" {
			if _, ok := m.board.Task(m.detailID); !ok {
				m.detailID = ""
			}
		}
		m.status = "ready"
		return m, nil

	case movedMsg:
		if msg.err != nil {
			m.status = "move failed: " + msg.err.Error()
			return m, nil
		}
		m.engine.BindCards()
		title := msg.move.TaskID
		if task, ok := m.board.Task(msg.move.TaskID); ok {
			title = task.Title
		}
		m.status = fmt.Sprintf("moved %s to %s", title, msg.move.Column.Title())
		return m, nil

	case subtaskToggledMsg:
		if msg.err != nil {
			m.status = "toggle failed: " + msg.err.Error()
			return m, nil
		}
		m.board.UpdateTask(msg.task)
		done, total := msg.task.SubtaskProgress()
		m.status = fmt.Sprintf("subtasks %d/%d", done, total)
		return m, nil

	case taskChangedMsg:
		if msg.err != nil {
			m.status = msg.verb + " failed: " + msg.err.Error()
			return m, nil
		}
		m.board.Load(msg.view)
		m.engine.BindCards()
		if msg.verb == "delete" && m.detailID == msg.taskID {
			m.detailID = ""
		}
		m.status = msg.status
		return m, nil

	case frameMsg:
		if m.engine != nil && m.engine.Active() {
			return m, m.frameTick()
		}
		m.ticking = false
		return m, nil

	case tea.KeyPressMsg:
		return m.handleKey(msg)

	case tea.MouseClickMsg:
		return m.handleMouseClick(msg)

	case tea.MouseMotionMsg:
		return m.handleMouseMotion(msg)

	case tea.MouseReleaseMsg:
		return m.handleMouseRelease(msg)

	default:
		return m, nil
	}
}

// loadData fetches the board for the configured user.
func (m Model) loadData() tea.Msg {
	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()
	view, err := m.svc.Board(ctx, m.settings.userID)
	return boardLoadedMsg{view: view, err: err}
}

// commitMove persists a resolved drop off the update loop.
func (m Model) commitMove(mv dragdrop.Move) tea.Cmd {
	engine := m.engine
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commitTimeout)
		defer cancel()
		return movedMsg{move: mv, err: engine.Commit(ctx, mv)}
	}
}

// toggleSubtask flips one subtask of taskID.
func (m Model) toggleSubtask(taskID string, index int) tea.Cmd {
	svc, userID := m.svc, m.settings.userID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commitTimeout)
		defer cancel()
		task, err := svc.ToggleSubtask(ctx, userID, taskID, index)
		return subtaskToggledMsg{task: task, err: err}
	}
}

// frameTick schedules the next repaint.
func (m Model) frameTick() tea.Cmd {
	return tea.Tick(m.settings.tuning.ScrollInterval, func(time.Time) tea.Msg {
		return frameMsg{}
	})
}

// startTicking begins the repaint loop when the engine has work in flight.
func (m *Model) startTicking() tea.Cmd {
	if m.ticking || m.engine == nil || !m.engine.Active() {
		return nil
	}
	m.ticking = true
	return m.frameTick()
}

// handleKey handles keyboard input.
func (m Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if m.prompt != promptNone {
		return m.handlePromptKey(msg)
	}
	if key.Matches(msg, m.keys.quit) {
		m.Close()
		return m, tea.Quit
	}
	if m.awaitDigit {
		m.awaitDigit = false
		if idx, ok := subtaskIndex(msg.String()); ok && m.detailID != "" {
			m.status = "toggling..."
			return m, m.toggleSubtask(m.detailID, idx)
		}
		m.status = "toggle cancelled"
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.reload):
		if m.engine == nil {
			return m, nil
		}
		m.status = "loading..."
		return m, m.loadData
	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.closeDetail):
		switch {
		case m.help.ShowAll:
			m.help.ShowAll = false
		case m.detailID != "":
			m.detailID = ""
		case m.query != "":
			m.applySearch("")
		}
	case key.Matches(msg, m.keys.search):
		if m.engine != nil && m.detailID == "" && !m.help.ShowAll {
			cmd := m.startSearch()
			return m, cmd
		}
	case key.Matches(msg, m.keys.addTask):
		if m.engine != nil && m.detailID == "" && !m.help.ShowAll {
			cmd := m.startAddTask()
			return m, cmd
		}
	case key.Matches(msg, m.keys.deleteTask):
		if m.detailID != "" {
			m.status = "deleting..."
			return m, m.deleteTask(m.detailID)
		}
	case key.Matches(msg, m.keys.toggleSubtask):
		if m.detailID != "" {
			m.awaitDigit = true
			m.status = "subtask number?"
		}
	case key.Matches(msg, m.keys.scrollLeft):
		m.scrollBy(-float64(m.settings.cellWidthPx), 0)
	case key.Matches(msg, m.keys.scrollRight):
		m.scrollBy(float64(m.settings.cellWidthPx), 0)
	case key.Matches(msg, m.keys.scrollUp):
		m.scrollBy(0, -float64(m.settings.cellHeightPx))
	case key.Matches(msg, m.keys.scrollDown):
		m.scrollBy(0, float64(m.settings.cellHeightPx))
	}
	return m, nil
}

// scrollBy moves the board and rebinds the cards now in view.
func (m Model) scrollBy(dx, dy float64) {
	m.board.ScrollBy(dx, dy)
	if m.engine != nil {
		m.engine.BindCards()
	}
}

// subtaskIndex maps the digit keys 1..9 to zero-based subtask positions.
func subtaskIndex(s string) (int, bool) {
	if len(s) != 1 || s[0] < '1' || s[0] > '9' {
		return 0, false
	}
	return int(s[0] - '1'), true
}

// handleMouseClick starts a gesture on the card under the press.
func (m Model) handleMouseClick(msg tea.MouseClickMsg) (tea.Model, tea.Cmd) {
	if msg.Button != tea.MouseLeft || m.engine == nil || m.help.ShowAll || m.detailID != "" || m.prompt != promptNone {
		return m, nil
	}
	p := m.board.PointAt(msg.X, msg.Y)
	card, ok := m.board.CardAt(p)
	if !ok {
		return m, nil
	}
	if m.settings.inputMode == InputPointer {
		m.press = pointerPress{active: true, taskID: card.TaskID, target: card.Element, point: p}
		return m, nil
	}
	m.engine.OnTouchStart(&dragdrop.Event{Point: p, Target: card.Element}, card.TaskID)
	return m, m.startTicking()
}

// handleMouseMotion forwards drag motion to the engine.
func (m Model) handleMouseMotion(msg tea.MouseMotionMsg) (tea.Model, tea.Cmd) {
	if m.engine == nil {
		return m, nil
	}
	ev := &dragdrop.Event{Point: m.board.PointAt(msg.X, msg.Y)}
	if m.settings.inputMode == InputPointer {
		if !m.press.active {
			return m, nil
		}
		if !m.press.dragging {
			m.press.dragging = true
			m.engine.OnDragStart(&dragdrop.Event{Point: m.press.point, Target: m.press.target}, m.press.taskID)
		}
		m.engine.OnDragOver(ev)
		return m, m.startTicking()
	}
	if m.engine.ActiveTouchDrag() {
		m.engine.OnDocumentTouchMove(ev)
	} else {
		m.engine.OnTouchMove(ev)
	}
	return m, m.startTicking()
}

// handleMouseRelease ends the gesture and commits a resolved drop.
func (m Model) handleMouseRelease(msg tea.MouseReleaseMsg) (tea.Model, tea.Cmd) {
	if m.engine == nil {
		return m, nil
	}
	ev := &dragdrop.Event{Point: m.board.PointAt(msg.X, msg.Y)}
	var (
		mv dragdrop.Move
		ok bool
	)
	if m.settings.inputMode == InputPointer {
		press := m.press
		m.press = pointerPress{}
		if !press.active {
			return m, nil
		}
		if !press.dragging {
			m.openDetail(press.taskID)
			return m, nil
		}
		ev.Target = press.target
		mv, ok = m.engine.EndDrag(ev)
	} else {
		mv, ok = m.engine.EndTouch(ev)
		if tapped := m.taps.take(); tapped != "" {
			m.openDetail(tapped)
		}
	}
	// Auto-scroll may have revealed cards during the gesture.
	m.engine.BindCards()
	if !ok {
		return m, nil
	}
	m.status = "moving..."
	return m, m.commitMove(mv)
}

// openDetail shows the task detail overlay.
func (m *Model) openDetail(taskID string) {
	if _, ok := m.board.Task(taskID); !ok {
		return
	}
	m.detailID = taskID
	m.awaitDigit = false
}

// boardHeight returns the rows available to the board area.
func (m Model) boardHeight() int {
	return max(cardBodyRows+columnHeader+2, m.height-boardTop-footerRows)
}

// View renders the board, footer, and any overlay.
func (m Model) View() tea.View {
	v := tea.NewView(m.render())
	v.MouseMode = tea.MouseModeCellMotion
	v.AltScreen = true
	return v
}

// render builds the full screen content.
func (m Model) render() string {
	if m.err != nil {
		return "error: " + m.err.Error() + "\n\npress r to retry • q quit\n"
	}
	if !m.ready {
		return "loading..."
	}

	accent := lipgloss.Color("62")
	muted := lipgloss.Color("241")
	dim := lipgloss.Color("239")
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	statusStyle := lipgloss.NewStyle().Foreground(dim)

	header := titleStyle.Render("joinboard") + "  " + m.settings.userID
	header += statusStyle.Render("  [" + string(m.settings.inputMode) + "]")
	if m.engine.State() == dragdrop.StateDragging {
		dragged := m.engine.DraggedTaskID()
		if task, ok := m.board.Task(dragged); ok {
			dragged = task.Title
		}
		header += statusStyle.Render("  dragging: " + truncate(dragged, 32))
	}

	if m.query != "" {
		header += statusStyle.Render("  filter: " + truncate(m.query, 24))
	}

	status := ""
	if strings.TrimSpace(m.status) != "" && m.status != "ready" {
		status = statusStyle.Render(m.status)
	}
	if m.prompt != promptNone {
		hint := status
		status = m.input.View()
		if m.status != "search" && m.status != "add task" && hint != "" {
			status += "  " + hint
		}
	}
	content := strings.Join([]string{header, "", m.board.View(), status}, "\n")

	helpBubble := m.help
	helpBubble.ShowAll = false
	helpBubble.SetWidth(max(0, m.width-2))
	helpLine := lipgloss.NewStyle().
		Foreground(muted).
		BorderTop(true).
		BorderForeground(dim).
		Padding(0, 1).
		Width(max(0, m.width)).
		Render(helpBubble.View(m.keys))
	if m.height > 0 {
		content = fitLines(content, max(0, m.height-lipgloss.Height(helpLine)))
	}
	full := content + "\n" + helpLine

	overlay := ""
	switch {
	case m.help.ShowAll:
		overlay = m.renderHelpOverlay(accent, muted)
	case m.detailID != "":
		if task, ok := m.board.Task(m.detailID); ok {
			overlay = m.renderDetailOverlay(task, accent, muted)
		}
	}
	if overlay != "" {
		full = overlayOnContent(full, overlay, max(1, m.width), max(1, m.height))
	}
	return full
}
