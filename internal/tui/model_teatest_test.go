package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/x/exp/teatest/v2"
	"github.com/hylla/joinboard/internal/domain"
)

// TestModelWithTeatestPointerDragMovesTask runs the full program and drags a card onto another column.
func TestModelWithTeatestPointerDragMovesTask(t *testing.T) {
	f := newBoardFixture(t, 200, 40, WithInputMode(InputPointer))
	x, y := cardCell(t, f.model, "t1")
	dx, dy := columnCell(t, f.model, domain.ColumnDone)

	m := NewModel(f.svc, WithInputMode(InputPointer))
	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(200, 40))
	t.Cleanup(func() {
		_ = tm.Quit()
	})

	teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
		return strings.Contains(string(out), "Write docs")
	}, teatest.WithDuration(2*time.Second), teatest.WithCheckInterval(10*time.Millisecond))

	tm.Send(press(x, y))
	tm.Send(motion(dx, dy))
	tm.Send(release(dx, dy))
	teatest.WaitFor(t, tm.Output(), func([]byte) bool {
		var board string
		err := f.docs.Get(context.Background(), "/guest/tasks/t1/board", &board)
		return err == nil && board == string(domain.ColumnDone)
	}, teatest.WithDuration(2*time.Second), teatest.WithCheckInterval(10*time.Millisecond))

	tm.Send(tea.KeyPressMsg{Code: 'q', Text: "q"})
	tm.WaitFinished(t, teatest.WithFinalTimeout(2*time.Second))

	final, ok := tm.FinalModel(t, teatest.WithFinalTimeout(2*time.Second)).(Model)
	if !ok {
		t.Fatal("expected final tui.Model")
	}
	if got := final.board.ColumnTasks(domain.ColumnDone); len(got) != 1 || got[0] != "t1" {
		t.Fatalf("done tasks = %#v, want [t1]", got)
	}
	if got := final.board.ColumnTasks(domain.ColumnToDo); len(got) != 0 {
		t.Fatalf("toDo tasks = %#v, want none", got)
	}
}

// TestModelWithTeatestSearchFiltersBoard types a search into the running program.
func TestModelWithTeatestSearchFiltersBoard(t *testing.T) {
	f := newBoardFixture(t, 200, 40)

	tm := teatest.NewTestModel(t, NewModel(f.svc), teatest.WithInitialTermSize(200, 40))
	t.Cleanup(func() {
		_ = tm.Quit()
	})

	teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
		return strings.Contains(string(out), "Fix login")
	}, teatest.WithDuration(2*time.Second), teatest.WithCheckInterval(10*time.Millisecond))

	tm.Send(tea.KeyPressMsg{Code: '/', Text: "/"})
	for _, r := range "LOGIN" {
		tm.Send(tea.KeyPressMsg{Code: r, Text: string(r)})
	}
	tm.Send(tea.KeyPressMsg{Code: tea.KeyEnter})
	tm.Send(tea.KeyPressMsg{Code: 'q', Text: "q"})
	tm.WaitFinished(t, teatest.WithFinalTimeout(2*time.Second))

	final, ok := tm.FinalModel(t, teatest.WithFinalTimeout(2*time.Second)).(Model)
	if !ok {
		t.Fatal("expected final tui.Model")
	}
	if final.query != "login" || final.prompt != promptNone {
		t.Fatalf("query = %q prompt = %d, want closed login filter", final.query, final.prompt)
	}
	if got := final.board.ColumnTasks(domain.ColumnInProgress); len(got) != 1 || got[0] != "t2" {
		t.Fatalf("inProgress tasks = %#v, want [t2]", got)
	}
	if got := final.board.ColumnTasks(domain.ColumnToDo); len(got) != 0 {
		t.Fatalf("toDo tasks = %#v, want filtered out", got)
	}
}
