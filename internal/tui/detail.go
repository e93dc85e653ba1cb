package tui

import (
	"fmt"
	"image/color"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/hylla/joinboard/internal/domain"
)

// renderDetailOverlay renders the task opened by a tap.
func (m Model) renderDetailOverlay(task domain.Task, accent, muted color.Color) string {
	width := clamp(m.width-8, 40, 90)
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(accent)
	labelStyle := lipgloss.NewStyle().Foreground(muted)
	doneStyle := lipgloss.NewStyle().Foreground(muted).Strikethrough(true)

	lines := []string{titleStyle.Render(truncate(task.Title, width-6))}
	meta := []string{}
	if task.Category != "" {
		meta = append(meta, labelStyle.Render("category ")+task.Category)
	}
	if task.Priority != "" {
		meta = append(meta, labelStyle.Render("priority ")+string(task.Priority))
	}
	if task.DueDate != "" {
		meta = append(meta, labelStyle.Render("due ")+task.DueDate)
	}
	if len(meta) > 0 {
		lines = append(lines, strings.Join(meta, "  "))
	}
	lines = append(lines, labelStyle.Render("column ")+task.Board.Title())
	if names := m.board.ContactNames(task); len(names) > 0 {
		lines = append(lines, labelStyle.Render("assigned ")+strings.Join(names, ", "))
	}

	if desc := m.markdown.render(task.Description, width-6); desc != "" {
		lines = append(lines, "", desc)
	}

	if len(task.Subtasks) > 0 {
		done, total := task.SubtaskProgress()
		lines = append(lines, "", titleStyle.Render(fmt.Sprintf("Subtasks %d/%d", done, total)))
		for idx, sub := range task.Subtasks {
			mark, text := "[ ]", sub.Title
			if sub.Done {
				mark, text = "[x]", doneStyle.Render(sub.Title)
			}
			lines = append(lines, fmt.Sprintf("%d. %s %s", idx+1, mark, text))
		}
	}

	hint := "d delete • esc close"
	if len(task.Subtasks) > 0 {
		hint = "x then 1-9 toggle subtask • " + hint
	}
	if m.awaitDigit {
		hint = "press a subtask number"
	}
	lines = append(lines, "", labelStyle.Render(hint))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Padding(1, 2).
		Width(width).
		Render(strings.Join(lines, "\n"))
}

// renderHelpOverlay renders the full key reference.
func (m Model) renderHelpOverlay(accent, muted color.Color) string {
	width := clamp(m.width-8, 48, 90)
	hb := m.help
	hb.ShowAll = true
	hb.SetWidth(width - 4)

	sections := []string{
		lipgloss.NewStyle().Bold(true).Foreground(accent).Render("joinboard help"),
		"",
		lipgloss.NewStyle().Foreground(muted).Render(m.gestureHint()),
		"",
		hb.View(m.keys),
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Padding(1, 2).
		Width(width).
		Render(strings.Join(sections, "\n"))
}

// gestureHint explains the mouse gestures of the active input mode.
func (m Model) gestureHint() string {
	if m.settings.inputMode == InputPointer {
		return "drag a card onto a column to move it • click a card to open it"
	}
	return fmt.Sprintf(
		"hold a card %s or move it to drag • tap a card to open it • drag near an edge to scroll",
		m.settings.tuning.LongPressDelay,
	)
}
