package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/icexbuddy/buddyterm/internal/service"
)

// Pure projections from domain data to presentation strings. Nothing in
// this file touches App state, so every renderer is testable in isolation.

var (
	userLabelStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#4CAF50"))
	assistantLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	bubbleStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("#DDDDDD"))
	metaStyle           = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	hintStyle           = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA"))
	activeTabStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF")).Underline(true)
	inactiveTabStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	selectedCardStyle   = lipgloss.NewStyle().Bold(true).Border(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("#5B8DEF")).Padding(0, 1)
	cardStyle           = lipgloss.NewStyle().Padding(0, 0, 1, 0)
	errorTextStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
)

func senderLabel(s sender) string {
	if s == senderUser {
		return "You"
	}
	return "Buddy"
}

// renderMessage produces one chat bubble: styled speaker label plus the
// message body wrapped to width.
func renderMessage(m message, width int) string {
	label := senderLabel(m.sender)
	style := assistantLabelStyle
	if m.sender == senderUser {
		style = userLabelStyle
	}
	body := lipgloss.NewStyle().Width(max(20, width)).Inherit(bubbleStyle).Render(m.text)
	return fmt.Sprintf("%s\n%s", style.Render(label), body)
}

// renderMessages joins all bubbles in arrival order.
func renderMessages(msgs []message, width int) string {
	if len(msgs) == 0 {
		return metaStyle.Render("Say hello, or press ctrl+r to record a voice message.")
	}
	parts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		parts = append(parts, renderMessage(m, width))
	}
	return strings.Join(parts, "\n\n")
}

// renderFilterTabs marks exactly one filter as active.
func renderFilterTabs(active service.Filter) string {
	tabs := []service.Filter{service.FilterAll, service.FilterPending, service.FilterCompleted}
	parts := make([]string, 0, len(tabs))
	for _, f := range tabs {
		label := titleCase(string(f))
		if f == active {
			parts = append(parts, activeTabStyle.Render("["+label+"]"))
		} else {
			parts = append(parts, inactiveTabStyle.Render(label))
		}
	}
	return strings.Join(parts, "  ")
}

// taskActionLabel is context-sensitive: a pending task exposes Complete,
// a completed task exposes Reopen. No other states exist.
func taskActionLabel(s service.Status) string {
	if s == service.StatusCompleted {
		return "Reopen"
	}
	return "Complete"
}

func statusGlyph(s service.Status) string {
	if s == service.StatusCompleted {
		return "✓"
	}
	return "○"
}

// taskCardLines is the unstyled render model for one task card.
func taskCardLines(t service.Task, now time.Time) []string {
	meta := fmt.Sprintf("%s %s", statusGlyph(t.Status), string(t.Status))
	if !t.CreatedAt.IsZero() {
		meta += fmt.Sprintf(" · added %s ago", humanizeAge(now.Sub(t.CreatedAt)))
	}
	return []string{
		t.Description,
		meta,
		fmt.Sprintf("[enter] %s", taskActionLabel(t.Status)),
	}
}

// renderTaskCard styles the card, highlighting the selected one.
func renderTaskCard(t service.Task, selected bool, width int, now time.Time) string {
	lines := taskCardLines(t, now)
	content := strings.Join([]string{
		lines[0],
		metaStyle.Render(lines[1]),
		hintStyle.Render(lines[2]),
	}, "\n")
	style := cardStyle.Width(max(20, width))
	if selected {
		style = selectedCardStyle.Width(max(20, width))
	}
	return style.Render(content)
}

func humanizeAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}

func titleCase(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	lower := strings.ToLower(value)
	return strings.ToUpper(lower[:1]) + lower[1:]
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
