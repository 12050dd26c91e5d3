package status

import (
	"strconv"
	"strings"

	"github.com/Iron-Ham/lockable/internal/resource"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#A78BFA"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))

	stateStyles = map[resource.State]lipgloss.Style{
		resource.StateFree:     lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")), // Green
		resource.StateReserved: lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")), // Amber
		resource.StateLocked:   lipgloss.NewStyle().Foreground(lipgloss.Color("#F87171")), // Red
		resource.StateQueued:   lipgloss.NewStyle().Foreground(lipgloss.Color("#60A5FA")), // Blue
	}
)

const (
	stateColWidth = 10
	sinceColWidth = 22
	minHolderCol  = 12
	colGap        = 2
)

// Holder describes who holds or waits for the resource.
func Holder(st resource.Status) string {
	switch st.State {
	case resource.StateReserved:
		if st.OnBehalf != "" && st.OnBehalf != st.ReservedBy {
			return st.ReservedBy + " for " + st.OnBehalf
		}
		return st.ReservedBy
	case resource.StateLocked:
		return st.Build
	case resource.StateQueued:
		return st.QueueLabel()
	default:
		return ""
	}
}

// RenderTable renders doc as an aligned, colored table no wider than width
// columns. A width of zero or less disables truncation.
func RenderTable(doc Document, width int) string {
	nameWidth := len("NAME")
	for _, st := range doc {
		nameWidth = max(nameWidth, lipgloss.Width(st.Name))
	}

	holderWidth := 0
	for _, st := range doc {
		holderWidth = max(holderWidth, lipgloss.Width(Holder(st)))
	}
	holderWidth = max(holderWidth, len("HOLDER"))
	if width > 0 {
		avail := width - nameWidth - stateColWidth - sinceColWidth - 3*colGap
		holderWidth = max(min(holderWidth, avail), minHolderCol)
	}

	gap := strings.Repeat(" ", colGap)
	cell := func(s string, w int) string {
		return lipgloss.NewStyle().Width(w).Render(ansi.Truncate(s, w, "..."))
	}

	var sb strings.Builder
	sb.WriteString(headerStyle.Render(
		cell("NAME", nameWidth) + gap + cell("STATE", stateColWidth) + gap +
			cell("HOLDER", holderWidth) + gap + "SINCE"))
	sb.WriteByte('\n')

	for _, st := range doc {
		since := ""
		if st.State == resource.StateReserved && !st.Acquired.IsZero() {
			since = st.Acquired.Local().Format("2006-01-02 15:04:05")
		}
		sb.WriteString(cell(st.Name, nameWidth))
		sb.WriteString(gap)
		sb.WriteString(stateStyles[st.State].Render(cell(st.State.String(), stateColWidth)))
		sb.WriteString(gap)
		sb.WriteString(cell(Holder(st), holderWidth))
		sb.WriteString(gap)
		sb.WriteString(mutedStyle.Render(since))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// RenderSummary renders a one-line count of resources per state.
func RenderSummary(doc Document) string {
	counts := doc.Counts()
	parts := make([]string, 0, 4)
	for _, s := range []resource.State{resource.StateFree, resource.StateReserved, resource.StateLocked, resource.StateQueued} {
		parts = append(parts, stateStyles[s].Render(s.String())+mutedStyle.Render(": ")+strconv.Itoa(counts[s]))
	}
	return strings.Join(parts, mutedStyle.Render("  "))
}
