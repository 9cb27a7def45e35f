package terminate

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"prockill/internal/config"
)

var outcomeColors = map[Outcome]lipgloss.Color{
	Failed:  lipgloss.Color("203"),
	DryRun:  lipgloss.Color("244"),
	Stopped: lipgloss.Color("42"),
	Killed:  lipgloss.Color("214"),
	Exited:  lipgloss.Color("39"),
}

// reporter writes either step messages or result lines, never both.
type reporter struct {
	w        io.Writer
	progress bool
	color    bool
}

func newReporter(w io.Writer, mode config.OutputMode, color bool) *reporter {
	if w == nil {
		w = io.Discard
	}
	return &reporter{w: w, progress: mode == config.OutputProgress, color: color}
}

func (r *reporter) step(format string, args ...any) {
	if r.progress {
		fmt.Fprintf(r.w, format+"\n", args...)
	}
}

func (r *reporter) separator() {
	if r.progress {
		fmt.Fprintln(r.w)
	}
}

func (r *reporter) result(res Result) {
	if r.progress {
		return
	}
	tag := fmt.Sprintf("%7s", res.Outcome)
	if r.color {
		tag = lipgloss.NewStyle().Bold(true).Foreground(outcomeColors[res.Outcome]).Render(tag)
	}
	kind := "Process"
	if res.IsService {
		kind = "Service"
	}
	fmt.Fprintf(r.w, "%s: %s PID %d - %s\n", tag, kind, res.Candidate.Process.PID, res.Candidate.Process.ExecutablePath)
}
