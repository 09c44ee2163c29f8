// Package output provides consistent CLI output formatting for the
// non-interactive commands.
package output

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/hirmes/hirmes/internal/progress"
)

const barWidth = 30

// Writer provides formatted output for CLI.
type Writer struct {
	out io.Writer

	// inline is true while a progress line without trailing newline is open.
	inline bool
}

// New creates a new output Writer.
func New(out io.Writer) *Writer {
	return &Writer{out: out}
}

// Status prints a status message with an icon.
// Errors from writing are intentionally ignored for console output.
func (w *Writer) Status(icon, msg string) {
	w.breakLine()
	if icon != "" {
		_, _ = fmt.Fprintf(w.out, "%s %s\n", icon, msg)
	} else {
		_, _ = fmt.Fprintf(w.out, "   %s\n", msg)
	}
}

// Statusf prints a formatted status message with an icon.
func (w *Writer) Statusf(icon, format string, args ...any) {
	w.Status(icon, fmt.Sprintf(format, args...))
}

// Notice prints a modal notice.
func (w *Writer) Notice(msg string) {
	w.Status("ℹ️ ", msg)
}

// Success prints a success message with checkmark.
func (w *Writer) Success(msg string) {
	w.Status("✅", msg)
}

// Successf prints a formatted success message.
func (w *Writer) Successf(format string, args ...any) {
	w.Success(fmt.Sprintf(format, args...))
}

// Warning prints a warning message.
func (w *Writer) Warning(msg string) {
	w.Status("⚠️ ", msg)
}

// Prompt prints a question without a trailing newline.
func (w *Writer) Prompt(msg string) {
	w.breakLine()
	_, _ = fmt.Fprintf(w.out, "❓ %s ", msg)
}

// Block prints pre-rendered content (a table) followed by a blank line.
func (w *Writer) Block(content string) {
	w.breakLine()
	_, _ = fmt.Fprintln(w.out, strings.TrimRight(content, "\n"))
	_, _ = fmt.Fprintln(w.out)
}

// Newline prints an empty line.
func (w *Writer) Newline() {
	w.breakLine()
	_, _ = fmt.Fprintln(w.out)
}

// Progress renders one progress frame in place. A hidden frame closes the
// line.
func (w *Writer) Progress(u progress.Update) {
	if !u.Visible {
		w.ProgressDone()
		return
	}
	_, _ = fmt.Fprintf(w.out, "\r[%s] %3.0f%% %-28s", renderProgressBar(u.Percent, barWidth), math.Floor(u.Percent), u.Label)
	w.inline = true
}

// ProgressDone completes a progress line with newline.
func (w *Writer) ProgressDone() {
	if !w.inline {
		return
	}
	_, _ = fmt.Fprintln(w.out)
	w.inline = false
}

func (w *Writer) breakLine() {
	if w.inline {
		w.ProgressDone()
	}
}

// renderProgressBar creates a text progress bar for a percentage.
func renderProgressBar(pct float64, width int) string {
	filled := int(pct / 100 * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
