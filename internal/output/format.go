// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"tasklist/internal/task"
)

const (
	// ShortIDLen is the number of id characters shown in verbose listings.
	ShortIDLen = 8

	// EmptyMessage is printed when the collection is empty.
	EmptyMessage = "no tasks yet"
)

// FormatTask formats a task line.
// Format: "{N:>4}  [x] {TEXT}\n" (4-wide right-aligned number, two spaces, checkbox, text)
func FormatTask(w io.Writer, num int, t task.Task) {
	fmt.Fprintf(w, "%4d  %s %s\n", num, Checkbox(t.Completed), DisplayText(t.Text))
}

// FormatTaskVerbose is FormatTask followed by the short id and the task's age.
func FormatTaskVerbose(w io.Writer, num int, t task.Task, now time.Time) {
	fmt.Fprintf(w, "%4d  %s %s  (%s, %s)\n", num, Checkbox(t.Completed), DisplayText(t.Text),
		ShortID(t.ID), Age(t, now))
}

// FormatSummary formats the counter line: "N task(s), M completed".
func FormatSummary(w io.Writer, total, completed int) {
	fmt.Fprintf(w, "%s, %d completed\n", CountLabel(total), completed)
}

// CountLabel returns "1 task" or "N tasks".
func CountLabel(n int) string {
	if n == 1 {
		return "1 task"
	}
	return fmt.Sprintf("%d tasks", n)
}

// Checkbox renders the completion marker.
func Checkbox(completed bool) string {
	if completed {
		return "[x]"
	}
	return "[ ]"
}

// Age describes when t was created relative to now, e.g. "created 3 minutes ago".
func Age(t task.Task, now time.Time) string {
	return "created " + humanize.RelTime(t.Created(), now, "ago", "from now")
}

// ShortID returns the first ShortIDLen characters of id.
func ShortID(id string) string {
	if len(id) <= ShortIDLen {
		return id
	}
	return id[:ShortIDLen]
}

// DisplayText flattens task text to a single line.
// Newlines are replaced with spaces so every task stays on one line.
func DisplayText(text string) string {
	text = strings.ReplaceAll(text, "\r", " ")
	return strings.ReplaceAll(text, "\n", " ")
}
