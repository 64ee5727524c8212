// Package task defines the task record and the pure transforms applied to an
// ordered task collection.
package task

import (
	"strings"
	"time"
)

// Task represents a single to-do entry.
type Task struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
	CreatedAt int64  `json:"createdAt"` // epoch milliseconds
}

// Created returns CreatedAt as a time.Time.
func (t Task) Created() time.Time {
	return time.UnixMilli(t.CreatedAt)
}

// CleanText trims s and reports whether anything is left.
// Front ends call it before Add and Edit; the store does not re-check.
func CleanText(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != ""
}

// Prepend returns a new collection with t in front of tasks.
func Prepend(tasks []Task, t Task) []Task {
	out := make([]Task, 0, len(tasks)+1)
	out = append(out, t)
	return append(out, tasks...)
}

// Index returns the position of the task with id, or -1.
func Index(tasks []Task, id string) int {
	for i, t := range tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// Find returns the task with id.
func Find(tasks []Task, id string) (Task, bool) {
	if i := Index(tasks, id); i >= 0 {
		return tasks[i], true
	}
	return Task{}, false
}

// Toggle returns a copy of tasks with Completed flipped on the matching task.
// The second result is false when id is not present; tasks is then returned as is.
func Toggle(tasks []Task, id string) ([]Task, bool) {
	i := Index(tasks, id)
	if i < 0 {
		return tasks, false
	}
	out := Clone(tasks)
	out[i].Completed = !out[i].Completed
	return out, true
}

// Edit returns a copy of tasks with the matching task's text replaced.
func Edit(tasks []Task, id, text string) ([]Task, bool) {
	i := Index(tasks, id)
	if i < 0 {
		return tasks, false
	}
	out := Clone(tasks)
	out[i].Text = text
	return out, true
}

// Delete returns a copy of tasks without the matching task.
func Delete(tasks []Task, id string) ([]Task, bool) {
	i := Index(tasks, id)
	if i < 0 {
		return tasks, false
	}
	out := make([]Task, 0, len(tasks)-1)
	out = append(out, tasks[:i]...)
	return append(out, tasks[i+1:]...), true
}

// Completed counts completed tasks.
func Completed(tasks []Task) int {
	n := 0
	for _, t := range tasks {
		if t.Completed {
			n++
		}
	}
	return n
}

// Clone returns a shallow copy of tasks. A nil input yields an empty, non-nil slice.
func Clone(tasks []Task) []Task {
	out := make([]Task, len(tasks))
	copy(out, tasks)
	return out
}
