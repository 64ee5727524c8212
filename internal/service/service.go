// Package service defines the backend-agnostic interface of a remote task
// service that local tasks can be exported to.
package service

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a list does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAmbiguous is returned when a list name matches more than one list.
	ErrAmbiguous = errors.New("ambiguous")
)

// Service defines the remote operations used by export.
// All Google Tasks API calls go through this interface.
// Commands never import Google SDK directly.
type Service interface {
	// DefaultList returns the user's default task list.
	DefaultList(ctx context.Context) (TaskList, error)

	// ListLists returns all task lists in API order.
	ListLists(ctx context.Context) ([]TaskList, error)

	// ResolveList finds a list by name (case-insensitive, trimmed).
	// Returns an error wrapping ErrNotFound or ErrAmbiguous.
	ResolveList(ctx context.Context, name string) (TaskList, error)

	// CreateList creates a new task list and returns it.
	CreateList(ctx context.Context, name string) (TaskList, error)

	// CreateTask inserts a task at the top of the specified list.
	CreateTask(ctx context.Context, listID string, task Task) error
}

// Task is a task as sent to the remote service.
type Task struct {
	Title     string
	Notes     string
	Completed bool
}

// TaskList represents a remote task list.
type TaskList struct {
	ID        string
	Title     string
	IsDefault bool
}
