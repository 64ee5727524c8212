// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"tasklist/internal/service"
)

// DefaultListID is the ID used for the default list.
const DefaultListID = "@default"

// FakeService is an in-memory implementation of service.Service for testing.
type FakeService struct {
	mu     sync.RWMutex
	lists  []service.TaskList
	tasks  map[string][]service.Task // listID -> tasks, newest first
	nextID int

	// Error injection for testing
	DefaultListErr error
	ListListsErr   error
	CreateListErr  error
	CreateTaskErr  error
	// FailAfter makes CreateTask fail once this many tasks were created.
	// Zero disables it.
	FailAfter int
}

// NewFakeService creates a new FakeService with a default list.
func NewFakeService() *FakeService {
	return &FakeService{
		lists: []service.TaskList{
			{ID: DefaultListID, Title: "My Tasks", IsDefault: true},
		},
		tasks: make(map[string][]service.Task),
	}
}

// AddList adds a list to the fake service.
func (f *FakeService) AddList(id, title string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists = append(f.lists, service.TaskList{ID: id, Title: title})
}

// Tasks returns the tasks of a list in display order (newest first).
func (f *FakeService) Tasks(listID string) []service.Task {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]service.Task(nil), f.tasks[listID]...)
}

// Lists returns all lists.
func (f *FakeService) Lists() []service.TaskList {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]service.TaskList(nil), f.lists...)
}

// DefaultList implements service.Service.
func (f *FakeService) DefaultList(ctx context.Context) (service.TaskList, error) {
	if f.DefaultListErr != nil {
		return service.TaskList{}, f.DefaultListErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, l := range f.lists {
		if l.IsDefault {
			return l, nil
		}
	}
	return service.TaskList{}, service.ErrNotFound
}

// ListLists implements service.Service.
func (f *FakeService) ListLists(ctx context.Context) ([]service.TaskList, error) {
	if f.ListListsErr != nil {
		return nil, f.ListListsErr
	}
	return f.Lists(), nil
}

// ResolveList implements service.Service.
func (f *FakeService) ResolveList(ctx context.Context, name string) (service.TaskList, error) {
	lists, err := f.ListLists(ctx)
	if err != nil {
		return service.TaskList{}, err
	}

	name = strings.TrimSpace(name)
	var matches []service.TaskList
	for _, l := range lists {
		if strings.EqualFold(strings.TrimSpace(l.Title), name) {
			matches = append(matches, l)
		}
	}
	switch len(matches) {
	case 0:
		return service.TaskList{}, fmt.Errorf("list %w: %s", service.ErrNotFound, name)
	case 1:
		return matches[0], nil
	default:
		return service.TaskList{}, fmt.Errorf("%w list name: %s", service.ErrAmbiguous, name)
	}
}

// CreateList implements service.Service.
func (f *FakeService) CreateList(ctx context.Context, name string) (service.TaskList, error) {
	if f.CreateListErr != nil {
		return service.TaskList{}, f.CreateListErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	list := service.TaskList{ID: fmt.Sprintf("list%d", f.nextID), Title: name}
	f.lists = append(f.lists, list)
	return list, nil
}

// CreateTask implements service.Service. Tasks are inserted at the top.
func (f *FakeService) CreateTask(ctx context.Context, listID string, task service.Task) error {
	if f.CreateTaskErr != nil {
		return f.CreateTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailAfter > 0 && f.created() >= f.FailAfter {
		return fmt.Errorf("backend unavailable")
	}
	f.tasks[listID] = append([]service.Task{task}, f.tasks[listID]...)
	return nil
}

func (f *FakeService) created() int {
	n := 0
	for _, ts := range f.tasks {
		n += len(ts)
	}
	return n
}
