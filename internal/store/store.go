// Package store owns the task collection and keeps it persisted in a slot.
package store

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"tasklist/internal/task"
)

// DefaultKey is the slot key holding the collection.
const DefaultKey = "todos"

// corruptSuffix is appended to the key when a corrupt payload is set aside.
const corruptSuffix = ".corrupt"

// Slot is a key-value storage facility.
// Read reports ok=false when nothing is stored under key.
type Slot interface {
	Read(key string) (value string, ok bool, err error)
	Write(key, value string) error
}

var (
	// ErrCorrupt matches a *CorruptError.
	ErrCorrupt = task.ErrCorrupt

	// ErrUnsupportedVersion is returned when the slot holds a newer payload format.
	ErrUnsupportedVersion = task.ErrUnsupportedVersion

	// ErrPersist matches a *PersistError.
	ErrPersist = errors.New("persist tasks")
)

// CorruptError describes a stored payload that could not be decoded.
type CorruptError struct {
	Key string
	Raw string
	Err error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("slot %s: %v", e.Key, e.Err)
}

// Unwrap returns the underlying decode error.
func (e *CorruptError) Unwrap() error {
	return e.Err
}

// PersistError describes a failed write. The in-memory collection is intact.
type PersistError struct {
	Key string
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist tasks to slot %s: %v", e.Key, e.Err)
}

// Unwrap returns both ErrPersist and the slot error.
func (e *PersistError) Unwrap() []error {
	return []error{ErrPersist, e.Err}
}

// ReadCollection loads the collection stored under key.
// An absent value yields an empty collection. A value that does not decode
// yields a *CorruptError; slot failures and newer payload versions are
// returned as they are.
func ReadCollection(s Slot, key string) ([]task.Task, error) {
	raw, ok, err := s.Read(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []task.Task{}, nil
	}
	tasks, err := task.Decode([]byte(raw))
	if err != nil {
		if errors.Is(err, task.ErrUnsupportedVersion) {
			return nil, fmt.Errorf("slot %s: %w", key, err)
		}
		return nil, &CorruptError{Key: key, Raw: raw, Err: err}
	}
	return tasks, nil
}

// Option configures a Store.
type Option func(*Store)

// WithKey sets the slot key. Default DefaultKey.
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// WithLogger sets the logger. Default discards.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithClock sets the time source for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDFunc sets the id generator. Default uuid.NewString.
func WithIDFunc(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// Store holds the ordered task collection. Every change is written to the
// slot in full before the mutating call returns.
type Store struct {
	mu        sync.Mutex
	slot      Slot
	key       string
	logger    *log.Logger
	now       func() time.Time
	newID     func() string
	tasks     []task.Task
	recovered error
}

// Open loads the collection from slot and persists the settled result.
//
// A corrupt payload is logged, copied to "<key>.corrupt" and replaced by an
// empty collection; Recovered reports it afterwards. Read failures and
// payloads from a newer format are returned as errors and nothing is written.
//
// If the settling write fails, Open returns the usable store together with
// a *PersistError.
func Open(slot Slot, opts ...Option) (*Store, error) {
	s := &Store{
		slot:   slot,
		key:    DefaultKey,
		logger: log.New(io.Discard),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}

	tasks, err := ReadCollection(slot, s.key)
	if err != nil {
		var corrupt *CorruptError
		if !errors.As(err, &corrupt) {
			return nil, err
		}
		s.logger.Warn("stored tasks are unreadable, starting empty", "key", s.key, "err", corrupt.Err)
		if werr := slot.Write(s.key+corruptSuffix, corrupt.Raw); werr != nil {
			s.logger.Warn("could not back up unreadable tasks", "key", s.key+corruptSuffix, "err", werr)
		} else {
			s.logger.Info("backed up unreadable tasks", "key", s.key+corruptSuffix)
		}
		s.recovered = corrupt
		tasks = []task.Task{}
	}
	s.tasks = tasks
	s.logger.Debug("loaded tasks", "key", s.key, "count", len(tasks))

	if err := s.persistLocked(); err != nil {
		s.logger.Warn("could not persist loaded tasks", "err", err)
		return s, err
	}
	return s, nil
}

// Recovered returns the load failure Open recovered from, or nil.
func (s *Store) Recovered() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recovered
}

// Key returns the slot key.
func (s *Store) Key() string {
	return s.key
}

// Tasks returns a snapshot of the collection, newest first.
func (s *Store) Tasks() []task.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return task.Clone(s.tasks)
}

// Get returns the task with id.
func (s *Store) Get(id string) (task.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return task.Find(s.tasks, id)
}

// Len returns the number of tasks.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Completed returns the number of completed tasks.
func (s *Store) Completed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return task.Completed(s.tasks)
}

// Add prepends a new task with the given text and returns it.
// Callers are expected to pass text already cleaned with task.CleanText.
func (s *Store) Add(text string) (task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := task.Task{
		ID:        s.uniqueIDLocked(),
		Text:      text,
		CreatedAt: s.now().UnixMilli(),
	}
	s.tasks = task.Prepend(s.tasks, t)
	return t, s.persistLocked()
}

// Toggle flips the completion flag of the task with id.
// An unknown id is ignored.
func (s *Store) Toggle(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, ok := task.Toggle(s.tasks, id)
	if !ok {
		return nil
	}
	s.tasks = tasks
	return s.persistLocked()
}

// Edit replaces the text of the task with id. An unknown id is ignored.
func (s *Store) Edit(id, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, ok := task.Edit(s.tasks, id, text)
	if !ok {
		return nil
	}
	s.tasks = tasks
	return s.persistLocked()
}

// Delete removes the task with id. An unknown id is ignored.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, ok := task.Delete(s.tasks, id)
	if !ok {
		return nil
	}
	s.tasks = tasks
	return s.persistLocked()
}

// Persist writes the whole collection to the slot.
func (s *Store) Persist() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked()
}

func (s *Store) persistLocked() error {
	data, err := task.Encode(s.tasks)
	if err != nil {
		return &PersistError{Key: s.key, Err: err}
	}
	if err := s.slot.Write(s.key, string(data)); err != nil {
		return &PersistError{Key: s.key, Err: err}
	}
	s.logger.Debug("persisted tasks", "key", s.key, "count", len(s.tasks))
	return nil
}

// uniqueIDLocked draws ids until one is not already in the collection.
func (s *Store) uniqueIDLocked() string {
	for {
		id := s.newID()
		if id != "" && task.Index(s.tasks, id) < 0 {
			return id
		}
	}
}
