package testutil

import (
	"errors"
	"sync"
)

// ErrQuotaExceeded is a canned write failure for tests.
var ErrQuotaExceeded = errors.New("quota exceeded")

// FakeSlot is an in-memory implementation of store.Slot for testing.
type FakeSlot struct {
	mu     sync.RWMutex
	values map[string]string
	writes map[string]int

	// Error injection for testing
	ReadErr  error
	WriteErr error
	// WriteErrKeys fails writes to specific keys only.
	WriteErrKeys map[string]error
}

// NewFakeSlot creates an empty FakeSlot.
func NewFakeSlot() *FakeSlot {
	return &FakeSlot{
		values:       make(map[string]string),
		writes:       make(map[string]int),
		WriteErrKeys: make(map[string]error),
	}
}

// Set stores a raw value without counting it as a write.
func (f *FakeSlot) Set(key, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
}

// Get returns the raw value for key.
func (f *FakeSlot) Get(key string) (string, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	v, ok := f.values[key]
	return v, ok
}

// Writes returns the number of successful writes to key.
func (f *FakeSlot) Writes(key string) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.writes[key]
}

// Read implements store.Slot.
func (f *FakeSlot) Read(key string) (string, bool, error) {
	if f.ReadErr != nil {
		return "", false, f.ReadErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	v, ok := f.values[key]
	return v, ok, nil
}

// Write implements store.Slot.
func (f *FakeSlot) Write(key, value string) error {
	if f.WriteErr != nil {
		return f.WriteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.WriteErrKeys[key]; err != nil {
		return err
	}
	f.values[key] = value
	f.writes[key]++
	return nil
}
