package commands

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"tasklist/internal/exitcode"
	"tasklist/internal/task"
)

// MinIDPrefix is the shortest id prefix accepted as a task reference.
const MinIDPrefix = 4

var (
	// ErrTaskRefRequired indicates no task reference was provided.
	ErrTaskRefRequired = errors.New("task reference required")

	// ErrTaskNotFound indicates a reference that matches no task.
	ErrTaskNotFound = errors.New("task not found")

	// ErrAmbiguousRef indicates an id prefix shared by several tasks.
	ErrAmbiguousRef = errors.New("ambiguous task reference")
)

// ResolveTaskRef finds the task a reference points at.
// Returns the task and its 1-based position in tasks.
//
// Resolution rules:
// 1. All digits and within 1..len(tasks) → position as shown by list
// 2. Exact id match
// 3. Unique id prefix of at least MinIDPrefix characters
//
// Positions win over ids, so a numeric id is only reachable as an id when
// it is out of position range.
func ResolveTaskRef(tasks []task.Task, ref string) (task.Task, int, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return task.Task{}, 0, ErrTaskRefRequired
	}

	if isAllDigits(ref) {
		if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(tasks) {
			return tasks[n-1], n, nil
		}
	}

	if i := task.Index(tasks, ref); i >= 0 {
		return tasks[i], i + 1, nil
	}

	if len(ref) >= MinIDPrefix {
		match := -1
		for i, t := range tasks {
			if strings.HasPrefix(t.ID, ref) {
				if match >= 0 {
					return task.Task{}, 0, fmt.Errorf("%w: %s", ErrAmbiguousRef, ref)
				}
				match = i
			}
		}
		if match >= 0 {
			return tasks[match], match + 1, nil
		}
	}

	return task.Task{}, 0, fmt.Errorf("%w: %s", ErrTaskNotFound, ref)
}

// resolveOrReport resolves args[0] against tasks and prints the error
// message for a failed lookup. ok is false when the command should stop
// with code.
func resolveOrReport(tasks []task.Task, args []string, errOut io.Writer) (t task.Task, code int, ok bool) {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "error: task reference required")
		return task.Task{}, exitcode.UserError, false
	}
	t, _, err := ResolveTaskRef(tasks, args[0])
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return task.Task{}, exitcode.UserError, false
	}
	return t, exitcode.Success, true
}

// reportStorageError prints a store failure and returns the storage exit code.
func reportStorageError(errOut io.Writer, err error) int {
	fmt.Fprintf(errOut, "error: storage error: %v\n", err)
	return exitcode.StorageError
}

// isAllDigits returns true if s consists only of ASCII digits and is non-empty.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
