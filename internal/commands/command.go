// Package commands provides the command interface and implementations.
package commands

import (
	"context"
	"flag"
	"io"

	"github.com/charmbracelet/log"

	"tasklist/internal/config"
	"tasklist/internal/service"
	"tasklist/internal/store"
)

// Env carries the dependencies a command runs with.
type Env struct {
	// Config is always provided (config dir, data dir, flags).
	Config *config.Config

	// Store is nil if NeedsStore() returns false.
	Store *store.Store

	// Service is nil if NeedsAuth() returns false.
	Service service.Service

	// Logger writes diagnostics to stderr. May be nil in tests.
	Logger *log.Logger
}

var discardLogger = log.New(io.Discard)

func (e *Env) log() *log.Logger {
	if e.Logger == nil {
		return discardLogger
	}
	return e.Logger
}

// Command defines the interface for CLI commands.
type Command interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns alternative names for the command.
	Aliases() []string

	// Synopsis returns a short description for help output.
	Synopsis() string

	// Usage returns the usage string for help output.
	Usage() string

	// NeedsStore returns true if the command reads or changes tasks.
	NeedsStore() bool

	// NeedsAuth returns true if the command talks to Google Tasks.
	NeedsAuth() bool

	// RegisterFlags registers command-specific flags.
	RegisterFlags(fs *flag.FlagSet)

	// Run executes the command.
	// args contains positional arguments after flag parsing.
	// Returns exit code.
	Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int
}
