// Package cli parses the command line and runs commands with their dependencies.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"tasklist/internal/commands"
	"tasklist/internal/config"
	"tasklist/internal/exitcode"
	"tasklist/internal/logging"
	"tasklist/internal/service"
	"tasklist/internal/slot"
	"tasklist/internal/store"
)

// ServiceFactory creates a Service from config.
// Used to inject the backend during dispatch.
type ServiceFactory func(ctx context.Context, cfg *config.Config) (service.Service, error)

// StoreFactory opens the task store described by cfg.
type StoreFactory func(cfg *config.Config, logger *log.Logger) (*store.Store, error)

// DefaultStoreFactory opens the file slot in cfg.DataDir.
func DefaultStoreFactory(cfg *config.Config, logger *log.Logger) (*store.Store, error) {
	return store.Open(slot.NewFile(cfg.DataDir),
		store.WithKey(cfg.StorageKey),
		store.WithLogger(logger),
	)
}

// Dispatcher handles command-line parsing and dispatch.
type Dispatcher struct {
	registry *commands.Registry
	stores   StoreFactory
	services ServiceFactory
}

// NewDispatcher creates a new dispatcher with the given registry and factories.
// A nil stores uses DefaultStoreFactory. A nil services only checks that
// credentials exist and runs auth commands without a service.
func NewDispatcher(registry *commands.Registry, stores StoreFactory, services ServiceFactory) *Dispatcher {
	if stores == nil {
		stores = DefaultStoreFactory
	}
	return &Dispatcher{
		registry: registry,
		stores:   stores,
		services: services,
	}
}

// Run parses arguments and dispatches to the appropriate command.
// Returns the exit code.
func (d *Dispatcher) Run(ctx context.Context, args []string, out, errOut io.Writer) int {
	// No args -> dispatch to "list" command with no args
	if len(args) == 0 {
		return d.dispatch(ctx, "list", nil, out, errOut)
	}

	cmdName := args[0]

	// Flags require a command
	if strings.HasPrefix(cmdName, "-") {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}
	return d.dispatch(ctx, cmdName, args[1:], out, errOut)
}

func (d *Dispatcher) dispatch(ctx context.Context, cmdName string, args []string, out, errOut io.Writer) int {
	cmd, ok := d.registry.Find(cmdName)
	if !ok {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}
	return d.dispatchCommand(ctx, cmd, args, out, errOut)
}

// commonFlags are accepted by every command.
type commonFlags struct {
	configDir string
	dataDir   string
	quiet     bool
	debug     bool
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configDir, "config", "", "")
	fs.StringVar(&c.dataDir, "data", "", "")
	fs.BoolVar(&c.quiet, "quiet", false, "")
	fs.BoolVar(&c.debug, "debug", false, "")
}

func (d *Dispatcher) dispatchCommand(ctx context.Context, cmd commands.Command, args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	fs.SetOutput(io.Discard) // We handle errors ourselves

	var common commonFlags
	common.register(fs)
	cmd.RegisterFlags(fs)

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(errOut, "error: %s\n", flagError(err))
		return exitcode.UserError
	}

	// A leftover dash token means a flag was given after a positional arg
	positionalArgs := fs.Args()
	if len(positionalArgs) > 0 && strings.HasPrefix(positionalArgs[0], "-") && positionalArgs[0] != "-" {
		fmt.Fprintf(errOut, "error: unknown flag: %s\n", positionalArgs[0])
		return exitcode.UserError
	}

	cfg, err := config.Load(common.configDir, common.dataDir)
	if err != nil {
		fmt.Fprintf(errOut, "error: config: %s\n", err)
		return exitcode.UserError
	}
	cfg.Quiet = common.quiet
	cfg.Debug = common.debug

	logger := logging.New(errOut, logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Debug:  cfg.Debug,
	})
	env := &commands.Env{Config: cfg, Logger: logger}

	if cmd.NeedsStore() {
		st, err := d.stores(cfg, logger)
		switch {
		case err == nil:
		case st != nil && errors.Is(err, store.ErrPersist):
			// Loaded fine; the next successful write catches up
			logger.Warn("could not save tasks", "err", err)
		default:
			fmt.Fprintf(errOut, "error: storage error: %s\n", err)
			return exitcode.StorageError
		}
		if rec := st.Recovered(); rec != nil && !cfg.Quiet {
			fmt.Fprintf(errOut, "warning: stored tasks were unreadable and have been reset (backup: %s.corrupt)\n", st.Key())
		}
		env.Store = st
	}

	if cmd.NeedsAuth() {
		svc, code, ok := d.service(ctx, cfg, errOut)
		if !ok {
			return code
		}
		env.Service = svc
	}

	logger.Debug("running command", "command", cmd.Name(), "args", len(positionalArgs))
	return cmd.Run(ctx, env, positionalArgs, out, errOut)
}

func (d *Dispatcher) service(ctx context.Context, cfg *config.Config, errOut io.Writer) (service.Service, int, bool) {
	if d.services == nil {
		// Pre-flight checks only; commands get a nil service
		if !cfg.HasOAuthClient() {
			fmt.Fprintf(errOut, "error: oauth_client.json not found in %s\n", cfg.Dir)
			return nil, exitcode.AuthError, false
		}
		if !cfg.HasToken() {
			fmt.Fprintln(errOut, "error: not logged in (run: tasklist login)")
			return nil, exitcode.AuthError, false
		}
		return nil, exitcode.Success, true
	}

	svc, err := d.services(ctx, cfg)
	if err != nil {
		msg := err.Error()
		if strings.Contains(msg, "token") || strings.Contains(msg, "auth") || strings.Contains(msg, "oauth") {
			fmt.Fprintf(errOut, "error: auth error: %s\n", msg)
			return nil, exitcode.AuthError, false
		}
		fmt.Fprintf(errOut, "error: backend error: %s\n", msg)
		return nil, exitcode.BackendError, false
	}
	return svc, exitcode.Success, true
}

// flagError rewrites flag package errors into the CLI's wording.
func flagError(err error) string {
	msg := err.Error()
	switch {
	case strings.HasPrefix(msg, "flag needs an argument:"):
		name := strings.TrimSpace(strings.TrimPrefix(msg, "flag needs an argument:"))
		return "flag needs an argument: " + name
	case strings.HasPrefix(msg, "flag provided but not defined:"):
		name := strings.TrimSpace(strings.TrimPrefix(msg, "flag provided but not defined:"))
		return "unknown flag: " + name
	}
	return msg
}
