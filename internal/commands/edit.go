package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"tasklist/internal/exitcode"
	"tasklist/internal/task"
)

func init() {
	Register(&EditCmd{})
}

// EditCmd implements the edit command.
type EditCmd struct{}

func (c *EditCmd) Name() string      { return "edit" }
func (c *EditCmd) Aliases() []string { return nil }
func (c *EditCmd) Synopsis() string  { return "Replace a task's text" }
func (c *EditCmd) Usage() string     { return "tasklist edit <ref> <text...>" }
func (c *EditCmd) NeedsStore() bool  { return true }
func (c *EditCmd) NeedsAuth() bool   { return false }

func (c *EditCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *EditCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	t, code, ok := resolveOrReport(env.Store.Tasks(), args, errOut)
	if !ok {
		return code
	}

	// Blank text is discarded here and never reaches the store
	text, ok := task.CleanText(strings.Join(args[1:], " "))
	if !ok {
		fmt.Fprintln(errOut, "error: task text required")
		return exitcode.UserError
	}

	if err := env.Store.Edit(t.ID, text); err != nil {
		return reportStorageError(errOut, err)
	}

	if !env.Config.Quiet {
		fmt.Fprintln(out, "ok")
	}
	env.log().Debug("edited task", "id", t.ID)
	return exitcode.Success
}
