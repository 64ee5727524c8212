package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"tasklist/internal/exitcode"
)

func init() {
	Register(&DoneCmd{})
}

// DoneCmd implements the done command. It toggles, so running it on a
// completed task reopens it.
type DoneCmd struct{}

func (c *DoneCmd) Name() string      { return "done" }
func (c *DoneCmd) Aliases() []string { return []string{"toggle"} }
func (c *DoneCmd) Synopsis() string  { return "Toggle a task's completion" }
func (c *DoneCmd) Usage() string     { return "tasklist done <ref>" }
func (c *DoneCmd) NeedsStore() bool  { return true }
func (c *DoneCmd) NeedsAuth() bool   { return false }

func (c *DoneCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *DoneCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	t, code, ok := resolveOrReport(env.Store.Tasks(), args, errOut)
	if !ok {
		return code
	}

	if err := env.Store.Toggle(t.ID); err != nil {
		return reportStorageError(errOut, err)
	}

	if !env.Config.Quiet {
		fmt.Fprintln(out, "ok")
	}
	env.log().Debug("toggled task", "id", t.ID, "completed", !t.Completed)
	return exitcode.Success
}
