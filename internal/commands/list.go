package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"time"

	"tasklist/internal/exitcode"
	"tasklist/internal/output"
)

func init() {
	Register(&ListCmd{})
}

// ListCmd implements the list command.
// Handles both `tasklist` (no args) and `tasklist list`.
type ListCmd struct {
	open    bool
	done    bool
	verbose bool
	now     func() time.Time
}

// SetFilter sets the --open/--done flags (for testing).
func (c *ListCmd) SetFilter(open, done bool) {
	c.open = open
	c.done = done
}

// SetVerbose sets the --verbose flag and the clock ages are measured against (for testing).
func (c *ListCmd) SetVerbose(verbose bool, now func() time.Time) {
	c.verbose = verbose
	c.now = now
}

func (c *ListCmd) Name() string      { return "list" }
func (c *ListCmd) Aliases() []string { return []string{"ls"} }
func (c *ListCmd) Synopsis() string  { return "List tasks" }
func (c *ListCmd) Usage() string     { return "tasklist list [--open|--done] [--verbose]" }
func (c *ListCmd) NeedsStore() bool  { return true }
func (c *ListCmd) NeedsAuth() bool   { return false }

func (c *ListCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.open, "open", false, "")
	fs.BoolVar(&c.done, "done", false, "")
	fs.BoolVar(&c.verbose, "verbose", false, "")
	fs.BoolVar(&c.verbose, "v", false, "")
}

func (c *ListCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}
	if c.open && c.done {
		fmt.Fprintln(errOut, "error: cannot use both --open and --done")
		return exitcode.UserError
	}

	tasks := env.Store.Tasks()
	if len(tasks) == 0 {
		if !env.Config.Quiet {
			fmt.Fprintln(out, output.EmptyMessage)
		}
		return exitcode.Success
	}

	now := time.Now
	if c.now != nil {
		now = c.now
	}

	completed := 0
	for i, t := range tasks {
		if t.Completed {
			completed++
		}
		if (c.open && t.Completed) || (c.done && !t.Completed) {
			continue
		}
		// Numbers are positions in the full list so they stay valid refs
		if c.verbose {
			output.FormatTaskVerbose(out, i+1, t, now())
		} else {
			output.FormatTask(out, i+1, t)
		}
	}

	if !env.Config.Quiet {
		output.FormatSummary(out, len(tasks), completed)
	}
	return exitcode.Success
}
