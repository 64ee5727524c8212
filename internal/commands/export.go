package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"tasklist/internal/exitcode"
	"tasklist/internal/output"
	"tasklist/internal/service"
	"tasklist/internal/task"
)

func init() {
	Register(&ExportCmd{})
}

// ExportCmd copies local tasks into a Google Tasks list. It never reads
// remote state back into the local collection.
type ExportCmd struct {
	list string
	open bool
}

// SetOptions sets the --list/--open flags (for testing).
func (c *ExportCmd) SetOptions(list string, open bool) {
	c.list = list
	c.open = open
}

func (c *ExportCmd) Name() string      { return "export" }
func (c *ExportCmd) Aliases() []string { return nil }
func (c *ExportCmd) Synopsis() string  { return "Copy tasks to Google Tasks" }
func (c *ExportCmd) Usage() string     { return "tasklist export [--list <name>] [--open]" }
func (c *ExportCmd) NeedsStore() bool  { return true }
func (c *ExportCmd) NeedsAuth() bool   { return true }

func (c *ExportCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.list, "list", "", "")
	fs.StringVar(&c.list, "l", "", "")
	fs.BoolVar(&c.open, "open", false, "")
}

func (c *ExportCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	var pending []task.Task
	for _, t := range env.Store.Tasks() {
		if c.open && t.Completed {
			continue
		}
		pending = append(pending, t)
	}
	if len(pending) == 0 {
		if !env.Config.Quiet {
			fmt.Fprintln(out, "nothing to export")
		}
		return exitcode.Success
	}

	list, code, ok := c.targetList(ctx, env, errOut)
	if !ok {
		return code
	}

	// Remote inserts go on top, so oldest first keeps the local order
	exported := 0
	for i := len(pending) - 1; i >= 0; i-- {
		t := pending[i]
		err := env.Service.CreateTask(ctx, list.ID, service.Task{
			Title:     output.DisplayText(t.Text),
			Notes:     "created " + t.Created().UTC().Format(time.RFC3339),
			Completed: t.Completed,
		})
		if err != nil {
			fmt.Fprintf(errOut, "error: %v (exported %d of %d)\n", err, exported, len(pending))
			return exitcode.BackendError
		}
		exported++
		env.log().Debug("exported task", "id", t.ID, "list", list.Title)
	}

	if !env.Config.Quiet {
		fmt.Fprintf(out, "exported %s to %s\n", output.CountLabel(exported), list.Title)
	}
	return exitcode.Success
}

// targetList picks the list named by --list, then by the config file,
// then the default list. A named list that does not exist is created.
func (c *ExportCmd) targetList(ctx context.Context, env *Env, errOut io.Writer) (service.TaskList, int, bool) {
	name := c.list
	if name == "" {
		name = env.Config.ExportList
	}

	if name == "" {
		list, err := env.Service.DefaultList(ctx)
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return service.TaskList{}, exitcode.BackendError, false
		}
		return list, exitcode.Success, true
	}

	list, err := env.Service.ResolveList(ctx, name)
	switch {
	case err == nil:
		return list, exitcode.Success, true
	case errors.Is(err, service.ErrAmbiguous):
		fmt.Fprintf(errOut, "error: %v\n", err)
		return service.TaskList{}, exitcode.UserError, false
	case !errors.Is(err, service.ErrNotFound):
		fmt.Fprintf(errOut, "error: %v\n", err)
		return service.TaskList{}, exitcode.BackendError, false
	}

	list, err = env.Service.CreateList(ctx, name)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return service.TaskList{}, exitcode.BackendError, false
	}
	env.log().Info("created list", "title", list.Title)
	return list, exitcode.Success, true
}
