package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"tasklist/internal/exitcode"
)

func init() {
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct {
	// Registry lists the commands to describe. Nil means DefaultRegistry.
	Registry *Registry
}

func (c *HelpCmd) Name() string      { return "help" }
func (c *HelpCmd) Aliases() []string { return nil }
func (c *HelpCmd) Synopsis() string  { return "Print usage" }
func (c *HelpCmd) Usage() string     { return "tasklist help" }
func (c *HelpCmd) NeedsStore() bool  { return false }
func (c *HelpCmd) NeedsAuth() bool   { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	reg := c.Registry
	if reg == nil {
		reg = DefaultRegistry
	}
	writeHelp(out, reg.All())
	return exitcode.Success
}

func writeHelp(w io.Writer, cmds []Command) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  tasklist [command] [flags] [args]")
	fmt.Fprintln(w, "  With no command, tasklist lists tasks.")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Commands:")
	for _, cmd := range cmds {
		names := strings.Join(append([]string{cmd.Name()}, cmd.Aliases()...), ", ")
		fmt.Fprintf(w, "  %-16s %s\n", names, cmd.Synopsis())
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Synopsis:")
	for _, cmd := range cmds {
		fmt.Fprintf(w, "  %s\n", cmd.Usage())
	}
	fmt.Fprint(w, helpFooter)
}

const helpFooter = `
Task references:
  <n>              Position shown by list (1 is the newest task)
  <id>             Full task id, or a unique prefix of at least 4 characters

Common flags:
  --config <dir>   Override config directory
  --data <dir>     Override data directory
  --quiet          Suppress informational output
  --debug          Print debug logs to stderr
`
