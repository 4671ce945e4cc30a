package operator

import (
	"github.com/mitchellh/cli"

	"github.com/papervault-io/papervault/internal/cmd/base"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Perform operator-specific tasks"
}

func (c *Command) Help() string {
	return `Usage: papervault operator <subcommand> [options] [args]

  This command groups subcommands for operators interacting with Papervault.`
}

func (c *Command) Run(args []string) int {
	return cli.RunResultHelp
}
