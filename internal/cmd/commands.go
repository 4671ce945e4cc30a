package cmd

import (
	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/papervault-io/papervault/internal/cmd/base"
	"github.com/papervault-io/papervault/internal/cmd/commands/operator"
	"github.com/papervault-io/papervault/internal/cmd/commands/serve"
	"github.com/papervault-io/papervault/internal/cmd/commands/server"
	"github.com/papervault-io/papervault/internal/cmd/commands/version"
)

// Commands is the mapping of all available CLI commands.
var Commands map[string]cli.CommandFactory

func initCommands(log hclog.Logger, ui cli.Ui) {
	baseCommand := &base.Command{
		Log:        log,
		UI:         ui,
		ShutdownCh: base.MakeShutdownCh(),
	}

	Commands = map[string]cli.CommandFactory{
		"serve": func() (cli.Command, error) {
			return &serve.Command{Command: baseCommand}, nil
		},
		"server": func() (cli.Command, error) {
			return &server.Command{Command: baseCommand}, nil
		},
		"operator": func() (cli.Command, error) {
			return &operator.Command{Command: baseCommand}, nil
		},
		"operator create-user": func() (cli.Command, error) {
			return &operator.CreateUserCommand{Command: baseCommand}, nil
		},
		"operator issue-token": func() (cli.Command, error) {
			return &operator.IssueTokenCommand{Command: baseCommand}, nil
		},
		"version": func() (cli.Command, error) {
			return &version.Command{Command: baseCommand}, nil
		},
	}
}
