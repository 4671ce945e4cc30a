package operator

import (
	"flag"
	"fmt"
	"time"

	"github.com/papervault-io/papervault/internal/auth"
	"github.com/papervault-io/papervault/internal/cmd/base"
	"github.com/papervault-io/papervault/internal/config"
	"github.com/papervault-io/papervault/internal/db"
	"github.com/papervault-io/papervault/pkg/models"
)

type IssueTokenCommand struct {
	*base.Command

	flagConfig string
	flagEmail  string
	flagTTL    time.Duration
}

func (c *IssueTokenCommand) Synopsis() string {
	return "Issue an API bearer token for a user"
}

func (c *IssueTokenCommand) Help() string {
	return `Usage: papervault operator issue-token

  This command issues a signed bearer token for an existing user, for
  use in the Authorization header of API requests.` +
		c.Flags().Help()
}

func (c *IssueTokenCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(
		flag.NewFlagSet("issue-token", flag.ExitOnError))

	f.StringVar(
		&c.flagConfig, "config", "", "(Required) Path to config file",
	)
	f.StringVar(
		&c.flagEmail, "email", "", "(Required) Email address of the user",
	)
	f.DurationVar(
		&c.flagTTL, "ttl", 24*time.Hour, "Token lifetime",
	)

	return f
}

func (c *IssueTokenCommand) Run(args []string) int {
	logger, ui := c.Log, c.UI

	flags := c.Flags()
	if err := flags.Parse(args); err != nil {
		ui.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	if c.flagConfig == "" {
		ui.Error("config flag is required")
		return 1
	}
	if c.flagEmail == "" {
		ui.Error("email flag is required")
		return 1
	}

	cfg, err := config.NewConfig(c.flagConfig)
	if err != nil {
		ui.Error(fmt.Sprintf("error parsing config file: %v", err))
		return 1
	}
	if cfg.Auth == nil || cfg.Auth.JWTSecret == "" {
		ui.Error("config has no auth jwt_secret")
		return 1
	}

	database, err := db.NewDB(cfg.Database, logger)
	if err != nil {
		ui.Error(fmt.Sprintf("error initializing database: %v", err))
		return 1
	}

	user, err := models.GetUserByEmail(database, c.flagEmail)
	if err != nil {
		ui.Error(fmt.Sprintf("error looking up user: %v", err))
		return 1
	}

	token, err := auth.NewToken([]byte(cfg.Auth.JWTSecret), user.ID, c.flagTTL)
	if err != nil {
		ui.Error(fmt.Sprintf("error signing token: %v", err))
		return 1
	}

	ui.Output(token)
	return 0
}
