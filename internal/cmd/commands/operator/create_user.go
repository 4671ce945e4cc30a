package operator

import (
	"flag"
	"fmt"

	"github.com/papervault-io/papervault/internal/cmd/base"
	"github.com/papervault-io/papervault/internal/config"
	"github.com/papervault-io/papervault/internal/db"
	"github.com/papervault-io/papervault/pkg/models"
)

type CreateUserCommand struct {
	*base.Command

	flagConfig   string
	flagUsername string
	flagEmail    string
}

func (c *CreateUserCommand) Synopsis() string {
	return "Register a user identity"
}

func (c *CreateUserCommand) Help() string {
	return `Usage: papervault operator create-user

  This command registers a user so documents can be owned by and shared
  with them. It prints the new user's ID.` +
		c.Flags().Help()
}

func (c *CreateUserCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(
		flag.NewFlagSet("create-user", flag.ExitOnError))

	f.StringVar(
		&c.flagConfig, "config", "", "(Required) Path to config file",
	)
	f.StringVar(
		&c.flagUsername, "username", "", "(Required) Username for the new user",
	)
	f.StringVar(
		&c.flagEmail, "email", "", "(Required) Email address for the new user",
	)

	return f
}

func (c *CreateUserCommand) Run(args []string) int {
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
	if c.flagUsername == "" || c.flagEmail == "" {
		ui.Error("username and email flags are required")
		return 1
	}

	cfg, err := config.NewConfig(c.flagConfig)
	if err != nil {
		ui.Error(fmt.Sprintf("error parsing config file: %v", err))
		return 1
	}

	database, err := db.NewDB(cfg.Database, logger)
	if err != nil {
		ui.Error(fmt.Sprintf("error initializing database: %v", err))
		return 1
	}

	user := models.User{
		Username: c.flagUsername,
		Email:    c.flagEmail,
	}
	if err := database.Create(&user).Error; err != nil {
		ui.Error(fmt.Sprintf("error creating user: %v", err))
		return 1
	}

	ui.Info(fmt.Sprintf("User created: %s", user.ID))
	return 0
}
