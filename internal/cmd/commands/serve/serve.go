package serve

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/papervault-io/papervault/internal/cmd/base"
	"github.com/papervault-io/papervault/internal/cmd/commands/server"
	"github.com/papervault-io/papervault/internal/config"
)

type Command struct {
	*base.Command

	// Inherit all server command fields
	serverCmd *server.Command

	// Browser launch settings
	FlagBrowser bool
}

func (c *Command) Synopsis() string {
	return "Run the server (zero-config simplified mode or traditional server)"
}

func (c *Command) Help() string {
	return `Usage: papervault serve [path]
       papervault serve -config=config.hcl

  Run Papervault in simplified mode (zero-config) or traditional server mode.

  Simplified Mode (Zero-Config):
    ./papervault                  - Uses ./vault/ in current directory
    ./papervault /path/to/vault   - Uses specified path for the vault

  Traditional Mode:
    ./papervault serve -config=config.hcl  - Uses explicit config file

  In simplified mode, Papervault will:
    - Auto-create the vault directory structure if not exists
    - Use embedded SQLite database (no PostgreSQL required)
    - Use local filesystem for document storage
    - Start the API server on http://localhost:8000
    - Auto-open browser (use --browser=false to disable)

` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	// Use server command's flags
	if c.serverCmd == nil {
		c.serverCmd = &server.Command{Command: c.Command}
	}
	f := c.serverCmd.Flags()

	// Add simplified mode specific flags
	f.BoolVar(
		&c.FlagBrowser, "browser", true,
		"Automatically open browser (simplified mode only)",
	)

	return f
}

func (c *Command) Run(args []string) int {
	c.serverCmd = &server.Command{Command: c.Command}

	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	// If an explicit config file was provided, run the traditional
	// server mode with it.
	configPath := ""
	if configFlag := f.FlagSet.Lookup("config"); configFlag != nil {
		configPath = configFlag.Value.String()
	}
	if configPath != "" {
		c.UI.Info("Running in traditional server mode (config file specified)")
		return c.serverCmd.Run(args)
	}

	// Simplified mode: determine the vault path.
	var vaultPath string
	remainingArgs := f.Args()

	if len(remainingArgs) > 0 {
		vaultPath = remainingArgs[0]
	} else {
		cwd, err := os.Getwd()
		if err != nil {
			c.UI.Error(fmt.Sprintf("error getting current directory: %v", err))
			return 1
		}
		vaultPath = filepath.Join(cwd, "vault")
	}

	absPath, err := filepath.Abs(vaultPath)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error resolving vault path: %v", err))
		return 1
	}
	vaultPath = absPath

	if _, err := os.Stat(vaultPath); os.IsNotExist(err) {
		c.UI.Info(fmt.Sprintf("Initializing new vault at %s", vaultPath))
		if err := os.MkdirAll(vaultPath, 0o755); err != nil {
			c.UI.Error(fmt.Sprintf("error initializing vault: %v", err))
			return 1
		}
	} else {
		c.UI.Info(fmt.Sprintf("Using existing vault at %s", vaultPath))
	}

	secret, err := loadOrCreateSecret(vaultPath)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error preparing auth secret: %v", err))
		return 1
	}

	cfg := config.GenerateSimplified(vaultPath, secret)

	// Write a temporary config file so the server command can load it.
	tmpConfigPath := filepath.Join(vaultPath, ".papervault-config-temp.hcl")
	if err := config.WriteConfig(cfg, tmpConfigPath); err != nil {
		c.UI.Error(fmt.Sprintf("error writing config: %v", err))
		return 1
	}
	defer os.Remove(tmpConfigPath)

	serverURL := "http://" + cfg.ServerAddr()
	printBanner(c, vaultPath, cfg.Database.Path, serverURL)

	if c.FlagBrowser {
		go func() {
			// Wait for the server to come up before launching.
			if err := waitForServer(serverURL, 10*time.Second); err != nil {
				c.UI.Warn(fmt.Sprintf("Server not ready, skipping browser launch: %v", err))
				return
			}
			if err := openBrowser(serverURL); err != nil {
				c.UI.Warn(fmt.Sprintf("Could not open browser: %v", err))
			}
		}()
	}

	return c.serverCmd.Run([]string{"-config", tmpConfigPath})
}

func printBanner(c *Command, vaultPath, dbPath, serverURL string) {
	c.UI.Info("")
	c.UI.Info("Papervault is running in simplified mode")
	c.UI.Info(fmt.Sprintf("  Vault:    %s", vaultPath))
	c.UI.Info(fmt.Sprintf("  Database: %s", dbPath))
	c.UI.Info(fmt.Sprintf("  Server:   %s", serverURL))
	c.UI.Info("")
}

// loadOrCreateSecret reuses the vault's signing secret across restarts
// so issued tokens survive them.
func loadOrCreateSecret(vaultPath string) (string, error) {
	secretPath := filepath.Join(vaultPath, ".jwt-secret")

	if data, err := os.ReadFile(secretPath); err == nil && len(data) > 0 {
		return string(data), nil
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	secret := hex.EncodeToString(buf)

	if err := os.WriteFile(secretPath, []byte(secret), 0o600); err != nil {
		return "", err
	}
	return secret, nil
}
