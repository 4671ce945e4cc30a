// Package config loads the HCL configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/hcl/v2/hclsimple"

	s3store "github.com/papervault-io/papervault/pkg/blobstore/s3"
)

// Config is the top-level configuration.
type Config struct {
	Server      *Server      `hcl:"server,block"`
	Database    *Database    `hcl:"database,block"`
	BlobStorage *BlobStorage `hcl:"blob_storage,block"`
	Artifacts   *Artifacts   `hcl:"artifacts,block"`
	Auth        *Auth        `hcl:"auth,block"`

	// LogLevel is trace, debug, info, warn, or error.
	LogLevel string `hcl:"log_level,optional"`
}

// Server configures the HTTP listener.
type Server struct {
	Addr string `hcl:"addr,optional"` // default "127.0.0.1:8000"
}

// Database configures the relational store.
type Database struct {
	Driver string `hcl:"driver"` // "sqlite" or "postgres"

	// SQLite
	Path string `hcl:"path,optional"`

	// PostgreSQL
	Host     string `hcl:"host,optional"`
	Port     int    `hcl:"port,optional"`
	User     string `hcl:"user,optional"`
	Password string `hcl:"password,optional"`
	DBName   string `hcl:"dbname,optional"`
	SSLMode  string `hcl:"sslmode,optional"`
}

// BlobStorage selects and configures the blob store backend.
type BlobStorage struct {
	Provider string `hcl:"provider"` // "local" or "s3"

	// Local
	Path string `hcl:"path,optional"`

	// S3
	S3 *s3store.Config `hcl:"s3,block"`

	// FetchTimeoutSeconds bounds each content fetch during a merge.
	FetchTimeoutSeconds int `hcl:"fetch_timeout_seconds,optional"` // default 30
}

// Artifacts configures the ephemeral artifact store.
type Artifacts struct {
	Path string `hcl:"path,optional"`

	TTLMinutes           int `hcl:"ttl_minutes,optional"`            // default 10
	SweepIntervalMinutes int `hcl:"sweep_interval_minutes,optional"` // default 10
}

// TTL returns the artifact time-to-live.
func (a *Artifacts) TTL() time.Duration {
	if a == nil || a.TTLMinutes <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(a.TTLMinutes) * time.Minute
}

// SweepInterval returns the background sweep period.
func (a *Artifacts) SweepInterval() time.Duration {
	if a == nil || a.SweepIntervalMinutes <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(a.SweepIntervalMinutes) * time.Minute
}

// Dir returns the artifact directory or a default next to the working
// directory.
func (a *Artifacts) Dir() string {
	if a == nil || a.Path == "" {
		return "artifacts"
	}
	return a.Path
}

// Auth configures bearer token verification.
type Auth struct {
	// JWTSecret signs and verifies HMAC bearer tokens.
	JWTSecret string `hcl:"jwt_secret"`
}

// NewConfig parses the config file at path.
func NewConfig(path string) (*Config, error) {
	var cfg Config
	if err := hclsimple.DecodeFile(path, nil, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing configuration file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for missing required values.
func (c *Config) Validate() error {
	if c.Database == nil {
		return fmt.Errorf("database block is required")
	}
	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("database path is required for the sqlite driver")
		}
	case "postgres":
		if c.Database.Host == "" || c.Database.DBName == "" {
			return fmt.Errorf("database host and dbname are required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	if c.BlobStorage == nil {
		return fmt.Errorf("blob_storage block is required")
	}
	switch c.BlobStorage.Provider {
	case "local":
		if c.BlobStorage.Path == "" {
			return fmt.Errorf("blob_storage path is required for the local provider")
		}
	case "s3":
		if c.BlobStorage.S3 == nil {
			return fmt.Errorf("blob_storage s3 block is required for the s3 provider")
		}
		if err := c.BlobStorage.S3.Validate(); err != nil {
			return fmt.Errorf("invalid s3 configuration: %w", err)
		}
	default:
		return fmt.Errorf("unsupported blob_storage provider: %s", c.BlobStorage.Provider)
	}

	if c.Auth == nil || c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth jwt_secret is required")
	}
	return nil
}

// ServerAddr returns the configured listen address or the default.
func (c *Config) ServerAddr() string {
	if c.Server != nil && c.Server.Addr != "" {
		return c.Server.Addr
	}
	return "127.0.0.1:8000"
}

// FetchTimeout returns the per-fetch timeout for merges.
func (c *Config) FetchTimeout() time.Duration {
	if c.BlobStorage != nil && c.BlobStorage.FetchTimeoutSeconds > 0 {
		return time.Duration(c.BlobStorage.FetchTimeoutSeconds) * time.Second
	}
	return 30 * time.Second
}

// GenerateSimplified returns a zero-config setup rooted at
// workspacePath: embedded SQLite, local blob storage, local artifact
// directory.
func GenerateSimplified(workspacePath, jwtSecret string) *Config {
	return &Config{
		Server: &Server{Addr: "127.0.0.1:8000"},
		Database: &Database{
			Driver: "sqlite",
			Path:   filepath.Join(workspacePath, "papervault.db"),
		},
		BlobStorage: &BlobStorage{
			Provider: "local",
			Path:     filepath.Join(workspacePath, "blobs"),
		},
		Artifacts: &Artifacts{
			Path: filepath.Join(workspacePath, "artifacts"),
		},
		Auth:     &Auth{JWTSecret: jwtSecret},
		LogLevel: "info",
	}
}

// WriteConfig renders a config to an HCL file. Used by the simplified
// serve mode to hand the server a concrete file.
func WriteConfig(cfg *Config, path string) error {
	content := fmt.Sprintf(`log_level = %q

server {
  addr = %q
}

database {
  driver = "sqlite"
  path   = %q
}

blob_storage {
  provider = "local"
  path     = %q
}

artifacts {
  path = %q
}

auth {
  jwt_secret = %q
}
`,
		cfg.LogLevel,
		cfg.ServerAddr(),
		cfg.Database.Path,
		cfg.BlobStorage.Path,
		cfg.Artifacts.Path,
		cfg.Auth.JWTSecret,
	)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o600)
}
