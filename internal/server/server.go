package server

import (
	"github.com/hashicorp/go-hclog"
	"gorm.io/gorm"

	"github.com/papervault-io/papervault/internal/config"
	"github.com/papervault-io/papervault/pkg/access"
	"github.com/papervault-io/papervault/pkg/artifacts"
	"github.com/papervault-io/papervault/pkg/blobstore"
	"github.com/papervault-io/papervault/pkg/merge"
)

// Server contains the server configuration and wired components.
type Server struct {
	// Config is the config for the server.
	Config *config.Config

	// DB is the database for the server.
	DB *gorm.DB

	// BlobStore is the content storage backend (local or S3).
	BlobStore blobstore.Store

	// Resolver answers every visibility question.
	Resolver *access.Resolver

	// Ledger records share grants.
	Ledger *access.Ledger

	// Merge is the ordered merge pipeline.
	Merge *merge.Engine

	// Artifacts owns the ephemeral merged artifacts.
	Artifacts *artifacts.Manager

	// Logger is the logger for the server.
	Logger hclog.Logger
}
