package server

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"

	"github.com/papervault-io/papervault/internal/api"
	"github.com/papervault-io/papervault/internal/auth"
	"github.com/papervault-io/papervault/internal/cmd/base"
	"github.com/papervault-io/papervault/internal/config"
	"github.com/papervault-io/papervault/internal/db"
	"github.com/papervault-io/papervault/internal/server"
	"github.com/papervault-io/papervault/pkg/access"
	"github.com/papervault-io/papervault/pkg/artifacts"
	"github.com/papervault-io/papervault/pkg/blobstore"
	localstore "github.com/papervault-io/papervault/pkg/blobstore/local"
	s3store "github.com/papervault-io/papervault/pkg/blobstore/s3"
	"github.com/papervault-io/papervault/pkg/merge"
)

type Command struct {
	*base.Command

	flagConfig string
}

func (c *Command) Synopsis() string {
	return "Run the Papervault server"
}

func (c *Command) Help() string {
	return `Usage: papervault server -config=<config file>

  This command runs the Papervault server.` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("server", flag.ExitOnError))

	f.StringVar(
		&c.flagConfig, "config", "", "(Required) Path to config file",
	)

	return f
}

func (c *Command) Run(args []string) int {
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

	cfg, err := config.NewConfig(c.flagConfig)
	if err != nil {
		ui.Error(fmt.Sprintf("error parsing config file: %v", err))
		return 1
	}

	if cfg.LogLevel != "" {
		logger.SetLevel(hclog.LevelFromString(cfg.LogLevel))
	}

	database, err := db.NewDB(cfg.Database, logger)
	if err != nil {
		ui.Error(fmt.Sprintf("error initializing database: %v", err))
		return 1
	}

	fs := afero.NewOsFs()

	var blobs blobstore.Store
	switch cfg.BlobStorage.Provider {
	case "local":
		blobs, err = localstore.New(fs, cfg.BlobStorage.Path, logger.Named("blobstore"))
	case "s3":
		blobs, err = s3store.New(cfg.BlobStorage.S3, logger.Named("blobstore"))
	default:
		err = fmt.Errorf("unknown blob storage provider: %s", cfg.BlobStorage.Provider)
	}
	if err != nil {
		ui.Error(fmt.Sprintf("error initializing blob storage: %v", err))
		return 1
	}

	mgr, err := artifacts.NewManager(fs, cfg.Artifacts.Dir(), logger.Named("artifacts"),
		artifacts.Options{
			TTL:           cfg.Artifacts.TTL(),
			SweepInterval: cfg.Artifacts.SweepInterval(),
		})
	if err != nil {
		ui.Error(fmt.Sprintf("error initializing artifact manager: %v", err))
		return 1
	}
	mgr.Start()
	defer mgr.Stop()

	resolver := access.NewResolver(database)

	srv := server.Server{
		Config:    cfg,
		DB:        database,
		BlobStore: blobs,
		Resolver:  resolver,
		Ledger:    access.NewLedger(database),
		Merge: merge.NewEngine(
			database, resolver, blobs, mgr, cfg.FetchTimeout(), logger.Named("merge")),
		Artifacts: mgr,
		Logger:    logger,
	}

	mux := http.NewServeMux()
	registerEndpoints(mux, srv)

	httpServer := &http.Server{
		Addr:    cfg.ServerAddr(),
		Handler: mux,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil &&
			err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	shutdownCh := c.ShutdownCh
	if shutdownCh == nil {
		shutdownCh = base.MakeShutdownCh()
	}

	select {
	case err := <-errCh:
		ui.Error(fmt.Sprintf("server error: %v", err))
		return 1
	case <-shutdownCh:
		logger.Info("shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		ui.Error(fmt.Sprintf("error shutting down server: %v", err))
		return 1
	}

	return 0
}

// registerEndpoints attaches all API routes. Artifact downloads and the
// health check stay outside the auth wrapper; everything else requires
// a valid bearer token.
func registerEndpoints(mux *http.ServeMux, srv server.Server) {
	secret := []byte(srv.Config.Auth.JWTSecret)
	authed := func(h http.Handler) http.Handler {
		return auth.Middleware(secret, srv.Logger, h)
	}

	mux.Handle("/api/v1/documents", authed(api.DocumentsHandler(srv)))
	mux.Handle("/api/v1/documents/", authed(api.DocumentHandler(srv)))
	mux.Handle("/api/v1/search", authed(api.SearchHandler(srv)))
	mux.Handle("/api/v1/shares", authed(api.SharesHandler(srv)))
	mux.Handle("/api/v1/shares/", authed(api.ShareHandler(srv)))
	mux.Handle("/api/v1/merge", authed(api.MergeHandler(srv)))
	mux.Handle("/api/v1/artifacts/", api.ArtifactHandler(srv))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "OK")
	})
}
