// Package artifacts manages the ephemeral files produced by merge
// requests: collision-resistant naming, atomic publication, and timed
// reclamation by a background sweep.
package artifacts

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"

	"github.com/papervault-io/papervault/pkg/vaulterrors"
)

const (
	stagingDir = "staging"
	publicDir  = "public"

	// DefaultTTL is how long a published artifact stays retrievable.
	DefaultTTL = 10 * time.Minute

	// DefaultSweepInterval is how often the background sweep runs.
	DefaultSweepInterval = 10 * time.Minute
)

// Options configures a Manager.
type Options struct {
	// TTL overrides DefaultTTL when positive.
	TTL time.Duration

	// SweepInterval overrides DefaultSweepInterval when positive.
	SweepInterval time.Duration

	// Clock returns the current time. Defaults to time.Now; tests
	// inject a manual clock.
	Clock func() time.Time
}

// Manager owns every artifact for its whole lifetime. Artifacts are
// written into a staging directory and renamed into the public
// directory once complete, so the sweep never observes a half-written
// file: anything outside public/ simply does not exist yet.
type Manager struct {
	fs     afero.Fs
	base   string
	ttl    time.Duration
	period time.Duration
	clock  func() time.Time
	logger hclog.Logger

	mu     sync.Mutex
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewManager creates a Manager rooted at base, creating the staging and
// public directories.
func NewManager(fs afero.Fs, base string, logger hclog.Logger, opts Options) (*Manager, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	for _, dir := range []string{stagingDir, publicDir} {
		if err := fs.MkdirAll(filepath.Join(base, dir), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create artifact directory: %w", err)
		}
	}

	m := &Manager{
		fs:     fs,
		base:   base,
		ttl:    opts.TTL,
		period: opts.SweepInterval,
		clock:  opts.Clock,
		logger: logger.Named("artifacts"),
	}
	if m.ttl <= 0 {
		m.ttl = DefaultTTL
	}
	if m.period <= 0 {
		m.period = DefaultSweepInterval
	}
	if m.clock == nil {
		m.clock = time.Now
	}
	return m, nil
}

// Create writes the payload to ephemeral storage and returns the
// artifact name. The payload is fully written to staging before the
// atomic rename publishes it, so no reader or sweep sees a partial
// artifact.
func (m *Manager) Create(payload []byte) (string, error) {
	name := fmt.Sprintf("merged_%s.pages", uuid.New().String())
	staged := filepath.Join(m.base, stagingDir, name)
	published := filepath.Join(m.base, publicDir, name)

	if err := afero.WriteFile(m.fs, staged, payload, 0o644); err != nil {
		return "", vaulterrors.Newf("Create", vaulterrors.ErrInternal,
			"failed to stage artifact: %v", err)
	}
	if err := m.fs.Rename(staged, published); err != nil {
		_ = m.fs.Remove(staged)
		return "", vaulterrors.Newf("Create", vaulterrors.ErrInternal,
			"failed to publish artifact: %v", err)
	}
	// Record the creation time the sweep compares against.
	now := m.clock()
	if err := m.fs.Chtimes(published, now, now); err != nil {
		m.logger.Warn("failed to set artifact timestamp", "artifact", name, "error", err)
	}

	m.logger.Debug("artifact published", "artifact", name, "bytes", len(payload))
	return name, nil
}

// Get retrieves a published artifact. Reclaimed or never-published
// names yield ErrNotFound.
func (m *Manager) Get(name string) ([]byte, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	payload, err := afero.ReadFile(m.fs, filepath.Join(m.base, publicDir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, vaulterrors.Newf("Get", vaulterrors.ErrNotFound, "artifact %s", name)
		}
		return nil, vaulterrors.Newf("Get", vaulterrors.ErrInternal,
			"failed to read artifact %s: %v", name, err)
	}
	return payload, nil
}

// Sweep deletes published artifacts whose creation time is more than
// TTL before now. Per-artifact failures are collected for the log and
// never escalate: one undeletable file must not shield the rest.
func (m *Manager) Sweep(now time.Time) {
	dir := filepath.Join(m.base, publicDir)
	infos, err := afero.ReadDir(m.fs, dir)
	if err != nil {
		m.logger.Error("sweep failed to list artifacts", "error", err)
		return
	}

	var errs *multierror.Error
	removed := 0
	for _, info := range infos {
		if info.IsDir() {
			continue
		}
		if now.Sub(info.ModTime()) <= m.ttl {
			continue
		}
		if err := m.fs.Remove(filepath.Join(dir, info.Name())); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", info.Name(), err))
			continue
		}
		removed++
	}

	if removed > 0 {
		m.logger.Info("swept expired artifacts", "removed", removed)
	}
	if errs != nil {
		m.logger.Warn("sweep could not delete some artifacts", "error", errs)
	}
}

// Start launches the background sweep. It runs on a fixed period until
// Stop is called, independent of request traffic.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopCh != nil {
		return
	}
	m.stopCh = make(chan struct{})
	m.doneCh = make(chan struct{})

	go func(stop <-chan struct{}, done chan<- struct{}) {
		defer close(done)
		ticker := time.NewTicker(m.period)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.Sweep(m.clock())
			case <-stop:
				return
			}
		}
	}(m.stopCh, m.doneCh)

	m.logger.Info("artifact sweep started", "interval", m.period, "ttl", m.ttl)
}

// Stop halts the background sweep and waits for it to exit.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopCh == nil {
		return
	}
	close(m.stopCh)
	<-m.doneCh
	m.stopCh = nil
	m.doneCh = nil
	m.logger.Info("artifact sweep stopped")
}

// validateName rejects names that are not plain artifact file names.
func validateName(name string) error {
	if name == "" || !strings.HasPrefix(name, "merged_") ||
		strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return vaulterrors.Newf("Get", vaulterrors.ErrNotFound, "artifact %s", name)
	}
	return nil
}
