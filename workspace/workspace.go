// Package workspace manages the scratch directory that holds one test run's generated
// sources, driver program and input file.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"code.cloudfoundry.org/clock"
	"go.uber.org/zap"
)

const (
	// ParserSubdir is the subdirectory that receives generated recognizer sources.
	ParserSubdir = "parser"

	// InputFile is the name of the file holding the text fed to the driver.
	InputFile = "input"

	// EnvDir names the environment variable that overrides the workspace location.
	EnvDir = "RUNTIME_TEST_DIR"
)

// Config determines where the workspace lives.
type Config struct {
	// Dir, if set, is used as the workspace path verbatim.
	Dir string
	// Root is the parent of synthesized workspace paths, named
	// <RunID>-<unix millis>-<pid>-<sequence>. Defaults to os.TempDir().
	Root string
	// RunID identifies the run (for instance a suite and worker name) in synthesized paths.
	RunID string
}

// sequence tells apart workspaces synthesized by one process in the same millisecond.
var sequence atomic.Uint64

// Manager owns one workspace directory.
type Manager struct {
	cfg    Config
	path   string
	clock  clock.Clock
	fs     FS
	logger *zap.Logger
}

// Option customizes a Manager.
type Option func(*Manager)

// WithClock sets the time source used to make synthesized paths unique.
func WithClock(c clock.Clock) Option {
	return func(m *Manager) { m.clock = c }
}

// WithFS replaces the filesystem used for writing and erasing.
func WithFS(fs FS) Option {
	return func(m *Manager) { m.fs = fs }
}

// WithLogger sets the logger that receives cleanup warnings.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// New creates a Manager. The directory is not touched until SetUp is called.
func New(cfg Config, opts ...Option) *Manager {
	m := &Manager{
		cfg:    cfg,
		clock:  clock.NewClock(),
		fs:     OSFS{},
		logger: zap.NewNop(),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// SetUp computes the workspace path, erases whatever a previous run left behind and
// creates an empty directory.
func (m *Manager) SetUp() error {
	if m.cfg.Dir != "" {
		m.path = m.cfg.Dir
	} else {
		root := m.cfg.Root
		if root == "" {
			root = os.TempDir()
		}
		runID := m.cfg.RunID
		if runID == "" {
			runID = "runtime-test"
		}
		m.path = filepath.Join(root, fmt.Sprintf("%s-%d-%d-%d",
			runID, m.clock.Now().UnixMilli(), os.Getpid(), sequence.Add(1)))
	}
	if abs, err := filepath.Abs(m.path); err == nil {
		m.path = abs
	}

	m.Erase()

	if err := os.MkdirAll(m.path, 0o755); err != nil {
		return fmt.Errorf("creating workspace %s: %w", m.path, err)
	}
	m.logger.Debug("workspace ready", zap.String("dir", m.path))
	return nil
}

// Erase deletes the workspace and its generated-sources subdirectory. Failures are only
// logged: an open handle on some platforms can make deletion fail harmlessly, and the
// next SetUp tries again.
func (m *Manager) Erase() {
	if m.path == "" {
		return
	}
	for _, p := range []string{m.ParserDir(), m.path} {
		if err := m.fs.Erase(p); err != nil {
			m.logger.Warn("could not delete workspace directory", zap.String("dir", p), zap.Error(err))
		}
	}
}

// Path returns the absolute workspace path, or "" before SetUp.
func (m *Manager) Path() string {
	return m.path
}

// ParserDir returns the directory that generated recognizer sources are written to.
func (m *Manager) ParserDir() string {
	if m.path == "" {
		return ""
	}
	return filepath.Join(m.path, ParserSubdir)
}

// Resolve returns the absolute path of name inside the workspace.
func (m *Manager) Resolve(name string) string {
	return filepath.Join(m.path, name)
}

// WriteFile writes content to name inside the workspace and returns its path.
func (m *Manager) WriteFile(name, content string) (string, error) {
	if m.path == "" {
		return "", fmt.Errorf("workspace not set up")
	}
	return m.fs.WriteFile(m.path, name, content)
}

// WriteInput writes the driver input file.
func (m *Manager) WriteInput(content string) (string, error) {
	return m.WriteFile(InputFile, content)
}
