// Package session wires configuration, logging, the revision oracle, content access,
// symbol lookup and run history into one caller-owned context.
package session

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"codetour/internal/backends/git"
	"codetour/internal/backends/scip"
	"codetour/internal/config"
	"codetour/internal/content"
	"codetour/internal/paths"
	"codetour/internal/repair"
	"codetour/internal/repostate"
	"codetour/internal/revision"
	"codetour/internal/runs"
	"codetour/internal/slogutil"
	"codetour/internal/staleness"
	"codetour/internal/symbols"
)

// Options configures Open. Zero values select the defaults; the injectable fields
// exist for tests and embedding.
type Options struct {
	// RepoRoot is any directory inside the repository. Defaults to the working
	// directory. Inside a git checkout the top level is used.
	RepoRoot string

	// Config overrides .codetour/config.json.
	Config *config.Config

	// Logger overrides the logger built from the logging config. LogLevel, when set,
	// replaces the configured level of the built logger.
	Logger   *slog.Logger
	LogLevel *slog.Level
	Stderr   io.Writer

	Oracle  revision.Oracle
	Source  content.Source
	Symbols symbols.Provider

	// DisableHistory skips opening the run history database.
	DisableHistory bool
}

// Session is the explicit context every tour operation runs in.
type Session struct {
	RepoRoot string
	Config   *config.Config
	Logger   *slog.Logger

	Oracle  revision.Oracle
	Source  content.Source
	Symbols symbols.Provider

	// History is nil when run history is disabled or could not be opened.
	History *runs.Store

	closers []io.Closer
}

// Open builds a session. Missing git or symbol backends degrade the session rather
// than fail it; only unreadable or invalid configuration is an error.
func Open(ctx context.Context, opts Options) (*Session, error) {
	root, err := resolveRoot(opts.RepoRoot)
	if err != nil {
		return nil, err
	}

	cfg := opts.Config
	if cfg == nil {
		cfg, err = config.LoadConfig(root)
		if err != nil {
			return nil, err
		}
	}
	cfg.RepoRoot = root
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Session{RepoRoot: root, Config: cfg}

	s.Logger = opts.Logger
	if s.Logger == nil {
		stderr := opts.Stderr
		if stderr == nil {
			stderr = os.Stderr
		}
		logger, closer, err := slogutil.Setup(cfg.Logging, paths.ConfigDir(root), stderr, opts.LogLevel)
		if err != nil {
			return nil, err
		}
		s.Logger = logger
		s.closers = append(s.closers, closer)
	}

	s.Source = opts.Source
	if s.Source == nil {
		s.Source = content.NewFileSource(root)
	}

	s.Oracle = opts.Oracle
	if s.Oracle == nil {
		s.Oracle = s.openOracle()
	}

	s.Symbols = opts.Symbols
	if s.Symbols == nil {
		s.Symbols = s.openSymbols()
	}

	if cfg.History.Enabled && !opts.DisableHistory {
		store, err := runs.OpenStore(paths.ConfigDir(root), s.Logger)
		if err != nil {
			s.Logger.Warn("Run history unavailable", "error", err)
		} else {
			s.History = store
			s.closers = append(s.closers, store)
		}
	}

	s.Logger.Debug("Session opened",
		"repoRoot", root,
		"history", s.History != nil,
	)
	return s, nil
}

func resolveRoot(dir string) (string, error) {
	if dir == "" {
		dir = "."
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	if top, err := repostate.GetRepoRoot(abs); err == nil {
		return top, nil
	}
	return abs, nil
}

func (s *Session) openOracle() revision.Oracle {
	adapter, err := git.NewGitAdapter(s.Config, s.Logger)
	if err != nil {
		s.Logger.Info("Revision diff resolution disabled", "reason", err.Error())
		return revision.Unavailable{}
	}
	s.Logger.Debug("Revision oracle ready", "backend", adapter.ID())
	return adapter
}

// openSymbols builds the backend ladder in configured preference order.
func (s *Session) openSymbols() symbols.Provider {
	var backends []symbols.Backend
	for _, name := range s.Config.Symbols.Backends {
		switch name {
		case scip.BackendID:
			provider := scip.NewProvider(s.RepoRoot, s.Config.Symbols.ScipIndexPath, s.Logger)
			if !provider.IsAvailable() {
				s.Logger.Debug("No SCIP index; skipping backend")
				continue
			}
			backends = append(backends, symbols.Backend{Name: name, Provider: provider})
		case "treesitter":
			if !symbols.IsAvailable() {
				s.Logger.Debug("Tree-sitter not compiled in; skipping backend")
				continue
			}
			backends = append(backends, symbols.Backend{
				Name:     name,
				Provider: symbols.NewTreeSitter(s.Source),
			})
		}
	}
	return symbols.NewLadder(s.Logger, backends...)
}

// Resolver returns a staleness resolver bound to this session.
func (s *Session) Resolver() *staleness.Resolver {
	return staleness.NewResolver(s.Oracle, s.Source, s.Symbols, s.Logger)
}

// RepairEngine returns a repair engine bound to this session.
func (s *Session) RepairEngine() *repair.Engine {
	return repair.NewEngine(s.Oracle, s.Source, s.Logger)
}

// ToursDir is the absolute directory tours are discovered in.
func (s *Session) ToursDir() string {
	return paths.ResolveRepoPath(s.RepoRoot, s.Config.Tours.Dir)
}

// CurrentRevision returns the working copy's revision, or "" outside version control.
func (s *Session) CurrentRevision(ctx context.Context) string {
	rev, ok := s.Oracle.CurrentRevision(ctx)
	if !ok {
		return ""
	}
	return rev
}

// Close releases the history database and any log file.
func (s *Session) Close() error {
	var firstErr error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.closers = nil
	return firstErr
}
