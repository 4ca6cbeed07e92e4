package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jward/interop/internal/compiler"
)

// ProjectConfigFile is the name of the project-level config file.
const ProjectConfigFile = "interop.yaml"

// ErrNotFound is returned when no configuration file can be located.
var ErrNotFound = errors.New("config: no " + ProjectConfigFile + " found")

// Loader locates and loads the configuration file.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a new configuration loader.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// Find returns explicit when set, otherwise the nearest interop.yaml in the
// current directory or one of its parents.
func (l *Loader) Find(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config: %w", err)
		}
		return explicit, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("config: %w", err)
	}
	dir := cwd
	for {
		path := filepath.Join(dir, ProjectConfigFile)
		if _, err := os.Stat(path); err == nil {
			l.logger.Debug("Found project config", slog.String("path", path))
			return path, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNotFound
		}
		dir = parent
	}
}

// Load finds, parses and validates the configuration.
func (l *Loader) Load(explicit string) (*Config, string, error) {
	path, err := l.Find(explicit)
	if err != nil {
		return nil, "", err
	}
	cfg, err := LoadFromFile(path)
	if err != nil {
		return nil, path, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, path, fmt.Errorf("config %s: %w", path, err)
	}
	l.logger.Debug("Loaded project config",
		slog.String("path", path), slog.Int("projects", len(cfg.Projects)))
	return cfg, path, nil
}

// Provider serves project classpaths from a configuration file. The file
// is read again on every request, so a session rebuilt after invalidation
// sees the current contents.
type Provider struct {
	path   string
	logger *slog.Logger
}

// NewProvider creates a Provider reading path.
func NewProvider(path string, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{path: path, logger: logger}
}

// Path returns the configuration file the provider reads.
func (p *Provider) Path() string { return p.path }

func (p *Provider) Classpath(_ context.Context, project string) (compiler.Paths, []string, error) {
	cfg, err := LoadFromFile(p.path)
	if err != nil {
		return compiler.Paths{}, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return compiler.Paths{}, nil, fmt.Errorf("config %s: %w", p.path, err)
	}
	paths, excludes, err := cfg.Classpath(project)
	if err != nil {
		return compiler.Paths{}, nil, err
	}
	p.logger.Debug("Resolved classpath",
		slog.String("project", project),
		slog.Int("platform", len(paths.Platform)),
		slog.Int("dependencies", len(paths.Dependencies)),
		slog.Int("sources", len(paths.Sources)))
	return paths, excludes, nil
}
