// Package config loads interop.yaml, the file that maps project names to
// their Java lookup paths.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/jward/interop/internal/compiler"
)

// Config is the complete interop configuration.
type Config struct {
	Defaults DefaultsConfig           `yaml:"defaults"`
	Projects map[string]ProjectConfig `yaml:"projects"`

	// dir is the directory relative paths are resolved against.
	dir string
}

// DefaultsConfig holds settings shared by every project.
type DefaultsConfig struct {
	// Project is used when a command names none.
	Project string `yaml:"project"`
	// Exclude globs apply to every project, before its own.
	Exclude []string `yaml:"exclude"`
	// WatchDebounce delays invalidation after a config change.
	WatchDebounce time.Duration `yaml:"watch_debounce"`
}

// ProjectConfig lists one project's lookup paths in lookup order. An empty
// Platform selects the embedded platform classes.
type ProjectConfig struct {
	Platform     []string `yaml:"platform,omitempty"`
	Dependencies []string `yaml:"dependencies,omitempty"`
	Sources      []string `yaml:"sources,omitempty"`
	Exclude      []string `yaml:"exclude,omitempty"`
}

// DefaultConfig returns a Config with no projects.
func DefaultConfig() *Config {
	return &Config{
		Defaults: DefaultsConfig{
			Exclude:       []string{"**/build/**", "**/target/**"},
			WatchDebounce: 200 * time.Millisecond,
		},
		Projects: map[string]ProjectConfig{},
	}
}

// Validate checks project names and exclusion globs.
func (c *Config) Validate() error {
	var errs []error
	for _, g := range c.Defaults.Exclude {
		if !doublestar.ValidatePattern(g) {
			errs = append(errs, fmt.Errorf("defaults.exclude: invalid glob %q", g))
		}
	}
	if c.Defaults.WatchDebounce < 0 {
		errs = append(errs, fmt.Errorf("defaults.watch_debounce must not be negative"))
	}
	if c.Defaults.Project != "" {
		if _, ok := c.Projects[c.Defaults.Project]; !ok {
			errs = append(errs, fmt.Errorf("defaults.project: unknown project %q", c.Defaults.Project))
		}
	}
	for _, name := range c.ProjectNames() {
		p := c.Projects[name]
		if name == "" {
			errs = append(errs, fmt.Errorf("projects: empty project name"))
		}
		for _, path := range slices.Concat(p.Platform, p.Dependencies, p.Sources) {
			if path == "" {
				errs = append(errs, fmt.Errorf("projects.%s: empty lookup path", name))
			}
		}
		for _, g := range p.Exclude {
			if !doublestar.ValidatePattern(g) {
				errs = append(errs, fmt.Errorf("projects.%s.exclude: invalid glob %q", name, g))
			}
		}
	}
	return errors.Join(errs...)
}

// ProjectNames returns the configured project names, sorted.
func (c *Config) ProjectNames() []string {
	names := make([]string, 0, len(c.Projects))
	for name := range c.Projects {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Classpath returns the lookup paths and exclusion globs of a project with
// relative paths resolved against the configuration file's directory.
func (c *Config) Classpath(project string) (compiler.Paths, []string, error) {
	p, ok := c.Projects[project]
	if !ok {
		return compiler.Paths{}, nil, fmt.Errorf("%w: %q", ErrUnknownProject, project)
	}
	paths := compiler.Paths{
		Platform:     c.resolve(p.Platform),
		Dependencies: c.resolve(p.Dependencies),
		Sources:      c.resolve(p.Sources),
	}
	return paths, slices.Concat(c.Defaults.Exclude, p.Exclude), nil
}

func (c *Config) resolve(paths []string) []string {
	if len(paths) == 0 {
		return nil
	}
	out := make([]string, len(paths))
	for i, p := range paths {
		if !filepath.IsAbs(p) && c.dir != "" {
			p = filepath.Join(c.dir, p)
		}
		out[i] = filepath.Clean(p)
	}
	return out
}

// ErrUnknownProject is returned for a project missing from the
// configuration.
var ErrUnknownProject = errors.New("config: unknown project")

// LoadFromFile loads configuration from a YAML file on top of the defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if config.Projects == nil {
		config.Projects = map[string]ProjectConfig{}
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	config.dir = filepath.Dir(abs)
	return config, nil
}

// SaveToFile writes the configuration as YAML.
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
