package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/interop/internal/compiler"
)

const sampleYAML = `defaults:
  project: app
  exclude: ["**/generated/**"]
  watch_debounce: 50ms
projects:
  app:
    dependencies: [libs/dep-sources.jar]
    sources: [src/main/java, /abs/src]
    exclude: ["**/*Test.java"]
  tools:
    platform: [jdk]
`

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ProjectConfigFile)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadFromFile(writeConfig(t, dir, sampleYAML))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "app", cfg.Defaults.Project)
	assert.Equal(t, 50*time.Millisecond, cfg.Defaults.WatchDebounce)
	assert.Equal(t, []string{"app", "tools"}, cfg.ProjectNames())

	paths, excludes, err := cfg.Classpath("app")
	require.NoError(t, err)
	assert.Equal(t, compiler.Paths{
		Dependencies: []string{filepath.Join(dir, "libs", "dep-sources.jar")},
		Sources:      []string{filepath.Join(dir, "src", "main", "java"), "/abs/src"},
	}, paths)
	assert.Equal(t, []string{"**/generated/**", "**/*Test.java"}, excludes)

	paths, _, err = cfg.Classpath("tools")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "jdk")}, paths.Platform)

	_, _, err = cfg.Classpath("nope")
	assert.ErrorIs(t, err, ErrUnknownProject)
}

func TestLoadFromFile_Defaults(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, t.TempDir(), "projects:\n  app: {}\n"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Defaults, cfg.Defaults)
}

func TestLoadFromFile_Errors(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = LoadFromFile(writeConfig(t, t.TempDir(), "projects: [oops"))
	assert.ErrorContains(t, err, "failed to parse")
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{name: "valid default config", modify: func(*Config) {}},
		{
			name:    "bad default glob",
			modify:  func(c *Config) { c.Defaults.Exclude = []string{"[x"} },
			wantErr: "defaults.exclude",
		},
		{
			name:    "unknown default project",
			modify:  func(c *Config) { c.Defaults.Project = "ghost" },
			wantErr: "defaults.project",
		},
		{
			name:    "empty lookup path",
			modify:  func(c *Config) { c.Projects["app"] = ProjectConfig{Sources: []string{""}} },
			wantErr: "projects.app: empty lookup path",
		},
		{
			name:    "bad project glob",
			modify:  func(c *Config) { c.Projects["app"] = ProjectConfig{Exclude: []string{"{a"}} },
			wantErr: "projects.app.exclude",
		},
		{
			name:    "negative debounce",
			modify:  func(c *Config) { c.Defaults.WatchDebounce = -time.Second },
			wantErr: "watch_debounce",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestSaveToFile_RoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Projects["app"] = ProjectConfig{Sources: []string{"src"}}
	path := filepath.Join(t.TempDir(), "nested", ProjectConfigFile)
	require.NoError(t, cfg.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Projects, loaded.Projects)
}

func TestLoader_FindsConfigInParent(t *testing.T) {
	root := t.TempDir()
	want := writeConfig(t, root, sampleYAML)
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	t.Chdir(nested)

	cfg, path, err := NewLoader(nil).Load("")
	require.NoError(t, err)
	assert.Equal(t, want, path)
	assert.Len(t, cfg.Projects, 2)
}

func TestLoader_Explicit(t *testing.T) {
	l := NewLoader(nil)
	_, _, err := l.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)

	bad := writeConfig(t, t.TempDir(), "defaults:\n  project: ghost\n")
	_, _, err = l.Load(bad)
	assert.ErrorContains(t, err, "unknown project")
}

func TestProvider_RereadsFile(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "projects:\n  app:\n    sources: [one]\n")
	p := NewProvider(path, nil)
	ctx := context.Background()

	paths, _, err := p.Classpath(ctx, "app")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "one")}, paths.Sources)

	writeConfig(t, dir, "projects:\n  app:\n    sources: [two]\n")
	paths, _, err = p.Classpath(ctx, "app")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "two")}, paths.Sources)

	_, _, err = p.Classpath(ctx, "other")
	assert.ErrorIs(t, err, ErrUnknownProject)
}
