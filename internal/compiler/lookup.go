package compiler

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/jward/interop/internal/store"
	"github.com/jward/interop/platform"
)

// Paths are the three ordered lookup paths of a session. Earlier entries
// shadow later ones: platform, then dependencies, then sources.
type Paths struct {
	Platform     []string `json:"platform,omitempty"`
	Dependencies []string `json:"dependencies,omitempty"`
	Sources      []string `json:"sources,omitempty"`
}

// EmbeddedPlatform is the root name of the built-in platform stubs, used
// when Paths.Platform is empty.
const EmbeddedPlatform = "embedded:platform"

// root is one opened lookup path entry.
type root struct {
	name   string
	origin store.Origin
	rank   int
	fsys   fs.FS
	closer io.Closer
}

func (r *root) close() {
	if r.closer != nil {
		r.closer.Close()
	}
}

// key is the index path of a file under the root.
func (r *root) key(rel string) string {
	return r.name + "!/" + rel
}

// openRoots opens every lookup path in rank order. On error, any roots
// already opened are closed.
func openRoots(p Paths) ([]*root, error) {
	type entry struct {
		path   string
		origin store.Origin
	}
	var entries []entry
	if len(p.Platform) == 0 {
		entries = append(entries, entry{EmbeddedPlatform, store.OriginPlatform})
	}
	for _, e := range p.Platform {
		entries = append(entries, entry{e, store.OriginPlatform})
	}
	for _, e := range p.Dependencies {
		entries = append(entries, entry{e, store.OriginDependency})
	}
	for _, e := range p.Sources {
		entries = append(entries, entry{e, store.OriginSource})
	}

	seen := make(map[string]bool, len(entries))
	var roots []*root
	for _, e := range entries {
		name := e.path
		if name != EmbeddedPlatform {
			abs, err := filepath.Abs(e.path)
			if err != nil {
				closeRoots(roots)
				return nil, fmt.Errorf("%w: %s: %v", ErrLookupPath, e.path, err)
			}
			name = abs
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		r, err := openRoot(name, e.origin)
		if err != nil {
			closeRoots(roots)
			return nil, err
		}
		r.rank = len(roots)
		roots = append(roots, r)
	}
	return roots, nil
}

func openRoot(name string, origin store.Origin) (*root, error) {
	if name == EmbeddedPlatform {
		return &root{name: name, origin: origin, fsys: platform.FS}, nil
	}
	info, err := os.Stat(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLookupPath, err)
	}
	if info.IsDir() {
		return &root{name: name, origin: origin, fsys: os.DirFS(name)}, nil
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jar", ".zip":
		zr, err := zip.OpenReader(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLookupPath, name, err)
		}
		return &root{name: name, origin: origin, fsys: zr, closer: zr}, nil
	}
	return nil, fmt.Errorf("%w: %s: not a directory or source archive", ErrLookupPath, name)
}

func closeRoots(roots []*root) {
	for _, r := range roots {
		r.close()
	}
}

// javaFiles lists the root-relative paths of the .java files under r,
// skipping hidden directories and anything matching an exclude glob.
func (r *root) javaFiles(excludes []string) ([]string, error) {
	var files []string
	err := fs.WalkDir(r.fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == "." {
			return nil
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") || excluded(excludes, p+"/") {
				return fs.SkipDir
			}
			return nil
		}
		if path.Ext(p) != ".java" || excluded(excludes, p) {
			return nil
		}
		files = append(files, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: walk %s: %v", ErrLookupPath, r.name, err)
	}
	return files, nil
}

func excluded(globs []string, rel string) bool {
	for _, g := range globs {
		if ok, _ := doublestar.Match(g, rel); ok {
			return true
		}
		if strings.HasSuffix(rel, "/") {
			if ok, _ := doublestar.Match(g, strings.TrimSuffix(rel, "/")); ok {
				return true
			}
		}
	}
	return false
}

// validateGlobs rejects malformed exclude patterns up front.
func validateGlobs(globs []string) error {
	var errs []error
	for _, g := range globs {
		if !doublestar.ValidatePattern(g) {
			errs = append(errs, fmt.Errorf("invalid exclude pattern %q", g))
		}
	}
	return errors.Join(errs...)
}
