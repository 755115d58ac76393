// Package project reads the cschema.toml manifest and computes the content
// digests that key the extraction cache.
package project

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Manifest is a loaded cschema.toml.
type Manifest struct {
	Path    string
	Root    string
	Extract ExtractConfig
	// Defined records which optional keys were present, so flags only
	// override what the manifest left out when asked to.
	Defined map[string]bool
}

// ExtractConfig is the [extract] section.
type ExtractConfig struct {
	Headers   []string `toml:"headers"`
	Output    string   `toml:"output"`
	Format    string   `toml:"format"`
	ClangArgs []string `toml:"clang_args"`
	Jobs      int      `toml:"jobs"`
	KeepGoing bool     `toml:"keep_going"`
	Cache     *bool    `toml:"cache"`
}

type manifestFile struct {
	Extract ExtractConfig `toml:"extract"`
}

var optionalKeys = []string{"output", "format", "clang_args", "jobs", "keep_going", "cache"}

// LoadManifest decodes the manifest at path. Header globs are expanded
// relative to the manifest directory.
func LoadManifest(path string) (*Manifest, error) {
	var f manifestFile
	meta, err := toml.DecodeFile(path, &f)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("extract") {
		return nil, fmt.Errorf("%s: missing [extract]", path)
	}
	if !meta.IsDefined("extract", "headers") || len(f.Extract.Headers) == 0 {
		return nil, fmt.Errorf("%s: missing [extract].headers", path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return nil, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if f.Extract.Jobs < 0 {
		return nil, fmt.Errorf("%s: [extract].jobs must not be negative", path)
	}

	m := &Manifest{
		Path:    path,
		Root:    filepath.Dir(path),
		Extract: f.Extract,
		Defined: make(map[string]bool, len(optionalKeys)),
	}
	for _, k := range optionalKeys {
		m.Defined[k] = meta.IsDefined("extract", k)
	}
	headers, err := expandHeaders(m.Root, f.Extract.Headers)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m.Extract.Headers = headers
	if m.Extract.Output != "" && !filepath.IsAbs(m.Extract.Output) {
		m.Extract.Output = filepath.Join(m.Root, filepath.FromSlash(m.Extract.Output))
	}
	return m, nil
}

// Load finds and loads the manifest above startDir. ok is false when there
// is none.
func Load(startDir string) (m *Manifest, ok bool, err error) {
	path, ok, err := FindManifest(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	m, err = LoadManifest(path)
	return m, true, err
}

// CacheEnabled reports the cache setting, on unless turned off.
func (m *Manifest) CacheEnabled() bool {
	return m == nil || m.Extract.Cache == nil || *m.Extract.Cache
}

func expandHeaders(root string, patterns []string) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	for _, p := range patterns {
		pattern := filepath.FromSlash(strings.TrimSpace(p))
		if pattern == "" {
			continue
		}
		if !filepath.IsAbs(pattern) {
			pattern = filepath.Join(root, pattern)
		}
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad header pattern %q: %w", p, err)
		}
		if len(matches) == 0 {
			if _, statErr := os.Stat(pattern); statErr != nil {
				return nil, fmt.Errorf("header %q matches no files", p)
			}
			matches = []string{pattern}
		}
		for _, match := range matches {
			if _, dup := seen[match]; dup {
				continue
			}
			seen[match] = struct{}{}
			out = append(out, match)
		}
	}
	return out, nil
}

// Template is the manifest written by `cschema init`.
func Template(headers []string) string {
	var b strings.Builder
	b.WriteString("[extract]\n")
	b.WriteString("headers = [")
	for i, h := range headers {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%q", filepath.ToSlash(h))
	}
	b.WriteString("]\n")
	b.WriteString("output = \"schema\"\n")
	b.WriteString("format = \"json\"\n")
	b.WriteString("clang_args = []\n")
	b.WriteString("keep_going = false\n")
	return b.String()
}
