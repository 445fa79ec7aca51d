package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"go/token"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/mod/module"
	"gopkg.in/yaml.v3"
)

// Suffixes are the file name suffixes Scan picks up.
var Suffixes = []string{".keg.yaml", ".keg.yml", ".keg.json"}

// DefaultIgnore lists directory names Scan never descends into.
var DefaultIgnore = []string{"generated", "vendor", "testdata", "node_modules"}

// ErrNoManifests is returned by LoadDir when a directory holds no manifest.
var ErrNoManifests = errors.New("manifest: no manifests found")

// Load reads and parses the manifest at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	for i := range f.Providers {
		f.Providers[i].Source = path
	}
	return f, nil
}

// Parse parses a YAML or JSON manifest and checks its package clause and
// imports. Provider entries are checked later by graph.Validate.
func Parse(data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if err := f.check(); err != nil {
		return nil, err
	}
	f.sources = [][]byte{data}
	return &f, nil
}

func (f *File) check() error {
	if f.Package != "" && !token.IsIdentifier(f.Package) {
		return fmt.Errorf("package %q is not a valid Go identifier", f.Package)
	}
	for _, imp := range f.Imports {
		if err := module.CheckImportPath(imp.Path); err != nil {
			return fmt.Errorf("import: %w", err)
		}
		if imp.Name != "" && imp.Name != "_" && imp.Name != "." && !token.IsIdentifier(imp.Name) {
			return fmt.Errorf("import %q: name %q is not a valid Go identifier", imp.Path, imp.Name)
		}
	}
	return nil
}

// Scan walks root and returns every manifest path, sorted. Directories whose
// name is in ignore (DefaultIgnore when empty) or starts with a dot are skipped.
func Scan(root string, ignore ...string) ([]string, error) {
	if len(ignore) == 0 {
		ignore = DefaultIgnore
	}
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, ".") || slices.Contains(ignore, name)) {
				return filepath.SkipDir
			}
			return nil
		}
		if isManifest(d.Name()) {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}
	slices.Sort(out)
	return out, nil
}

func isManifest(name string) bool {
	for _, s := range Suffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}

// LoadDir scans root, loads every manifest and merges them in path order.
func LoadDir(root string, ignore ...string) (*File, error) {
	paths, err := Scan(root, ignore...)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w under %s", ErrNoManifests, root)
	}
	files := make([]*File, 0, len(paths))
	for _, p := range paths {
		f, err := Load(p)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return Merge(files...)
}

// Merge concatenates manifests in order. Every file must name the same
// package (or none); imports are deduplicated by path.
func Merge(files ...*File) (*File, error) {
	out := &File{}
	aliases := make(map[string]string)
	parsed := true
	for _, f := range files {
		parsed = parsed && f.sources != nil
		out.sources = append(out.sources, f.sources...)
		if f.Package != "" {
			if out.Package != "" && out.Package != f.Package {
				return nil, fmt.Errorf("conflicting packages %q and %q", out.Package, f.Package)
			}
			out.Package = f.Package
		}
		for _, imp := range f.Imports {
			name, seen := aliases[imp.Path]
			if !seen {
				aliases[imp.Path] = imp.Name
				out.Imports = append(out.Imports, imp)
				continue
			}
			if name != imp.Name {
				return nil, fmt.Errorf("import %q has conflicting names %q and %q", imp.Path, name, imp.Name)
			}
		}
		out.Providers = append(out.Providers, f.Providers...)
	}
	if !parsed {
		out.sources = nil
	}
	return out, nil
}
