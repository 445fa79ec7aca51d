// Package config loads the keg command configuration.
//
// Values are layered, later sources winning:
//
//	defaults → keg.yaml → .env → KEG_* environment → command-line flags
//
// Flags are applied by the command itself; Load covers the rest.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/sghaida/keg/internal/logging"
)

// DefaultFile is the configuration file looked up when none is given.
const DefaultFile = "keg.yaml"

// Config is the keg command configuration.
type Config struct {
	// SrcDir is scanned for manifests.
	SrcDir string `yaml:"srcDir"`

	// OutDir and OutFile locate the generated registration file.
	OutDir  string `yaml:"outDir"`
	OutFile string `yaml:"outFile"`

	// Package overrides the package clause declared by the manifests.
	Package string `yaml:"package,omitempty"`

	// Runtime overrides the import path of the di runtime.
	Runtime string `yaml:"runtime,omitempty"`

	// Strict rejects ambiguous tokens even when nothing requests them as a
	// single value.
	Strict bool `yaml:"strict"`

	// FailFast stops validation at the first violation.
	FailFast bool `yaml:"failFast"`

	// Ignore lists directory names skipped while scanning.
	Ignore []string `yaml:"ignore,omitempty"`

	Log logging.Config `yaml:"log"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		SrcDir:  "./src",
		OutDir:  "./src/generated",
		OutFile: "container.gen.go",
		Strict:  true,
		Log:     *logging.DefaultConfig(),
	}
}

// Load builds the configuration from defaults, the YAML file at path, the
// given .env files and the KEG_* environment.
//
// An empty path falls back to DefaultFile when it exists. Missing .env files
// are ignored; .env values never override variables already set in the
// environment.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	if err := cfg.merge(path); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	dotenv := map[string]string{}
	for _, f := range envFiles {
		vals, err := godotenv.Read(f)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to read env file %s: %w", f, err)
		}
		for k, v := range vals {
			if _, ok := dotenv[k]; !ok {
				dotenv[k] = v
			}
		}
	}

	if err := cfg.applyEnv(func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) merge(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"KEG_SRC_DIR":    &c.SrcDir,
		"KEG_OUT_DIR":    &c.OutDir,
		"KEG_OUT_FILE":   &c.OutFile,
		"KEG_PACKAGE":    &c.Package,
		"KEG_RUNTIME":    &c.Runtime,
		"KEG_LOG_LEVEL":  &c.Log.Level,
		"KEG_LOG_FORMAT": &c.Log.Format,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	bools := map[string]*bool{
		"KEG_STRICT":    &c.Strict,
		"KEG_FAIL_FAST": &c.FailFast,
	}
	for key, dst := range bools {
		v, ok := lookup(key)
		if !ok || v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: invalid boolean %q", key, v)
		}
		*dst = b
	}

	if v, ok := lookup("KEG_IGNORE"); ok && v != "" {
		c.Ignore = splitList(v)
	}
	return nil
}

// OutPath returns the path of the generated file.
func (c *Config) OutPath() string { return filepath.Join(c.OutDir, c.OutFile) }

// Validate reports settings the command cannot work with.
func (c *Config) Validate() error {
	switch {
	case c.SrcDir == "":
		return errors.New("config: srcDir is empty")
	case c.OutDir == "":
		return errors.New("config: outDir is empty")
	case c.OutFile == "" || !strings.HasSuffix(c.OutFile, ".go"):
		return fmt.Errorf("config: outFile %q must name a .go file", c.OutFile)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
