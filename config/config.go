// Package config loads the server configuration from a tycheck.toml or
// tycheck.jsonnet file.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/google/go-jsonnet"
	"github.com/op/go-logging"
)

var log = logging.MustGetLogger("config")

// FileNames are looked up, in order, by Find.
var FileNames = []string{"tycheck.toml", "tycheck.jsonnet"}

type Config struct {
	// Root is the workspace directory collaborators run in. Relative file
	// names in linter output are resolved against it.
	Root string `toml:"root" json:"root"`

	Linter    []string `toml:"linter" json:"linter"`
	Formatter []string `toml:"formatter" json:"formatter"`
	Analyzer  []string `toml:"analyzer" json:"analyzer"`

	Format FormatConfig `toml:"format" json:"format"`
	Log    LogConfig    `toml:"log" json:"log"`
}

type FormatConfig struct {
	// MinimalEdits selects line edits over a whole-document replacement.
	MinimalEdits bool `toml:"minimal_edits" json:"minimal_edits"`
}

type LogConfig struct {
	Level string `toml:"level" json:"level"`
	File  string `toml:"file" json:"file"`
}

func Default() *Config {
	return &Config{
		Linter:    []string{"cargo", "clippy", "--workspace", "--message-format", "json"},
		Formatter: []string{"rustfmt", "--edition", "2021"},
		Format: FormatConfig{
			MinimalEdits: true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads path over the defaults. The format follows the file extension.
func Load(path string) (*Config, error) {
	config := Default()

	switch filepath.Ext(path) {
	case ".toml":
		meta, err := toml.DecodeFile(path, config)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
		}
		for _, key := range meta.Undecoded() {
			log.Warningf("%s: unknown key %q", path, key.String())
		}

	case ".jsonnet", ".libsonnet", ".json":
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		dir := filepath.Dir(path)
		vm := jsonnet.MakeVM()
		vm.Importer(&jsonnet.FileImporter{JPaths: []string{dir}})
		vm.ExtVar("root", dir)
		output, err := vm.EvaluateAnonymousSnippet(path, string(content))
		if err != nil {
			return nil, fmt.Errorf("%s: failed to evaluate Jsonnet: %w", path, err)
		}
		decoder := json.NewDecoder(bytes.NewReader([]byte(output)))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(config); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}

	default:
		return nil, fmt.Errorf("%s: unsupported configuration format", path)
	}

	if config.Root != "" && !filepath.IsAbs(config.Root) {
		config.Root = filepath.Join(filepath.Dir(path), config.Root)
	}
	return config, config.Validate()
}

// Find looks for a configuration file in dir and its parents.
func Find(dir string) (string, bool, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve %q: %w", dir, err)
	}
	for {
		for _, name := range FileNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, true, nil
			} else if !errors.Is(err, os.ErrNotExist) {
				return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false, nil
		}
		dir = parent
	}
}

func (c *Config) Validate() error {
	if len(c.Linter) == 0 {
		return errors.New("linter command is empty")
	}
	if len(c.Formatter) == 0 {
		return errors.New("formatter command is empty")
	}
	if _, err := logging.LogLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log level %q: %w", c.Log.Level, err)
	}
	return nil
}

func (c *Config) String() string {
	return fmt.Sprintf("root=%s linter=%q formatter=%q analyzer=%q minimal_edits=%t",
		c.Root, strings.Join(c.Linter, " "), strings.Join(c.Formatter, " "), strings.Join(c.Analyzer, " "), c.Format.MinimalEdits)
}
