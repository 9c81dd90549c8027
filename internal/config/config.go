// Package config loads relink settings from relink.toml or relink.yaml.
//
// Settings start from the built-in XNA to FNA defaults; a file only needs
// the keys it changes.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"relink/internal/scope"
)

//go:embed default.toml
var defaultTOML []byte

// FileNames lists the names Find looks for, in order of preference.
var FileNames = []string{"relink.toml", "relink.yaml", "relink.yml"}

// ErrUnknownFormat is returned for config files with an unsupported extension.
var ErrUnknownFormat = errors.New("unknown config format")

// Source describes the library being migrated away from.
type Source struct {
	Namespaces []string `toml:"namespaces" yaml:"namespaces"`
	Assembly   string   `toml:"assembly" yaml:"assembly"`
}

// Target describes the replacement library.
type Target struct {
	Assembly string `toml:"assembly" yaml:"assembly"`
	Library  string `toml:"library" yaml:"library"`
}

// Secondary describes the optional extension library pair.
type Secondary struct {
	Namespaces  []string `toml:"namespaces" yaml:"namespaces"`
	Assembly    string   `toml:"assembly" yaml:"assembly"`
	Replacement string   `toml:"replacement" yaml:"replacement"`
	Library     string   `toml:"library" yaml:"library"`
}

// Paths configures the resource path repairer.
type Paths struct {
	Fix            bool   `toml:"fix" yaml:"fix"`
	Report         bool   `toml:"report" yaml:"report"`
	Root           string `toml:"root" yaml:"root"`
	Content        string `toml:"content" yaml:"content"`
	Suffix         string `toml:"suffix" yaml:"suffix"`
	HelperAssembly string `toml:"helper_assembly" yaml:"helper_assembly"`
	HelperType     string `toml:"helper_type" yaml:"helper_type"`
	HelperMethod   string `toml:"helper_method" yaml:"helper_method"`
}

// Enabled reports whether literals are inspected at all.
func (p Paths) Enabled() bool { return p.Fix || p.Report }

// Config is the complete set of settings.
type Config struct {
	Source    Source    `toml:"source" yaml:"source"`
	Target    Target    `toml:"target" yaml:"target"`
	Secondary Secondary `toml:"secondary" yaml:"secondary"`
	Paths     Paths     `toml:"paths" yaml:"paths"`

	// File is the file the settings were read from, empty for defaults.
	File string `toml:"-" yaml:"-"`
}

// KeyError reports an invalid or unknown configuration key.
type KeyError struct {
	File string
	Key  string
	Msg  string
}

func (e *KeyError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("%s: %s", e.Key, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.File, e.Key, e.Msg)
}

// Default returns the built-in settings.
func Default() Config {
	var cfg Config
	if _, err := toml.Decode(string(defaultTOML), &cfg); err != nil {
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
	}
	return cfg
}

// Load reads path over the defaults and validates the result. The syntax
// is chosen by extension.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = decodeTOML(data, &cfg)
	case ".yaml", ".yml":
		err = decodeYAML(data, &cfg)
	default:
		return Config{}, fmt.Errorf("%s: %w", path, ErrUnknownFormat)
	}
	if err != nil {
		var ke *KeyError
		if errors.As(err, &ke) {
			ke.File = path
			return Config{}, ke
		}
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	cfg.File = path
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decodeTOML(data []byte, cfg *Config) error {
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return fmt.Errorf("failed to parse TOML: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return &KeyError{Key: undecoded[0].String(), Msg: "unknown key"}
	}
	return nil
}

func decodeYAML(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		// an empty document keeps the defaults
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	return nil
}

// Find walks up from startDir looking for one of FileNames.
func Find(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
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
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Discover loads the explicit path when given, otherwise the nearest config
// file above startDir, otherwise the defaults.
func Discover(explicit, startDir string) (Config, error) {
	if explicit != "" {
		return Load(explicit)
	}
	path, ok, err := Find(startDir)
	if err != nil {
		return Config{}, err
	}
	if !ok {
		return Default(), nil
	}
	return Load(path)
}

// Validate checks required keys.
func (c Config) Validate() error {
	fail := func(key, msg string) error {
		return &KeyError{File: c.File, Key: key, Msg: msg}
	}
	switch {
	case len(nonEmpty(c.Source.Namespaces)) == 0:
		return fail("source.namespaces", "at least one namespace is required")
	case strings.TrimSpace(c.Source.Assembly) == "":
		return fail("source.assembly", "must not be empty")
	case strings.TrimSpace(c.Target.Assembly) == "":
		return fail("target.assembly", "must not be empty")
	case strings.TrimSpace(c.Target.Library) == "":
		return fail("target.library", "must not be empty")
	}
	if c.Secondary.Library != "" {
		if strings.TrimSpace(c.Secondary.Replacement) == "" {
			return fail("secondary.replacement", "required when secondary.library is set")
		}
		if len(nonEmpty(c.Secondary.Namespaces)) == 0 {
			return fail("secondary.namespaces", "required when secondary.library is set")
		}
	}
	if c.Paths.Enabled() {
		if c.Paths.Suffix != "" && !strings.HasPrefix(c.Paths.Suffix, ".") {
			return fail("paths.suffix", fmt.Sprintf("%q must start with a dot", c.Paths.Suffix))
		}
		if c.Paths.Fix && (c.Paths.HelperType == "" || c.Paths.HelperMethod == "") {
			return fail("paths.helper_type", "helper type and method are required when paths.fix is set")
		}
	}
	return nil
}

// Scopes returns the classifier settings. Secondary classification is only
// enabled once the secondary library has actually been loaded.
func (c Config) Scopes(secondaryLoaded bool) scope.Config {
	return scope.Config{
		Primary:          nonEmpty(c.Source.Namespaces),
		Secondary:        nonEmpty(c.Secondary.Namespaces),
		SecondaryEnabled: secondaryLoaded && c.Secondary.Library != "",
	}
}

// Resolve makes a relative path from the config relative to the directory
// of the config file. Defaults resolve against the working directory.
func (c Config) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || c.File == "" {
		return path
	}
	return filepath.Join(filepath.Dir(c.File), path)
}

func nonEmpty(list []string) []string {
	var out []string
	for _, s := range list {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
