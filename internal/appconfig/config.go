// Package appconfig loads the user's local CLI preferences, a small
// TOML file distinct from the (out-of-scope) policy manifest: default
// output format, preferred vocabulary, and cache-path overrides that
// the user would otherwise have to repeat as flags on every invocation.
package appconfig

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/llm-cost/llm-cost/internal/errs"
)

// Config is the decoded shape of ~/.config/llm-cost/config.toml.
type Config struct {
	DefaultFormat       string `toml:"default_format"`
	DefaultVocabulary   string `toml:"default_vocabulary"`
	CacheDirOverride    string `toml:"cache_dir"`
	CatalogPathOverride string `toml:"catalog_path"`
}

// Default returns the zero-configuration defaults used when no config
// file is present.
func Default() Config {
	return Config{
		DefaultFormat:     "table",
		DefaultVocabulary: "o200k_base",
	}
}

// Load reads and decodes the TOML config file at path. A missing file
// is not an error: Load returns Default() unchanged.
func Load(path string) (Config, error) {
	cfg := Default()

	buf, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, errs.ConfigurationWrap("reading config file", err).WithField("path", path)
	}

	if err := toml.Unmarshal(buf, &cfg); err != nil {
		return Config{}, errs.ConfigurationWrap("parsing config file", err).WithField("path", path)
	}
	return cfg, nil
}

// DefaultPath returns the conventional config file location:
// ${XDG_CONFIG_HOME:-~/.config}/llm-cost/config.toml on Unix-like
// systems, mirroring the cache-directory resolution convention used
// by the pricing catalogue resolver.
func DefaultPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "llm-cost", "config.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "llm-cost", "config.toml")
	}
	return filepath.Join(home, ".config", "llm-cost", "config.toml")
}
