// Package config loads the crawler's TOML configuration and blacklist
// files, and writes a default config for the -g/--generate-config flag,
// per spec §6.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/cametumbling/siteclone/internal/apperr"
)

// Config is the parsed contents of the crawler's TOML config file.
type Config struct {
	Crawler CrawlerSection `toml:"crawler"`
	Network NetworkSection `toml:"network"`
	Output  OutputSection  `toml:"output"`
}

// CrawlerSection holds the [crawler] table.
type CrawlerSection struct {
	BaseURL     string `toml:"base_url"`
	WorkerCount int    `toml:"worker_count"`
	MaxDepth    int    `toml:"max_depth"`
	UserAgent   string `toml:"user_agent"`
	MaxPages    int    `toml:"max_pages"` // 0 = unlimited, spec §9 optional enhancement
}

// NetworkSection holds the [network] table.
type NetworkSection struct {
	RequestTimeoutMs int `toml:"request_timeout_ms"`
}

// OutputSection holds the [output] table.
type OutputSection struct {
	DefaultSaveDir string `toml:"default_save_dir"`
}

// Defaults returns the configuration used when no config file is present.
func Defaults() Config {
	return Config{
		Crawler: CrawlerSection{
			WorkerCount: 8,
			MaxDepth:    5,
			UserAgent:   "siteclone/1.0",
			MaxPages:    0,
		},
		Network: NetworkSection{
			RequestTimeoutMs: 10000,
		},
		Output: OutputSection{
			DefaultSaveDir: "./mirror",
		},
	}
}

// RequestTimeout converts the millisecond field into a time.Duration.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.Network.RequestTimeoutMs) * time.Millisecond
}

// Load reads and parses the TOML config file at path. A missing file is not
// an error: Load returns Defaults() and ok=false so the caller can warn.
// A malformed file that exists is a fatal apperr.Kind Parse error.
func Load(path string) (Config, bool, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Defaults(), false, nil
	}

	cfg := Defaults()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, false, apperr.New(apperr.Parse, "config.Load", err)
	}
	return cfg, true, nil
}

// BlacklistFile is the parsed contents of a blacklist TOML file.
type BlacklistFile struct {
	Domains  []string `toml:"domains"`
	URLs     []string `toml:"urls"`
	Patterns []string `toml:"patterns"`
}

// LoadBlacklist reads a blacklist file. A missing file yields an empty,
// no-op blacklist definition rather than an error. A malformed file is
// fatal per spec §6.
func LoadBlacklist(path string) (BlacklistFile, bool, error) {
	if path == "" {
		return BlacklistFile{}, false, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return BlacklistFile{}, false, nil
	}

	var bf BlacklistFile
	if _, err := toml.DecodeFile(path, &bf); err != nil {
		return BlacklistFile{}, false, apperr.New(apperr.Parse, "config.LoadBlacklist", err)
	}
	return bf, true, nil
}

const defaultConfigTemplate = `# siteclone configuration

[crawler]
# Seed URL to start crawling from.
base_url = "https://example.com/"
worker_count = 8
max_depth = 5
user_agent = "siteclone/1.0"
# max_pages = 0 means unlimited.
max_pages = 0

[network]
request_timeout_ms = 10000

[output]
default_save_dir = "./mirror"
`

// WriteDefault writes a commented default config file to path,
// satisfying the -g/--generate-config CLI flag (spec §6, supplemented per
// spec §9's open question on enhancements outside the core contract).
func WriteDefault(path string) error {
	if err := os.WriteFile(path, []byte(defaultConfigTemplate), 0o644); err != nil {
		return apperr.New(apperr.IO, "config.WriteDefault", err)
	}
	return nil
}

// ParseScope parses the comma-separated --scope flag value into a domain
// list, trimming whitespace around each entry.
func ParseScope(raw string) []string {
	if raw == "" {
		return nil
	}
	var domains []string
	for _, part := range strings.Split(raw, ",") {
		if s := strings.TrimSpace(part); s != "" {
			domains = append(domains, s)
		}
	}
	return domains
}

// Validate checks that a loaded config's required crawler fields are sane,
// returning a Validation AppError describing the first problem found.
func Validate(cfg Config) error {
	if cfg.Crawler.WorkerCount <= 0 {
		return apperr.New(apperr.Validation, "config.Validate", fmt.Errorf("worker_count must be > 0"))
	}
	if cfg.Crawler.MaxDepth < 0 {
		return apperr.New(apperr.Validation, "config.Validate", fmt.Errorf("max_depth must be >= 0"))
	}
	return nil
}
