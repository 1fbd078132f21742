// Package config builds the crawler's run configuration from CLI flags and,
// on resume, a persisted config.json.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Config holds every tunable of a crawl run.
type Config struct {
	seedURL        string
	workDir        string
	maxDepth       int
	maxAttempts    int
	baseDelay      time.Duration
	pageDelay      time.Duration
	errorInjection bool
	noUI           bool
	configFilePath string
}

type configDTO struct {
	URL         string `json:"url"`
	MaxDepth    int    `json:"max_depth"`
	MaxAttempts int    `json:"max_attempts,omitempty"`
}

// WithDefault returns a Config seeded with seedURL and production defaults,
// matching the original's module-level constants.
func WithDefault(seedURL string) *Config {
	return &Config{
		seedURL:     seedURL,
		workDir:     "./data",
		maxDepth:    3,
		maxAttempts: 2,
		baseDelay:   time.Second,
		pageDelay:   100 * time.Millisecond,
	}
}

func (c *Config) WithSeedURL(url string) *Config {
	c.seedURL = url
	return c
}

func (c *Config) WithWorkDir(dir string) *Config {
	c.workDir = dir
	return c
}

func (c *Config) WithMaxDepth(depth int) *Config {
	c.maxDepth = depth
	return c
}

func (c *Config) WithMaxAttempts(attempts int) *Config {
	c.maxAttempts = attempts
	return c
}

func (c *Config) WithBaseDelay(delay time.Duration) *Config {
	c.baseDelay = delay
	return c
}

func (c *Config) WithErrorInjection(enabled bool) *Config {
	c.errorInjection = enabled
	return c
}

func (c *Config) WithNoUI(noUI bool) *Config {
	c.noUI = noUI
	return c
}

// Build validates and finalizes the Config. If workDir/config.json exists,
// its url and max_depth unconditionally override whatever was set via the
// With* methods (a resumed crawl cannot change scope); max_attempts never
// overrides, since it is a per-run retry budget, not a crawl-identity field.
func (c *Config) Build() (Config, error) {
	if c.seedURL == "" {
		return Config{}, fmt.Errorf("%w: seed url cannot be empty", ErrInvalidConfig)
	}
	if c.workDir == "" {
		return Config{}, fmt.Errorf("%w: work dir cannot be empty", ErrInvalidConfig)
	}

	c.configFilePath = c.workDir + "/config.json"

	if _, err := os.Stat(c.configFilePath); err == nil {
		dto, err := readConfigDTO(c.configFilePath)
		if err != nil {
			return Config{}, err
		}
		c.seedURL = dto.URL
		c.maxDepth = dto.MaxDepth
	}

	return *c, nil
}

// Persist writes url/max_depth/max_attempts to workDir/config.json, creating
// it on a fresh crawl and leaving it untouched in meaning on resume (the
// file is rewritten with the same url/max_depth it was read from).
func (c *Config) Persist() error {
	dto := configDTO{URL: c.seedURL, MaxDepth: c.maxDepth, MaxAttempts: c.maxAttempts}
	encoded, err := json.MarshalIndent(dto, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.configFilePath, encoded, 0644)
}

func readConfigDTO(path string) (configDTO, error) {
	if _, err := os.Stat(path); err != nil {
		return configDTO{}, fmt.Errorf("%w: %s", ErrFileDoesNotExist, err.Error())
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return configDTO{}, fmt.Errorf("%w: %s", ErrReadConfigFail, err.Error())
	}
	var dto configDTO
	if err := json.Unmarshal(content, &dto); err != nil {
		return configDTO{}, fmt.Errorf("%w: %s", ErrConfigParsingFail, err.Error())
	}
	return dto, nil
}

func (c *Config) SeedURL() string          { return c.seedURL }
func (c *Config) WorkDir() string          { return c.workDir }
func (c *Config) MaxDepth() int            { return c.maxDepth }
func (c *Config) MaxAttempts() int         { return c.maxAttempts }
func (c *Config) BaseDelay() time.Duration { return c.baseDelay }
func (c *Config) PageDelay() time.Duration { return c.pageDelay }
func (c *Config) ErrorInjection() bool     { return c.errorInjection }
func (c *Config) NoUI() bool               { return c.noUI }
func (c *Config) ConfigFilePath() string   { return c.configFilePath }
