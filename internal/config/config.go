// Package config assembles and validates the daemon's startup configuration.
// Any error here is fatal: the process must exit before the first cycle runs.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"traefik-dns-sync/internal/ipresolver"
)

// EnvPrefix namespaces the environment variables viper reads, e.g.
// TRAEFIK_DNS_SYNC_SOURCE for --source.
const EnvPrefix = "TRAEFIK_DNS_SYNC"

// tokenEnv is honored without the prefix so existing Cloudflare tooling
// conventions keep working.
const tokenEnv = "CLOUDFLARE_API_TOKEN"

// Config is the validated runtime configuration for the sync daemon.
type Config struct {
	Source         string
	Interval       time.Duration
	Once           bool
	DryRun         bool
	CleanupStale   bool
	APIToken       string
	IPSources      []string
	DefaultProxied bool
	RequestTimeout time.Duration
	StatusAddr     string
}

// Load reads the viper-bound flag/env values and validates them.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Source:         strings.TrimSpace(v.GetString("source")),
		Interval:       v.GetDuration("interval"),
		Once:           v.GetBool("once"),
		DryRun:         v.GetBool("dry-run"),
		CleanupStale:   v.GetBool("cleanup-stale"),
		APIToken:       strings.TrimSpace(v.GetString("token")),
		IPSources:      v.GetStringSlice("ip-sources"),
		DefaultProxied: v.GetBool("proxied"),
		RequestTimeout: v.GetDuration("timeout"),
		StatusAddr:     strings.TrimSpace(v.GetString("status-addr")),
	}

	if cfg.APIToken == "" {
		cfg.APIToken = strings.TrimSpace(os.Getenv(tokenEnv))
	}
	if len(cfg.IPSources) == 0 {
		cfg.IPSources = append([]string{}, ipresolver.DefaultSources...)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Source == "" {
		return errors.New("missing source path: set --source or " + EnvPrefix + "_SOURCE")
	}
	info, err := os.Stat(c.Source)
	if err != nil {
		return fmt.Errorf("source path %s: %w", c.Source, err)
	}
	if !info.Mode().IsRegular() && !info.IsDir() {
		return fmt.Errorf("source path must be a file or directory: %s", c.Source)
	}
	if c.APIToken == "" {
		return errors.New("missing Cloudflare API token: set --token or " + tokenEnv)
	}
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", c.Interval)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.RequestTimeout)
	}
	for _, source := range c.IPSources {
		if strings.TrimSpace(source) == "" {
			return errors.New("ip-sources must not contain empty entries")
		}
	}
	return nil
}
