// Package config provides configuration management for CityOS.
//
// Settings come from a YAML file layered over DefaultConfig, then from
// environment variables for secrets and deployment-specific values.
//
// Config file locations (priority order):
//  1. $CITYOS_CONFIG
//  2. ./cityos.yaml
//  3. ~/.config/cityos/config.yaml
//  4. /etc/cityos/config.yaml
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultCamaraURL        = "https://dadosabertos.camara.leg.br/api/v2"
	DefaultSenadoURL        = "https://legis.senado.leg.br/dadosabertos"
	DefaultTransparenciaURL = "https://api.portaldatransparencia.gov.br"
	DefaultQuickChartURL    = "https://quickchart.io"
	DefaultModel            = "gpt-4.1-nano"
)

// Load finds and loads the config file, or returns defaults if none found.
// Environment overrides are applied either way.
func Load() (*Config, string, error) {
	path := FindConfigPath()

	if path == "" {
		cfg := DefaultConfig()
		if err := cfg.ApplyEnv(); err != nil {
			return nil, "", err
		}
		cfg.applyDefaults()
		return cfg, "", nil
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, path, err
	}

	cfg.applyDefaults()

	return cfg, path, nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Server: ServerConfig{
			Addr:              ":3000",
			ReadHeaderTimeout: Duration(10 * time.Second),
			ShutdownTimeout:   Duration(10 * time.Second),
			CORSOrigin:        "*",
		},
		Database: DatabaseConfig{Path: "./cityos.db"},
		Cache:    CacheConfig{TTL: Duration(5 * time.Minute)},
		Upstream: UpstreamConfig{
			CamaraURL:        DefaultCamaraURL,
			SenadoURL:        DefaultSenadoURL,
			TransparenciaURL: DefaultTransparenciaURL,
			QuickChartURL:    DefaultQuickChartURL,
			Timeout:          Duration(15 * time.Second),
			ProbeEnabled:     true,
			ProbeInterval:    Duration(5 * time.Minute),
		},
		LLM: LLMConfig{Model: DefaultModel},
		Analysis: AnalysisConfig{
			ExpenseYear: 2023,
			Deputies:    15,
			Concurrency: 4,
			AskDelay:    Duration(500 * time.Millisecond),
		},
		Demo: DemoConfig{
			AutoStart:    true,
			TickInterval: Duration(1200 * time.Millisecond),
			PrimeTicks:   3,
			Timezone:     "America/Sao_Paulo",
		},
		Logging:   LoggingConfig{Level: "info", Format: "json"},
		Telemetry: TelemetryConfig{ServiceName: "cityos"},
	}
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.Version == 0 {
		c.Version = d.Version
	}
	if c.Server.Addr == "" {
		c.Server.Addr = d.Server.Addr
	}
	if c.Database.Path == "" {
		c.Database.Path = d.Database.Path
	}
	if c.Cache.TTL <= 0 {
		c.Cache.TTL = d.Cache.TTL
	}
	c.Upstream.CamaraURL = strings.TrimRight(orDefault(c.Upstream.CamaraURL, d.Upstream.CamaraURL), "/")
	c.Upstream.SenadoURL = strings.TrimRight(orDefault(c.Upstream.SenadoURL, d.Upstream.SenadoURL), "/")
	c.Upstream.TransparenciaURL = strings.TrimRight(orDefault(c.Upstream.TransparenciaURL, d.Upstream.TransparenciaURL), "/")
	c.Upstream.QuickChartURL = strings.TrimRight(orDefault(c.Upstream.QuickChartURL, d.Upstream.QuickChartURL), "/")
	if c.Upstream.Timeout <= 0 {
		c.Upstream.Timeout = d.Upstream.Timeout
	}
	if c.Upstream.ProbeInterval <= 0 {
		c.Upstream.ProbeInterval = d.Upstream.ProbeInterval
	}
	c.LLM.Model = orDefault(c.LLM.Model, d.LLM.Model)
	if c.Analysis.ExpenseYear == 0 {
		c.Analysis.ExpenseYear = d.Analysis.ExpenseYear
	}
	if c.Analysis.Deputies <= 0 {
		c.Analysis.Deputies = d.Analysis.Deputies
	}
	if c.Analysis.Concurrency <= 0 {
		c.Analysis.Concurrency = d.Analysis.Concurrency
	}
	if c.Demo.TickInterval <= 0 {
		c.Demo.TickInterval = d.Demo.TickInterval
	}
	if c.Demo.PrimeTicks < 0 {
		c.Demo.PrimeTicks = 0
	}
	c.Logging.Level = orDefault(c.Logging.Level, d.Logging.Level)
	c.Logging.Format = orDefault(c.Logging.Format, d.Logging.Format)
	c.Telemetry.ServiceName = orDefault(c.Telemetry.ServiceName, d.Telemetry.ServiceName)
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

// Location returns the demo time zone, falling back to UTC when unknown
func (c *Config) Location() *time.Location {
	if c.Demo.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Demo.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Integrations lists the optional backends this config turns on
func (c *Config) Integrations() []string {
	var out []string
	if c.Cache.RedisURL != "" {
		out = append(out, "redis-cache")
	}
	if c.LLM.APIKey != "" {
		out = append(out, "llm")
	}
	if c.Upstream.TransparenciaAPIKey != "" {
		out = append(out, "transparencia")
	}
	if c.Telemetry.Endpoint != "" {
		out = append(out, "otel")
	}
	if c.Upstream.ProbeEnabled {
		out = append(out, "source-probes")
	}
	if c.Demo.AutoStart {
		out = append(out, "demo-loop")
	}
	return out
}

// Summary returns a human-readable config summary without secrets
func (c *Config) Summary() string {
	integrations := c.Integrations()
	summary := fmt.Sprintf("Addr: %s, DB: %s, Model: %s\n", c.Server.Addr, c.Database.Path, c.LLM.Model)
	summary += fmt.Sprintf("Demo tick: %s, Cache TTL: %s\n", c.Demo.TickInterval.Duration(), c.Cache.TTL.Duration())
	summary += fmt.Sprintf("Enabled integrations (%d):", len(integrations))
	for _, name := range integrations {
		summary += fmt.Sprintf(" %s", name)
	}
	return summary
}
