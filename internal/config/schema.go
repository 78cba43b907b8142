package config

import (
	"time"
)

// Config is the root configuration structure
type Config struct {
	Version   int             `yaml:"version"`
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Cache     CacheConfig     `yaml:"cache"`
	Upstream  UpstreamConfig  `yaml:"upstream"`
	LLM       LLMConfig       `yaml:"llm"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Demo      DemoConfig      `yaml:"demo"`
	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Addr              string   `yaml:"addr" env:"CITYOS_ADDR"`
	ReadHeaderTimeout Duration `yaml:"read_header_timeout"`
	ShutdownTimeout   Duration `yaml:"shutdown_timeout"`
	CORSOrigin        string   `yaml:"cors_origin" env:"CITYOS_CORS_ORIGIN"`
}

// DatabaseConfig holds database settings
type DatabaseConfig struct {
	Path string `yaml:"path" env:"CITYOS_DB_PATH"`
}

// CacheConfig holds response cache settings. An empty RedisURL disables caching.
type CacheConfig struct {
	RedisURL string   `yaml:"redis_url" env:"CITYOS_REDIS_URL"`
	TTL      Duration `yaml:"ttl" env:"CITYOS_CACHE_TTL"`
}

// UpstreamConfig holds the government API endpoints
type UpstreamConfig struct {
	CamaraURL           string   `yaml:"camara_url"`
	SenadoURL           string   `yaml:"senado_url"`
	TransparenciaURL    string   `yaml:"transparencia_url"`
	TransparenciaAPIKey string   `yaml:"transparencia_api_key" env:"TRANSPARENCIA_API_KEY"`
	QuickChartURL       string   `yaml:"quickchart_url"`
	Timeout             Duration `yaml:"timeout"`
	ProbeEnabled        bool     `yaml:"probe_enabled"`
	ProbeInterval       Duration `yaml:"probe_interval"`
}

// LLMConfig holds the chat-completion provider settings. An empty APIKey
// disables every LLM-assisted path.
type LLMConfig struct {
	APIKey  string `yaml:"api_key" env:"OPENAI_API_KEY"`
	BaseURL string `yaml:"base_url" env:"OPENAI_BASE_URL"`
	Model   string `yaml:"model" env:"OPENAI_MODEL"`
}

// AnalysisConfig tunes the question-to-chart pipeline
type AnalysisConfig struct {
	ExpenseYear int      `yaml:"expense_year"`
	Deputies    int      `yaml:"deputies"`
	Concurrency int      `yaml:"concurrency"`
	AskDelay    Duration `yaml:"ask_delay"`
}

// DemoConfig tunes the demo console simulation loop
type DemoConfig struct {
	AutoStart    bool     `yaml:"auto_start"`
	TickInterval Duration `yaml:"tick_interval"`
	PrimeTicks   int      `yaml:"prime_ticks"`
	Timezone     string   `yaml:"timezone"`
}

// LoggingConfig controls the zap logger
type LoggingConfig struct {
	Level  string `yaml:"level" env:"CITYOS_LOG_LEVEL"`   // debug, info, warn, error
	Format string `yaml:"format" env:"CITYOS_LOG_FORMAT"` // json or console
}

// TelemetryConfig controls OpenTelemetry tracing. An empty Endpoint disables export.
type TelemetryConfig struct {
	Endpoint    string `yaml:"endpoint" env:"CITYOS_OTEL_ENDPOINT"`
	ServiceName string `yaml:"service_name"`
	Insecure    bool   `yaml:"insecure"`
}

// Duration wraps time.Duration for YAML unmarshaling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
