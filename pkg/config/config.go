package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/ekaya-inc/rfqportal/pkg/llm"
	"github.com/ekaya-inc/rfqportal/pkg/retry"
)

// DefaultConfigPath is where Load looks for the optional YAML file.
const DefaultConfigPath = "config.yaml"

// Provider defaults applied when llm.base_url or llm.model is empty.
// Anthropic has no base URL default so the SDK's own endpoint is used.
const (
	DefaultOpenAIBaseURL  = "https://api.openai.com/v1"
	DefaultOpenAIModel    = "gpt-4o-mini"
	DefaultAnthropicModel = "claude-3-5-haiku-latest"
)

// Config holds all configuration for rfqportal.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords, keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// TLS configuration (optional - if both provided, server uses HTTPS)
	TLSCertPath string `yaml:"tls_cert_path" env:"TLS_CERT_PATH" env-default:""`
	TLSKeyPath  string `yaml:"tls_key_path" env:"TLS_KEY_PATH" env-default:""`

	Database   DatabaseConfig   `yaml:"database"`
	LLM        LLMConfig        `yaml:"llm"`
	Extraction ExtractionConfig `yaml:"extraction"`
	Audit      AuditConfig      `yaml:"audit"`
	MCP        MCPConfig        `yaml:"mcp"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host                string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port                int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User                string `yaml:"user" env:"PGUSER" env-default:"rfq"`
	Password            string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database            string `yaml:"database" env:"PGDATABASE" env-default:"rfqportal"`
	MaxConnections      int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	MaxConnIdleMinutes  int    `yaml:"max_conn_idle_minutes" env:"PGMAX_CONN_IDLE_MINUTES" env-default:"5"`
	MaxConnLifetimeMins int    `yaml:"max_conn_lifetime_minutes" env:"PGMAX_CONN_LIFETIME_MINUTES" env-default:"60"`
	SSLMode             string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
}

// LLMConfig selects and tunes the model used for quote extraction.
type LLMConfig struct {
	// Provider is "openai" (any OpenAI-compatible endpoint) or "anthropic".
	Provider string `yaml:"provider" env:"LLM_PROVIDER" env-default:"openai"`
	// BaseURL and Model default per provider when left empty.
	BaseURL          string  `yaml:"base_url" env:"LLM_BASE_URL"`
	Model            string  `yaml:"model" env:"LLM_MODEL"`
	APIKey           string  `yaml:"-" env:"LLM_API_KEY"` // Secret - not in YAML
	TimeoutSeconds   int     `yaml:"timeout_seconds" env:"LLM_TIMEOUT_SECONDS" env-default:"60"`
	MaxTokens        int     `yaml:"max_tokens" env:"LLM_MAX_TOKENS" env-default:"1024"`
	Temperature      float64 `yaml:"temperature" env:"LLM_TEMPERATURE" env-default:"0"`
	StructuredOutput bool    `yaml:"structured_output" env:"LLM_STRUCTURED_OUTPUT" env-default:"true"`

	// RequestsPerMinute paces calls process-wide. Zero disables pacing.
	RequestsPerMinute int `yaml:"requests_per_minute" env:"LLM_REQUESTS_PER_MINUTE" env-default:"0"`
	Burst             int `yaml:"burst" env:"LLM_BURST" env-default:"1"`

	// CircuitBreakerThreshold consecutive provider failures open the circuit
	// for CircuitBreakerResetSeconds. Zero disables the breaker.
	CircuitBreakerThreshold    int `yaml:"circuit_breaker_threshold" env:"LLM_CIRCUIT_BREAKER_THRESHOLD" env-default:"5"`
	CircuitBreakerResetSeconds int `yaml:"circuit_breaker_reset_seconds" env:"LLM_CIRCUIT_BREAKER_RESET_SECONDS" env-default:"30"`
}

// ExtractionConfig controls the email pipeline around the model call.
type ExtractionConfig struct {
	// MaxRetries retries transient model errors. Zero keeps the single-call behavior.
	MaxRetries          int `yaml:"max_retries" env:"EXTRACTION_MAX_RETRIES" env-default:"0"`
	RetryInitialDelayMs int `yaml:"retry_initial_delay_ms" env:"EXTRACTION_RETRY_INITIAL_DELAY_MS" env-default:"500"`
	RetryMaxDelayMs     int `yaml:"retry_max_delay_ms" env:"EXTRACTION_RETRY_MAX_DELAY_MS" env-default:"10000"`
	// BatchConcurrency bounds how many emails a batch processes at once.
	BatchConcurrency int `yaml:"batch_concurrency" env:"EXTRACTION_BATCH_CONCURRENCY" env-default:"4"`
	// TimeoutSeconds bounds one HTTP or MCP processing request.
	TimeoutSeconds int `yaml:"timeout_seconds" env:"EXTRACTION_TIMEOUT_SECONDS" env-default:"120"`
}

// AuditConfig controls the missing-field audit.
type AuditConfig struct {
	ZeroIsMissing bool   `yaml:"zero_is_missing" env:"AUDIT_ZERO_IS_MISSING" env-default:"true"`
	Signature     string `yaml:"signature" env:"AUDIT_SIGNATURE" env-default:"[Your Company Name]"`
}

// MCPConfig controls the MCP endpoint.
type MCPConfig struct {
	Enabled bool   `yaml:"enabled" env:"MCP_ENABLED" env-default:"true"`
	Path    string `yaml:"path" env:"MCP_PATH" env-default:"/mcp"`
}

// Load reads configuration from config.yaml when present, with environment
// variable overrides. The version parameter is injected at build time.
func Load(version string) (*Config, error) {
	return LoadFrom(DefaultConfigPath, version)
}

// LoadFrom reads configuration from the YAML file at path, falling back to
// environment variables alone when the file does not exist.
// Secrets (PGPASSWORD, LLM_API_KEY) must come from environment variables.
func LoadFrom(path, version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else if errors.Is(err, os.ErrNotExist) {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	} else {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if err := cfg.validateTLS(); err != nil {
		return nil, fmt.Errorf("invalid TLS configuration: %w", err)
	}
	if err := cfg.LLM.validate(); err != nil {
		return nil, fmt.Errorf("invalid llm configuration: %w", err)
	}
	if cfg.Extraction.BatchConcurrency < 1 {
		return nil, fmt.Errorf("extraction.batch_concurrency must be at least 1")
	}

	return cfg, nil
}

// validateTLS ensures TLS configuration is valid if provided.
// Both cert and key must be provided together, and files must exist.
func (c *Config) validateTLS() error {
	certSet := c.TLSCertPath != ""
	keySet := c.TLSKeyPath != ""

	if certSet != keySet {
		return fmt.Errorf("both tls_cert_path and tls_key_path must be provided together")
	}

	if certSet {
		if _, err := os.Stat(c.TLSCertPath); err != nil {
			return fmt.Errorf("TLS cert file does not exist: %w", err)
		}
		if _, err := os.Stat(c.TLSKeyPath); err != nil {
			return fmt.Errorf("TLS key file does not exist: %w", err)
		}
	}

	return nil
}

// validate checks the provider settings and fills provider defaults.
func (c *LLMConfig) validate() error {
	switch c.Provider {
	case llm.ProviderOpenAI:
		if c.BaseURL == "" {
			c.BaseURL = DefaultOpenAIBaseURL
		}
		if c.Model == "" {
			c.Model = DefaultOpenAIModel
		}
	case llm.ProviderAnthropic:
		if c.APIKey == "" {
			return fmt.Errorf("LLM_API_KEY is required for provider %q", c.Provider)
		}
		if c.Model == "" {
			c.Model = DefaultAnthropicModel
		}
		if c.Temperature > 1 {
			return fmt.Errorf("temperature must be between 0 and 1 for provider %q", c.Provider)
		}
	default:
		return fmt.Errorf("unsupported provider %q", c.Provider)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2")
	}
	return nil
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		ResolveHostForDocker(c.Host), c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// ClientConfig returns the settings the LLM client is built from.
func (c *LLMConfig) ClientConfig() *llm.Config {
	return &llm.Config{
		Provider:         c.Provider,
		Endpoint:         ResolveURLForDocker(c.BaseURL),
		Model:            c.Model,
		APIKey:           c.APIKey,
		MaxTokens:        c.MaxTokens,
		Timeout:          time.Duration(c.TimeoutSeconds) * time.Second,
		StructuredOutput: c.StructuredOutput,
	}
}

// GuardConfig returns the pacing and circuit breaker settings for LLM calls.
func (c *LLMConfig) GuardConfig() llm.GuardConfig {
	return llm.GuardConfig{
		RequestsPerMinute: c.RequestsPerMinute,
		Burst:             c.Burst,
		CircuitBreaker: llm.CircuitBreakerConfig{
			Threshold:  c.CircuitBreakerThreshold,
			ResetAfter: time.Duration(c.CircuitBreakerResetSeconds) * time.Second,
		},
	}
}

// RetryConfig returns the backoff used for transient model errors.
func (c *ExtractionConfig) RetryConfig() *retry.Config {
	cfg := retry.DefaultConfig()
	cfg.MaxRetries = c.MaxRetries
	cfg.InitialDelay = time.Duration(c.RetryInitialDelayMs) * time.Millisecond
	cfg.MaxDelay = time.Duration(c.RetryMaxDelayMs) * time.Millisecond
	return cfg
}

// Timeout returns the per-request processing deadline.
func (c *ExtractionConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}
