// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App            AppConfig            `mapstructure:"app"`
	Server         ServerConfig         `mapstructure:"server"`
	Database       DatabaseConfig       `mapstructure:"database"`
	GenAI          GenAIConfig          `mapstructure:"genai"`
	Ensemble       EnsembleConfig       `mapstructure:"ensemble"`
	Calibration    CalibrationConfig    `mapstructure:"calibration"`
	Explainability ExplainabilityConfig `mapstructure:"explainability"`
	Logging        LoggingConfig        `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Port           int `mapstructure:"port"`
	RequestTimeout int `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// Enabled reports whether audit persistence is configured. An empty host
// disables auditing and every audit call becomes a no-op.
func (p PostgresConfig) Enabled() bool {
	return p.Host != ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	CacheTTL int    `mapstructure:"cache_ttl"` // seconds
}

// GenAIConfig holds settings for the Gemini narrative client.
type GenAIConfig struct {
	BaseURL         string   `mapstructure:"base_url"`
	APIKey          string   `mapstructure:"api_key"`
	Model           string   `mapstructure:"model"`
	FallbackModels  []string `mapstructure:"fallback_models"`
	Timeout         int      `mapstructure:"timeout"` // milliseconds, per attempt
	MaxRetries      int      `mapstructure:"max_retries"`
	Temperature     float64  `mapstructure:"temperature"`
	MaxOutputTokens int      `mapstructure:"max_output_tokens"`
	MockMode        bool     `mapstructure:"mock_mode"`
}

// Candidates returns the ordered model list tried per attempt.
func (g GenAIConfig) Candidates() []string {
	out := make([]string, 0, len(g.FallbackModels)+1)
	out = append(out, g.Model)
	out = append(out, g.FallbackModels...)
	return out
}

// EnsembleConfig selects between single and multi model reporting modes.
type EnsembleConfig struct {
	Mode        string   `mapstructure:"mode"` // single | multi
	ExtraModels []string `mapstructure:"extra_models"`
}

// CalibrationConfig holds the Platt coefficients for approval probability.
// When Enabled is false the base rate is returned unchanged.
type CalibrationConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	A       float64 `mapstructure:"a"`
	B       float64 `mapstructure:"b"`
}

// ExplainabilityConfig holds settings for the upstream SHAP/LIME service.
type ExplainabilityConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
