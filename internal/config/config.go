package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

var singleConfig *Config = nil

type Config struct {
	Database    *dbConfig
	Service     *svcConfig
	Recovery    *recoveryConfig
	Translation *translationConfig
	Transcriber *transcriberConfig
	LLM         *llmConfig
}

type dbConfig struct {
	Type     string `envconfig:"DB_TYPE" default:"pgsql"`
	Hostname string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	Name     string `envconfig:"DB_NAME" default:"parlatext"`
	User     string `envconfig:"DB_USER" default:"admin"`
	Password string `envconfig:"DB_PASS" default:"adminpass"`
}

type svcConfig struct {
	Address         string `envconfig:"PARLATEXT_ADDRESS" default:":3443"`
	MetricsAddress  string `envconfig:"PARLATEXT_METRICS_ADDRESS" default:":8080"`
	BaseUrl         string `envconfig:"PARLATEXT_BASE_URL" default:"https://localhost:3443"`
	LogLevel        string `envconfig:"PARLATEXT_LOG_LEVEL" default:"info"`
	MigrationFolder string `envconfig:"PARLATEXT_MIGRATIONS_FOLDER" default:""`
	Auth            Auth
}

type Auth struct {
	AuthenticationType string `envconfig:"PARLATEXT_AUTH" default:""`
}

// recoveryConfig tunes the startup reconciler. The grace period is a
// heuristic, not a proven bound, so it stays configurable.
type recoveryConfig struct {
	GracePeriod time.Duration `envconfig:"PARLATEXT_RECOVERY_GRACE_PERIOD" default:"5m"`
	SettleDelay time.Duration `envconfig:"PARLATEXT_RECOVERY_SETTLE_DELAY" default:"10s"`
}

type translationConfig struct {
	// MinLengthRatio flags a translated unit as truncated when it shrinks
	// below this fraction of the source length. Tuned empirically.
	MinLengthRatio    float64 `envconfig:"PARLATEXT_TRANSLATION_MIN_LENGTH_RATIO" default:"0.2"`
	LongUnitThreshold int     `envconfig:"PARLATEXT_TRANSLATION_LONG_UNIT_THRESHOLD" default:"50"`
	DocumentRetries   int     `envconfig:"PARLATEXT_TRANSLATION_DOCUMENT_RETRIES" default:"2"`
}

type transcriberConfig struct {
	BaseUrl string        `envconfig:"PARLATEXT_SPEECH_API_URL" default:"http://localhost:9000"`
	APIKey  string        `envconfig:"PARLATEXT_SPEECH_API_KEY" default:""`
	Timeout time.Duration `envconfig:"PARLATEXT_SPEECH_API_TIMEOUT" default:"10m"`
}

type llmConfig struct {
	BaseUrl     string        `envconfig:"PARLATEXT_LLM_BASE_URL" default:"http://localhost:11434/v1"`
	APIKey      string        `envconfig:"PARLATEXT_LLM_API_KEY" default:""`
	Model       string        `envconfig:"PARLATEXT_LLM_MODEL" default:"gpt-4o-mini"`
	Temperature float64       `envconfig:"PARLATEXT_LLM_TEMPERATURE" default:"0"`
	Timeout     time.Duration `envconfig:"PARLATEXT_LLM_TIMEOUT" default:"120s"`
}

func New() (*Config, error) {
	if singleConfig == nil {
		singleConfig = new(Config)
		if err := envconfig.Process("", singleConfig); err != nil {
			return nil, err
		}
	}
	return singleConfig, nil
}

// NewDefault returns a fresh config, bypassing the singleton. Used by tests.
func NewDefault() *Config {
	cfg := new(Config)
	if err := envconfig.Process("", cfg); err != nil {
		panic(err)
	}
	return cfg
}
