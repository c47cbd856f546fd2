package config

import (
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required"`

	HTTPAddr     string        `env:"HTTP_ADDR" envDefault:":8080"`
	ReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"60s"`
	IdleTimeout  time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`

	AuthToken string `env:"AUTH_TOKEN"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`

	Storage StorageConfig

	WhisperURL      string        `env:"WHISPER_URL" envDefault:"https://api.openai.com/v1/audio/transcriptions"`
	WhisperAPIKey   string        `env:"WHISPER_API_KEY"`
	WhisperModel    string        `env:"WHISPER_MODEL" envDefault:"whisper-1"`
	WhisperLanguage string        `env:"WHISPER_LANGUAGE" envDefault:"en"`
	WhisperTimeout  time.Duration `env:"WHISPER_TIMEOUT" envDefault:"20s"`
	FetchTimeout    time.Duration `env:"AUDIO_FETCH_TIMEOUT" envDefault:"10s"`

	// Optional LLM analysis pass (summary + action items). The gateway
	// degrades to the heuristic analyzer when unset or failing.
	OpenAIAPIKey string `env:"OPENAI_API_KEY"`
	OpenAIModel  string `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
}

// StorageConfig selects and configures the object-store backend.
// The bucket name is "audio-recordings" everywhere; older deployments used
// an underscored variant, which is not accepted.
type StorageConfig struct {
	Backend string `env:"STORAGE_BACKEND" envDefault:"local"` // local, s3, supabase
	Bucket  string `env:"STORAGE_BUCKET" envDefault:"audio-recordings"`

	LocalDir string `env:"STORAGE_LOCAL_DIR" envDefault:"./recordings"`

	S3Region      string        `env:"S3_REGION" envDefault:"us-east-1"`
	S3Endpoint    string        `env:"S3_ENDPOINT"`
	S3AccessKey   string        `env:"S3_ACCESS_KEY"`
	S3SecretKey   string        `env:"S3_SECRET_KEY"`
	PresignExpiry time.Duration `env:"S3_PRESIGN_EXPIRY" envDefault:"1h"`

	SupabaseURL string `env:"SUPABASE_URL"`
	SupabaseKey string `env:"SUPABASE_SERVICE_KEY"`
}

// ClientConfig is the subset of configuration the recording CLI needs.
// It deliberately has no required fields; a recording must be able to
// start without a database.
type ClientConfig struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	Storage  StorageConfig
}

// Overrides holds CLI flag values that take priority over env vars.
type Overrides struct {
	EnvFile     string
	HTTPAddr    string
	LogLevel    string
	DatabaseURL string
}

// Load reads configuration from .env file, environment variables, and CLI overrides.
// Priority: CLI flags > environment variables > .env file > struct defaults.
func Load(overrides Overrides) (*Config, error) {
	// Load .env file (silent if missing)
	envFile := overrides.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		_ = godotenv.Load(envFile)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if overrides.HTTPAddr != "" {
		cfg.HTTPAddr = overrides.HTTPAddr
	}
	if overrides.LogLevel != "" {
		cfg.LogLevel = overrides.LogLevel
	}
	if overrides.DatabaseURL != "" {
		cfg.DatabaseURL = overrides.DatabaseURL
	}

	return cfg, nil
}

// LoadClient reads the client-side configuration with the same
// precedence rules as Load.
func LoadClient(overrides Overrides) (*ClientConfig, error) {
	envFile := overrides.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		_ = godotenv.Load(envFile)
	}

	cfg := &ClientConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if overrides.LogLevel != "" {
		cfg.LogLevel = overrides.LogLevel
	}
	return cfg, nil
}
