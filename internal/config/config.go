package config

import (
	"log"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server    Server    `yaml:"server"`
	Log       Log       `yaml:"log"`
	Database  Database  `yaml:"database"`
	Facebook  Facebook  `yaml:"facebook"`
	Gemini    Gemini    `yaml:"gemini"`
	S3        S3        `yaml:"s3"`
	Scheduler Scheduler `yaml:"scheduler"`
}

// Server holds HTTP server configuration
type Server struct {
	Host         string        `yaml:"host" env:"SERVER_HOST" env-default:"0.0.0.0"`
	Port         string        `yaml:"port" env:"SERVER_PORT" env-default:"8080"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT" env-default:"15s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT" env-default:"15s"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" env:"SERVER_IDLE_TIMEOUT" env-default:"60s"`
}

// Address returns the full server address
func (s Server) Address() string {
	return s.Host + ":" + s.Port
}

// Log holds logging configuration
type Log struct {
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"` // json or text
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
}

// Database holds database configuration
type Database struct {
	PostgresDSN string `yaml:"postgres_dsn" env:"DATABASE_URL"`

	MaxConns int `yaml:"max_conns" env:"DB_MAX_CONNS" env-default:"25"`
	MinConns int `yaml:"min_conns" env:"DB_MIN_CONNS" env-default:"5"`
}

// Facebook holds Facebook Graph API configuration
type Facebook struct {
	BaseURL    string `yaml:"base_url" env:"FACEBOOK_BASE_URL" env-default:"https://graph.facebook.com"`
	APIVersion string `yaml:"api_version" env:"FACEBOOK_API_VERSION" env-default:"v23.0"`
}

// Gemini holds content generation configuration
type Gemini struct {
	APIKey string `yaml:"api_key" env:"GEMINI_API_KEY"`
	Model  string `yaml:"model" env:"GEMINI_MODEL" env-default:"gemini-2.0-flash"`
}

// S3 holds S3/MinIO storage configuration
type S3 struct {
	Endpoint        string `yaml:"endpoint" env:"S3_ENDPOINT" env-default:"http://localhost:9000"`
	AccessKeyID     string `yaml:"access_key_id" env:"S3_ACCESS_KEY_ID" env-default:"minioadmin"`
	SecretAccessKey string `yaml:"secret_access_key" env:"S3_SECRET_ACCESS_KEY" env-default:"minioadmin"`
	Bucket          string `yaml:"bucket" env:"S3_BUCKET" env-default:"media"`
	Region          string `yaml:"region" env:"S3_REGION" env-default:"us-east-1"`
	PublicURL       string `yaml:"public_url" env:"S3_PUBLIC_URL" env-default:"http://localhost:9000/media"`
}

// Scheduler holds publishing sweep configuration
type Scheduler struct {
	// Enabled turns on the in-process ticker. With it off, sweeps only run
	// when an external cron hits the trigger endpoint.
	Enabled  bool          `yaml:"enabled" env:"SCHEDULER_ENABLED" env-default:"false"`
	Interval time.Duration `yaml:"interval" env:"SCHEDULER_INTERVAL" env-default:"1m"`

	// CronSecret guards the trigger endpoint (X-Cron-Secret header)
	CronSecret string `yaml:"cron_secret" env:"CRON_SECRET"`
}

// MustLoad loads configuration from environment and panics on error
func MustLoad() Config {
	// Load .env file if exists (for development)
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	return cfg
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (Config, error) {
	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
