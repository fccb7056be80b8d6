package config

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Redis     RedisConfig
	Exam      ExamConfig      `mapstructure:"exam"`
	Archive   ArchiveConfig   `mapstructure:"archive"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`

	// runtime flags, set from the command line rather than the config file
	ForceMigrate bool `mapstructure:"-"`
	MigrateOnly  bool `mapstructure:"-"`

	// jwtHot carries hot-reloaded JWT settings; the watcher goroutine writes
	// it while request handlers read it, so it must not go through the plain
	// JWT field.
	jwtHot atomic.Pointer[JWTConfig]
}

// SetJWT publishes new JWT settings. Safe to call concurrently with
// JWTSettings.
func (c *Config) SetJWT(jc JWTConfig) {
	c.jwtHot.Store(&jc)
}

// JWTSettings returns the current JWT settings, reflecting any hot reload.
// Request-path readers must use this instead of the JWT field.
func (c *Config) JWTSettings() JWTConfig {
	if p := c.jwtHot.Load(); p != nil {
		return *p
	}
	return c.JWT
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	ExpireTime time.Duration `mapstructure:"expire_hours"`
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// ExamConfig feeds the immutable exam.Plan once at startup. The passing
// threshold is deliberately not configurable here.
type ExamConfig struct {
	TotalQuestions  int  `mapstructure:"total_questions"`
	DurationMinutes int  `mapstructure:"duration_minutes"`
	AdaptiveDefault bool `mapstructure:"adaptive_default"`
}

// ArchiveConfig points report archiving at an object store; disabled when the
// endpoint is empty.
type ArchiveConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("PMP_PREP")
	viper.AutomaticEnv()

	// Database
	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.dbname", "DATABASE_NAME")

	// JWT
	viper.BindEnv("jwt.secret", "JWT_SECRET")

	// Redis
	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	viper.BindEnv("server.mode", "SERVER_MODE")

	// Report archive
	viper.BindEnv("archive.endpoint", "ARCHIVE_ENDPOINT")
	viper.BindEnv("archive.access_key", "ARCHIVE_ACCESS_KEY")
	viper.BindEnv("archive.secret_key", "ARCHIVE_SECRET_KEY")
	viper.BindEnv("archive.bucket", "ARCHIVE_BUCKET")

	// Tracing
	viper.BindEnv("tracing.enabled", "TRACING_ENABLED")
	viper.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.JWT.ExpireTime = cfg.JWT.ExpireTime * time.Hour

	if cfg.Exam.TotalQuestions <= 0 {
		cfg.Exam.TotalQuestions = 185
	}
	if cfg.Exam.DurationMinutes <= 0 {
		cfg.Exam.DurationMinutes = 240
	}

	if cfg.Server.Mode == "release" && len(cfg.JWT.Secret) < 32 {
		return nil, fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(cfg.JWT.Secret))
	}

	return &cfg, nil
}
