package config // package config loads application configuration from environment variables

import (
	"fmt"  // fmt wraps loader errors and builds DSN-style strings
	"os"   // os checks for an optional config file
	"time" // time expresses durations derived from integer settings

	"github.com/ilyakaznacheev/cleanenv" // cleanenv maps env vars and YAML files onto tagged structs
	"github.com/joho/godotenv"           // godotenv loads a local .env file before env parsing
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Required values are marked env-required and
// make Load fail when missing; the rest fall back to their env-default.
type Config struct {
	Env            string `yaml:"env" env:"APP_ENV" env-default:"dev"`      // application environment (dev/test/prod)
	Port           string `yaml:"port" env:"APP_PORT" env-default:"8080"`   // HTTP port to listen on
	JWTSecret      string `yaml:"jwt_secret" env:"JWT_SECRET" env-required:"true"`
	AccessTTLMin   int    `yaml:"access_ttl_min" env:"ACCESS_TOKEN_TTL_MIN" env-default:"15"`
	RefreshTTLDays int    `yaml:"refresh_ttl_days" env:"REFRESH_TOKEN_TTL_DAYS" env-default:"7"`
	BcryptCost     int    `yaml:"bcrypt_cost" env:"BCRYPT_COST" env-default:"10"`

	DB        DBConfig        `yaml:"db"`
	Redis     RedisConfig     `yaml:"redis"`
	Cache     CacheConfig     `yaml:"cache"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Broker    BrokerConfig    `yaml:"broker"`
	Log       LogConfig       `yaml:"log"`
	Media     MediaConfig     `yaml:"media"`
	Admin     AdminConfig     `yaml:"admin"`
}

// DBConfig describes the MySQL connection and pool.
type DBConfig struct {
	User            string `yaml:"user" env:"DB_USER" env-required:"true"`
	Pass            string `yaml:"pass" env:"DB_PASS"` // empty allowed
	Host            string `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port            string `yaml:"port" env:"DB_PORT" env-default:"3306"`
	Name            string `yaml:"name" env:"DB_NAME" env-required:"true"`
	MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS" env-default:"25"`
	MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS" env-default:"25"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime_minutes" env:"DB_CONN_MAX_LIFETIME_MIN" env-default:"30"`
	AutoMigrate     bool   `yaml:"auto_migrate" env:"DB_AUTO_MIGRATE" env-default:"true"`
}

// Lifetime returns ConnMaxLifetime as a duration.
func (d DBConfig) Lifetime() time.Duration {
	return time.Duration(d.ConnMaxLifetime) * time.Minute
}

// LogConfig selects the zerolog level and output format.
type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`   // debug, info, warn, error
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"` // json or text
}

// MediaConfig controls where uploaded play images live.
type MediaConfig struct {
	Root         string `yaml:"root" env:"MEDIA_ROOT" env-default:"media"`
	URLPrefix    string `yaml:"url_prefix" env:"MEDIA_URL" env-default:"/media"`
	MaxUploadMiB int    `yaml:"max_upload_mib" env:"MEDIA_MAX_UPLOAD_MIB" env-default:"5"`
}

// MaxUploadBytes converts MaxUploadMiB into bytes.
func (m MediaConfig) MaxUploadBytes() int64 {
	return int64(m.MaxUploadMiB) << 20
}

// AdminConfig optionally bootstraps an ADMIN account at startup.  Both
// fields must be set for the bootstrap to run.
type AdminConfig struct {
	Email    string `yaml:"email" env:"ADMIN_EMAIL"`
	Password string `yaml:"password" env:"ADMIN_PASSWORD"`
}

// Enabled reports whether an admin account should be ensured.
func (a AdminConfig) Enabled() bool {
	return a.Email != "" && a.Password != ""
}

// Load reads the optional .env file, then the config file at path when it
// exists, and finally the process environment.  Missing required variables
// are reported as an error instead of terminating the process.
func Load(path string) (Config, error) {
	_ = godotenv.Load() // a missing .env is normal outside local development

	var cfg Config
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := cleanenv.ReadConfig(path, &cfg); err != nil {
				return Config{}, fmt.Errorf("read config file %s: %w", path, err)
			}
			cfg.RateLimit.normalize()
			return cfg, nil
		}
	}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read environment: %w", err)
	}
	cfg.RateLimit.normalize()
	return cfg, nil
}
