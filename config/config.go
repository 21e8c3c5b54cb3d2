package config

import (
	"errors"
	"fmt"
	"log"
	"net/netip"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

// MinSecretLength is the minimum number of bytes accepted for a signing secret.
const MinSecretLength = 32

type ServerConfig struct {
	Port string `mapstructure:"port"`
	// TrustedProxies lists the IPs or CIDRs whose forwarding headers are honoured.
	// Requests from any other peer are keyed by their socket address.
	TrustedProxies []string `mapstructure:"trusted_proxies"`
}

// TrustedProxyPrefixes parses TrustedProxies. A bare IP is a single-address prefix.
func (s ServerConfig) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(s.TrustedProxies))
	for _, raw := range s.TrustedProxies {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if strings.Contains(raw, "/") {
			prefix, err := netip.ParsePrefix(raw)
			if err != nil {
				return nil, fmt.Errorf("trusted proxy %q: %w", raw, err)
			}
			prefixes = append(prefixes, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(raw)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", raw, err)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

type DatabaseConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	Name           string `mapstructure:"name"`
	SSLMode        string `mapstructure:"sslmode"`
	MigrationsPath string `mapstructure:"migrations_path"`
}

// RedisConfig configures the distributed rate-limit counter backend.
// An empty URL means rate limiting runs on the in-process store only.
type RedisConfig struct {
	URL             string `mapstructure:"url"`
	CommandTimeout  string `mapstructure:"command_timeout"`
	DisableDuration string `mapstructure:"disable_duration"`
	LogInterval     string `mapstructure:"log_interval"`
}

type JWTConfig struct {
	AccessSecret  string `mapstructure:"access_secret"`
	RefreshSecret string `mapstructure:"refresh_secret"`
	AccessTTL     string `mapstructure:"access_ttl"`
	RefreshTTL    string `mapstructure:"refresh_ttl"`
	Issuer        string `mapstructure:"issuer"`
}

type AuthConfig struct {
	BcryptCost int `mapstructure:"bcrypt_cost"`
}

// LimitConfig is the {window, max} pair of one endpoint class.
type LimitConfig struct {
	Window string `mapstructure:"window"`
	Max    int    `mapstructure:"max"`
}

type RateLimitConfig struct {
	Login    LimitConfig `mapstructure:"login"`
	Register LimitConfig `mapstructure:"register"`
	Refresh  LimitConfig `mapstructure:"refresh"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Auth      AuthConfig      `mapstructure:"auth"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Log       LogConfig       `mapstructure:"log"`
}

var AppConfig Config

var ErrInvalidConfig = errors.New("invalid configuration")

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.trusted_proxies", []string{})

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "skillswap")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.migrations_path", "file://db/migrations")

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.command_timeout", "200ms")
	v.SetDefault("redis.disable_duration", "30s")
	v.SetDefault("redis.log_interval", "60s")

	// Secrets have no usable default; the empty value only registers the key for env lookup.
	v.SetDefault("jwt.access_secret", "")
	v.SetDefault("jwt.refresh_secret", "")
	v.SetDefault("jwt.access_ttl", "15m")
	v.SetDefault("jwt.refresh_ttl", "7d")
	v.SetDefault("jwt.issuer", "skillswap-api")

	v.SetDefault("auth.bcrypt_cost", 12)

	v.SetDefault("rate_limit.login.window", "15m")
	v.SetDefault("rate_limit.login.max", 5)
	v.SetDefault("rate_limit.register.window", "1h")
	v.SetDefault("rate_limit.register.max", 10)
	v.SetDefault("rate_limit.refresh.window", "15m")
	v.SetDefault("rate_limit.refresh.max", 30)

	v.SetDefault("log.level", "info")
}

// Load reads config.yml from path (optional), a .env file (optional) and the
// environment, then validates the result. JWT_ACCESS_SECRET overrides jwt.access_secret.
func Load(path string) (*Config, error) {
	// A missing .env is the normal case outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadConfig loads the configuration into AppConfig and stops the process on any error,
// so a misconfigured instance never serves traffic.
func LoadConfig(path string) {
	cfg, err := Load(path)
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	AppConfig = *cfg
}

// Validate checks every setting the session and rate-limit core depends on.
func (c *Config) Validate() error {
	if len(c.JWT.AccessSecret) < MinSecretLength {
		return fmt.Errorf("%w: jwt.access_secret must be at least %d bytes", ErrInvalidConfig, MinSecretLength)
	}
	if len(c.JWT.RefreshSecret) < MinSecretLength {
		return fmt.Errorf("%w: jwt.refresh_secret must be at least %d bytes", ErrInvalidConfig, MinSecretLength)
	}
	if c.JWT.AccessSecret == c.JWT.RefreshSecret {
		return fmt.Errorf("%w: jwt.access_secret and jwt.refresh_secret must differ", ErrInvalidConfig)
	}

	durations := map[string]string{
		"jwt.access_ttl":         c.JWT.AccessTTL,
		"jwt.refresh_ttl":        c.JWT.RefreshTTL,
		"redis.command_timeout":  c.Redis.CommandTimeout,
		"redis.disable_duration": c.Redis.DisableDuration,
		"redis.log_interval":     c.Redis.LogInterval,
	}
	for key, value := range durations {
		if _, err := ParsePositiveDuration(value); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, key, err)
		}
	}

	limits := map[string]LimitConfig{
		"rate_limit.login":    c.RateLimit.Login,
		"rate_limit.register": c.RateLimit.Register,
		"rate_limit.refresh":  c.RateLimit.Refresh,
	}
	for key, limit := range limits {
		if _, err := ParsePositiveDuration(limit.Window); err != nil {
			return fmt.Errorf("%w: %s.window: %v", ErrInvalidConfig, key, err)
		}
		if limit.Max <= 0 {
			return fmt.Errorf("%w: %s.max must be positive", ErrInvalidConfig, key)
		}
	}

	if _, err := c.Server.TrustedProxyPrefixes(); err != nil {
		return fmt.Errorf("%w: server.trusted_proxies: %v", ErrInvalidConfig, err)
	}

	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("%w: auth.bcrypt_cost must be between %d and %d", ErrInvalidConfig, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return nil
}

// DSN builds the lib/pq connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s", d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

// SafeDSN is DSN without the password, for logs.
func (d DatabaseConfig) SafeDSN() string {
	return fmt.Sprintf("postgres://%s@%s:%d/%s?sslmode=%s", d.User, d.Host, d.Port, d.Name, d.SSLMode)
}
