package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

const (
	defaultConfigPath = "config/config.yaml"

	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
		Env  string `yaml:"env"`
		// Внешний адрес API для ссылок в письмах. Пустой - берется из запроса.
		PublicURL string `yaml:"public_url"`
	} `yaml:"server"`

	Database struct {
		Driver   string `yaml:"driver"` // postgres, mysql
		URL      string `yaml:"url"`
		Password string `yaml:"password"`
	} `yaml:"database"`

	JWT struct {
		Secret          string `yaml:"secret"`
		ExpiresIn       string `yaml:"expires_in"`        // "90d", "12h", "3600"
		CookieExpiresIn int    `yaml:"cookie_expires_in"` // в днях
	} `yaml:"jwt"`

	Email struct {
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     int    `yaml:"smtp_port"`
		SMTPUsername string `yaml:"smtp_user"`
		SMTPPassword string `yaml:"smtp_password"`
		FromEmail    string `yaml:"from_email"`
		FromName     string `yaml:"from_name"`
	} `yaml:"email"`

	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`

	Workers struct {
		// Как часто чистить истекшие токены сброса пароля. "0" отключает.
		ResetTokenSweep string `yaml:"reset_token_sweep"`
	} `yaml:"workers"`

	// Первый администратор создается при старте, если задан email и пароль
	FirstAdmin struct {
		Name     string `yaml:"name"`
		Email    string `yaml:"email"`
		Password string `yaml:"password"`
	} `yaml:"first_admin"`
}

// Default возвращает конфигурацию со значениями по умолчанию
func Default() *Config {
	var cfg Config
	cfg.Server.Host = "localhost"
	cfg.Server.Port = 3005
	cfg.Server.Env = EnvDevelopment
	cfg.Database.Driver = "postgres"
	cfg.JWT.ExpiresIn = "90d"
	cfg.JWT.CookieExpiresIn = 30
	cfg.Email.SMTPPort = 2525
	cfg.Email.FromEmail = "hello@zyano.io"
	cfg.Email.FromName = "Zyano"
	cfg.Metrics.Enabled = true
	cfg.Metrics.Path = "/metrics"
	cfg.Workers.ResetTokenSweep = "1h"
	cfg.FirstAdmin.Name = "Administrator"
	return &cfg
}

// LoadConfig читает YAML (CONFIG_PATH или config/config.yaml), затем
// применяет переменные окружения. Отсутствие файла по умолчанию не ошибка.
func LoadConfig() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	explicit := path != ""
	if !explicit {
		path = defaultConfigPath
	}
	return Load(path, explicit)
}

func Load(path string, required bool) (*Config, error) {
	cfg := Default()

	f, err := os.Open(path)
	switch {
	case err == nil:
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file at %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !required:
	default:
		return nil, fmt.Errorf("failed to open config file at %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) error {
		v := os.Getenv(key)
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = n
		return nil
	}

	setString("SERVER_HOST", &c.Server.Host)
	setString("SERVER_ENV", &c.Server.Env)
	setString("SERVER_PUBLIC_URL", &c.Server.PublicURL)
	setString("DATABASE_DRIVER", &c.Database.Driver)
	setString("DATABASE_URL", &c.Database.URL)
	setString("DATABASE_PASSWORD", &c.Database.Password)
	setString("JWT_SECRET", &c.JWT.Secret)
	setString("JWT_EXPIRES_IN", &c.JWT.ExpiresIn)
	setString("EMAIL_HOST", &c.Email.SMTPHost)
	setString("EMAIL_USERNAME", &c.Email.SMTPUsername)
	setString("EMAIL_PASSWORD", &c.Email.SMTPPassword)
	setString("METRICS_PATH", &c.Metrics.Path)
	if v := os.Getenv("METRICS_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid METRICS_ENABLED: %w", err)
		}
		c.Metrics.Enabled = enabled
	}
	setString("RESET_TOKEN_SWEEP", &c.Workers.ResetTokenSweep)
	setString("FIRST_ADMIN_EMAIL", &c.FirstAdmin.Email)
	setString("FIRST_ADMIN_PASSWORD", &c.FirstAdmin.Password)

	for key, dst := range map[string]*int{
		"SERVER_PORT":           &c.Server.Port,
		"JWT_COOKIE_EXPIRES_IN": &c.JWT.CookieExpiresIn,
		"EMAIL_PORT":            &c.Email.SMTPPort,
	} {
		if err := setInt(key, dst); err != nil {
			return err
		}
	}
	return nil
}

// Validate проверяет обязательные параметры
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("jwt secret is required")
	}
	if _, err := ParseTTL(c.JWT.ExpiresIn); err != nil {
		return fmt.Errorf("invalid jwt expires_in: %w", err)
	}
	if c.JWT.CookieExpiresIn <= 0 {
		return errors.New("jwt cookie_expires_in must be positive")
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics path %q must start with /", c.Metrics.Path)
	}
	if c.Server.PublicURL != "" {
		u, err := url.Parse(c.Server.PublicURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("server public_url %q must be an absolute http(s) URL", c.Server.PublicURL)
		}
	}
	if _, err := c.ResetTokenSweepInterval(); err != nil {
		return fmt.Errorf("invalid workers reset_token_sweep: %w", err)
	}
	switch c.Database.Driver {
	case "postgres", "mysql":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	return nil
}

// PublicBaseURL - public_url без завершающего слеша
func (c *Config) PublicBaseURL() string {
	return strings.TrimRight(c.Server.PublicURL, "/")
}

func (c *Config) IsProduction() bool {
	return c.Server.Env == EnvProduction
}

// DSN подставляет пароль в плейсхолдер <db_password>
func (c *Config) DSN() string {
	return strings.ReplaceAll(c.Database.URL, "<db_password>", c.Database.Password)
}

// TokenTTL - время жизни сессионного токена
func (c *Config) TokenTTL() time.Duration {
	ttl, _ := ParseTTL(c.JWT.ExpiresIn)
	return ttl
}

// CookieTTL - время жизни cookie с токеном
func (c *Config) CookieTTL() time.Duration {
	return time.Duration(c.JWT.CookieExpiresIn) * 24 * time.Hour
}

// ResetTokenSweepInterval возвращает 0, если очистка отключена
func (c *Config) ResetTokenSweepInterval() (time.Duration, error) {
	raw := strings.TrimSpace(c.Workers.ResetTokenSweep)
	if raw == "" || raw == "0" {
		return 0, nil
	}
	return ParseTTL(raw)
}

func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// ParseTTL понимает "90d", Go-длительности ("12h", "30m") и целые секунды
func ParseTTL(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, errors.New("empty duration")
	}

	var ttl time.Duration
	if days, ok := strings.CutSuffix(raw, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("invalid day count %q", raw)
		}
		ttl = time.Duration(n) * 24 * time.Hour
	} else if secs, err := strconv.Atoi(raw); err == nil {
		ttl = time.Duration(secs) * time.Second
	} else {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return 0, err
		}
		ttl = d
	}

	if ttl <= 0 {
		return 0, fmt.Errorf("duration %q must be positive", raw)
	}
	return ttl, nil
}
