package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Duration struct{ time.Duration }

// [Duration] implements [json.Marshaler]
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value)
		return nil
	case string:
		var err error
		d.Duration, err = time.ParseDuration(value)
		if err != nil {
			return err
		}
		return nil
	default:
		return errors.New("invalid duration")
	}
}

type PostgresConfig struct {
	Host     string `json:"host"`
	Port     uint   `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DbName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
	// URL overrides every other field when set.
	URL string `json:"url"`
}

func (p PostgresConfig) DbUrl() string {
	if p.URL != "" {
		return p.URL
	}
	return fmt.Sprintf(
		"postgresql://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, url.QueryEscape(p.Password), p.Host, p.Port, p.DbName, p.SSLMode,
	)
}

func loadPassword() (string, bool, error) {
	if password, ok := os.LookupEnv("POSTGRES_PASSWORD"); ok {
		return password, true, nil
	}
	passwordFile, ok := os.LookupEnv("POSTGRES_PASSWORD_FILE")
	if !ok {
		return "", false, nil
	}
	data, err := os.ReadFile(passwordFile)
	if err != nil {
		return "", false, fmt.Errorf("unable to read from password file: %w", err)
	}
	return strings.TrimSpace(string(data)), true, nil
}

func (p *PostgresConfig) applyEnv() error {
	if v, ok := os.LookupEnv("DATABASE_URL"); ok {
		p.URL = v
	}
	if v, ok := os.LookupEnv("POSTGRES_USER"); ok {
		p.User = v
	}
	if v, ok := os.LookupEnv("POSTGRES_HOST"); ok {
		p.Host = v
	}
	if v, ok := os.LookupEnv("POSTGRES_DB"); ok {
		p.DbName = v
	}
	if v, ok := os.LookupEnv("POSTGRES_PORT"); ok {
		port, err := strconv.ParseUint(v, 10, 16)
		if err != nil {
			return fmt.Errorf("unable to convert POSTGRES_PORT to int: %w", err)
		}
		p.Port = uint(port)
	}
	password, ok, err := loadPassword()
	if err != nil {
		return err
	}
	if ok {
		p.Password = password
	}
	return nil
}

type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	Key      string `json:"key"`
}

type RecordsConfig struct {
	// memory, sqlite, postgres or redis
	Driver     string         `json:"driver"`
	SqlitePath string         `json:"sqlite_path"`
	Postgres   PostgresConfig `json:"postgres"`
	Redis      RedisConfig    `json:"redis"`
}

type LogConfig struct {
	Level      string `json:"level"`
	File       string `json:"file"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
}

type JwtConfig struct {
	Secret        string   `json:"secret"`
	TokenLifetime Duration `json:"token_lifetime"`
}

type SessionsConfig struct {
	MaxIdle       Duration `json:"max_idle"`
	SweepInterval Duration `json:"sweep_interval"`
	// sqlite file keeping unfinished sessions across evictions and restarts;
	// empty disables archiving
	ArchivePath string `json:"archive_path"`
}

type Config struct {
	Mode     string         `json:"mode"`
	Addr     string         `json:"addr"`
	Log      LogConfig      `json:"log"`
	Records  RecordsConfig  `json:"records"`
	Jwt      JwtConfig      `json:"jwt"`
	Sessions SessionsConfig `json:"sessions"`
}

func Default() *Config {
	return &Config{
		Mode: "development",
		Addr: ":8080",
		Log: LogConfig{
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Records: RecordsConfig{
			Driver:     "memory",
			SqlitePath: "records.db",
			Postgres: PostgresConfig{
				Host:    "localhost",
				Port:    5432,
				SSLMode: "disable",
			},
			Redis: RedisConfig{
				Addr: "localhost:6379",
				Key:  "minesweeper:best",
			},
		},
		Jwt: JwtConfig{
			TokenLifetime: Duration{24 * time.Hour},
		},
		Sessions: SessionsConfig{
			MaxIdle:       Duration{time.Hour},
			SweepInterval: Duration{time.Minute},
		},
	}
}

func (c Config) Fields() logrus.Fields {
	return map[string]any{
		"mode":               c.Mode,
		"addr":               c.Addr,
		"log_level":          c.Log.Level,
		"log_file":           c.Log.File,
		"records_driver":     c.Records.Driver,
		"sqlite_path":        c.Records.SqlitePath,
		"pg_host":            c.Records.Postgres.Host,
		"pg_port":            c.Records.Postgres.Port,
		"pg_user":            c.Records.Postgres.User,
		"pg_db_name":         c.Records.Postgres.DbName,
		"redis_addr":         c.Records.Redis.Addr,
		"jwt_token_lifetime": c.Jwt.TokenLifetime.String(),
		"session_max_idle":   c.Sessions.MaxIdle.String(),
		"session_archive":    c.Sessions.ArchivePath,
	}
}

func (c Config) Production() bool {
	return c.Mode == "production"
}

func (c Config) Development() bool {
	return c.Mode != "production"
}

func (c Config) Validate() error {
	switch c.Records.Driver {
	case "memory", "sqlite", "postgres", "redis":
	default:
		return fmt.Errorf("unknown records driver %q", c.Records.Driver)
	}
	if c.Production() && c.Jwt.Secret == "" {
		return errors.New("jwt secret must be set in production")
	}
	if c.Jwt.TokenLifetime.Duration <= 0 {
		return errors.New("jwt token lifetime must be positive")
	}
	if c.Sessions.MaxIdle.Duration <= 0 || c.Sessions.SweepInterval.Duration <= 0 {
		return errors.New("session max idle and sweep interval must be positive")
	}
	return nil
}

func ReadConfig(path string, config *Config) error {
	if b, err := os.ReadFile(path); err != nil {
		return err
	} else {
		return json.Unmarshal(b, config)
	}
}

// ApplyEnv overrides config values with the environment variables that are set.
func (c *Config) ApplyEnv() error {
	if v, ok := os.LookupEnv("APP_ADDR"); ok {
		c.Addr = v
	}
	if v, ok := os.LookupEnv("DEVELOPMENT"); ok {
		if v != "0" {
			c.Mode = "development"
		} else {
			c.Mode = "production"
		}
	}
	if v, ok := os.LookupEnv("LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := os.LookupEnv("LOG_FILE"); ok {
		c.Log.File = v
	}
	if v, ok := os.LookupEnv("RECORDS_DRIVER"); ok {
		c.Records.Driver = v
	}
	if v, ok := os.LookupEnv("SQLITE_PATH"); ok {
		c.Records.SqlitePath = v
	}
	if err := c.Records.Postgres.applyEnv(); err != nil {
		return err
	}
	if v, ok := os.LookupEnv("REDIS_URL"); ok {
		c.Records.Redis.Addr = v
	}
	if v, ok := os.LookupEnv("REDIS_PASSWORD"); ok {
		c.Records.Redis.Password = v
	}
	if v, ok := os.LookupEnv("REDIS_DB"); ok {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("unable to convert REDIS_DB to int: %w", err)
		}
		c.Records.Redis.DB = db
	}
	if v, ok := os.LookupEnv("SESSIONS_ARCHIVE"); ok {
		c.Sessions.ArchivePath = v
	}
	if v, ok := os.LookupEnv("JWT_SECRET"); ok {
		c.Jwt.Secret = v
	}
	return nil
}

// Load reads .env (if any), then the config file at path (if it exists), then
// the environment.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("unable to read .env: %w", err)
	}

	config := Default()
	if path != "" {
		err := ReadConfig(path, config)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("unable to read config %s: %w", path, err)
		}
	}

	if err := config.ApplyEnv(); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}
