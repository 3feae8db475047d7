package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

// maxShortCodeLength matches the width of the short_code column.
const maxShortCodeLength = 10

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Env             string `yaml:"env"`
	Debug           bool   `yaml:"debug"`
	ShortCodeLength int    `yaml:"short_code_length"`
	CodeStrategy    string `yaml:"code_strategy"`
	BaseURL         string `yaml:"base_url"`
	HTTPServer      `yaml:"http_server"`
	Postgres        `yaml:"postgres"`
	CORS            `yaml:"cors"`
}

type HTTPServer struct {
	Port           int           `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	MaxHeaderBytes int           `yaml:"max_header_bytes"`
	CertFile       string        `yaml:"cert_file"`
	KeyFile        string        `yaml:"key_file"`
}

var defaultHTTPServer = HTTPServer{
	Port:           5000,
	ReadTimeout:    5 * time.Second,
	WriteTimeout:   10 * time.Second,
	IdleTimeout:    time.Minute,
	MaxHeaderBytes: 1 << 20,
}

func (s *HTTPServer) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

type Postgres struct {
	// URL is a complete connection string. When set, it takes precedence over the separate fields.
	URL             string        `yaml:"url"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	DB              string        `yaml:"db"`
	SSLMode         string        `yaml:"sslmode"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	ConnectTimeout  time.Duration `yaml:"connect_timeout"`
}

var defaultPostgres = Postgres{
	User:            "postgres",
	Password:        "postgres",
	Host:            "localhost",
	Port:            5432,
	DB:              "urlshortener",
	SSLMode:         "disable",
	ConnMaxIdleTime: 5 * time.Minute,
	ConnMaxLifetime: 30 * time.Minute,
	MaxIdleConns:    5,
	MaxOpenConns:    25,
	ConnectTimeout:  10 * time.Second,
}

func (p *Postgres) DSN() string {
	if p.URL != "" {
		return p.URL
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.DB, p.SSLMode)
}

type CORS struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Load reads the YAML file at path, if any, and then applies the
// DATABASE_URL, PORT, DEBUG and BASE_URL environment variables on top of it.
func Load(path string) (*Config, error) {
	const op = "config.Load"

	var cfg Config
	setDefaults(&cfg)

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to open config file: %w", op, err)
		}
		defer f.Close()

		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: failed to decode config file: %w", op, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &cfg, nil
}

func setDefaults(cfg *Config) {
	cfg.Env = EnvDev
	cfg.ShortCodeLength = 6
	cfg.CodeStrategy = "random"
	cfg.HTTPServer = defaultHTTPServer
	cfg.Postgres = defaultPostgres
	cfg.CORS = CORS{AllowedOrigins: []string{"*"}}
}

func applyEnv(cfg *Config) error {
	if v, ok := os.LookupEnv("DATABASE_URL"); ok && v != "" {
		cfg.Postgres.URL = v
	}

	if v, ok := os.LookupEnv("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("failed to parse PORT: %w", err)
		}
		cfg.HTTPServer.Port = port
	}

	if v, ok := os.LookupEnv("DEBUG"); ok && v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("failed to parse DEBUG: %w", err)
		}
		cfg.Debug = debug
	}

	if v, ok := os.LookupEnv("BASE_URL"); ok && v != "" {
		cfg.BaseURL = v
	}

	return nil
}

func validate(cfg *Config) error {
	if cfg.ShortCodeLength < 1 || cfg.ShortCodeLength > maxShortCodeLength {
		return fmt.Errorf("%w: short_code_length must be between 1 and %d", ErrInvalidConfig, maxShortCodeLength)
	}

	if cfg.HTTPServer.Port < 1 || cfg.HTTPServer.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, cfg.HTTPServer.Port)
	}

	return nil
}
