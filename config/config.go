package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultPath = "./config/config.yaml"

type HTTP struct {
	Addr           string        `yaml:"addr"`
	ReadTimeout    time.Duration `yaml:"readTimeout"`
	WriteTimeout   time.Duration `yaml:"writeTimeout"`
	IdleTimeout    time.Duration `yaml:"idleTimeout"`
	RequestTimeout time.Duration `yaml:"requestTimeout"`
	AllowedOrigins []string      `yaml:"allowedOrigins"`
}

// GRPC: пустой addr отключает listener.
type GRPC struct {
	Addr string `yaml:"addr"`
}

type Logging struct {
	Env       string `yaml:"env"`       // dev|stage|prod
	Service   string `yaml:"service"`   // room-chat
	Version   string `yaml:"version"`   // v0.1.0
	Backend   string `yaml:"backend"`   // std|zap
	AddSource bool   `yaml:"addSource"` // false|true
	Debug     bool   `yaml:"debug"`     // false|true
}

type RateLimit struct {
	Burst    int           `yaml:"burst"`
	Interval time.Duration `yaml:"interval"`
}

type Chat struct {
	TypingTimeout time.Duration `yaml:"typingTimeout"`
	SendBuffer    int           `yaml:"sendBuffer"`
	PingInterval  time.Duration `yaml:"pingInterval"`
	MaxFrameBytes int64         `yaml:"maxFrameBytes"`
	RateLimit     RateLimit     `yaml:"rateLimit"`
}

const (
	AvatarBackendDisk     = "disk"
	AvatarBackendPostgres = "postgres"
)

type Avatar struct {
	Backend       string `yaml:"backend"` // disk|postgres
	Dir           string `yaml:"dir"`
	PublicBaseURL string `yaml:"publicBaseURL"`
	MaxBytes      int64  `yaml:"maxBytes"`
}

type Postgres struct {
	DSN             string `yaml:"dsn"`
	MaxConns        int32  `yaml:"maxConns"`
	MinConns        int32  `yaml:"minConns"`
	ApplicationName string `yaml:"applicationName"`
}

type Config struct {
	HTTP            HTTP          `yaml:"http"`
	GRPC            GRPC          `yaml:"grpc"`
	Logging         Logging       `yaml:"logging"`
	Chat            Chat          `yaml:"chat"`
	Avatar          Avatar        `yaml:"avatar"`
	Postgres        Postgres      `yaml:"postgres"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		HTTP: HTTP{
			Addr:           ":3000",
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   30 * time.Second,
			IdleTimeout:    60 * time.Second,
			RequestTimeout: 30 * time.Second,
			AllowedOrigins: []string{"*"},
		},
		GRPC: GRPC{Addr: ":9093"},
		Logging: Logging{
			Env:     "dev",
			Service: "room-chat",
			Version: "v0.1.0",
			Backend: "std",
		},
		Chat: Chat{
			TypingTimeout: 5 * time.Second,
			SendBuffer:    256,
			PingInterval:  25 * time.Second,
			MaxFrameBytes: 64 << 10,
			RateLimit:     RateLimit{Burst: 20, Interval: time.Second},
		},
		Avatar: Avatar{
			Backend:  AvatarBackendDisk,
			Dir:      "./data/avatars",
			MaxBytes: 2 << 20,
		},
		Postgres: Postgres{
			MaxConns:        4,
			ApplicationName: "room-chat",
		},
		ShutdownTimeout: 10 * time.Second,
	}
}

// LoadConfig читает YAML из $CONFIG_PATH (по умолчанию ./config/config.yaml).
// Отсутствие файла не ошибка: работают дефолты. HTTP_ADDR и APP_ENV
// перекрывают значения из файла.
func LoadConfig() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = DefaultPath
	}
	return Load(path)
}

func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("APP_ENV"); v != "" {
		cfg.Logging.Env = v
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.HTTP.Addr == "" {
		return errors.New("http.addr is required")
	}
	switch c.Avatar.Backend {
	case "":
		c.Avatar.Backend = AvatarBackendDisk
	case AvatarBackendDisk, AvatarBackendPostgres:
	default:
		return fmt.Errorf("avatar.backend: unknown backend %q", c.Avatar.Backend)
	}
	if c.Avatar.Backend == AvatarBackendPostgres && c.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required for avatar.backend=postgres")
	}
	if c.Avatar.Backend == AvatarBackendDisk && c.Avatar.Dir == "" {
		return errors.New("avatar.dir is required for avatar.backend=disk")
	}
	if c.Chat.RateLimit.Burst < 0 || c.Chat.SendBuffer < 0 || c.Avatar.MaxBytes < 0 {
		return errors.New("chat and avatar limits must not be negative")
	}

	// установка дефолтов, если значения обнулены в файле
	d := Default()
	if c.Logging.Service == "" {
		c.Logging.Service = d.Logging.Service
	}
	if c.Logging.Env == "" {
		c.Logging.Env = d.Logging.Env
	}
	if c.Logging.Version == "" {
		c.Logging.Version = d.Logging.Version
	}
	if c.Chat.TypingTimeout <= 0 {
		c.Chat.TypingTimeout = d.Chat.TypingTimeout
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = d.ShutdownTimeout
	}
	return nil
}
