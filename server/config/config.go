package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-ini/ini"
)

const DefaultConfigFile = "conf.ini"

// ServerConfig [server]
type ServerConfig struct {
	Listen   string `ini:"listen"`
	Workers  int    `ini:"workers"`
	Queue    int    `ini:"queue"`
	FileDir  string `ini:"file_dir"`
	MaxFrame int    `ini:"max_frame"`
	MaxFile  int64  `ini:"max_file"`
}

// StoreConfig [store]
type StoreConfig struct {
	Driver      string        `ini:"driver"`
	Addr        string        `ini:"addr"`
	Password    string        `ini:"password"`
	DB          int           `ini:"db"`
	MaxIdle     int           `ini:"max_idle"`
	MaxActive   int           `ini:"max_active"`
	IdleTimeout time.Duration `ini:"idle_timeout"`
}

// ArchiveConfig [archive]. An empty driver disables the archive.
type ArchiveConfig struct {
	Driver string `ini:"driver"`
	Source string `ini:"source"`
}

// LogConfig [log]. An empty path logs to stderr.
type LogConfig struct {
	Level string `ini:"level"`
	Path  string `ini:"path"`
}

type Config struct {
	Server  ServerConfig
	Store   StoreConfig
	Archive ArchiveConfig
	Log     LogConfig
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Listen:   "0.0.0.0:6666",
			Workers:  10,
			Queue:    10,
			FileDir:  "./files",
			MaxFrame: 1 << 20,
			MaxFile:  100 << 20,
		},
		Store: StoreConfig{
			Driver:      "redigo",
			Addr:        "127.0.0.1:6379",
			MaxIdle:     16,
			IdleTimeout: 300 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func (c *Config) sections() []struct {
	name string
	ptr  interface{}
} {
	return []struct {
		name string
		ptr  interface{}
	}{
		{"server", &c.Server},
		{"store", &c.Store},
		{"archive", &c.Archive},
		{"log", &c.Log},
	}
}

// Load reads path over the defaults. Keys missing from the file keep their
// default value.
func Load(path string) (*Config, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	config := Default()
	for _, s := range config.sections() {
		if err := cfg.Section(s.name).MapTo(s.ptr); err != nil {
			return nil, fmt.Errorf("section [%s]: %w", s.name, err)
		}
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "redigo", "redis", "goredis", "memory":
	default:
		return fmt.Errorf("store driver %q: want redigo, goredis or memory", c.Store.Driver)
	}
	switch c.Archive.Driver {
	case "", "mysql", "sqlite3":
	default:
		return fmt.Errorf("archive driver %q: want mysql or sqlite3", c.Archive.Driver)
	}
	if c.Archive.Driver != "" && c.Archive.Source == "" {
		return fmt.Errorf("archive driver %s needs a source", c.Archive.Driver)
	}
	if c.Server.Workers <= 0 {
		return fmt.Errorf("server workers must be positive, got %d", c.Server.Workers)
	}
	if c.Server.Queue < 0 {
		return fmt.Errorf("server queue must not be negative, got %d", c.Server.Queue)
	}
	if c.Server.MaxFrame <= 0 {
		return fmt.Errorf("server max_frame must be positive, got %d", c.Server.MaxFrame)
	}
	return nil
}

// Save writes c to path, creating the parent directory.
func (c *Config) Save(path string) error {
	cfg := ini.Empty()
	for _, s := range c.sections() {
		if err := cfg.Section(s.name).ReflectFrom(s.ptr); err != nil {
			return fmt.Errorf("section [%s]: %w", s.name, err)
		}
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return cfg.SaveTo(path)
}

// WriteDefault writes the default configuration to path unless it exists.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	return Default().Save(path)
}
