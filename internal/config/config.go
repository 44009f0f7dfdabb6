// Package config resolves where the users service lives and how the client talks to it.
//
// Values come from, lowest precedence first: built-in defaults, the ini file
// (~/.sgu/config.ini), SGU_* environment variables, and finally command-line flags
// (applied by the caller).
package config

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/ini.v1"
)

const (
	DefaultHost     = "localhost"
	DefaultPort     = 8080
	DefaultBasePath = "/api/users"
	DefaultTimeout  = 15 * time.Second
)

type Config struct {
	Host     string        `env:"SGU_API_HOST"`
	Port     int           `env:"SGU_API_PORT"`
	BasePath string        `env:"SGU_API_BASE"`
	Timeout  time.Duration `env:"SGU_TIMEOUT"`

	// LogFile receives logs when set. The TUI never logs to the terminal.
	LogFile string `env:"SGU_LOG_FILE"`
	Debug   bool   `env:"SGU_DEBUG"`
}

// Default returns the built-in configuration (http://localhost:8080/api/users, 15s).
func Default() Config {
	return Config{
		Host:     DefaultHost,
		Port:     DefaultPort,
		BasePath: DefaultBasePath,
		Timeout:  DefaultTimeout,
	}
}

func ConfigDir() (string, error) {
	// Test/advanced override (keeps unit tests from touching ~/.sgu).
	if v := strings.TrimSpace(os.Getenv("SGU_CONFIG_DIR")); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".sgu"), nil
}

// ConfigPath is the ini file location: SGU_CONFIG when set, else <ConfigDir>/config.ini.
func ConfigPath() (string, error) {
	var fe struct {
		Path string `env:"SGU_CONFIG"`
	}
	if err := env.Parse(&fe); err != nil {
		return "", fmt.Errorf("parse env: %w", err)
	}
	if p := strings.TrimSpace(fe.Path); p != "" {
		return p, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.ini"), nil
}

// Load returns defaults overlaid with the ini file at path and then the environment.
// A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if err := cfg.loadFile(path); err != nil {
		return Config{}, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overlays the SGU_* variables that are set. Unset variables leave the field
// untouched.
func (c *Config) ApplyEnv() error {
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func (c *Config) loadFile(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	f, err := ini.Load(b)
	if err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}

	api := f.Section("api")
	if k := api.Key("host"); k.String() != "" {
		c.Host = k.String()
	}
	if k := api.Key("port"); k.String() != "" {
		v, err := k.Int()
		if err != nil {
			return fmt.Errorf("config %s: [api] port: %w", path, err)
		}
		c.Port = v
	}
	if k := api.Key("base"); k.String() != "" {
		c.BasePath = k.String()
	}
	if k := api.Key("timeout"); k.String() != "" {
		v, err := k.Duration()
		if err != nil {
			return fmt.Errorf("config %s: [api] timeout: %w", path, err)
		}
		c.Timeout = v
	}

	logSec := f.Section("log")
	if k := logSec.Key("file"); k.String() != "" {
		c.LogFile = k.String()
	}
	if k := logSec.Key("debug"); k.String() != "" {
		v, err := k.Bool()
		if err != nil {
			return fmt.Errorf("config %s: [log] debug: %w", path, err)
		}
		c.Debug = v
	}
	return nil
}

// Validate checks the values that would otherwise only fail on the first request.
func (c Config) Validate() error {
	host := strings.TrimSpace(c.Host)
	if host == "" {
		return errors.New("config: host is empty")
	}
	if _, h := splitScheme(host); h == "" || strings.ContainsAny(h, "/ ") {
		return fmt.Errorf("config: invalid host %q", c.Host)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("config: port %d out of range", c.Port)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("config: negative timeout %s", c.Timeout)
	}
	return nil
}

// BaseURL is the collection URL, e.g. http://localhost:8080/api/users.
//
// Host may carry an explicit scheme ("https://api.example.com"); plain http is used
// otherwise.
func (c Config) BaseURL() string {
	scheme, host := splitScheme(strings.TrimSpace(c.Host))
	base := "/" + strings.Trim(strings.TrimSpace(c.BasePath), "/")
	if base == "/" {
		base = ""
	}
	return scheme + "://" + net.JoinHostPort(host, strconv.Itoa(c.Port)) + base
}

func splitScheme(host string) (string, string) {
	for _, s := range []string{"http", "https"} {
		if rest, ok := strings.CutPrefix(host, s+"://"); ok {
			return s, strings.TrimRight(rest, "/")
		}
	}
	return "http", host
}

// Save writes c to path as ini, replacing the file atomically.
func Save(path string, c Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	f := ini.Empty()
	api := f.Section("api")
	api.Key("host").SetValue(c.Host)
	api.Key("port").SetValue(strconv.Itoa(c.Port))
	api.Key("base").SetValue(c.BasePath)
	api.Key("timeout").SetValue(c.Timeout.String())
	if c.LogFile != "" || c.Debug {
		logSec := f.Section("log")
		if c.LogFile != "" {
			logSec.Key("file").SetValue(c.LogFile)
		}
		logSec.Key("debug").SetValue(strconv.FormatBool(c.Debug))
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return err
	}
	return atomicWriteFile(dir, "config.ini.*.tmp", path, buf.Bytes(), 0o600)
}

func atomicWriteFile(dir, tmpPattern, path string, b []byte, perm os.FileMode) error {
	f, err := os.CreateTemp(dir, tmpPattern)
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	_ = os.Chmod(tmp, perm)
	return os.Rename(tmp, path)
}
