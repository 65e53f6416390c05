package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds everything courier needs to run the bridge and its API.
type Config struct {
	APIBind          string
	SignalCLIPath    string
	SignalConfigPath string
	PhoneNumber      string
	LogLevel         string
	ResponderURL     string
	ResponderToken   string
	ResponderTimeout time.Duration
	DBusSendPath     string
}

const (
	defaultConfigPath       = "~/.config/courier/config.toml"
	defaultAPIBind          = "0.0.0.0:5000"
	defaultSignalCLIPath    = "/signal-cli/bin/signal-cli"
	defaultLogLevel         = "INFO"
	defaultResponderURL     = "ws://127.0.0.1:8765"
	defaultResponderTimeout = 30 * time.Second
	defaultDBusSendPath     = "dbus-send"
)

// Environment overrides, applied after the file.
const (
	EnvSignalConfigPath = "SIGNAL_CONFIG_PATH"
	EnvPhoneNumber      = "PHONE_NUMBER"
	EnvLogLevel         = "SIGNAL_LOG_LEVEL"
	EnvSignalCLIPath    = "SIGNAL_CLI_PATH"
	EnvResponderURL     = "COURIER_RESPONDER_URL"
	EnvResponderToken   = "COURIER_RESPONDER_TOKEN"
)

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		APIBind:          defaultAPIBind,
		SignalCLIPath:    defaultSignalCLIPath,
		LogLevel:         defaultLogLevel,
		ResponderURL:     defaultResponderURL,
		ResponderTimeout: defaultResponderTimeout,
		DBusSendPath:     defaultDBusSendPath,
	}
}

// Load reads the config file, falling back to defaults when it is missing,
// then applies environment overrides.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	switch {
	case errors.Is(err, os.ErrNotExist):
		applyEnv(&cfg, os.LookupEnv)
		return cfg, nil
	case err != nil:
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		APIBind          string `toml:"api_bind"`
		SignalCLIPath    string `toml:"signal_cli_path"`
		SignalConfigPath string `toml:"signal_config_path"`
		PhoneNumber      string `toml:"phone_number"`
		LogLevel         string `toml:"log_level"`
		ResponderURL     string `toml:"responder_url"`
		ResponderToken   string `toml:"responder_token"`
		ResponderTimeout string `toml:"responder_timeout"`
		DBusSendPath     string `toml:"dbus_send_path"`
	}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	setIfPresent(&cfg.APIBind, raw.APIBind)
	setIfPresent(&cfg.SignalCLIPath, raw.SignalCLIPath)
	setIfPresent(&cfg.SignalConfigPath, raw.SignalConfigPath)
	setIfPresent(&cfg.PhoneNumber, raw.PhoneNumber)
	setIfPresent(&cfg.LogLevel, raw.LogLevel)
	setIfPresent(&cfg.ResponderURL, raw.ResponderURL)
	setIfPresent(&cfg.ResponderToken, raw.ResponderToken)
	setIfPresent(&cfg.DBusSendPath, raw.DBusSendPath)

	if v := strings.TrimSpace(raw.ResponderTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse responder_timeout: %w", err)
		}
		cfg.ResponderTimeout = d
	}

	applyEnv(&cfg, os.LookupEnv)
	return cfg, nil
}

// Validate checks the fields `courier serve` cannot run without.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.PhoneNumber) == "" {
		errs = append(errs, fmt.Errorf("phone_number is required (or set %s)", EnvPhoneNumber))
	}
	if strings.TrimSpace(c.SignalConfigPath) == "" {
		errs = append(errs, fmt.Errorf("signal_config_path is required (or set %s)", EnvSignalConfigPath))
	}
	if c.ResponderTimeout <= 0 {
		errs = append(errs, errors.New("responder_timeout must be positive"))
	}
	return errors.Join(errs...)
}

// APIBaseURL is the URL clients use to reach the API bound at APIBind.
// Wildcard hosts map to loopback.
func (c Config) APIBaseURL() string {
	bind := strings.TrimSpace(c.APIBind)
	if bind == "" {
		bind = defaultAPIBind
	}
	for _, wildcard := range []string{"0.0.0.0:", "[::]:", ":"} {
		if strings.HasPrefix(bind, wildcard) {
			bind = "127.0.0.1:" + strings.TrimPrefix(bind, wildcard)
			break
		}
	}
	return "http://" + bind
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) {
	override := func(dst *string, key string) {
		if v, ok := lookup(key); ok {
			setIfPresent(dst, v)
		}
	}
	override(&cfg.SignalConfigPath, EnvSignalConfigPath)
	override(&cfg.PhoneNumber, EnvPhoneNumber)
	override(&cfg.LogLevel, EnvLogLevel)
	override(&cfg.SignalCLIPath, EnvSignalCLIPath)
	override(&cfg.ResponderURL, EnvResponderURL)
	override(&cfg.ResponderToken, EnvResponderToken)
}

func setIfPresent(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
