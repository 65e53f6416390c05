package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvSignalConfigPath, EnvPhoneNumber, EnvLogLevel, EnvSignalCLIPath, EnvResponderURL, EnvResponderToken} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad_MissingConfigFallsBackToDefaults(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load(filepath.Join(home, "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg != Default() {
		t.Fatalf("Load = %+v, want defaults %+v", cfg, Default())
	}
}

func TestLoad_ParsesAndTrimsConfig(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`
api_bind = "  10.0.0.5:9999  "
signal_cli_path = "/opt/signal-cli/bin/signal-cli"
signal_config_path = "/data/signal"
phone_number = " +15550001 "
log_level = "debug"
responder_url = "ws://bot:9000/chat"
responder_token = "s3cret"
responder_timeout = "45s"
dbus_send_path = "/usr/bin/dbus-send"
`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	want := Config{
		APIBind:          "10.0.0.5:9999",
		SignalCLIPath:    "/opt/signal-cli/bin/signal-cli",
		SignalConfigPath: "/data/signal",
		PhoneNumber:      "+15550001",
		LogLevel:         "debug",
		ResponderURL:     "ws://bot:9000/chat",
		ResponderToken:   "s3cret",
		ResponderTimeout: 45 * time.Second,
		DBusSendPath:     "/usr/bin/dbus-send",
	}
	if cfg != want {
		t.Fatalf("Load = %+v, want %+v", cfg, want)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`phone_number = "+1"
signal_config_path = "/file"
`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	t.Setenv(EnvPhoneNumber, "+2")
	t.Setenv(EnvSignalConfigPath, "/env")
	t.Setenv(EnvLogLevel, "WARNING")
	t.Setenv(EnvSignalCLIPath, "/bin/signal-cli")
	t.Setenv(EnvResponderURL, "ws://env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.PhoneNumber != "+2" || cfg.SignalConfigPath != "/env" {
		t.Fatalf("env did not override file: %+v", cfg)
	}
	if cfg.LogLevel != "WARNING" || cfg.SignalCLIPath != "/bin/signal-cli" || cfg.ResponderURL != "ws://env" {
		t.Fatalf("env overrides missing: %+v", cfg)
	}
}

func TestLoad_EmptyEnvDoesNotClear(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`phone_number = "+1"`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	t.Setenv(EnvPhoneNumber, "  ")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.PhoneNumber != "+1" {
		t.Fatalf("PhoneNumber = %q, want +1", cfg.PhoneNumber)
	}
}

func TestLoad_InvalidInput(t *testing.T) {
	clearEnv(t)
	tests := map[string]string{
		"bad toml":    "api_bind = ",
		"bad timeout": `responder_timeout = "soon"`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
				t.Fatalf("WriteFile: %v", err)
			}
			if _, err := Load(path); err == nil {
				t.Fatal("Load succeeded, want error")
			}
		})
	}
}

func TestValidate_ReportsMissingFields(t *testing.T) {
	err := Default().Validate()
	if err == nil {
		t.Fatal("Validate succeeded on defaults, want error")
	}
	msg := err.Error()
	for _, want := range []string{"phone_number", "signal_config_path"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("Validate error %q does not mention %s", msg, want)
		}
	}
}

func TestAPIBaseURL(t *testing.T) {
	tests := []struct {
		bind string
		want string
	}{
		{bind: "0.0.0.0:5000", want: "http://127.0.0.1:5000"},
		{bind: ":8080", want: "http://127.0.0.1:8080"},
		{bind: "[::]:5000", want: "http://127.0.0.1:5000"},
		{bind: "10.1.2.3:7000", want: "http://10.1.2.3:7000"},
		{bind: "", want: "http://127.0.0.1:5000"},
	}
	for _, tt := range tests {
		if got := (Config{APIBind: tt.bind}).APIBaseURL(); got != tt.want {
			t.Errorf("APIBaseURL(%q) = %q, want %q", tt.bind, got, tt.want)
		}
	}
}

func TestExpandPathTilde(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := expandPath("~/courier/config.toml")
	if err != nil {
		t.Fatalf("expandPath: %v", err)
	}
	if got != filepath.Join(home, "courier", "config.toml") {
		t.Fatalf("expandPath = %q", got)
	}
}
