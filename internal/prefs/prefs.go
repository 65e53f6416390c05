// Package prefs persists `courier watch` preferences in
// ~/.config/courier/prefs.toml. A missing or unreadable file yields the
// defaults.
package prefs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Prefs holds monitor preferences.
type Prefs struct {
	Theme string `toml:"theme"`
	// Filter is the activity filter name ("all", "failures" or "inbound").
	Filter string `toml:"filter"`
}

const (
	defaultPrefsPath = "~/.config/courier/prefs.toml"
	defaultTheme     = "Dracula"
	defaultFilter    = "all"
)

// Default returns the built-in preferences.
func Default() Prefs {
	return Prefs{Theme: defaultTheme, Filter: defaultFilter}
}

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// Load reads preferences from path, filling blanks with defaults.
func Load(path string) Prefs {
	p := Default()

	resolved, err := resolvePath(path)
	if err != nil {
		return p
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return p
	}

	var stored Prefs
	if err := toml.Unmarshal(data, &stored); err != nil {
		return p
	}
	if v := strings.TrimSpace(stored.Theme); v != "" {
		p.Theme = v
	}
	if v := strings.TrimSpace(stored.Filter); v != "" {
		p.Filter = v
	}
	return p
}

// Save writes preferences to path, creating directories as needed.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}
	data, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}
	if err := os.WriteFile(resolved, data, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}

func resolvePath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		trimmed = defaultPrefsPath
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
