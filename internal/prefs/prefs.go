// Package prefs handles tote user preferences persistence.
// Preferences are stored in ~/.config/tote/prefs.toml.
package prefs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Prefs holds user preferences for tote.
type Prefs struct {
	Theme       string `toml:"theme"`
	PageSize    int    `toml:"page_size"`
	DefaultSort string `toml:"default_sort"`
}

const (
	defaultPrefsPath = "~/.config/tote/prefs.toml"
	defaultTheme     = "Nightfox"
	defaultPageSize  = 20
	maxPageSize      = 100
)

// Defaults returns preferences used when the file is missing or unreadable.
func Defaults() Prefs {
	return Prefs{Theme: defaultTheme, PageSize: defaultPageSize}
}

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// sortKeys are the product sort orders the catalog offers. "" is the
// server's default order.
var sortKeys = map[string]bool{
	"": true, "price": true, "-price": true, "-ratingsAverage": true, "-createdAt": true, "-sold": true,
}

// Load reads preferences from path. A missing, unreadable or malformed file
// yields Defaults and no error.
func Load(path string) (Prefs, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Defaults(), nil
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return Defaults(), nil
	}
	var p Prefs
	if err := toml.Unmarshal(data, &p); err != nil {
		return Defaults(), nil
	}
	return p.normalized(), nil
}

func (p Prefs) normalized() Prefs {
	if strings.TrimSpace(p.Theme) == "" {
		p.Theme = defaultTheme
	}
	p.PageSize = min(max(p.PageSize, 0), maxPageSize)
	if p.PageSize == 0 {
		p.PageSize = defaultPageSize
	}
	p.DefaultSort = strings.TrimSpace(p.DefaultSort)
	if !sortKeys[p.DefaultSort] {
		p.DefaultSort = ""
	}
	return p
}

// Save writes preferences to path through a temporary file so a crash never
// leaves a half-written file behind.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}
	data, err := toml.Marshal(p.normalized())
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".prefs-*.toml")
	if err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := os.Rename(tmp.Name(), resolved); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultPrefsPath)
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
