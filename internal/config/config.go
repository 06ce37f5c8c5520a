// Package config loads and persists the winseek YAML configuration.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"winseek/internal/hotkeys"
)

const (
	maxConfigFileBytes int64 = 256 * 1024
	maxRenameRetry           = 10
	// Antivirus and indexers hold files briefly on Windows; retry with a short
	// linear backoff.
	renameRetryBaseDelay = 10 * time.Millisecond

	appDirName     = "winseek"
	configFileName = "config.yaml"
)

// Log levels accepted in log_level.
const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

// Test seams.
var (
	userHomeDirFn      = os.UserHomeDir
	defaultConfigDirFn = defaultConfigDir
)

// Config is the on-disk configuration.
type Config struct {
	// GlobalHotkey opens the switcher, e.g. "Ctrl+Alt+Space".
	GlobalHotkey string `yaml:"global_hotkey"`
	// HotkeyEnabled defaults to true when absent.
	HotkeyEnabled *bool `yaml:"hotkey_enabled,omitempty"`
	// ExcludedClasses are window classes never listed, in addition to the
	// built-in shell exclusions.
	ExcludedClasses []string `yaml:"excluded_classes,omitempty"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	enabled := true
	return Config{
		GlobalHotkey:  hotkeys.DefaultBinding,
		HotkeyEnabled: &enabled,
		LogLevel:      LogLevelInfo,
	}
}

// HotkeyOn reports whether the global hotkey should be registered.
func (c Config) HotkeyOn() bool {
	return c.HotkeyEnabled == nil || *c.HotkeyEnabled
}

// SlogLevel maps LogLevel to a slog level. Unknown values map to Info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Clone returns a deep copy of c.
func Clone(c Config) Config {
	out := c
	if c.HotkeyEnabled != nil {
		v := *c.HotkeyEnabled
		out.HotkeyEnabled = &v
	}
	out.ExcludedClasses = slices.Clone(c.ExcludedClasses)
	return out
}

// Equal reports whether a and b hold the same settings.
func Equal(a, b Config) bool {
	return a.GlobalHotkey == b.GlobalHotkey &&
		a.HotkeyOn() == b.HotkeyOn() &&
		a.LogLevel == b.LogLevel &&
		slices.Equal(a.ExcludedClasses, b.ExcludedClasses)
}

// DefaultPath resolves %LOCALAPPDATA%\winseek\config.yaml, falling back to
// APPDATA, then ~/.config, then the temp directory.
func DefaultPath() string {
	return filepath.Join(AppDir(), configFileName)
}

// AppDir is the directory holding the config file and session logs.
func AppDir() string {
	base := strings.TrimSpace(os.Getenv("LOCALAPPDATA"))
	if base == "" {
		base = strings.TrimSpace(os.Getenv("APPDATA"))
	}
	if base == "" {
		home, err := userHomeDirFn()
		if err != nil {
			slog.Warn("[config] using temp dir as config fallback; settings may not persist", "error", err)
			base = os.TempDir()
		} else {
			base = filepath.Join(home, ".config")
		}
	}
	return filepath.Join(base, appDirName)
}

// Load reads path. A missing or empty file yields defaults. Invalid values are
// replaced by their defaults with a warning; only I/O and YAML syntax errors
// are returned, together with the default config.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if strings.TrimSpace(path) == "" {
		return cfg, errors.New("config path required")
	}

	raw, err := readLimitedFile(path, maxConfigFileBytes)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return cfg, nil
	}

	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		slog.Warn("[config] failed to parse config, using defaults", "path", path, "error", err)
		return DefaultConfig(), fmt.Errorf("parse %s: %w", path, err)
	}
	normalize(&cfg)
	return cfg, nil
}

// EnsureFile loads path and writes the defaults when the file does not exist.
func EnsureFile(path string) (Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return cfg, err
	}
	if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
		if _, err := Save(path, cfg); err != nil {
			return cfg, err
		}
		slog.Info("[config] created default config", "path", path)
	}
	return cfg, nil
}

// Save normalizes cfg and writes it atomically. path must be inside the
// default config directory. It returns the config as written.
func Save(path string, cfg Config) (Config, error) {
	target, err := validateConfigPath(path)
	if err != nil {
		return cfg, err
	}
	cfg = Clone(cfg)
	normalize(&cfg)

	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return cfg, fmt.Errorf("save config: marshal: %w", err)
	}
	if err := atomicWrite(target, raw); err != nil {
		return cfg, err
	}
	slog.Debug("[config] saved", "path", target)
	return cfg, nil
}

// normalize replaces invalid values with defaults in place.
func normalize(cfg *Config) {
	defaults := DefaultConfig()

	if strings.TrimSpace(cfg.GlobalHotkey) == "" {
		cfg.GlobalHotkey = defaults.GlobalHotkey
	} else if binding, err := hotkeys.ParseBinding(cfg.GlobalHotkey); err != nil {
		slog.Warn("[config] invalid global_hotkey, using default", "value", cfg.GlobalHotkey, "default", defaults.GlobalHotkey, "error", err)
		cfg.GlobalHotkey = defaults.GlobalHotkey
	} else {
		cfg.GlobalHotkey = binding.Normalized()
	}

	if cfg.HotkeyEnabled == nil {
		cfg.HotkeyEnabled = defaults.HotkeyEnabled
	}

	level := strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	switch level {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		cfg.LogLevel = level
	case "":
		cfg.LogLevel = defaults.LogLevel
	default:
		slog.Warn("[config] invalid log_level, using default", "value", cfg.LogLevel, "default", defaults.LogLevel)
		cfg.LogLevel = defaults.LogLevel
	}

	cfg.ExcludedClasses = normalizeClasses(cfg.ExcludedClasses)
}

func normalizeClasses(classes []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(classes))
	for _, class := range classes {
		class = strings.TrimSpace(class)
		if class == "" {
			continue
		}
		if _, dup := seen[class]; dup {
			continue
		}
		seen[class] = struct{}{}
		out = append(out, class)
	}
	return out
}

// atomicWrite writes data to a temp file in the target directory and renames
// it over path.
func atomicWrite(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err = os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("save config: mkdir: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, ".config.yaml.tmp.*")
	if err != nil {
		return fmt.Errorf("save config: create temp: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		if tmpFile != nil {
			if closeErr := tmpFile.Close(); closeErr != nil && !errors.Is(closeErr, os.ErrClosed) {
				slog.Warn("[config] failed to close temp file", "path", tmpPath, "error", closeErr)
			}
		}
		if err != nil {
			if removeErr := os.Remove(tmpPath); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
				slog.Warn("[config] failed to remove temp file", "path", tmpPath, "error", removeErr)
			}
		}
	}()

	if err = tmpFile.Chmod(0o600); err != nil {
		return fmt.Errorf("save config: chmod temp: %w", err)
	}
	if _, err = tmpFile.Write(data); err != nil {
		return fmt.Errorf("save config: write: %w", err)
	}
	if err = tmpFile.Sync(); err != nil {
		return fmt.Errorf("save config: sync: %w", err)
	}
	err = tmpFile.Close()
	tmpFile = nil
	if err != nil {
		return fmt.Errorf("save config: close: %w", err)
	}

	if err = renameFileWithRetry(tmpPath, path); err != nil {
		return fmt.Errorf("save config: rename: %w", err)
	}
	return nil
}

// validateConfigPath returns the absolute form of path and rejects paths
// outside the default config directory.
func validateConfigPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", errors.New("config path required")
	}
	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return "", fmt.Errorf("save config: resolve path: %w", err)
	}
	dir, err := defaultConfigDirFn()
	if err != nil {
		return "", fmt.Errorf("save config: resolve config dir: %w", err)
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("save config: resolve config dir: %w", err)
	}
	if !pathWithinDir(abs, absDir) {
		return "", fmt.Errorf("save config: path outside config directory: %q", abs)
	}
	return abs, nil
}

func defaultConfigDir() (string, error) {
	return AppDir(), nil
}

// pathWithinDir reports whether path is dir or below it. Cross-drive paths on
// Windows are rejected because filepath.Rel returns an absolute path for them.
func pathWithinDir(path string, dir string) bool {
	rel, err := filepath.Rel(filepath.Clean(dir), filepath.Clean(path))
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return false
	}
	return !filepath.IsAbs(rel)
}

func readLimitedFile(path string, maxBytes int64) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	raw, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(raw)) > maxBytes {
		return nil, fmt.Errorf("config file exceeds %d bytes", maxBytes)
	}
	return raw, nil
}

func renameFileWithRetry(sourcePath string, targetPath string) error {
	var lastErr error
	for attempt := range maxRenameRetry {
		err := os.Rename(sourcePath, targetPath)
		if err == nil {
			return nil
		}
		lastErr = err
		if runtime.GOOS != "windows" {
			return err
		}
		time.Sleep(time.Duration(attempt+1) * renameRetryBaseDelay)
	}
	return lastErr
}
