package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnvHome overrides the root directory that holds config/ and cache/.
const EnvHome = "STEAMVALUE_HOME"

// File and directory names below the root.
const (
	configDirName     = "config"
	cacheDirName      = "cache"
	apiKeyFileName    = "api_key"
	userIDFileName    = "steam_id"
	librariesFileName = "steam_libraries.json"
	settingsFileName  = "settings.yaml"
)

// Paths holds the fixed on-disk locations used by a run.
type Paths struct {
	Root string
}

// NewPaths returns the layout rooted at root.
func NewPaths(root string) Paths {
	return Paths{Root: filepath.Clean(root)}
}

// ResolvePaths determines the root directory. It checks (in order):
//  1. STEAMVALUE_HOME (via lookupEnv)
//  2. the directory containing the running executable
func ResolvePaths(lookupEnv func(string) (string, bool)) (Paths, error) {
	if home, ok := lookupEnv(EnvHome); ok && home != "" {
		abs, err := filepath.Abs(home)
		if err != nil {
			return Paths{}, fmt.Errorf("resolving %s: %w", EnvHome, err)
		}
		return NewPaths(abs), nil
	}

	exe, err := os.Executable()
	if err != nil {
		return Paths{}, fmt.Errorf("locating executable: %w", err)
	}
	if resolved, evalErr := filepath.EvalSymlinks(exe); evalErr == nil {
		exe = resolved
	}

	return NewPaths(filepath.Dir(exe)), nil
}

// ConfigDir is the directory holding user-provided configuration.
func (p Paths) ConfigDir() string { return filepath.Join(p.Root, configDirName) }

// CacheDir is the directory holding the JSON caches.
func (p Paths) CacheDir() string { return filepath.Join(p.Root, cacheDirName) }

// APIKeyFile holds the Steam Web API key on its first line.
func (p Paths) APIKeyFile() string { return filepath.Join(p.ConfigDir(), apiKeyFileName) }

// UserIDFile holds the default Steam user id on its first line.
func (p Paths) UserIDFile() string { return filepath.Join(p.ConfigDir(), userIDFileName) }

// LibrariesFile holds a JSON array of library directories.
func (p Paths) LibrariesFile() string { return filepath.Join(p.ConfigDir(), librariesFileName) }

// SettingsFile is the optional YAML settings file.
func (p Paths) SettingsFile() string { return filepath.Join(p.ConfigDir(), settingsFileName) }

// EnsureDirs creates config/ and cache/ if they do not exist.
func (p Paths) EnsureDirs() error {
	for _, dir := range []string{p.ConfigDir(), p.CacheDir()} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return nil
}
