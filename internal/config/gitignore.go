package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// configGitignore keeps the Web API key and the personal user id out of
// version control when the root directory is a checkout.
const configGitignore = `# steamvalue configuration (auto-generated)
api_key
steam_id
`

// cacheGitignore ignores everything in cache/.
const cacheGitignore = `# steamvalue caches (auto-generated)
*
`

// ConfigGitignoreContent returns the .gitignore written to config/.
func ConfigGitignoreContent() string {
	return configGitignore
}

// CacheGitignoreContent returns the .gitignore written to cache/.
func CacheGitignoreContent() string {
	return cacheGitignore
}

// EnsureGitignores writes the config/ and cache/ .gitignore files where missing.
func (p Paths) EnsureGitignores() error {
	if _, err := EnsureGitignore(p.ConfigDir(), configGitignore); err != nil {
		return err
	}
	if _, err := EnsureGitignore(p.CacheDir(), cacheGitignore); err != nil {
		return err
	}
	return nil
}

// EnsureGitignore creates a .gitignore with content in dir if one does not
// already exist. Returns true if a new file was created. Never overwrites an
// existing .gitignore.
func EnsureGitignore(dir, content string) (bool, error) {
	gitignorePath := filepath.Join(dir, ".gitignore")

	_, err := os.Stat(gitignorePath)
	if err == nil {
		return false, nil
	}

	if !os.IsNotExist(err) {
		return false, fmt.Errorf("checking .gitignore at %s: %w", gitignorePath, err)
	}

	if mkdirErr := os.MkdirAll(dir, 0o750); mkdirErr != nil {
		return false, fmt.Errorf("creating directory %s: %w", dir, mkdirErr)
	}

	//nolint:gosec // .gitignore must be world-readable (0644).
	if writeErr := os.WriteFile(gitignorePath, []byte(content), 0o644); writeErr != nil {
		return false, fmt.Errorf("writing .gitignore at %s: %w", gitignorePath, writeErr)
	}

	return true, nil
}
