// Package config loads the fixed-location configuration files of steamvalue:
// the Steam Web API key, the default user id, the library paths and the
// optional settings.yaml.
package config

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rshade/steamvalue/internal/logging"
)

// ErrConfigMissing indicates a required configuration file is absent or empty.
var ErrConfigMissing = errors.New("required configuration missing")

// ErrUserIDMissing indicates no Steam user id was configured or passed.
var ErrUserIDMissing = errors.New("no Steam user id configured")

// Config is the effective configuration of a run.
type Config struct {
	Paths     Paths
	APIKey    string
	UserID    string
	Libraries []string
	Settings  Settings
}

// Load reads every configuration file under paths. Only the API key is
// mandatory; a missing key returns ErrConfigMissing.
func Load(ctx context.Context, paths Paths, lookupEnv func(string) (string, bool)) (*Config, error) {
	log := logging.FromContext(ctx)

	if err := paths.EnsureDirs(); err != nil {
		return nil, err
	}
	if err := paths.EnsureGitignores(); err != nil {
		log.Warn().Err(err).Msg("couldn't write .gitignore files")
	}

	cfg := &Config{Paths: paths}

	log.Debug().Str("path", paths.APIKeyFile()).Msg("loading API key")
	apiKey, err := readFirstLine(paths.APIKeyFile())
	if err != nil {
		return nil, fmt.Errorf("reading API key: %w", err)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: %s is empty", ErrConfigMissing, paths.APIKeyFile())
	}
	cfg.APIKey = apiKey

	log.Debug().Str("path", paths.UserIDFile()).Msg("loading user id")
	userID, err := readFirstLine(paths.UserIDFile())
	switch {
	case errors.Is(err, ErrConfigMissing):
		log.Info().Str("path", paths.UserIDFile()).
			Msg("no default Steam user id; place one there to stop passing -u")
	case err != nil:
		return nil, fmt.Errorf("reading user id: %w", err)
	default:
		cfg.UserID = userID
	}

	log.Debug().Str("path", paths.LibrariesFile()).Msg("loading Steam libraries")
	cfg.Libraries = loadLibraries(ctx, paths.LibrariesFile())

	cfg.Settings = LoadSettings(ctx, paths.SettingsFile(), lookupEnv)

	return cfg, nil
}

// AddLibraries appends extra library paths, skipping blanks and duplicates.
func (c *Config) AddLibraries(paths ...string) {
	seen := make(map[string]bool, len(c.Libraries))
	for _, p := range c.Libraries {
		seen[p] = true
	}
	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		c.Libraries = append(c.Libraries, p)
	}
}

// Validate checks the fields that the remote calls need.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("%w: API key", ErrConfigMissing)
	}
	if c.UserID == "" {
		return fmt.Errorf("%w: set one in %s or pass -u", ErrUserIDMissing, c.Paths.UserIDFile())
	}
	return nil
}

// readFirstLine returns the trimmed first line of path. A missing file
// returns ErrConfigMissing.
func readFirstLine(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s does not exist", ErrConfigMissing, path)
		}
		return "", err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text()), nil
	}
	return "", scanner.Err()
}

// loadLibraries reads the JSON array of library paths. Problems are logged
// and yield an empty list; libraries can still come from flags.
func loadLibraries(ctx context.Context, path string) []string {
	log := logging.FromContext(ctx)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Debug().Str("path", path).Msg("Steam libraries file doesn't exist")
		} else {
			log.Debug().Err(err).Str("path", path).Msg("couldn't read Steam libraries file")
		}
		return nil
	}

	var libraries []string
	if unmarshalErr := json.Unmarshal(data, &libraries); unmarshalErr != nil {
		log.Debug().Err(unmarshalErr).Str("path", path).Msg("couldn't parse Steam libraries file")
		return nil
	}

	if len(libraries) == 0 {
		log.Debug().Str("path", path).Msg("no Steam libraries configured")
	}

	return libraries
}
