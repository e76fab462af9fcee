package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sanity-io/litter"
	"gopkg.in/yaml.v3"

	"github.com/rshade/steamvalue/internal/logging"
)

// EnvAPIBaseURL overrides api.base_url from settings.yaml.
const EnvAPIBaseURL = "STEAMVALUE_API_BASE_URL"

// Defaults applied when settings.yaml is missing or leaves a field empty.
const (
	DefaultAPIBaseURL  = "https://api.steampowered.com"
	DefaultAPITimeout  = 30 * time.Second
	DefaultResultsFile = "results.log"
)

// Settings is the optional tuning file at config/settings.yaml.
type Settings struct {
	API    APISettings    `yaml:"api"`
	Report ReportSettings `yaml:"report"`
	Steam  SteamSettings  `yaml:"steam"`
}

// APISettings configures the Steam Web API client.
type APISettings struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// ReportSettings configures the results file.
type ReportSettings struct {
	// ResultsFile is written relative to the working directory unless absolute.
	ResultsFile string `yaml:"results_file"`
}

// SteamSettings configures local Steam discovery.
type SteamSettings struct {
	// Path is the Steam install directory used for library discovery when no
	// library path is configured. Empty means probe the default locations.
	Path string `yaml:"path"`
}

// DefaultSettings returns the built-in settings.
func DefaultSettings() Settings {
	return Settings{
		API: APISettings{
			BaseURL: DefaultAPIBaseURL,
			Timeout: DefaultAPITimeout,
		},
		Report: ReportSettings{
			ResultsFile: DefaultResultsFile,
		},
	}
}

// LoadSettings reads path on top of the defaults. A missing file yields the
// defaults. A malformed file is reported and the defaults are used.
func LoadSettings(ctx context.Context, path string, lookupEnv func(string) (string, bool)) Settings {
	log := logging.FromContext(ctx)
	settings := DefaultSettings()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		log.Debug().Str("path", path).Msg("no settings file, using defaults")
	case err != nil:
		log.Warn().Err(err).Str("path", path).Msg("could not read settings file, using defaults")
	default:
		if parseErr := parseSettings(data, &settings); parseErr != nil {
			log.Warn().Err(parseErr).Str("path", path).Msg("could not parse settings file, using defaults")
			settings = DefaultSettings()
		}
	}

	if lookupEnv != nil {
		if base, ok := lookupEnv(EnvAPIBaseURL); ok && base != "" {
			settings.API.BaseURL = base
		}
	}

	settings.normalize()

	if e := log.Debug(); e.Enabled() {
		e.Str("settings", litter.Sdump(settings)).Msg("effective settings")
	}

	return settings
}

func parseSettings(data []byte, settings *Settings) error {
	if err := yaml.Unmarshal(data, settings); err != nil {
		return fmt.Errorf("decoding settings: %w", err)
	}
	return nil
}

// normalize fills empty or invalid fields with defaults.
func (s *Settings) normalize() {
	s.API.BaseURL = strings.TrimRight(strings.TrimSpace(s.API.BaseURL), "/")
	if s.API.BaseURL == "" {
		s.API.BaseURL = DefaultAPIBaseURL
	}
	if s.API.Timeout <= 0 {
		s.API.Timeout = DefaultAPITimeout
	}
	if strings.TrimSpace(s.Report.ResultsFile) == "" {
		s.Report.ResultsFile = DefaultResultsFile
	}
}
