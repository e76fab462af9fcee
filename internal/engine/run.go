// Package engine runs one complete steamvalue pass: load configuration, fetch
// playtimes, resolve names and sizes through the cache, rank the games and
// write the report.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/rshade/steamvalue/internal/config"
	"github.com/rshade/steamvalue/internal/engine/cache"
	"github.com/rshade/steamvalue/internal/logging"
	"github.com/rshade/steamvalue/internal/manifest"
	"github.com/rshade/steamvalue/internal/report"
	"github.com/rshade/steamvalue/internal/steam"
)

// ErrNoPlaytimes is returned when the Steam API reports no owned games.
var ErrNoPlaytimes = errors.New("the Steam API returned no games; check your api_key and steam_id files")

// Request holds the per-run choices made on the command line.
type Request struct {
	// UserID overrides config/steam_id when set.
	UserID string
	// Libraries are appended to config/steam_libraries.json.
	Libraries []string
	// NoCache clears the cache directory before anything is loaded.
	NoCache bool
}

// Result describes a completed run.
type Result struct {
	Report      *report.Report
	ResultsPath string
	Ignored     int
}

// Engine wires the configuration, cache, Steam client and manifest scanner.
type Engine struct {
	paths      config.Paths
	console    io.Writer
	styled     bool
	lookupEnv  func(string) (string, bool)
	httpClient *http.Client
	steamPath  func() (string, error)
}

// Option configures an Engine.
type Option func(*Engine)

// WithStyledOutput enables colour styling of the console report.
func WithStyledOutput(styled bool) Option {
	return func(e *Engine) { e.styled = styled }
}

// WithLookupEnv replaces os.LookupEnv.
func WithLookupEnv(lookup func(string) (string, bool)) Option {
	return func(e *Engine) { e.lookupEnv = lookup }
}

// WithHTTPClient replaces the HTTP client used for the Steam Web API.
func WithHTTPClient(c *http.Client) Option {
	return func(e *Engine) { e.httpClient = c }
}

// WithSteamPathProbe replaces the default Steam install probe used for
// library discovery.
func WithSteamPathProbe(probe func() (string, error)) Option {
	return func(e *Engine) { e.steamPath = probe }
}

// New creates an engine rooted at paths that mirrors its report to console.
func New(paths config.Paths, console io.Writer, opts ...Option) *Engine {
	e := &Engine{
		paths:     paths,
		console:   console,
		lookupEnv: os.LookupEnv,
		steamPath: manifest.DefaultSteamPath,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run performs one full pass. It returns ErrNoPlaytimes when Steam reports
// no games and report.ErrNoGames when nothing is both installed and played.
//
//nolint:funlen // Sequential pipeline; each step depends on the previous one.
func (e *Engine) Run(ctx context.Context, req Request) (*Result, error) {
	log := logging.FromContext(ctx)
	start := time.Now()

	log.Debug().
		Str("component", "engine").
		Str("operation", "run").
		Str("root", e.paths.Root).
		Bool("no_cache", req.NoCache).
		Msg("starting run")

	cfgCtx := logging.WithComponent(ctx, "config")
	cfg, err := config.Load(cfgCtx, e.paths, e.lookupEnv)
	if err != nil {
		return nil, err
	}
	if req.UserID != "" {
		cfg.UserID = req.UserID
	}
	cfg.AddLibraries(req.Libraries...)
	if validateErr := cfg.Validate(); validateErr != nil {
		return nil, validateErr
	}

	cacheCtx := logging.WithComponent(ctx, "cache")
	store, err := cache.NewFileStore(e.paths.CacheDir())
	if err != nil {
		return nil, err
	}
	if req.NoCache {
		removed, clearErr := store.Clear()
		if clearErr != nil {
			return nil, fmt.Errorf("clearing cache: %w", clearErr)
		}
		log.Info().Int("files", removed).Str("dir", store.Directory()).Msg("cache cleared")
	}

	libraries := cfg.Libraries
	if len(libraries) == 0 {
		libraries = e.discoverLibraries(logging.WithComponent(ctx, "manifest"), cfg.Settings.Steam.Path)
	}
	if len(libraries) == 0 {
		log.Warn().
			Str("path", e.paths.LibrariesFile()).
			Msg("didn't find any Steam libraries there and none were provided with -p; no sizes can be found")
	}

	client := e.newClient(cfg.Settings)
	steamCtx := logging.WithComponent(ctx, "steam")

	playtimes, err := client.GetPlaytimes(steamCtx, cfg.APIKey, cfg.UserID)
	if err != nil {
		return nil, fmt.Errorf("fetching playtimes: %w", err)
	}
	if len(playtimes) == 0 {
		return nil, ErrNoPlaytimes
	}

	scanner := manifest.NewScanner(libraries)
	log.Debug().Strs("libraries", scanner.Libraries()).Msg("scanning libraries for manifests")
	resolver := cache.NewResolver(cacheCtx, store, client, scanner)
	playtimes = resolver.Ignored().FilterPlaytimes(playtimes)
	ids := sortedIDs(playtimes)
	log.Debug().Int("games", len(ids)).Int("ignored", resolver.Ignored().Len()).Msg("playtimes filtered")

	names, err := resolver.ResolveNames(cacheCtx, ids)
	if err != nil {
		return nil, err
	}

	sizes, err := resolver.ResolveSizes(cacheCtx, ids)
	if err != nil {
		return nil, err
	}

	rep, err := report.Build(playtimes, sizes, names)
	if err != nil {
		return nil, err
	}

	reportCtx := logging.WithComponent(ctx, "report")
	path, err := report.Write(reportCtx, cfg.Settings.Report.ResultsFile, rep, e.console, e.styled)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("component", "engine").
		Str("operation", "run").
		Int("games", rep.Len()).
		Dur("duration", time.Since(start)).
		Msg("run complete")

	return &Result{
		Report:      rep,
		ResultsPath: path,
		Ignored:     resolver.Ignored().Len(),
	}, nil
}

func (e *Engine) newClient(settings config.Settings) *steam.Client {
	if e.httpClient != nil {
		return steam.NewClient(settings.API.BaseURL, steam.WithHTTPClient(e.httpClient))
	}
	return steam.NewClient(settings.API.BaseURL, steam.WithTimeout(settings.API.Timeout))
}

// discoverLibraries falls back to the libraries of the local Steam install.
// Failures are logged and yield no libraries.
func (e *Engine) discoverLibraries(ctx context.Context, steamPath string) []string {
	log := logging.FromContext(ctx)

	if steamPath == "" {
		probed, err := e.steamPath()
		if err != nil {
			log.Debug().Err(err).Msg("no Steam install found for library discovery")
			return nil
		}
		steamPath = probed
	}

	libraries, err := manifest.DiscoverLibraries(steamPath)
	if err != nil {
		log.Debug().Err(err).Str("steam_path", steamPath).Msg("couldn't discover Steam libraries")
		return nil
	}

	log.Info().Str("steam_path", steamPath).Strs("libraries", libraries).Msg("using discovered Steam libraries")
	return libraries
}

func sortedIDs(playtimes map[int]int) []int {
	ids := make([]int, 0, len(playtimes))
	for id := range playtimes {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
