package engine_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/steamvalue/internal/config"
	"github.com/rshade/steamvalue/internal/engine"
	"github.com/rshade/steamvalue/internal/engine/cache"
	"github.com/rshade/steamvalue/internal/logging"
	"github.com/rshade/steamvalue/internal/manifest"
	"github.com/rshade/steamvalue/internal/report"
	"github.com/rshade/steamvalue/internal/steam"
)

// fakeSteam serves the two Steam Web API endpoints from fixed data.
type fakeSteam struct {
	server       *httptest.Server
	playtimes    map[int]int
	catalog      map[int]string
	ownedStatus  int
	catalogFails bool
	catalogCalls atomic.Int32
}

func newFakeSteam(t *testing.T, playtimes map[int]int, catalog map[int]string) *fakeSteam {
	t.Helper()
	f := &fakeSteam{playtimes: playtimes, catalog: catalog, ownedStatus: http.StatusOK}

	mux := http.NewServeMux()
	mux.HandleFunc("/"+steam.EndpointOwnedGames+"/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "test-key" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		if f.ownedStatus != http.StatusOK {
			w.WriteHeader(f.ownedStatus)
			return
		}
		games := make([]map[string]int, 0, len(f.playtimes))
		for id, minutes := range f.playtimes {
			games = append(games, map[string]int{"appid": id, "playtime_forever": minutes})
		}
		writeJSON(t, w, map[string]any{"response": map[string]any{"game_count": len(games), "games": games}})
	})
	mux.HandleFunc("/"+steam.EndpointAppList+"/", func(w http.ResponseWriter, _ *http.Request) {
		f.catalogCalls.Add(1)
		if f.catalogFails {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		apps := make([]steam.App, 0, len(f.catalog))
		for id, name := range f.catalog {
			apps = append(apps, steam.App{AppID: id, Name: name})
		}
		writeJSON(t, w, map[string]any{"applist": map[string]any{"apps": apps}})
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	assert.NoError(t, json.NewEncoder(w).Encode(v))
}

// fixture is a steamvalue root directory with config files and one library.
type fixture struct {
	root    string
	paths   config.Paths
	library string
	results string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	f := &fixture{
		root:    root,
		paths:   config.NewPaths(root),
		library: filepath.Join(root, "library", "steamapps"),
		results: filepath.Join(root, "out", "results.log"),
	}
	require.NoError(t, f.paths.EnsureDirs())
	require.NoError(t, os.MkdirAll(f.library, 0o750))
	require.NoError(t, os.MkdirAll(filepath.Dir(f.results), 0o750))

	f.write(t, f.paths.APIKeyFile(), "test-key\n")
	f.write(t, f.paths.UserIDFile(), "76561197960287930\n")
	libs, err := json.Marshal([]string{f.library})
	require.NoError(t, err)
	f.write(t, f.paths.LibrariesFile(), string(libs))
	f.write(t, f.paths.SettingsFile(), fmt.Sprintf("report:\n  results_file: %q\n", f.results))
	return f
}

func (f *fixture) write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func (f *fixture) manifest(t *testing.T, dir string, appID int, size int64) {
	t.Helper()
	content := fmt.Sprintf("\"AppState\"\n{\n\t\"appid\"\t\t\"%d\"\n\t\"SizeOnDisk\"\t\t\"%d\"\n}\n", appID, size)
	f.write(t, filepath.Join(dir, manifest.FileName(appID)), content)
}

func (f *fixture) engine(fs *fakeSteam, console *bytes.Buffer) *engine.Engine {
	lookup := func(key string) (string, bool) {
		if key == config.EnvAPIBaseURL {
			return fs.server.URL, true
		}
		return "", false
	}
	return engine.New(f.paths, console,
		engine.WithLookupEnv(lookup),
		engine.WithSteamPathProbe(func() (string, error) { return "", manifest.ErrNoSteamInstall }),
	)
}

func (f *fixture) ignored(t *testing.T) []int {
	t.Helper()
	store, err := cache.NewFileStore(f.paths.CacheDir())
	require.NoError(t, err)
	return store.LoadIgnored(context.Background()).IDs()
}

func testContext(buf *bytes.Buffer) context.Context {
	l := logging.New(logging.Config{Verbosity: logging.VerbosityDebug, Out: buf})
	return l.WithContext(context.Background())
}

func entryIDs(r *report.Report) []int {
	ids := make([]int, 0, r.Len())
	for _, e := range r.Entries {
		ids = append(ids, e.AppID)
	}
	return ids
}

func TestRun_EndToEnd(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	fx.manifest(t, fx.library, 10, 10_000_000_000)
	fx.manifest(t, fx.library, 20, 5_000_000_000)
	fx.manifest(t, fx.library, 50, 1_000_000_000)
	fs := newFakeSteam(t,
		map[int]int{10: 120, 20: 60, 30: 30, 40: 90, 50: 0},
		map[int]string{10: "Counter-Strike", 20: "Team Fortress Classic", 30: "Day of Defeat", 50: "Ricochet"},
	)

	var console, logs bytes.Buffer
	result, err := fx.engine(fs, &console).Run(testContext(&logs), engine.Request{})
	require.NoError(t, err)

	// 30 has no manifest, 40 has no name, 50 was never played.
	assert.Equal(t, []int{10, 20}, entryIDs(result.Report))
	assert.Equal(t, "5.0", report.FormatRatio(result.Report.Average()))
	assert.Equal(t, fx.results, result.ResultsPath)
	assert.Equal(t, []int{30, 40}, fx.ignored(t))
	assert.Equal(t, 2, result.Ignored)

	data, err := os.ReadFile(fx.results)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "2 games installed and played:"))
	assert.Contains(t, console.String(), "The above output has also been written to "+fx.results)
	assert.NotContains(t, logs.String(), "test-key")

	// A second run is served from the caches.
	console.Reset()
	again, err := fx.engine(fs, &console).Run(testContext(&logs), engine.Request{})
	require.NoError(t, err)
	assert.Equal(t, []int{10, 20}, entryIDs(again.Report))
	assert.Equal(t, int32(1), fs.catalogCalls.Load())
}

func TestRun_IgnoredGamesNeverFetched(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	fx.manifest(t, fx.library, 10, 3_600_000_000)
	store, err := cache.NewFileStore(fx.paths.CacheDir())
	require.NoError(t, err)
	require.NoError(t, store.SaveNames(map[int]string{10: "Cached Name"}))
	require.NoError(t, store.SaveIgnored(cache.NewIgnoreSet(99)))

	// 99 is ignored and missing from every cache; it must not trigger a catalog download.
	fs := newFakeSteam(t, map[int]int{10: 30, 99: 600}, nil)

	var console, logs bytes.Buffer
	result, err := fx.engine(fs, &console).Run(testContext(&logs), engine.Request{})
	require.NoError(t, err)

	assert.Zero(t, fs.catalogCalls.Load())
	require.Equal(t, 1, result.Report.Len())
	assert.Equal(t, "Cached Name", result.Report.Best().Name)
	assert.Equal(t, "7.2", report.FormatRatio(result.Report.Best().Ratio()))
}

func TestRun_NoCacheClearsCaches(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	fx.manifest(t, fx.library, 10, 1_000_000_000)
	store, err := cache.NewFileStore(fx.paths.CacheDir())
	require.NoError(t, err)
	require.NoError(t, store.SaveNames(map[int]string{10: "Stale Name"}))
	require.NoError(t, store.SaveIgnored(cache.NewIgnoreSet(10)))

	fs := newFakeSteam(t, map[int]int{10: 60}, map[int]string{10: "Fresh Name"})

	var console, logs bytes.Buffer
	result, err := fx.engine(fs, &console).Run(testContext(&logs), engine.Request{NoCache: true})
	require.NoError(t, err)

	assert.Equal(t, int32(1), fs.catalogCalls.Load())
	assert.Equal(t, "Fresh Name", result.Report.Best().Name)
	assert.Empty(t, fx.ignored(t))
}

func TestRun_RequestOverrides(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	require.NoError(t, os.Remove(fx.paths.UserIDFile()))
	fx.write(t, fx.paths.LibrariesFile(), "[]")

	extra := filepath.Join(fx.root, "extra", "steamapps")
	require.NoError(t, os.MkdirAll(extra, 0o750))
	fx.manifest(t, extra, 10, 2_000_000_000)

	fs := newFakeSteam(t, map[int]int{10: 60}, map[int]string{10: "Elsewhere"})
	var console, logs bytes.Buffer

	_, err := fx.engine(fs, &console).Run(testContext(&logs), engine.Request{})
	require.ErrorIs(t, err, config.ErrUserIDMissing)

	result, err := fx.engine(fs, &console).Run(testContext(&logs), engine.Request{
		UserID:    "76561197960287930",
		Libraries: []string{extra},
	})
	require.NoError(t, err)
	assert.Equal(t, "2.0", report.FormatRatio(result.Report.Best().Ratio()))
	assert.Contains(t, logs.String(), "scanning libraries for manifests")
	assert.Contains(t, logs.String(), extra)
}

func TestRun_DiscoversLibrariesFromSettings(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	fx.write(t, fx.paths.LibrariesFile(), "[]")

	steamDir := filepath.Join(fx.root, "Steam")
	second := filepath.Join(fx.root, "games")
	require.NoError(t, os.MkdirAll(filepath.Join(steamDir, "steamapps"), 0o750))
	require.NoError(t, os.MkdirAll(filepath.Join(second, "steamapps"), 0o750))
	fx.write(t, filepath.Join(steamDir, "steamapps", "libraryfolders.vdf"), fmt.Sprintf(
		"\"libraryfolders\"\n{\n\t\"0\"\n\t{\n\t\t\"path\"\t\t%q\n\t}\n\t\"1\"\n\t{\n\t\t\"path\"\t\t%q\n\t}\n}\n",
		steamDir, second))
	fx.manifest(t, filepath.Join(second, "steamapps"), 10, 4_000_000_000)
	fx.write(t, fx.paths.SettingsFile(),
		fmt.Sprintf("report:\n  results_file: %q\nsteam:\n  path: %q\n", fx.results, steamDir))

	fs := newFakeSteam(t, map[int]int{10: 120}, map[int]string{10: "Second Drive"})
	var console, logs bytes.Buffer
	result, err := fx.engine(fs, &console).Run(testContext(&logs), engine.Request{})
	require.NoError(t, err)
	assert.Equal(t, "2.0", report.FormatRatio(result.Report.Best().Ratio()))
	assert.Contains(t, logs.String(), "scanning libraries for manifests")
	assert.Contains(t, logs.String(), filepath.Join(second, "steamapps"))
}

func TestRun_Failures(t *testing.T) {
	t.Parallel()

	t.Run("missing api key", func(t *testing.T) {
		t.Parallel()
		fx := newFixture(t)
		require.NoError(t, os.Remove(fx.paths.APIKeyFile()))
		fs := newFakeSteam(t, map[int]int{10: 60}, nil)

		var console, logs bytes.Buffer
		_, err := fx.engine(fs, &console).Run(testContext(&logs), engine.Request{})
		require.ErrorIs(t, err, config.ErrConfigMissing)
	})

	t.Run("remote rejects key", func(t *testing.T) {
		t.Parallel()
		fx := newFixture(t)
		fs := newFakeSteam(t, nil, nil)
		fs.ownedStatus = http.StatusForbidden

		var console, logs bytes.Buffer
		_, err := fx.engine(fs, &console).Run(testContext(&logs), engine.Request{})
		var remote *steam.RemoteError
		require.ErrorAs(t, err, &remote)
		assert.Equal(t, http.StatusForbidden, remote.StatusCode)
		assert.NotContains(t, err.Error(), "test-key")
	})

	t.Run("no playtimes", func(t *testing.T) {
		t.Parallel()
		fx := newFixture(t)
		fs := newFakeSteam(t, map[int]int{}, nil)

		var console, logs bytes.Buffer
		_, err := fx.engine(fs, &console).Run(testContext(&logs), engine.Request{})
		require.ErrorIs(t, err, engine.ErrNoPlaytimes)
	})

	t.Run("nothing installed", func(t *testing.T) {
		t.Parallel()
		fx := newFixture(t)
		fs := newFakeSteam(t, map[int]int{10: 60, 20: 30}, map[int]string{10: "A", 20: "B"})

		var console, logs bytes.Buffer
		_, err := fx.engine(fs, &console).Run(testContext(&logs), engine.Request{})
		require.ErrorIs(t, err, report.ErrNoGames)
		assert.Equal(t, []int{10, 20}, fx.ignored(t))
		assert.NoFileExists(t, fx.results)
	})

	t.Run("catalog outage keeps ignore set", func(t *testing.T) {
		t.Parallel()
		fx := newFixture(t)
		fx.manifest(t, fx.library, 10, 1_000_000_000)
		fs := newFakeSteam(t, map[int]int{10: 60}, nil)
		fs.catalogFails = true

		var console, logs bytes.Buffer
		_, err := fx.engine(fs, &console).Run(testContext(&logs), engine.Request{})
		var remote *steam.RemoteError
		require.ErrorAs(t, err, &remote)
		assert.ErrorIs(t, err, steam.ErrUnexpectedStatus)
		assert.Empty(t, fx.ignored(t))
	})
}
