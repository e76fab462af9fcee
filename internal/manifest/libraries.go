package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"

	"github.com/andygrunwald/vdf"
)

// libraryFoldersFile lives in <steam>/steamapps.
const libraryFoldersFile = "libraryfolders.vdf"

// steamPathCandidates lists the usual Steam install locations for goos.
func steamPathCandidates(goos, home string, getenv func(string) string) []string {
	switch goos {
	case "windows":
		var paths []string
		for _, env := range []string{"ProgramFiles(x86)", "ProgramFiles"} {
			if base := getenv(env); base != "" {
				paths = append(paths, filepath.Join(base, "Steam"))
			}
		}
		return paths
	case "darwin":
		return []string{filepath.Join(home, "Library", "Application Support", "Steam")}
	default:
		paths := []string{
			filepath.Join(home, ".steam", "steam"),
			filepath.Join(home, ".local", "share", "Steam"),
			filepath.Join(home, ".var", "app", "com.valvesoftware.Steam", ".local", "share", "Steam"),
			filepath.Join(home, "snap", "steam", "common", ".local", "share", "Steam"),
		}
		if xdg := getenv("XDG_DATA_HOME"); xdg != "" {
			paths = append(paths, filepath.Join(xdg, "Steam"))
		}
		return paths
	}
}

// DefaultSteamPath returns the first existing Steam install directory for
// the running OS.
func DefaultSteamPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return firstDir(steamPathCandidates(runtime.GOOS, home, os.Getenv))
}

func firstDir(candidates []string) (string, error) {
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			return p, nil
		}
	}
	return "", ErrNoSteamInstall
}

// DiscoverLibraries reads <steamPath>/steamapps/libraryfolders.vdf and
// returns the steamapps directory of every library, the install's own
// library first. Both the current format (nested "path" keys) and the
// legacy format (numbered keys holding the path directly) are accepted.
func DiscoverLibraries(steamPath string) ([]string, error) {
	own := filepath.Join(steamPath, "steamapps")
	vdfPath := filepath.Join(own, libraryFoldersFile)

	f, err := os.Open(vdfPath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", vdfPath, err)
	}
	defer f.Close()

	doc, err := vdf.NewParser(f).Parse()
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", vdfPath, err)
	}

	folders, ok := lookupKey(doc, "libraryfolders").(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("parsing %s: missing libraryfolders section", vdfPath)
	}

	libraries := []string{own}
	seen := map[string]bool{filepath.Clean(own): true}

	for _, key := range numericKeys(folders) {
		var root string
		switch v := folders[key].(type) {
		case string:
			root = v
		case map[string]interface{}:
			root, _ = lookupKey(v, "path").(string)
		}
		if root == "" {
			continue
		}

		steamapps := filepath.Clean(filepath.Join(root, "steamapps"))
		if seen[steamapps] {
			continue
		}
		seen[steamapps] = true
		libraries = append(libraries, steamapps)
	}

	return libraries, nil
}

// numericKeys returns the keys that are library indexes, in index order.
func numericKeys(m map[string]interface{}) []string {
	type indexed struct {
		key string
		n   int
	}
	var keys []indexed
	for k := range m {
		if n, err := strconv.Atoi(k); err == nil {
			keys = append(keys, indexed{key: k, n: n})
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].n < keys[j].n })

	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k.key
	}
	return out
}
