package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rshade/steamvalue/internal/logging"
)

// Cache file names inside the cache directory.
const (
	NamesFile   = "steam_game_names.json"
	SizesFile   = "game_filesize_cache.json"
	IgnoredFile = "ignored_game_ids.json"
)

// Common cache errors.
var (
	ErrCacheNotFound = errors.New("cache file not found")
	ErrCacheCorrupt  = errors.New("cache file corrupted")
)

// FileStore reads and writes the cache files in one directory.
// It is not safe for concurrent use across processes.
type FileStore struct {
	directory string
}

// NewFileStore creates a store rooted at directory, creating it if needed.
func NewFileStore(directory string) (*FileStore, error) {
	if directory == "" {
		return nil, errors.New("cache directory cannot be empty")
	}

	if err := os.MkdirAll(directory, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	return &FileStore{directory: directory}, nil
}

// Directory returns the cache directory path.
func (s *FileStore) Directory() string {
	return s.directory
}

// LoadNames returns the persisted id → name cache, empty when absent or corrupt.
func (s *FileStore) LoadNames(ctx context.Context) map[int]string {
	names := make(map[int]string)
	s.load(ctx, NamesFile, "id->name", &names)
	if names == nil {
		names = make(map[int]string)
	}
	return names
}

// SaveNames rewrites the id → name cache.
func (s *FileStore) SaveNames(names map[int]string) error {
	return s.write(NamesFile, names)
}

// LoadSizes returns the persisted id → size cache, empty when absent or corrupt.
func (s *FileStore) LoadSizes(ctx context.Context) map[int]int64 {
	sizes := make(map[int]int64)
	s.load(ctx, SizesFile, "size", &sizes)
	if sizes == nil {
		sizes = make(map[int]int64)
	}
	return sizes
}

// SaveSizes rewrites the id → size cache.
func (s *FileStore) SaveSizes(sizes map[int]int64) error {
	return s.write(SizesFile, sizes)
}

// LoadIgnored returns the persisted ignore-set, empty when absent or corrupt.
func (s *FileStore) LoadIgnored(ctx context.Context) *IgnoreSet {
	ignored := NewIgnoreSet()
	s.load(ctx, IgnoredFile, "ignored games", ignored)
	return ignored
}

// SaveIgnored rewrites the ignore-set.
func (s *FileStore) SaveIgnored(ignored *IgnoreSet) error {
	return s.write(IgnoredFile, ignored)
}

// Clear removes every regular, non-hidden file in the cache directory and
// returns how many were removed.
func (s *FileStore) Clear() (int, error) {
	entries, err := os.ReadDir(s.directory)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read cache directory: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		filePath := filepath.Join(s.directory, entry.Name())
		if removeErr := os.Remove(filePath); removeErr != nil {
			return removed, fmt.Errorf("failed to remove cache file %s: %w", entry.Name(), removeErr)
		}
		removed++
	}

	return removed, nil
}

// load decodes a cache file into v. A corrupt file is deleted and v is left empty.
func (s *FileStore) load(ctx context.Context, name, what string, v any) {
	log := logging.FromContext(ctx)

	err := s.read(name, v)
	switch {
	case err == nil:
		log.Debug().Str("cache", what).Msg("cache is valid")
	case errors.Is(err, ErrCacheNotFound):
		log.Debug().Str("cache", what).Msg("cache file doesn't exist")
	case errors.Is(err, ErrCacheCorrupt):
		log.Debug().Err(err).Str("cache", what).Msg("couldn't parse cache, clearing it")
		if removeErr := os.Remove(s.path(name)); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
			log.Warn().Err(removeErr).Str("cache", what).Msg("couldn't delete corrupted cache file")
		}
	default:
		log.Warn().Err(err).Str("cache", what).Msg("couldn't read cache, ignoring it for this run")
	}
}

// read decodes a cache file into v.
func (s *FileStore) read(name string, v any) error {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrCacheNotFound
		}
		return fmt.Errorf("failed to read cache file: %w", err)
	}

	if unmarshalErr := json.Unmarshal(data, v); unmarshalErr != nil {
		resetValue(v)
		return fmt.Errorf("%w: %s: %w", ErrCacheCorrupt, name, unmarshalErr)
	}

	return nil
}

// write marshals v and replaces the cache file through a temp file + rename.
func (s *FileStore) write(name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal cache %s: %w", name, err)
	}

	filePath := s.path(name)
	tempPath := filePath + ".tmp"
	if writeErr := os.WriteFile(tempPath, data, 0o600); writeErr != nil {
		return fmt.Errorf("failed to write cache file: %w", writeErr)
	}

	if renameErr := os.Rename(tempPath, filePath); renameErr != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename cache file: %w", renameErr)
	}

	return nil
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.directory, name)
}

// resetValue empties a partially decoded value.
func resetValue(v any) {
	switch t := v.(type) {
	case *map[int]string:
		*t = make(map[int]string)
	case *map[int]int64:
		*t = make(map[int]int64)
	case *IgnoreSet:
		t.reset()
	}
}
