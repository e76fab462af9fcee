// Package manifest finds the installed size of Steam games by reading the
// appmanifest_<id>.acf files kept in each Steam library's steamapps folder.
package manifest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/andygrunwald/vdf"
	"github.com/sanity-io/litter"

	"github.com/rshade/steamvalue/internal/logging"
)

// sizeOnDiskPattern matches the line form `"SizeOnDisk"   "<bytes>"` for
// manifests the VDF parser rejects.
var sizeOnDiskPattern = regexp.MustCompile(`(?mi)^\s*"SizeOnDisk"\s+"(\d+)"\s*$`)

// FileName returns the manifest file name for an app id.
func FileName(appID int) string {
	return fmt.Sprintf("appmanifest_%d.acf", appID)
}

// Scanner looks up manifests in an ordered list of library directories.
// Each directory is a steamapps folder that directly contains the manifests.
type Scanner struct {
	libraries []string
}

// NewScanner creates a scanner over libraries, searched in order.
func NewScanner(libraries []string) *Scanner {
	libs := make([]string, len(libraries))
	copy(libs, libraries)
	return &Scanner{libraries: libs}
}

// Libraries returns the directories searched, in order.
func (s *Scanner) Libraries() []string {
	out := make([]string, len(s.libraries))
	copy(out, s.libraries)
	return out
}

// Locate returns the manifest path in the first library that has it.
func (s *Scanner) Locate(appID int) (string, bool) {
	name := FileName(appID)
	for _, lib := range s.libraries {
		p := filepath.Join(lib, name)
		if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
			return p, true
		}
	}
	return "", false
}

// FindSize returns the SizeOnDisk of an app. It returns ErrManifestMissing
// when no library holds the manifest and ErrManifestCorrupt when the
// manifest lacks a parseable size.
func (s *Scanner) FindSize(ctx context.Context, appID int) (int64, error) {
	log := logging.FromContext(ctx)

	path, ok := s.Locate(appID)
	if !ok {
		return 0, fmt.Errorf("app %d: %w", appID, ErrManifestMissing)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("app %d: reading %s: %w", appID, path, err)
	}

	size, err := ParseSizeOnDisk(ctx, content)
	if err != nil {
		return 0, fmt.Errorf("app %d: %s: %w", appID, path, err)
	}

	log.Debug().Int("app_id", appID).Int64("size_on_disk", size).Str("manifest", path).Msg("read manifest size")
	return size, nil
}

// ParseSizeOnDisk extracts AppState.SizeOnDisk from manifest text.
func ParseSizeOnDisk(ctx context.Context, content []byte) (int64, error) {
	log := logging.FromContext(ctx)

	doc, err := vdf.NewParser(bytes.NewReader(content)).Parse()
	if err == nil {
		if e := log.Debug(); e.Enabled() {
			e.Str("document", litter.Sdump(doc)).Msg("parsed manifest")
		}
		if raw, ok := lookupSizeOnDisk(doc); ok {
			return parseSize(raw)
		}
	} else {
		log.Debug().Err(err).Msg("manifest is not valid VDF, falling back to line match")
	}

	match := sizeOnDiskPattern.FindSubmatch(content)
	if match == nil {
		return 0, ErrManifestCorrupt
	}
	return parseSize(string(match[1]))
}

// lookupSizeOnDisk walks AppState → SizeOnDisk with case-insensitive keys.
func lookupSizeOnDisk(doc map[string]interface{}) (string, bool) {
	appState, ok := lookupKey(doc, "AppState").(map[string]interface{})
	if !ok {
		return "", false
	}
	raw, ok := lookupKey(appState, "SizeOnDisk").(string)
	return raw, ok
}

func lookupKey(m map[string]interface{}, key string) interface{} {
	if v, ok := m[key]; ok {
		return v
	}
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return nil
}

func parseSize(raw string) (int64, error) {
	size, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || size < 0 {
		return 0, ErrManifestCorrupt
	}
	return size, nil
}

// IsUnresolved reports whether err is a per-id manifest failure that should
// mark the id unresolved rather than abort the run.
func IsUnresolved(err error) bool {
	return errors.Is(err, ErrManifestMissing) || errors.Is(err, ErrManifestCorrupt)
}
