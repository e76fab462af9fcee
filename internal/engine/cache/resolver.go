package cache

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/rshade/steamvalue/internal/logging"
	"github.com/rshade/steamvalue/internal/manifest"
)

// Kind names what a resolution looks up.
type Kind string

const (
	// KindName resolves app ids to display names.
	KindName Kind = "name"
	// KindSize resolves app ids to bytes on disk.
	KindSize Kind = "size"
)

// CatalogFetcher returns the full app id → name catalog.
type CatalogFetcher interface {
	GetAppList(ctx context.Context) (map[int]string, error)
}

// SizeFinder returns the on-disk size of one installed app.
type SizeFinder interface {
	FindSize(ctx context.Context, appID int) (int64, error)
}

// Resolver answers id → name and id → size lookups from the cache, refreshing
// misses from the catalog or the manifests and growing the ignore-set with
// ids that stay unresolved.
type Resolver struct {
	store   *FileStore
	ignored *IgnoreSet
	catalog CatalogFetcher
	sizes   SizeFinder
}

// NewResolver loads the ignore-set from store.
func NewResolver(ctx context.Context, store *FileStore, catalog CatalogFetcher, sizes SizeFinder) *Resolver {
	return &Resolver{
		store:   store,
		ignored: store.LoadIgnored(ctx),
		catalog: catalog,
		sizes:   sizes,
	}
}

// Ignored returns the live ignore-set.
func (r *Resolver) Ignored() *IgnoreSet {
	return r.ignored
}

// ResolveNames returns names for ids. Ignored ids are skipped without any
// lookup. Misses trigger one full catalog download, which replaces the
// cached catalog. A catalog failure is returned and leaves the ignore-set
// untouched.
func (r *Resolver) ResolveNames(ctx context.Context, ids []int) (map[int]string, error) {
	return resolve(ctx, r, ids, source[string]{
		kind: KindName,
		load: r.store.LoadNames,
		save: r.store.SaveNames,
		refresh: func(ctx context.Context, _ []int) (map[int]string, []int, error) {
			catalog, err := r.catalog.GetAppList(ctx)
			if err != nil {
				return nil, nil, fmt.Errorf("refreshing game names: %w", err)
			}
			return catalog, nil, nil
		},
	})
}

// ResolveSizes returns on-disk sizes for ids. Ignored ids are skipped
// without any lookup. Misses are scanned one manifest at a time; a missing or
// corrupt manifest leaves the id unresolved. Other read errors skip the id for
// this run only.
func (r *Resolver) ResolveSizes(ctx context.Context, ids []int) (map[int]int64, error) {
	return resolve(ctx, r, ids, source[int64]{
		kind:    KindSize,
		load:    r.store.LoadSizes,
		save:    r.store.SaveSizes,
		refresh: r.scanSizes,
	})
}

// Resolve is the kind-dispatched form of ResolveNames and ResolveSizes.
// Sizes are returned as decimal byte counts.
func (r *Resolver) Resolve(ctx context.Context, ids []int, kind Kind) (map[int]string, error) {
	switch kind {
	case KindName:
		return r.ResolveNames(ctx, ids)
	case KindSize:
		sizes, err := r.ResolveSizes(ctx, ids)
		if err != nil {
			return nil, err
		}
		out := make(map[int]string, len(sizes))
		for id, size := range sizes {
			out[id] = strconv.FormatInt(size, 10)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown resolution kind %q", kind)
	}
}

// scanSizes returns the sizes found and the ids whose manifest could not be
// read for a reason other than a missing or corrupt manifest.
func (r *Resolver) scanSizes(ctx context.Context, misses []int) (map[int]int64, []int, error) {
	log := logging.FromContext(ctx)
	found := make(map[int]int64, len(misses))
	var skipped []int

	for _, id := range misses {
		size, err := r.sizes.FindSize(ctx, id)
		switch {
		case err == nil:
			log.Debug().Int("app_id", id).Int64("size", size).Msg("caching size")
			found[id] = size
		case manifest.IsUnresolved(err):
			if errors.Is(err, manifest.ErrManifestCorrupt) {
				log.Warn().Err(err).Int("app_id", id).Msg("game has a corrupted manifest, will ignore in future")
			} else {
				log.Debug().Int("app_id", id).Msg("couldn't find game in any library, will ignore in future")
			}
		default:
			log.Warn().Err(err).Int("app_id", id).Msg("couldn't read game manifest, will retry next run")
			skipped = append(skipped, id)
		}
	}

	return found, skipped, nil
}

// source binds one cache file to its refresh strategy.
type source[V any] struct {
	kind    Kind
	load    func(ctx context.Context) map[int]V
	save    func(map[int]V) error
	// refresh returns fresh values and the misses to leave out of the
	// ignore-set for this run.
	refresh func(ctx context.Context, misses []int) (map[int]V, []int, error)
}

func resolve[V any](ctx context.Context, r *Resolver, ids []int, src source[V]) (map[int]V, error) {
	log := logging.FromContext(ctx).With().Str("kind", string(src.kind)).Logger()

	wanted := uniqueSorted(ids)
	cached := src.load(ctx)
	resolved := make(map[int]V, len(wanted))

	var misses []int
	skipped := make(map[int]bool)
	for _, id := range wanted {
		if r.ignored.Contains(id) {
			continue
		}
		if v, ok := cached[id]; ok {
			resolved[id] = v
			continue
		}
		misses = append(misses, id)
	}

	if len(misses) > 0 {
		log.Debug().Int("misses", len(misses)).Msg("some games not in cache, recaching")

		fresh, skip, err := src.refresh(ctx, misses)
		if err != nil {
			return nil, err
		}
		for _, id := range skip {
			skipped[id] = true
		}

		for id, v := range fresh {
			cached[id] = v
		}
		for _, id := range misses {
			if v, ok := fresh[id]; ok {
				resolved[id] = v
			}
		}

		log.Debug().Int("entries", len(cached)).Msg("writing new cache")
		if err := src.save(cached); err != nil {
			log.Warn().Err(err).Msg("couldn't write cache, results will be refetched next run")
		}
	} else {
		log.Debug().Msg("no cache misses")
	}

	added := 0
	for _, id := range wanted {
		if _, ok := resolved[id]; ok || skipped[id] {
			continue
		}
		if r.ignored.Add(id) {
			added++
		}
	}
	if added > 0 {
		log.Info().Int("count", added).Msg("ignoring games that could not be resolved")
	}

	if err := r.store.SaveIgnored(r.ignored); err != nil {
		log.Warn().Err(err).Msg("couldn't write ignored games cache")
	}

	return resolved, nil
}

func uniqueSorted(ids []int) []int {
	seen := make(map[int]bool, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Ints(out)
	return out
}
