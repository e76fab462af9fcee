// Package cache persists the lookups that are expensive to repeat between runs.
//
// Three whole-document JSON files live in the cache directory:
//   - steam_game_names.json: app id → display name, refreshed from the full Steam app catalog
//   - game_filesize_cache.json: app id → bytes on disk, refreshed from local app manifests
//   - ignored_game_ids.json: app ids that could not be resolved and are never retried
//
// Every write rewrites the whole file. A file that fails to parse is deleted and
// treated as empty, so a damaged cache costs one cold rebuild and never a failed run.
// The only way to retry an ignored id is to clear the cache directory.
package cache
