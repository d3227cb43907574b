package shared

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
)

// CacheClearer is the subset of the cache used for invalidation.
type CacheClearer interface {
	Clear(ctx context.Context, prefix string) error
}

// BuildCacheKey joins key parts with ":" into a namespaced cache key.
func BuildCacheKey(parts ...string) string {
	return strings.Join(parts, ":")
}

// InvalidateCaches drops every cache entry under the given prefix. Failures
// are logged, not propagated; a stale cache entry expires on its own TTL.
func InvalidateCaches(ctx context.Context, cache CacheClearer, prefix string) {
	if err := cache.Clear(ctx, prefix+"*"); err != nil {
		log.Error().Err(err).Str("prefix", prefix).Msg("failed to invalidate cache")
	}
}
