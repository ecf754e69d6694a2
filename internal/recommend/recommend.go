// Package recommend assembles track recommendations from search results,
// recent plays and recent queries. Every search goes through the request
// cache so repeated assembly stays within API quota.
package recommend

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"

	"github.com/mkessler/strum/internal/apicache"
	"github.com/mkessler/strum/internal/core"
	strumerrors "github.com/mkessler/strum/internal/errors"
	"github.com/mkessler/strum/internal/youtube"
)

const (
	// DefaultLimit is how many tracks an assembly returns by default.
	DefaultLimit = 20

	randomCategories = 2
	perCategory      = 8
	perQuery         = 5
	recentPlays      = 10
	recentQueries    = 2
)

// Searcher finds tracks for a query. *youtube.Client satisfies it.
type Searcher interface {
	Search(ctx context.Context, query, pageToken string) (*youtube.SearchResult, error)
}

// RecentPlays exposes the most recent plays, newest first.
type RecentPlays interface {
	Recent(n int) []core.Track
}

// RecentQueries exposes the most recent search queries, newest first.
type RecentQueries interface {
	Recent(n int) []string
}

// Assembler builds recommendation lists.
type Assembler struct {
	searcher Searcher
	cache    *apicache.Cache[[]core.Track]
	plays    RecentPlays
	queries  RecentQueries
	logger   zerolog.Logger

	shuffle func(n int, swap func(i, j int))
}

// Option configures an Assembler.
type Option func(*Assembler)

// withShuffle overrides the shuffle source. Test hook.
func withShuffle(shuffle func(n int, swap func(i, j int))) Option {
	return func(a *Assembler) { a.shuffle = shuffle }
}

// New creates an Assembler. plays and queries may be nil, in which case
// personalized assembly always falls back to random.
func New(searcher Searcher, cache *apicache.Cache[[]core.Track], plays RecentPlays, queries RecentQueries, logger zerolog.Logger, opts ...Option) *Assembler {
	a := &Assembler{
		searcher: searcher,
		cache:    cache,
		plays:    plays,
		queries:  queries,
		logger:   logger.With().Str("component", "recommend").Logger(),
		shuffle:  rand.Shuffle,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Random returns tracks from a couple of randomly chosen categories.
// Failed categories are skipped; the error is non-nil only when every
// source failed and there is nothing to show.
func (a *Assembler) Random(ctx context.Context, limit int) ([]core.Track, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	partial := strumerrors.PartialResult[[]core.Track]{}
	seen := make(map[string]bool)
	for _, category := range a.pickCategories(randomCategories) {
		tracks, err := a.cachedSearch(ctx, category)
		if err != nil {
			partial.AddError(fmt.Errorf("category %q: %w", category, err))
			continue
		}
		for _, t := range trim(tracks, perCategory) {
			if t.ID != "" && !seen[t.ID] {
				seen[t.ID] = true
				partial.Data = append(partial.Data, t)
			}
		}
	}

	if partial.HasErrors() {
		a.logger.Warn().Str("errors", partial.ErrorSummary()).Msg("some recommendation sources failed")
		if len(partial.Data) == 0 {
			return nil, fmt.Errorf("recommendations unavailable: %s", partial.ErrorSummary())
		}
	}

	a.shuffleTracks(partial.Data)
	return trim(partial.Data, limit), nil
}

// Personalized builds recommendations from recent plays plus searches for
// the user's most recent queries, topped up with random categories. With
// no query history it is identical to Random.
func (a *Assembler) Personalized(ctx context.Context, limit int) ([]core.Track, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if a.queries == nil || a.plays == nil {
		return a.Random(ctx, limit)
	}
	queries := a.queries.Recent(recentQueries)
	if len(queries) == 0 {
		return a.Random(ctx, limit)
	}

	seen := make(map[string]bool)
	var out []core.Track
	add := func(t core.Track) {
		if t.ID != "" && !seen[t.ID] && len(out) < limit {
			seen[t.ID] = true
			out = append(out, t)
		}
	}

	for _, t := range a.plays.Recent(recentPlays) {
		add(t)
	}

	for _, q := range queries {
		tracks, err := a.cachedSearch(ctx, q)
		if err != nil {
			a.logger.Warn().Err(err).Str("query", q).Msg("personalized source failed")
			continue
		}
		for _, t := range trim(tracks, perQuery) {
			add(t)
		}
	}

	if len(out) < limit {
		fill, err := a.Random(ctx, limit-len(out))
		if err != nil && len(out) == 0 {
			return nil, err
		}
		for _, t := range fill {
			add(t)
		}
	}

	a.shuffleTracks(out)
	return out, nil
}

// cachedSearch runs a first-page search through the request cache. A
// quota-limited response caches as empty so assembly degrades quietly
// instead of hammering the API.
func (a *Assembler) cachedSearch(ctx context.Context, query string) ([]core.Track, error) {
	key := apicache.Key("search", struct {
		Query     string
		PageToken string
	}{Query: query})

	return a.cache.GetOrFetch(ctx, key, 10*time.Minute, func(ctx context.Context) ([]core.Track, error) {
		res, err := a.searcher.Search(ctx, query, "")
		if err != nil {
			return nil, err
		}
		if res.RateLimited {
			a.logger.Warn().Str("query", query).Msg("search quota exhausted, caching empty result")
			return nil, nil
		}
		return res.Tracks, nil
	})
}

func (a *Assembler) pickCategories(n int) []string {
	cats := make([]string, len(musicCategories))
	copy(cats, musicCategories)
	a.shuffle(len(cats), func(i, j int) { cats[i], cats[j] = cats[j], cats[i] })
	return trim(cats, n)
}

func (a *Assembler) shuffleTracks(tracks []core.Track) {
	a.shuffle(len(tracks), func(i, j int) { tracks[i], tracks[j] = tracks[j], tracks[i] })
}

func trim[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}
