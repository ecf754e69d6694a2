package recommend

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	"github.com/mkessler/strum/internal/apicache"
	"github.com/mkessler/strum/internal/core"
	"github.com/mkessler/strum/internal/youtube"
)

type fakeSearcher struct {
	calls       map[string]int
	results     map[string][]core.Track
	errs        map[string]error
	rateLimited map[string]bool
}

func newFakeSearcher() *fakeSearcher {
	return &fakeSearcher{
		calls:       make(map[string]int),
		results:     make(map[string][]core.Track),
		errs:        make(map[string]error),
		rateLimited: make(map[string]bool),
	}
}

func (s *fakeSearcher) Search(_ context.Context, query, _ string) (*youtube.SearchResult, error) {
	s.calls[query]++
	if err := s.errs[query]; err != nil {
		return nil, err
	}
	if s.rateLimited[query] {
		return &youtube.SearchResult{RateLimited: true}, nil
	}
	return &youtube.SearchResult{Tracks: s.results[query]}, nil
}

type fixedPlays []core.Track

func (p fixedPlays) Recent(n int) []core.Track {
	if n > len(p) {
		n = len(p)
	}
	return p[:n]
}

type fixedQueries []string

func (q fixedQueries) Recent(n int) []string {
	if n > len(q) {
		n = len(q)
	}
	return q[:n]
}

func tracks(prefix string, n int) []core.Track {
	out := make([]core.Track, n)
	for i := range out {
		out[i] = core.Track{ID: fmt.Sprintf("%s-%02d", prefix, i), Title: prefix}
	}
	return out
}

// noShuffle keeps assembly deterministic: category picks take the head of
// the list and result order is preserved.
func noShuffle(int, func(i, j int)) {}

func newTestAssembler(t *testing.T, s Searcher, plays RecentPlays, queries RecentQueries) *Assembler {
	t.Helper()
	cache := apicache.New[[]core.Track](zerolog.Nop())
	t.Cleanup(cache.Close)
	return New(s, cache, plays, queries, zerolog.Nop(), withShuffle(noShuffle))
}

func TestRandomPullsTwoCategories(t *testing.T) {
	s := newFakeSearcher()
	s.results[musicCategories[0]] = tracks("cat0", 12)
	s.results[musicCategories[1]] = tracks("cat1", 12)
	a := newTestAssembler(t, s, nil, nil)

	got, err := a.Random(context.Background(), 0)
	if err != nil {
		t.Fatalf("Random() error = %v", err)
	}
	// 8 tracks per category, two categories.
	if len(got) != 16 {
		t.Fatalf("len(Random()) = %d, want 16", len(got))
	}
	if len(s.calls) != 2 {
		t.Errorf("searched %d categories, want 2", len(s.calls))
	}
}

func TestRandomUsesCache(t *testing.T) {
	s := newFakeSearcher()
	s.results[musicCategories[0]] = tracks("cat0", 8)
	s.results[musicCategories[1]] = tracks("cat1", 8)
	a := newTestAssembler(t, s, nil, nil)

	ctx := context.Background()
	if _, err := a.Random(ctx, 0); err != nil {
		t.Fatalf("Random() error = %v", err)
	}
	if _, err := a.Random(ctx, 0); err != nil {
		t.Fatalf("second Random() error = %v", err)
	}

	for q, n := range s.calls {
		if n != 1 {
			t.Errorf("query %q searched %d times, want 1", q, n)
		}
	}
}

func TestRandomPartialFailure(t *testing.T) {
	s := newFakeSearcher()
	s.errs[musicCategories[0]] = errors.New("boom")
	s.results[musicCategories[1]] = tracks("cat1", 8)
	a := newTestAssembler(t, s, nil, nil)

	got, err := a.Random(context.Background(), 0)
	if err != nil {
		t.Fatalf("Random() error = %v, want partial result", err)
	}
	if len(got) != 8 {
		t.Errorf("len(Random()) = %d, want 8 from the surviving category", len(got))
	}
}

func TestRandomAllSourcesFail(t *testing.T) {
	s := newFakeSearcher()
	s.errs[musicCategories[0]] = errors.New("boom")
	s.errs[musicCategories[1]] = errors.New("boom")
	a := newTestAssembler(t, s, nil, nil)

	if _, err := a.Random(context.Background(), 0); err == nil {
		t.Error("Random() error = nil, want error when every source fails")
	}
}

func TestRandomQuotaDegradesQuietly(t *testing.T) {
	s := newFakeSearcher()
	s.rateLimited[musicCategories[0]] = true
	s.results[musicCategories[1]] = tracks("cat1", 8)
	a := newTestAssembler(t, s, nil, nil)

	got, err := a.Random(context.Background(), 0)
	if err != nil {
		t.Fatalf("Random() error = %v, want quota treated as empty", err)
	}
	if len(got) != 8 {
		t.Errorf("len(Random()) = %d, want 8", len(got))
	}
}

func TestPersonalizedFallsBackWithoutHistory(t *testing.T) {
	s := newFakeSearcher()
	s.results[musicCategories[0]] = tracks("cat0", 8)
	s.results[musicCategories[1]] = tracks("cat1", 8)
	a := newTestAssembler(t, s, fixedPlays(nil), fixedQueries(nil))

	got, err := a.Personalized(context.Background(), 0)
	if err != nil {
		t.Fatalf("Personalized() error = %v", err)
	}
	if len(got) != 16 {
		t.Errorf("len(Personalized()) = %d, want 16 (random fallback)", len(got))
	}
}

func TestPersonalizedMixesSources(t *testing.T) {
	s := newFakeSearcher()
	s.results["lofi study"] = tracks("q0", 9)
	s.results["jazz piano"] = tracks("q1", 9)
	plays := fixedPlays(tracks("played", 3))
	a := newTestAssembler(t, s, plays, fixedQueries{"lofi study", "jazz piano"})

	got, err := a.Personalized(context.Background(), 13)
	if err != nil {
		t.Fatalf("Personalized() error = %v", err)
	}
	// 3 recent plays + 5 per query = 13, so no random fill needed.
	if len(got) != 13 {
		t.Fatalf("len(Personalized()) = %d, want 13", len(got))
	}
	// Recent plays come first under the identity shuffle.
	for i := 0; i < 3; i++ {
		if got[i].Title != "played" {
			t.Errorf("got[%d] = %q, want a recent play", i, got[i].Title)
		}
	}
	for _, cat := range musicCategories {
		if s.calls[cat] != 0 {
			t.Errorf("category %q searched, want queries only", cat)
		}
	}
}

func TestPersonalizedTopsUpWithRandom(t *testing.T) {
	s := newFakeSearcher()
	s.results["lofi beats"] = tracks("q0", 2)
	s.results[musicCategories[0]] = tracks("cat0", 8)
	s.results[musicCategories[1]] = tracks("cat1", 8)
	a := newTestAssembler(t, s, fixedPlays(nil), fixedQueries{"lofi beats"})

	got, err := a.Personalized(context.Background(), 10)
	if err != nil {
		t.Fatalf("Personalized() error = %v", err)
	}
	if len(got) != 10 {
		t.Errorf("len(Personalized()) = %d, want 10 after random top-up", len(got))
	}
}

func TestPersonalizedDeduplicates(t *testing.T) {
	s := newFakeSearcher()
	shared := tracks("q0", 5)
	s.results["lofi beats"] = shared
	a := newTestAssembler(t, s, fixedPlays(shared[:2]), fixedQueries{"lofi beats"})

	got, err := a.Personalized(context.Background(), 5)
	if err != nil {
		t.Fatalf("Personalized() error = %v", err)
	}
	seen := make(map[string]bool)
	for _, tr := range got {
		if seen[tr.ID] {
			t.Errorf("duplicate track %q in result", tr.ID)
		}
		seen[tr.ID] = true
	}
}
