package popular

import (
	"context"
	"log/slog"
	"slices"
	"sort"
	"sync"

	"blogview/internal/domain"
)

// DefaultLimit is the sidebar's size cap.
const DefaultLimit = 6

// CountSource supplies locally known like counts for page fallback
// candidates. The like state store implements it.
type CountSource interface {
	KnownCount(postID int64) int
}

// List maintains the bounded, ranked popular sidebar. A full Reconcile
// rebuilds it from the server's ranking merged with page candidates; Bump
// patches a single count in place so the sidebar tracks an in-flight
// optimistic toggle without a network round trip.
type List struct {
	source domain.PopularSource
	counts domain.LikeReader
	known  CountSource
	limit  int
	logger *slog.Logger

	mu    sync.Mutex
	items []domain.PopularItem
}

// NewList creates an empty popular list with the given size cap. A limit
// of 0 or less falls back to DefaultLimit.
func NewList(source domain.PopularSource, counts domain.LikeReader, known CountSource, limit int, logger *slog.Logger) *List {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &List{
		source: source,
		counts: counts,
		known:  known,
		limit:  limit,
		logger: logger,
	}
}

// Items returns a copy of the current ranked list.
func (l *List) Items() []domain.PopularItem {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.items)
}

// Reconcile rebuilds the list: the server's ranked entries annotated with
// freshly fetched counts take precedence, page fallback candidates
// annotated with locally known counts fill in behind them, duplicates
// collapse to the first occurrence, and the merge is sorted descending by
// count and truncated to the limit. Every failure degrades instead of
// surfacing: an unreachable popular endpoint means page-fallback-only
// ranking, a single failed count fetch means that entry ranks at 0, and an
// empty fallback on top of that yields an empty list.
//
// Ties keep merge insertion order: server rank first, then page order.
func (l *List) Reconcile(ctx context.Context, fallback []domain.Post) []domain.PopularItem {
	items := l.build(ctx, fallback)
	l.mu.Lock()
	l.items = items
	l.mu.Unlock()
	return slices.Clone(items)
}

func (l *List) build(ctx context.Context, fallback []domain.Post) []domain.PopularItem {
	server, err := l.source.PopularPosts(ctx, l.limit)
	if err != nil {
		l.logger.Warn("popular posts fetch failed, ranking page candidates only", "error", err)
		server = nil
	}

	// Authoritative counts for the server entries, fetched concurrently.
	// Each fetch settles independently; a failure ranks that entry at 0.
	counts := make([]int, len(server))
	var wg sync.WaitGroup
	for i := range server {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			count, err := l.counts.LikeCount(ctx, server[i].ID)
			if err != nil {
				l.logger.Debug("popular count fetch failed, defaulting to 0", "postID", server[i].ID, "error", err)
				return
			}
			counts[i] = count
		}(i)
	}
	wg.Wait()

	merged := make([]domain.PopularItem, 0, len(server)+len(fallback))
	seen := make(map[int64]struct{}, len(server)+len(fallback))

	for i, sp := range server {
		if sp.ID <= 0 {
			continue
		}
		if _, ok := seen[sp.ID]; ok {
			continue
		}
		seen[sp.ID] = struct{}{}
		merged = append(merged, domain.PopularItem{
			ID:        sp.ID,
			Title:     sp.Title,
			CreatedAt: sp.CreatedAt,
			LikeCount: max(counts[i], 0),
		})
	}

	for _, p := range fallback {
		if p.ID <= 0 {
			continue
		}
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		merged = append(merged, domain.PopularItem{
			ID:        p.ID,
			Title:     p.Title,
			CreatedAt: p.CreatedAt,
			LikeCount: l.known.KnownCount(p.ID),
		})
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].LikeCount > merged[j].LikeCount
	})
	if len(merged) > l.limit {
		merged = merged[:l.limit]
	}
	return merged
}

// Bump adjusts a listed post's annotated count by delta, floored at 0, and
// re-sorts in place. An absent id is a no-op. Bump never issues a network
// call; it only keeps the sidebar visually consistent with an in-flight
// optimistic toggle until the next Reconcile.
func (l *List) Bump(postID int64, delta int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	found := false
	for i := range l.items {
		if l.items[i].ID == postID {
			l.items[i].LikeCount = max(l.items[i].LikeCount+delta, 0)
			found = true
			break
		}
	}
	if !found {
		return
	}

	sort.SliceStable(l.items, func(i, j int) bool {
		return l.items[i].LikeCount > l.items[j].LikeCount
	})
}
