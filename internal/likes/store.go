package likes

import (
	"context"
	"log/slog"
	"sync"

	"blogview/internal/domain"
)

// Store tracks the believed like count and ownership for the posts visible
// in the current view session. Entries are created lazily with zero
// defaults and live until the session is discarded.
type Store struct {
	mu     sync.Mutex
	states map[int64]domain.LikeState

	api    domain.LikeReader
	logger *slog.Logger
}

// NewStore creates an empty like state store backed by the given reader.
func NewStore(api domain.LikeReader, logger *slog.Logger) *Store {
	return &Store{
		states: make(map[int64]domain.LikeState),
		api:    api,
		logger: logger,
	}
}

// HydrateResult is the outcome of one post's hydration fetches. Failures
// are recorded here instead of being surfaced: the store substitutes
// defaults ("unknown reads as zero / not liked") and carries on.
type HydrateResult struct {
	PostID int64
	Count  int
	Liked  bool

	// CountErr is the count fetch failure, nil on success.
	CountErr error

	// LikedErr is the ownership probe failure. A 404 lands here too; it is
	// indistinguishable from a transport failure and both read as "not
	// liked".
	LikedErr error
}

// Hydrate initializes state for every listed post and refreshes each one's
// authoritative count, plus the viewer's ownership when authenticated. All
// per-post fetches run concurrently and settle independently; one failing
// post never blocks or fails its siblings, and nothing is retried.
func (s *Store) Hydrate(ctx context.Context, posts []domain.Post, viewer domain.Viewer) []HydrateResult {
	ids := make([]int64, 0, len(posts))
	s.mu.Lock()
	for _, p := range posts {
		if p.ID <= 0 {
			continue
		}
		ids = append(ids, p.ID)
		if _, ok := s.states[p.ID]; !ok {
			s.states[p.ID] = domain.LikeState{}
		}
	}
	s.mu.Unlock()

	authenticated := viewer != nil && viewer.Authenticated()

	results := make([]HydrateResult, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id int64) {
			defer wg.Done()
			res := HydrateResult{PostID: id}

			count, err := s.api.LikeCount(ctx, id)
			if err != nil {
				res.CountErr = err
			} else {
				res.Count = count
				s.setCount(id, count)
			}

			if authenticated {
				if _, err := s.api.MyLike(ctx, viewer.UserID(), id); err != nil {
					res.LikedErr = err
				} else {
					res.Liked = true
					s.setLiked(id, true)
				}
			}

			results[i] = res
		}(i, id)
	}
	wg.Wait()

	for _, res := range results {
		if res.CountErr != nil {
			s.logger.Debug("like count hydration failed, defaulting to 0", "postID", res.PostID, "error", res.CountErr)
		}
		if res.LikedErr != nil {
			s.logger.Debug("ownership probe failed, reading as not liked", "postID", res.PostID, "error", res.LikedErr)
		}
	}
	return results
}

// State returns the current state for a post. A post never hydrated
// reports the zero defaults.
func (s *Store) State(postID int64) domain.LikeState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[postID]
}

// KnownCount reports the locally believed like count for a post, 0 when
// unknown. The popular reconciler uses it to annotate page fallback
// candidates without a network call.
func (s *Store) KnownCount(postID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[postID].Count
}

// setCount merges an authoritative count in, preserving Liked and Loading.
func (s *Store) setCount(postID int64, count int) {
	if count < 0 {
		count = 0
	}
	s.mu.Lock()
	st := s.states[postID]
	st.Count = count
	s.states[postID] = st
	s.mu.Unlock()
}

// setLiked merges ownership in, preserving Count and Loading.
func (s *Store) setLiked(postID int64, liked bool) {
	s.mu.Lock()
	st := s.states[postID]
	st.Liked = liked
	s.states[postID] = st
	s.mu.Unlock()
}

// beginToggle atomically claims a post for a toggle. When no toggle is in
// flight it records the pre-trigger state, applies the optimistic flip
// (Loading set, Liked inverted, Count adjusted and floored at 0), and
// returns the pre-trigger snapshot with ok=true. When a toggle is already
// pending it leaves the state untouched and returns ok=false.
func (s *Store) beginToggle(postID int64) (domain.LikeState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.states[postID]
	if prev.Loading {
		return prev, false
	}

	next := domain.LikeState{Liked: !prev.Liked, Loading: true}
	if prev.Liked {
		next.Count = prev.Count - 1
		if next.Count < 0 {
			next.Count = 0
		}
	} else {
		next.Count = prev.Count + 1
	}
	s.states[postID] = next
	return prev, true
}

// endToggle settles a successful toggle: Loading clears, the optimistic
// state stays final.
func (s *Store) endToggle(postID int64) {
	s.mu.Lock()
	st := s.states[postID]
	st.Loading = false
	s.states[postID] = st
	s.mu.Unlock()
}

// restore rolls back to the pre-trigger snapshot after a failed toggle.
func (s *Store) restore(postID int64, prev domain.LikeState) {
	s.mu.Lock()
	s.states[postID] = domain.LikeState{Count: prev.Count, Liked: prev.Liked}
	s.mu.Unlock()
}
