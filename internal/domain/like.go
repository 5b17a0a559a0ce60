package domain

import "time"

// LikeState is the client's local belief about one post's likes. It is
// created lazily with zero defaults the first time a post is hydrated and
// discarded when the view session ends.
type LikeState struct {
	// Count is the believed total number of likes. Never negative.
	Count int

	// Liked reports whether the current viewer has liked this post.
	Liked bool

	// Loading reports whether a toggle request is in flight. At most one
	// toggle is in flight per post; further triggers are dropped until it
	// settles.
	Loading bool
}

// PopularItem is one entry of the ranked popular sidebar: a server-ranked
// popular post or a page post promoted to candidate status, annotated with
// the like count used for sorting.
type PopularItem struct {
	ID        int64
	Title     string
	CreatedAt time.Time

	// LikeCount is the annotated ranking count. It tracks the authoritative
	// count after a reconciliation and the optimistic count between
	// reconciliations.
	LikeCount int
}
