package likes

import (
	"context"
	"fmt"
	"log/slog"

	"blogview/internal/domain"
)

// PopularList is the slice of the popular sidebar the controller needs:
// an instant count adjustment while a toggle is in flight, and a full
// rebuild once the server has confirmed it.
type PopularList interface {
	// Bump adjusts a listed post's annotated count without any network
	// call. Absent ids are a no-op.
	Bump(postID int64, delta int)

	// Reconcile re-fetches the ranked list and merges it with the given
	// page posts. It never fails; it degrades toward an empty list.
	Reconcile(ctx context.Context, fallback []domain.Post) []domain.PopularItem
}

// Controller flips a single post's like state with optimistic feedback.
// The flip is visible immediately; a failed network call restores the
// exact pre-trigger state, including the popular sidebar's bump.
type Controller struct {
	store   *Store
	api     domain.LikeWriter
	popular PopularList
	logger  *slog.Logger
}

// NewController creates a toggle controller over the given store.
func NewController(store *Store, api domain.LikeWriter, popular PopularList, logger *slog.Logger) *Controller {
	return &Controller{
		store:   store,
		api:     api,
		popular: popular,
		logger:  logger,
	}
}

// Toggle likes or unlikes a post for the viewer, by the post's current
// local state. currentPage is the page the reconciliation runs against
// after a confirmed toggle.
//
// Applied is true only when the toggle reached the server and stuck. A
// trigger while another toggle is pending on the same post is dropped:
// (false, nil), no state change, no network call. A server failure returns
// the error for logging, but all rollback has already happened by then.
func (c *Controller) Toggle(ctx context.Context, viewer domain.Viewer, postID int64, currentPage []domain.Post) (bool, error) {
	if viewer == nil || !viewer.Authenticated() {
		return false, domain.ErrLoginRequired
	}

	prev, ok := c.store.beginToggle(postID)
	if !ok {
		c.logger.Debug("toggle dropped, another one is in flight", "postID", postID)
		return false, nil
	}

	delta := 1
	if prev.Liked {
		delta = -1
	}
	c.popular.Bump(postID, delta)

	var err error
	if prev.Liked {
		err = c.api.DeleteLike(ctx, viewer.UserID(), postID)
	} else {
		_, err = c.api.CreateLike(ctx, viewer.UserID(), postID)
	}

	if err != nil {
		c.store.restore(postID, prev)
		c.popular.Bump(postID, -delta)
		c.logger.Warn("like toggle failed, rolled back", "postID", postID, "error", err)
		return false, fmt.Errorf("toggle like on post %d: %w", postID, err)
	}

	c.store.endToggle(postID)

	// Resync the sidebar with server truth. The optimistic bump already
	// made it visually consistent, so this converges rather than corrects.
	c.popular.Reconcile(ctx, currentPage)
	return true, nil
}
