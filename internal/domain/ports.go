package domain

import "context"

// Viewer is the authentication context threaded explicitly through every
// component that needs to know who is looking at the page.
type Viewer interface {
	// Authenticated reports whether a bearer token is present and not known
	// to be expired. It is a local check; the server remains the authority.
	Authenticated() bool

	// UserID is the current user's id. Only meaningful when Authenticated.
	UserID() int64
}

// LikeReader defines the read operations the like subsystem consumes.
type LikeReader interface {
	// LikeCount fetches the authoritative total like count for a post.
	LikeCount(ctx context.Context, postID int64) (int, error)

	// MyLike probes whether the given user has liked the given post. Any
	// error, including a 404, is read as "not liked".
	MyLike(ctx context.Context, userID, postID int64) (*Like, error)
}

// LikeWriter defines the mutating like operations.
type LikeWriter interface {
	CreateLike(ctx context.Context, userID, postID int64) (*Like, error)
	DeleteLike(ctx context.Context, userID, postID int64) error
}

// PopularSource serves the server's ranked popular listing.
type PopularSource interface {
	PopularPosts(ctx context.Context, limit int) ([]PopularPost, error)
}

// PostService defines the post, category, and comment operations of the
// remote blog service consumed by the view session.
type PostService interface {
	ListPosts(ctx context.Context, pageNumber, pageSize int, sortBy, sortDir string) (*PostPage, error)
	GetPost(ctx context.Context, id int64) (*Post, error)
	CreatePost(ctx context.Context, userID, categoryID int64, title, description string) (*Post, error)
	UpdatePost(ctx context.Context, id int64, title, description string) (*Post, error)
	DeletePost(ctx context.Context, id int64) error

	ListCategories(ctx context.Context) ([]Category, error)

	ListComments(ctx context.Context, postID int64) ([]Comment, error)
	CreateComment(ctx context.Context, postID, userID int64, description string) (*Comment, error)
	UpdateComment(ctx context.Context, id int64, description string) (*Comment, error)
	DeleteComment(ctx context.Context, id int64) error
}
