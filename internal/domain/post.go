package domain

import "time"

// Post is the client's read-mostly copy of a blog post. The authoritative
// record lives in the remote service; this copy is page-scoped and is never
// written back except through explicit update operations.
type Post struct {
	// ID is the post's numeric identity, unique across the service.
	ID int64

	Title       string
	Description string

	// CategoryID is the bare category reference. Zero when the API embedded
	// the category object (or returned nothing) instead.
	CategoryID int64

	// CategoryTitle is set when the API returns the title inline.
	CategoryTitle string

	// Category is the embedded variant of the category reference. May be nil.
	Category *Category

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PostPage is one page of the paginated post listing.
type PostPage struct {
	Posts         []Post
	PageNumber    int
	PageSize      int
	TotalElements int64
	TotalPages    int
	LastPage      bool
}

// Category groups posts under a title.
type Category struct {
	ID          int64
	Title       string
	Description string
}

// Comment is a single comment attached to a post.
type Comment struct {
	ID          int64
	Description string
	UserID      int64
	UserName    string
}

// Like records that a user liked a post.
type Like struct {
	ID        int64
	UserID    int64
	PostID    int64
	CreatedAt time.Time
}

// PopularPost is one entry of the server's ranked popular listing.
type PopularPost struct {
	ID        int64
	Title     string
	CreatedAt time.Time
	LikeCount int
}
