package feed

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blogview/internal/domain"
	"blogview/internal/likes"
	"blogview/internal/popular"
)

// fakeRemote implements the full remote surface the session touches:
// posts, categories, comments, likes, and the popular ranking.
type fakeRemote struct {
	mu sync.Mutex

	page       *domain.PostPage
	pageErr    error
	categories []domain.Category
	catErr     error
	comments   []domain.Comment
	popularErr error

	counts map[int64]int

	createCommentCalls int
	createPostCalls    int
	likeCountCalls     int
}

func (f *fakeRemote) ListPosts(ctx context.Context, pageNumber, pageSize int, sortBy, sortDir string) (*domain.PostPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pageErr != nil {
		return nil, f.pageErr
	}
	return f.page, nil
}

func (f *fakeRemote) GetPost(ctx context.Context, id int64) (*domain.Post, error) {
	return &domain.Post{ID: id, Title: "post"}, nil
}

func (f *fakeRemote) CreatePost(ctx context.Context, userID, categoryID int64, title, description string) (*domain.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createPostCalls++
	return &domain.Post{ID: 100, Title: title, Description: description, CategoryID: categoryID}, nil
}

func (f *fakeRemote) UpdatePost(ctx context.Context, id int64, title, description string) (*domain.Post, error) {
	return &domain.Post{ID: id, Title: title, Description: description}, nil
}

func (f *fakeRemote) DeletePost(ctx context.Context, id int64) error { return nil }

func (f *fakeRemote) ListCategories(ctx context.Context) ([]domain.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.catErr != nil {
		return nil, f.catErr
	}
	return f.categories, nil
}

func (f *fakeRemote) ListComments(ctx context.Context, postID int64) ([]domain.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.comments, nil
}

func (f *fakeRemote) CreateComment(ctx context.Context, postID, userID int64, description string) (*domain.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCommentCalls++
	return &domain.Comment{ID: 1, Description: description, UserID: userID}, nil
}

func (f *fakeRemote) UpdateComment(ctx context.Context, id int64, description string) (*domain.Comment, error) {
	return &domain.Comment{ID: id, Description: description}, nil
}

func (f *fakeRemote) DeleteComment(ctx context.Context, id int64) error { return nil }

func (f *fakeRemote) LikeCount(ctx context.Context, postID int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.likeCountCalls++
	return f.counts[postID], nil
}

func (f *fakeRemote) MyLike(ctx context.Context, userID, postID int64) (*domain.Like, error) {
	return nil, errors.New("API error (status 404): like not found")
}

func (f *fakeRemote) CreateLike(ctx context.Context, userID, postID int64) (*domain.Like, error) {
	return &domain.Like{UserID: userID, PostID: postID}, nil
}

func (f *fakeRemote) DeleteLike(ctx context.Context, userID, postID int64) error { return nil }

func (f *fakeRemote) PopularPosts(ctx context.Context, limit int) ([]domain.PopularPost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.popularErr != nil {
		return nil, f.popularErr
	}
	return nil, nil
}

type stubViewer struct {
	authed bool
	id     int64
}

func (v stubViewer) Authenticated() bool { return v.authed }
func (v stubViewer) UserID() int64       { return v.id }

func newTestService(remote *fakeRemote, viewer domain.Viewer) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	likeStore := likes.NewStore(remote, logger)
	popularList := popular.NewList(remote, remote, likeStore, 6, logger)
	toggles := likes.NewController(likeStore, remote, popularList, logger)
	return NewService(remote, viewer, likeStore, toggles, popularList, 10, logger)
}

func TestLoadPage_HydratesLikesAndBuildsPopular(t *testing.T) {
	remote := &fakeRemote{
		page: &domain.PostPage{
			Posts:      []domain.Post{{ID: 1, Title: "a"}, {ID: 2, Title: "b"}},
			PageNumber: 0,
			TotalPages: 1,
			LastPage:   true,
		},
		counts:     map[int64]int{1: 4, 2: 9},
		popularErr: errors.New("boom"),
	}
	svc := newTestService(remote, stubViewer{})

	page, err := svc.LoadPage(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, page.Posts, 2)

	assert.Equal(t, 4, svc.LikeState(1).Count)
	assert.Equal(t, 9, svc.LikeState(2).Count)

	// Popular endpoint failed: sidebar degrades to the page candidates
	// ranked by the hydrated counts.
	items := svc.Popular()
	require.Len(t, items, 2)
	assert.Equal(t, int64(2), items[0].ID)
	assert.Equal(t, int64(1), items[1].ID)
}

func TestLoadPage_ListFailureSurfaces(t *testing.T) {
	remote := &fakeRemote{pageErr: errors.New("boom")}
	svc := newTestService(remote, stubViewer{})

	_, err := svc.LoadPage(context.Background(), 0)
	assert.Error(t, err)
	assert.Nil(t, svc.CurrentPosts())
}

func TestToggleLike_UnauthenticatedIssuesNoCall(t *testing.T) {
	remote := &fakeRemote{
		page:   &domain.PostPage{Posts: []domain.Post{{ID: 1}}},
		counts: map[int64]int{1: 3},
	}
	svc := newTestService(remote, stubViewer{authed: false})
	_, err := svc.LoadPage(context.Background(), 0)
	require.NoError(t, err)

	applied, err := svc.ToggleLike(context.Background(), 1)
	assert.ErrorIs(t, err, domain.ErrLoginRequired)
	assert.False(t, applied)
	assert.Equal(t, 3, svc.LikeState(1).Count)
}

func TestToggleLike_ReconcilesAgainstCurrentPage(t *testing.T) {
	remote := &fakeRemote{
		page:   &domain.PostPage{Posts: []domain.Post{{ID: 1}, {ID: 2}}},
		counts: map[int64]int{1: 3, 2: 1},
	}
	svc := newTestService(remote, stubViewer{authed: true, id: 9})
	_, err := svc.LoadPage(context.Background(), 0)
	require.NoError(t, err)

	applied, err := svc.ToggleLike(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, applied)

	st := svc.LikeState(1)
	assert.True(t, st.Liked)
	assert.Equal(t, 4, st.Count)
}

func TestAddComment_Validation(t *testing.T) {
	remote := &fakeRemote{}

	t.Run("unauthenticated", func(t *testing.T) {
		svc := newTestService(remote, stubViewer{authed: false})
		_, err := svc.AddComment(context.Background(), 1, "hi")
		assert.ErrorIs(t, err, domain.ErrLoginRequired)
	})

	t.Run("empty text", func(t *testing.T) {
		svc := newTestService(remote, stubViewer{authed: true, id: 9})
		_, err := svc.AddComment(context.Background(), 1, "   ")
		assert.ErrorIs(t, err, ErrCommentRequired)
	})

	assert.Zero(t, remote.createCommentCalls, "validation failures must not reach the network")

	t.Run("valid", func(t *testing.T) {
		svc := newTestService(remote, stubViewer{authed: true, id: 9})
		comment, err := svc.AddComment(context.Background(), 1, "  hello  ")
		require.NoError(t, err)
		assert.Equal(t, "hello", comment.Description, "text is trimmed")
	})
}

func TestCreatePost_Validation(t *testing.T) {
	remote := &fakeRemote{}
	svc := newTestService(remote, stubViewer{authed: true, id: 9})

	_, err := svc.CreatePost(context.Background(), 1, "", "body")
	assert.ErrorIs(t, err, ErrTitleRequired)

	_, err = svc.CreatePost(context.Background(), 1, "title", " ")
	assert.ErrorIs(t, err, ErrDescriptionRequired)

	_, err = svc.CreatePost(context.Background(), 0, "title", "body")
	assert.ErrorIs(t, err, ErrCategoryRequired)

	assert.Zero(t, remote.createPostCalls)

	post, err := svc.CreatePost(context.Background(), 3, "title", "body")
	require.NoError(t, err)
	assert.Equal(t, int64(3), post.CategoryID)
}

func TestCategories_CachedAfterFirstFetch(t *testing.T) {
	remote := &fakeRemote{categories: []domain.Category{{ID: 1, Title: "Go"}, {ID: 2, Title: "News"}}}
	svc := newTestService(remote, stubViewer{})

	m := svc.Categories(context.Background())
	assert.Equal(t, "Go", m[1])

	remote.mu.Lock()
	remote.catErr = errors.New("boom")
	remote.mu.Unlock()

	// Served from the session cache despite the endpoint now failing.
	m = svc.Categories(context.Background())
	assert.Equal(t, "News", m[2])
}

func TestCategories_FailureYieldsEmptyMapUncached(t *testing.T) {
	remote := &fakeRemote{catErr: errors.New("boom")}
	svc := newTestService(remote, stubViewer{})

	assert.Empty(t, svc.Categories(context.Background()))

	remote.mu.Lock()
	remote.catErr = nil
	remote.categories = []domain.Category{{ID: 1, Title: "Go"}}
	remote.mu.Unlock()

	assert.Equal(t, "Go", svc.Categories(context.Background())[1])
}

func TestCategoryTitle_Resolution(t *testing.T) {
	remote := &fakeRemote{categories: []domain.Category{{ID: 3, Title: "FromMap"}}}
	svc := newTestService(remote, stubViewer{})
	ctx := context.Background()

	assert.Equal(t, "Inline", svc.CategoryTitle(ctx, &domain.Post{CategoryTitle: "Inline"}))
	assert.Equal(t, "Embedded", svc.CategoryTitle(ctx, &domain.Post{Category: &domain.Category{Title: "Embedded"}}))
	assert.Equal(t, "FromMap", svc.CategoryTitle(ctx, &domain.Post{CategoryID: 3}))
	assert.Empty(t, svc.CategoryTitle(ctx, &domain.Post{}))
	assert.Empty(t, svc.CategoryTitle(ctx, nil))
}

func TestPostDetail_ReturnsPostAndComments(t *testing.T) {
	remote := &fakeRemote{comments: []domain.Comment{{ID: 1, Description: "hi", UserName: "alice"}}}
	svc := newTestService(remote, stubViewer{})

	post, comments, err := svc.PostDetail(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), post.ID)
	require.Len(t, comments, 1)
	assert.Equal(t, "alice", comments[0].UserName)
}
