package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"blogview/internal/domain"
	"blogview/internal/likes"
	"blogview/internal/popular"
)

// Validation failures checked locally before any network call. They come
// back to the caller as an inline message; the request is never issued.
var (
	ErrTitleRequired       = errors.New("title is required")
	ErrDescriptionRequired = errors.New("description is required")
	ErrCategoryRequired    = errors.New("a category must be selected")
	ErrCommentRequired     = errors.New("comment text is required")
)

const (
	defaultPageSize = 10
	defaultSortBy   = "id"
	defaultSortDir  = "asc"
)

// Service drives one browsing session against the blog service: the
// current page of posts, their like state, and the popular sidebar. It
// owns the load-hydrate-reconcile cycle and gates every mutation on the
// viewer's authentication.
type Service struct {
	api     domain.PostService
	viewer  domain.Viewer
	likes   *likes.Store
	toggles *likes.Controller
	popular *popular.List
	logger  *slog.Logger

	pageSize int

	mu         sync.Mutex
	page       *domain.PostPage
	categories map[int64]string
}

// NewService creates a view session. pageSize of 0 or less falls back to
// the default of 10.
func NewService(
	api domain.PostService,
	viewer domain.Viewer,
	likeStore *likes.Store,
	toggles *likes.Controller,
	popularList *popular.List,
	pageSize int,
	logger *slog.Logger,
) *Service {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &Service{
		api:      api,
		viewer:   viewer,
		likes:    likeStore,
		toggles:  toggles,
		popular:  popularList,
		logger:   logger,
		pageSize: pageSize,
	}
}

// LoadPage fetches one page of posts, hydrates per-post like state, and
// rebuilds the popular sidebar against the new page. Hydration and
// reconciliation failures degrade to defaults; only the page fetch itself
// can fail the load.
func (s *Service) LoadPage(ctx context.Context, pageNumber int) (*domain.PostPage, error) {
	if pageNumber < 0 {
		pageNumber = 0
	}

	page, err := s.api.ListPosts(ctx, pageNumber, s.pageSize, defaultSortBy, defaultSortDir)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	s.mu.Lock()
	s.page = page
	s.mu.Unlock()

	s.likes.Hydrate(ctx, page.Posts, s.viewer)
	s.popular.Reconcile(ctx, page.Posts)
	return page, nil
}

// CurrentPosts returns the posts of the most recently loaded page.
func (s *Service) CurrentPosts() []domain.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.page == nil {
		return nil
	}
	return slices.Clone(s.page.Posts)
}

// ToggleLike flips the viewer's like on a post, optimistically, against
// the current page. See likes.Controller.Toggle for the contract.
func (s *Service) ToggleLike(ctx context.Context, postID int64) (bool, error) {
	return s.toggles.Toggle(ctx, s.viewer, postID, s.CurrentPosts())
}

// LikeState reports a post's current local like state.
func (s *Service) LikeState(postID int64) domain.LikeState {
	return s.likes.State(postID)
}

// Hydrate refreshes like state for the given posts without reloading the
// page. Useful when acting on a single post outside a full page load.
func (s *Service) Hydrate(ctx context.Context, posts []domain.Post) []likes.HydrateResult {
	return s.likes.Hydrate(ctx, posts, s.viewer)
}

// LoadPopular rebuilds the popular sidebar against the current page (or
// server ranking alone when no page is loaded).
func (s *Service) LoadPopular(ctx context.Context) []domain.PopularItem {
	return s.popular.Reconcile(ctx, s.CurrentPosts())
}

// Popular returns the current ranked sidebar.
func (s *Service) Popular() []domain.PopularItem {
	return s.popular.Items()
}

// Categories returns the id-to-title category map, fetched once per
// session. A fetch failure yields an empty map and is not cached, so a
// later call can recover.
func (s *Service) Categories(ctx context.Context) map[int64]string {
	s.mu.Lock()
	cached := s.categories
	s.mu.Unlock()
	if cached != nil {
		return cached
	}

	list, err := s.api.ListCategories(ctx)
	if err != nil {
		s.logger.Warn("category listing failed", "error", err)
		return map[int64]string{}
	}

	m := make(map[int64]string, len(list))
	for _, c := range list {
		m[c.ID] = c.Title
	}
	s.mu.Lock()
	s.categories = m
	s.mu.Unlock()
	return m
}

// CategoryTitle resolves a post's category title from whichever shape the
// API returned: inline title, embedded object, or a bare id looked up in
// the session's category map.
func (s *Service) CategoryTitle(ctx context.Context, p *domain.Post) string {
	if p == nil {
		return ""
	}
	if p.CategoryTitle != "" {
		return p.CategoryTitle
	}
	if p.Category != nil && p.Category.Title != "" {
		return p.Category.Title
	}
	if p.CategoryID > 0 {
		return s.Categories(ctx)[p.CategoryID]
	}
	return ""
}

// PostDetail fetches a single post together with its comments.
func (s *Service) PostDetail(ctx context.Context, id int64) (*domain.Post, []domain.Comment, error) {
	post, err := s.api.GetPost(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("get post: %w", err)
	}
	comments, err := s.api.ListComments(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("list comments: %w", err)
	}
	return post, comments, nil
}

// CreatePost validates and creates a post owned by the viewer.
func (s *Service) CreatePost(ctx context.Context, categoryID int64, title, description string) (*domain.Post, error) {
	if !s.viewer.Authenticated() {
		return nil, domain.ErrLoginRequired
	}
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if description == "" {
		return nil, ErrDescriptionRequired
	}
	if categoryID <= 0 {
		return nil, ErrCategoryRequired
	}
	return s.api.CreatePost(ctx, s.viewer.UserID(), categoryID, title, description)
}

// UpdatePost validates and updates a post's title and description.
func (s *Service) UpdatePost(ctx context.Context, id int64, title, description string) (*domain.Post, error) {
	if !s.viewer.Authenticated() {
		return nil, domain.ErrLoginRequired
	}
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if description == "" {
		return nil, ErrDescriptionRequired
	}
	return s.api.UpdatePost(ctx, id, title, description)
}

// DeletePost removes a post.
func (s *Service) DeletePost(ctx context.Context, id int64) error {
	if !s.viewer.Authenticated() {
		return domain.ErrLoginRequired
	}
	return s.api.DeletePost(ctx, id)
}

// AddComment validates and attaches a comment to a post as the viewer.
func (s *Service) AddComment(ctx context.Context, postID int64, text string) (*domain.Comment, error) {
	if !s.viewer.Authenticated() {
		return nil, domain.ErrLoginRequired
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrCommentRequired
	}
	return s.api.CreateComment(ctx, postID, s.viewer.UserID(), text)
}

// EditComment validates and replaces a comment's text.
func (s *Service) EditComment(ctx context.Context, id int64, text string) (*domain.Comment, error) {
	if !s.viewer.Authenticated() {
		return nil, domain.ErrLoginRequired
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrCommentRequired
	}
	return s.api.UpdateComment(ctx, id, text)
}

// DeleteComment removes a comment.
func (s *Service) DeleteComment(ctx context.Context, id int64) error {
	if !s.viewer.Authenticated() {
		return domain.ErrLoginRequired
	}
	return s.api.DeleteComment(ctx, id)
}
