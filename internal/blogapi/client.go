package blogapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"blogview/internal/domain"
)

const defaultBaseURL = "http://localhost:8090/api/v1"

var (
	// ErrInvalidCredentials covers every rejected login uniformly. 401, 403,
	// and 500 from the login endpoint are deliberately indistinguishable so
	// the response does not leak which part of the credentials was wrong.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrServerUnreachable is a transport-level failure on the login path.
	ErrServerUnreachable = errors.New("cannot reach the server")
)

// StatusError is a non-2xx response from the API.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Body)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}

// TokenSource supplies the bearer token attached to requests. An empty
// token means the request goes out unauthenticated.
type TokenSource interface {
	Token() string
}

// Client is an HTTP+JSON client for the remote blog service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
}

// NewClient creates a new blog API client. If baseURL is empty, it defaults
// to http://localhost:8090/api/v1. tokens may be nil for an anonymous
// client.
func NewClient(baseURL string, tokens TokenSource) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		tokens: tokens,
	}
}

// SetTimeout bounds every request, including in-flight like toggles. A
// request that exceeds it settles as a failure instead of leaving the
// caller waiting forever.
func (c *Client) SetTimeout(d time.Duration) {
	if d > 0 {
		c.httpClient.Timeout = d
	}
}

// Login authenticates with the blog service and returns the bearer token.
// The caller owns storing it.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	body := loginRequest{
		Username:   username,
		Password:   password,
		RememberMe: true,
	}

	var resp loginResponse
	if err := c.do(ctx, http.MethodPost, "/account/login", nil, body, &resp); err != nil {
		var se *StatusError
		if errors.As(err, &se) {
			switch se.StatusCode {
			case http.StatusUnauthorized, http.StatusForbidden, http.StatusInternalServerError:
				return "", ErrInvalidCredentials
			}
			return "", fmt.Errorf("login: %w", err)
		}
		return "", fmt.Errorf("%w: %v", ErrServerUnreachable, err)
	}

	if resp.Token == "" {
		return "", fmt.Errorf("login: response carried no token")
	}
	return resp.Token, nil
}

// ListPosts fetches one page of the post listing.
func (c *Client) ListPosts(ctx context.Context, pageNumber, pageSize int, sortBy, sortDir string) (*domain.PostPage, error) {
	q := url.Values{}
	q.Set("pageNumber", strconv.Itoa(pageNumber))
	q.Set("pageSize", strconv.Itoa(pageSize))
	q.Set("sortBy", sortBy)
	q.Set("sortDir", sortDir)

	var resp pageDTO
	if err := c.do(ctx, http.MethodGet, "/post", q, nil, &resp); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	page := &domain.PostPage{
		Posts:         make([]domain.Post, len(resp.Content)),
		PageNumber:    resp.PageNumber,
		PageSize:      resp.PageSize,
		TotalElements: resp.TotalElements,
		TotalPages:    resp.TotalPages,
		LastPage:      resp.LastPage,
	}
	for i, p := range resp.Content {
		page.Posts[i] = p.toDomain()
	}
	return page, nil
}

// GetPost fetches a single post by id.
func (c *Client) GetPost(ctx context.Context, id int64) (*domain.Post, error) {
	var resp postDTO
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/post/%d", id), nil, nil, &resp); err != nil {
		return nil, fmt.Errorf("get post %d: %w", id, err)
	}
	post := resp.toDomain()
	return &post, nil
}

// CreatePost creates a post owned by userID under categoryID. The service
// takes title and description as query parameters.
func (c *Client) CreatePost(ctx context.Context, userID, categoryID int64, title, description string) (*domain.Post, error) {
	q := url.Values{}
	q.Set("title", title)
	q.Set("description", description)

	var resp postDTO
	path := fmt.Sprintf("/post/%d/categories/%d", userID, categoryID)
	if err := c.do(ctx, http.MethodPost, path, q, nil, &resp); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	post := resp.toDomain()
	return &post, nil
}

// UpdatePost updates a post's title and description.
func (c *Client) UpdatePost(ctx context.Context, id int64, title, description string) (*domain.Post, error) {
	body := updatePostRequest{Title: title, Description: description}

	var resp postDTO
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/post/%d", id), nil, body, &resp); err != nil {
		return nil, fmt.Errorf("update post %d: %w", id, err)
	}
	post := resp.toDomain()
	return &post, nil
}

// DeletePost removes a post by id.
func (c *Client) DeletePost(ctx context.Context, id int64) error {
	if err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/post/%d", id), nil, nil, nil); err != nil {
		return fmt.Errorf("delete post %d: %w", id, err)
	}
	return nil
}

// ListCategories fetches all categories.
func (c *Client) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var resp []categoryDTO
	if err := c.do(ctx, http.MethodGet, "/category", nil, nil, &resp); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	categories := make([]domain.Category, len(resp))
	for i, cat := range resp {
		categories[i] = domain.Category{ID: cat.ID, Title: cat.Title, Description: cat.Description}
	}
	return categories, nil
}

// ListComments fetches the comments for a post.
func (c *Client) ListComments(ctx context.Context, postID int64) ([]domain.Comment, error) {
	q := url.Values{}
	q.Set("postId", strconv.FormatInt(postID, 10))

	var resp []commentDTO
	if err := c.do(ctx, http.MethodGet, "/comment", q, nil, &resp); err != nil {
		return nil, fmt.Errorf("list comments for post %d: %w", postID, err)
	}

	comments := make([]domain.Comment, len(resp))
	for i, cm := range resp {
		comments[i] = cm.toDomain()
	}
	return comments, nil
}

// CreateComment adds a comment to a post. The service takes the payload as
// query parameters.
func (c *Client) CreateComment(ctx context.Context, postID, userID int64, description string) (*domain.Comment, error) {
	q := url.Values{}
	q.Set("postId", strconv.FormatInt(postID, 10))
	q.Set("userId", strconv.FormatInt(userID, 10))
	q.Set("description", description)

	var resp commentDTO
	if err := c.do(ctx, http.MethodPost, "/comment", q, nil, &resp); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	comment := resp.toDomain()
	return &comment, nil
}

// UpdateComment replaces a comment's text.
func (c *Client) UpdateComment(ctx context.Context, id int64, description string) (*domain.Comment, error) {
	body := updateCommentRequest{Description: description}

	var resp commentDTO
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/comment/%d", id), nil, body, &resp); err != nil {
		return nil, fmt.Errorf("update comment %d: %w", id, err)
	}
	comment := resp.toDomain()
	return &comment, nil
}

// DeleteComment removes a comment by id.
func (c *Client) DeleteComment(ctx context.Context, id int64) error {
	if err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/comment/%d", id), nil, nil, nil); err != nil {
		return fmt.Errorf("delete comment %d: %w", id, err)
	}
	return nil
}

// LikeCount fetches the authoritative total like count for a post. The
// endpoint returns a bare JSON number.
func (c *Client) LikeCount(ctx context.Context, postID int64) (int, error) {
	q := url.Values{}
	q.Set("postId", strconv.FormatInt(postID, 10))

	var count int
	if err := c.do(ctx, http.MethodGet, "/like/count", q, nil, &count); err != nil {
		return 0, fmt.Errorf("like count for post %d: %w", postID, err)
	}
	if count < 0 {
		count = 0
	}
	return count, nil
}

// MyLike fetches the current user's like on a post. The service answers a
// 404 when there is none; callers read any error as "not liked".
func (c *Client) MyLike(ctx context.Context, userID, postID int64) (*domain.Like, error) {
	q := url.Values{}
	q.Set("userId", strconv.FormatInt(userID, 10))
	q.Set("postId", strconv.FormatInt(postID, 10))

	var resp likeDTO
	if err := c.do(ctx, http.MethodGet, "/like/me", q, nil, &resp); err != nil {
		return nil, fmt.Errorf("my like for post %d: %w", postID, err)
	}
	like := resp.toDomain()
	return &like, nil
}

// CreateLike records a like by userID on postID.
func (c *Client) CreateLike(ctx context.Context, userID, postID int64) (*domain.Like, error) {
	q := url.Values{}
	q.Set("userId", strconv.FormatInt(userID, 10))
	q.Set("postId", strconv.FormatInt(postID, 10))

	var resp likeDTO
	if err := c.do(ctx, http.MethodPost, "/like", q, nil, &resp); err != nil {
		return nil, fmt.Errorf("create like: %w", err)
	}
	like := resp.toDomain()
	return &like, nil
}

// DeleteLike removes userID's like on postID.
func (c *Client) DeleteLike(ctx context.Context, userID, postID int64) error {
	q := url.Values{}
	q.Set("userId", strconv.FormatInt(userID, 10))
	q.Set("postId", strconv.FormatInt(postID, 10))

	if err := c.do(ctx, http.MethodDelete, "/like", q, nil, nil); err != nil {
		return fmt.Errorf("delete like: %w", err)
	}
	return nil
}

// PopularPosts fetches the server's ranked popular listing.
func (c *Client) PopularPosts(ctx context.Context, limit int) ([]domain.PopularPost, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))

	var resp []popularPostDTO
	if err := c.do(ctx, http.MethodGet, "/post/popular", q, nil, &resp); err != nil {
		return nil, fmt.Errorf("popular posts: %w", err)
	}

	posts := make([]domain.PopularPost, len(resp))
	for i, p := range resp {
		posts[i] = domain.PopularPost{
			ID:        p.ID,
			Title:     p.Title,
			CreatedAt: parseAPITime(p.CreatedDateTime),
			LikeCount: p.LikeCount,
		}
	}
	return posts, nil
}

// PhotoURL returns the side-channel URL serving a post's photo.
func (c *Client) PhotoURL(postID int64) string {
	return fmt.Sprintf("%s/photo/post/%d", c.baseURL, postID)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, result any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}

	return nil
}
