package blogapi

import (
	"time"

	"blogview/internal/domain"
)

// apiTimeLayouts are the timestamp shapes the service has been seen to
// emit. Java's LocalDateTime serializes without a zone, sometimes with
// fractional seconds.
var apiTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

func parseAPITime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range apiTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

type loginRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	RememberMe bool   `json:"rememberMe"`
}

type loginResponse struct {
	Username string `json:"username"`
	Token    string `json:"token"`
}

type postDTO struct {
	ID              int64        `json:"id"`
	Title           string       `json:"title"`
	Description     string       `json:"description"`
	CreatedDateTime string       `json:"createdDateTime"`
	UpdatedDateTime string       `json:"updatedDateTime"`
	CategoryID      int64        `json:"categoryId"`
	CategoryTitle   string       `json:"categoryTitle"`
	Category        *categoryDTO `json:"category"`
}

func (p postDTO) toDomain() domain.Post {
	post := domain.Post{
		ID:            p.ID,
		Title:         p.Title,
		Description:   p.Description,
		CategoryID:    p.CategoryID,
		CategoryTitle: p.CategoryTitle,
		CreatedAt:     parseAPITime(p.CreatedDateTime),
		UpdatedAt:     parseAPITime(p.UpdatedDateTime),
	}
	if p.Category != nil {
		post.Category = &domain.Category{
			ID:          p.Category.ID,
			Title:       p.Category.Title,
			Description: p.Category.Description,
		}
		if post.CategoryID == 0 {
			post.CategoryID = p.Category.ID
		}
	}
	return post
}

type pageDTO struct {
	Content       []postDTO `json:"content"`
	PageNumber    int       `json:"pageNumber"`
	PageSize      int       `json:"pageSize"`
	TotalElements int64     `json:"totalElements"`
	TotalPages    int       `json:"totalPages"`
	LastPage      bool      `json:"lastPage"`
}

type categoryDTO struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type commentDTO struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
	UserID      int64  `json:"userId"`
	UserName    string `json:"userName"`
}

func (c commentDTO) toDomain() domain.Comment {
	return domain.Comment{
		ID:          c.ID,
		Description: c.Description,
		UserID:      c.UserID,
		UserName:    c.UserName,
	}
}

type likeDTO struct {
	ID              int64  `json:"id"`
	UserID          int64  `json:"userId"`
	PostID          int64  `json:"postId"`
	CreatedDateTime string `json:"createdDateTime"`
}

func (l likeDTO) toDomain() domain.Like {
	return domain.Like{
		ID:        l.ID,
		UserID:    l.UserID,
		PostID:    l.PostID,
		CreatedAt: parseAPITime(l.CreatedDateTime),
	}
}

type popularPostDTO struct {
	ID              int64  `json:"id"`
	Title           string `json:"title"`
	CreatedDateTime string `json:"createdDateTime"`
	LikeCount       int    `json:"likeCount"`
}

type updatePostRequest struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

type updateCommentRequest struct {
	Description string `json:"description"`
}
