package dto

import "github.com/noah-isme/subnets-api/internal/models"

// TagInput is a tag supplied by the client.
type TagInput struct {
	Text  string `json:"text" validate:"required,max=40"`
	Color string `json:"color" validate:"required,oneof=purple orange blue"`
}

// CreatePostRequest is the payload of POST /posts.
type CreatePostRequest struct {
	Show       string     `json:"show" validate:"required,max=120"`
	Content    string     `json:"content" validate:"required,max=10000"`
	HasSpoiler bool       `json:"hasSpoiler"`
	Tags       []TagInput `json:"tags" validate:"omitempty,max=10,dive"`
	Image      *string    `json:"image" validate:"omitempty,url,max=2048"`
}

// UpdatePostRequest only carries the fields an author may change. Nil fields are left untouched.
type UpdatePostRequest struct {
	Show       *string    `json:"show" validate:"omitempty,min=1,max=120"`
	Content    *string    `json:"content" validate:"omitempty,min=1,max=10000"`
	HasSpoiler *bool      `json:"hasSpoiler"`
	Tags       []TagInput `json:"tags" validate:"omitempty,max=10,dive"`
	Image      *string    `json:"image" validate:"omitempty,max=2048"`
}

// PostListQuery holds the feed query parameters.
type PostListQuery struct {
	Limit  int
	Offset int
	Show   string
}

// FeedResponse is one page of the feed.
type FeedResponse struct {
	Posts   []models.Post `json:"posts"`
	Total   int           `json:"total"`
	HasMore bool          `json:"hasMore"`
}

// PostViewerMeta carries the caller's relation to a single post.
type PostViewerMeta struct {
	HasUpvoted bool `json:"hasUpvoted"`
}

// VoteResponse reports the state of an item after an upvote toggle.
type VoteResponse struct {
	Upvotes    int  `json:"upvotes"`
	HasUpvoted bool `json:"hasUpvoted"`
}

// ToTags converts client tags into model tags.
func ToTags(inputs []TagInput) []models.Tag {
	tags := make([]models.Tag, 0, len(inputs))
	for _, input := range inputs {
		tags = append(tags, models.Tag{Text: input.Text, Color: models.TagColor(input.Color)})
	}
	return tags
}
