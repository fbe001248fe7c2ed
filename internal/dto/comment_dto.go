package dto

import "github.com/noah-isme/subnets-api/internal/models"

// CreateCommentRequest is the payload of POST /posts/:id/comments. An empty
// ParentID creates a root comment.
type CreateCommentRequest struct {
	Content  string `json:"content" validate:"required,max=5000"`
	ParentID string `json:"parentId" validate:"omitempty,max=64"`
}

type CommentsResponse struct {
	Comments []models.Comment `json:"comments"`
}

// CommentsMeta summarises the thread shape for clients that collapse deep replies.
type CommentsMeta struct {
	Total int `json:"total"`
	Depth int `json:"depth"`
}

// CommentVoteResponse keeps the original acknowledgement message next to the new state.
type CommentVoteResponse struct {
	Message    string `json:"message"`
	Upvotes    int    `json:"upvotes"`
	HasUpvoted bool   `json:"hasUpvoted"`
}
