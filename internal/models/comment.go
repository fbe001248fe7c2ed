package models

import "time"

// CommentReactions only tracks upvotes.
type CommentReactions struct {
	Upvotes int `json:"upvotes"`
}

// Comment is a node of a post's comment forest stored under post_comments:<postId>.
type Comment struct {
	ID        string           `json:"id"`
	Author    AuthorSnapshot   `json:"author"`
	Content   string           `json:"content"`
	Reactions CommentReactions `json:"reactions"`
	UpvotedBy []string         `json:"upvotedBy"`
	CreatedAt time.Time        `json:"createdAt"`
	Timestamp string           `json:"timestamp"`
	Replies   []Comment        `json:"replies"`
}

// NewComment builds a comment with no replies and no upvotes.
func NewComment(id string, author UserProfile, content string, now time.Time) Comment {
	return Comment{
		ID:        id,
		Author:    author.Snapshot(),
		Content:   content,
		Reactions: CommentReactions{},
		UpvotedBy: []string{},
		CreatedAt: now.UTC(),
		Timestamp: JustNow,
		Replies:   []Comment{},
	}
}

// ToggleUpvote flips userID's upvote and reports whether the user now upvotes the comment.
func (c *Comment) ToggleUpvote(userID string) bool {
	var upvoted bool
	c.UpvotedBy, upvoted = toggleVoter(c.UpvotedBy, userID)
	c.Reactions.Upvotes = adjustCount(c.Reactions.Upvotes, upvoted)
	return upvoted
}
