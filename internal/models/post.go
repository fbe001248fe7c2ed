package models

import "time"

// TagColor is the palette a post tag may use.
type TagColor string

const (
	TagPurple TagColor = "purple"
	TagOrange TagColor = "orange"
	TagBlue   TagColor = "blue"
)

// JustNow is the display timestamp assigned to freshly created posts and comments.
const JustNow = "Just now"

// Tag labels a post.
type Tag struct {
	Text  string   `json:"text"`
	Color TagColor `json:"color"`
}

// PostReactions are independently tracked counters.
// Upvotes always equals len(Post.UpvotedBy); Comments is a cache bumped on every new comment.
type PostReactions struct {
	Upvotes  int `json:"upvotes"`
	Comments int `json:"comments"`
	Shares   int `json:"shares"`
}

// Post is a fan theory stored under post:<id>.
type Post struct {
	ID         string         `json:"id"`
	Author     AuthorSnapshot `json:"author"`
	Show       string         `json:"show"`
	Content    string         `json:"content"`
	HasSpoiler bool           `json:"hasSpoiler"`
	Tags       []Tag          `json:"tags"`
	Reactions  PostReactions  `json:"reactions"`
	UpvotedBy  []string       `json:"upvotedBy"`
	CreatedAt  time.Time      `json:"createdAt"`
	Timestamp  string         `json:"timestamp"`
	Image      *string        `json:"image"`
	IsDeleted  bool           `json:"isDeleted"`
}

// PostDraft carries the author supplied fields of a new post.
type PostDraft struct {
	Show       string
	Content    string
	HasSpoiler bool
	Tags       []Tag
	Image      *string
}

// NewPost builds a post owned by author.
func NewPost(id string, author UserProfile, draft PostDraft, now time.Time) Post {
	tags := draft.Tags
	if tags == nil {
		tags = []Tag{}
	}

	return Post{
		ID:         id,
		Author:     author.Snapshot(),
		Show:       draft.Show,
		Content:    draft.Content,
		HasSpoiler: draft.HasSpoiler,
		Tags:       tags,
		Reactions:  PostReactions{},
		UpvotedBy:  []string{},
		CreatedAt:  now.UTC(),
		Timestamp:  JustNow,
		Image:      draft.Image,
		IsDeleted:  false,
	}
}

// ToggleUpvote flips userID's upvote and reports whether the user now upvotes the post.
func (p *Post) ToggleUpvote(userID string) bool {
	var upvoted bool
	p.UpvotedBy, upvoted = toggleVoter(p.UpvotedBy, userID)
	p.Reactions.Upvotes = adjustCount(p.Reactions.Upvotes, upvoted)
	return upvoted
}

// HasUpvoted reports whether userID is in the upvoter set.
func (p Post) HasUpvoted(userID string) bool {
	return containsVoter(p.UpvotedBy, userID)
}

// OwnedBy reports whether userID authored the post.
func (p Post) OwnedBy(userID string) bool {
	return userID != "" && p.Author.ID == userID
}
