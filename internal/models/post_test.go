package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewPostCopiesAuthorSnapshot(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	author := NewUserProfile("u1", "TheoryMaster", "tm@example.com", now)
	author.Verified = true

	post := NewPost("p1", author, PostDraft{Show: "Dark", Content: "Jonas is Adam"}, now)

	require.Equal(t, AuthorSnapshot{ID: "u1", Username: "TheoryMaster", Avatar: author.Avatar, Verified: true}, post.Author)
	require.Equal(t, JustNow, post.Timestamp)
	require.Empty(t, post.Tags)
	require.NotNil(t, post.Tags)
	require.NotNil(t, post.UpvotedBy)
	require.Nil(t, post.Image)
	require.False(t, post.IsDeleted)

	author.Username = "Renamed"
	require.Equal(t, "TheoryMaster", post.Author.Username)
}

func TestPostToggleUpvoteKeepsCounterInSync(t *testing.T) {
	post := NewPost("p1", NewUserProfile("u1", "a", "a@example.com", time.Now()), PostDraft{Show: "s", Content: "c"}, time.Now())
	original := post

	require.True(t, post.ToggleUpvote("u2"))
	require.True(t, post.ToggleUpvote("u3"))
	require.Equal(t, 2, post.Reactions.Upvotes)
	require.Equal(t, []string{"u2", "u3"}, post.UpvotedBy)
	require.True(t, post.HasUpvoted("u2"))

	require.False(t, post.ToggleUpvote("u2"))
	require.Equal(t, 1, post.Reactions.Upvotes)
	require.Equal(t, []string{"u3"}, post.UpvotedBy)
	require.False(t, post.HasUpvoted("u2"))

	require.False(t, post.ToggleUpvote("u3"))
	require.Equal(t, original.Reactions, post.Reactions)
	require.Empty(t, post.UpvotedBy)
}

func TestToggleUpvoteFloorsCounterAtZero(t *testing.T) {
	comment := NewComment("c1", NewUserProfile("u1", "a", "a@example.com", time.Now()), "hi", time.Now())
	comment.UpvotedBy = []string{"u2"}
	comment.Reactions.Upvotes = 0

	require.False(t, comment.ToggleUpvote("u2"))
	require.Equal(t, 0, comment.Reactions.Upvotes)
}

func TestPostOwnedBy(t *testing.T) {
	post := NewPost("p1", NewUserProfile("u1", "a", "a@example.com", time.Now()), PostDraft{}, time.Now())
	require.True(t, post.OwnedBy("u1"))
	require.False(t, post.OwnedBy("u2"))
	require.False(t, post.OwnedBy(""))
}

func TestNotificationTypeValid(t *testing.T) {
	require.True(t, NotificationMention.Valid())
	require.False(t, NotificationType("digest").Valid())
}
