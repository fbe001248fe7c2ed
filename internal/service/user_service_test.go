package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/subnets-api/internal/dto"
)

func TestUserServiceGet(t *testing.T) {
	env := newTestEnv(t)
	profile := env.signUp(t, "viewer")

	got, err := env.user.Get(context.Background(), profile.ID)
	require.NoError(t, err)
	require.Equal(t, profile.Username, got.Username)

	_, err = env.user.Get(context.Background(), "missing")
	require.EqualError(t, err, "User not found")
}

func TestUserServiceUpdateOwnProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	profile := env.signUp(t, "viewer")
	other := env.signUp(t, "other")

	_, err := env.user.Update(ctx, other.ID, profile.ID, dto.UpdateProfileRequest{Bio: stringPtr("hacked")})
	require.ErrorIs(t, err, ErrForbidden)

	_, err = env.user.Update(ctx, "", profile.ID, dto.UpdateProfileRequest{Bio: stringPtr("anon")})
	require.ErrorIs(t, err, ErrUnauthenticated)

	_, err = env.user.Update(ctx, profile.ID, profile.ID, dto.UpdateProfileRequest{Username: stringPtr("OTHER")})
	require.ErrorIs(t, err, ErrUsernameTaken)

	updated, err := env.user.Update(ctx, profile.ID, profile.ID, dto.UpdateProfileRequest{
		Username: stringPtr("Viewer"),
		Bio:      stringPtr("<b>Binge</b> watcher"),
	})
	require.NoError(t, err)
	require.Equal(t, "Viewer", updated.Username)
	require.Equal(t, "Binge watcher", updated.Bio)
	require.Equal(t, profile.Email, updated.Email)
	require.Equal(t, profile.CreatedAt, updated.CreatedAt)
}

func TestUserServiceUpdateKeepsBioPlainText(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	profile := env.signUp(t, "viewer")

	updated, err := env.user.Update(ctx, profile.ID, profile.ID, dto.UpdateProfileRequest{Bio: stringPtr("Tom & Jerry's fan")})
	require.NoError(t, err)
	require.Equal(t, "Tom & Jerry's fan", updated.Bio)

	// saving the stored bio again must not escape it twice
	again, err := env.user.Update(ctx, profile.ID, profile.ID, dto.UpdateProfileRequest{Bio: stringPtr(updated.Bio)})
	require.NoError(t, err)
	require.Equal(t, "Tom & Jerry's fan", again.Bio)

	stored, err := env.user.Get(ctx, profile.ID)
	require.NoError(t, err)
	require.Equal(t, "Tom & Jerry's fan", stored.Bio)
}

func TestTextSanitizerDecodesEntitiesAfterStripping(t *testing.T) {
	clean := newTextSanitizer()

	require.Equal(t, "Binge watcher", clean.Clean("<b>Binge</b> watcher"))
	require.Equal(t, "<script>", clean.Clean("&lt;script&gt;"))
}

func TestUserServiceUpdateValidatesAvatar(t *testing.T) {
	env := newTestEnv(t)
	profile := env.signUp(t, "viewer")

	_, err := env.user.Update(context.Background(), profile.ID, profile.ID, dto.UpdateProfileRequest{Avatar: stringPtr("not a url")})
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestUserServiceBadges(t *testing.T) {
	env := newTestEnv(t)
	profile := env.signUp(t, "viewer")

	badges, err := env.user.Badges(context.Background(), profile.ID)
	require.NoError(t, err)
	require.Len(t, badges, 4)
	for _, badge := range badges {
		require.Nil(t, badge.UnlockedAt, badge.ID)
	}
	require.Equal(t, "b2", badges[1].ID)
	require.NotNil(t, badges[1].Progress)
	require.Equal(t, 0, badges[1].Progress.Current)
	require.Equal(t, 1, badges[1].Progress.Total)
	require.Nil(t, badges[0].Progress)

	env.createPost(t, profile.ID, "Dark", "first theory")

	badges, err = env.user.Badges(context.Background(), profile.ID)
	require.NoError(t, err)
	require.NotNil(t, badges[1].UnlockedAt)
	require.Equal(t, "2024-05-01", *badges[1].UnlockedAt)
	require.Nil(t, badges[1].Progress)
	require.Equal(t, 1, badges[3].Progress.Current)
	require.Equal(t, 50, badges[3].Progress.Total)

	_, err = env.user.Badges(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSearchServiceFindsPostsAndUsers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.signUp(t, "stranger_fan")
	env.createPost(t, author.ID, "Stranger Things", "Vecna theory")
	env.createPost(t, author.ID, "Dark", "time loops")

	results, err := env.search.Search(ctx, dto.SearchQuery{Query: "stranger"})
	require.NoError(t, err)
	require.Len(t, results.Posts, 1)
	require.Len(t, results.Users, 1)

	results, err = env.search.Search(ctx, dto.SearchQuery{Query: "stranger", Type: "users"})
	require.NoError(t, err)
	require.Empty(t, results.Posts)
	require.Len(t, results.Users, 1)

	results, err = env.search.Search(ctx, dto.SearchQuery{Query: " "})
	require.NoError(t, err)
	require.NotNil(t, results.Posts)
	require.NotNil(t, results.Users)
	require.Empty(t, results.Posts)
}
