package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/subnets-api/internal/commenttree"
	"github.com/noah-isme/subnets-api/internal/models"
	"github.com/noah-isme/subnets-api/internal/store"
)

func setupRedisStore(t *testing.T) store.Store {
	t.Helper()

	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return store.NewRedisStore(client, "subnets:")
}

func TestUserRepositoryCreateRejectsDuplicateID(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(store.NewMemoryStore())

	profile := models.NewUserProfile("u1", "TheoryMaster", "tm@example.com", time.Now())
	require.NoError(t, repo.Create(ctx, profile))
	require.ErrorIs(t, repo.Create(ctx, profile), ErrAlreadyExists)

	stored, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, "TheoryMaster", stored.Username)
	require.Equal(t, []string{}, stored.Badges)
}

func TestUserRepositoryUpdateMissingProfile(t *testing.T) {
	repo := NewUserRepository(store.NewMemoryStore())

	_, err := repo.Update(context.Background(), "ghost", func(p *models.UserProfile) error {
		p.Bio = "never stored"
		return nil
	})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepositoryEmailIndexIsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(setupRedisStore(t))

	require.NoError(t, repo.ReserveEmail(ctx, "Demo@SubNets.com", "u1"))
	require.ErrorIs(t, repo.ReserveEmail(ctx, "demo@subnets.com ", "u2"), ErrAlreadyExists)

	id, err := repo.LookupEmail(ctx, "DEMO@subnets.com")
	require.NoError(t, err)
	require.Equal(t, "u1", id)

	_, err = repo.LookupEmail(ctx, "nobody@subnets.com")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepositoryCredentials(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(store.NewMemoryStore())

	cred := models.Credential{UserID: "u1", Email: "demo@subnets.com", PasswordHash: "hash", CreatedAt: time.Now().UTC()}
	require.NoError(t, repo.CreateCredential(ctx, cred))
	require.ErrorIs(t, repo.CreateCredential(ctx, cred), ErrAlreadyExists)

	stored, err := repo.GetCredential(ctx, "Demo@subnets.com")
	require.NoError(t, err)
	require.Equal(t, "u1", stored.UserID)

	_, err = repo.GetCredential(ctx, "other@subnets.com")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepositoryReclaimsAbandonedSignUp(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(store.NewMemoryStore()).(*userRepository)
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return start }

	require.NoError(t, repo.ReserveEmail(ctx, "fan@subnets.com", "ghost"))
	require.NoError(t, repo.CreateCredential(ctx, models.Credential{UserID: "ghost", Email: "fan@subnets.com", PasswordHash: "old", CreatedAt: start}))

	require.ErrorIs(t, repo.ReserveEmail(ctx, "fan@subnets.com", "u2"), ErrAlreadyExists)

	repo.now = func() time.Time { return start.Add(AbandonedSignUpAfter) }
	require.NoError(t, repo.ReserveEmail(ctx, "fan@subnets.com", "u2"))
	require.NoError(t, repo.CreateCredential(ctx, models.Credential{UserID: "u2", Email: "fan@subnets.com", PasswordHash: "new", CreatedAt: start.Add(AbandonedSignUpAfter)}))

	id, err := repo.LookupEmail(ctx, "fan@subnets.com")
	require.NoError(t, err)
	require.Equal(t, "u2", id)

	stored, err := repo.GetCredential(ctx, "fan@subnets.com")
	require.NoError(t, err)
	require.Equal(t, "new", stored.PasswordHash)
}

func TestUserRepositoryKeepsOldEntryWithProfile(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(store.NewMemoryStore()).(*userRepository)
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return start }

	require.NoError(t, repo.Create(ctx, models.NewUserProfile("u1", "fan", "fan@subnets.com", start)))
	require.NoError(t, repo.ReserveEmail(ctx, "fan@subnets.com", "u1"))

	repo.now = func() time.Time { return start.Add(24 * time.Hour) }
	require.ErrorIs(t, repo.ReserveEmail(ctx, "fan@subnets.com", "u2"), ErrAlreadyExists)
}

func TestPostRepositoryListIgnoresCommentKeys(t *testing.T) {
	ctx := context.Background()
	s := setupRedisStore(t)
	posts := NewPostRepository(s)
	comments := NewCommentRepository(s)

	author := models.NewUserProfile("u1", "TheoryMaster", "tm@example.com", time.Now())
	for i := 0; i < 3; i++ {
		post := models.NewPost(fmt.Sprintf("p%d", i), author, models.PostDraft{Show: "Dark", Content: "theory"}, time.Now())
		require.NoError(t, posts.Create(ctx, post))
	}
	_, err := comments.Update(ctx, "p0", func(forest []models.Comment) ([]models.Comment, error) {
		return append(forest, models.NewComment("c1", author, "hi", time.Now())), nil
	})
	require.NoError(t, err)

	list, err := posts.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, "p0", list[0].ID)
}

func TestPostRepositoryUpdateToggle(t *testing.T) {
	ctx := context.Background()
	repo := NewPostRepository(store.NewMemoryStore())

	author := models.NewUserProfile("u1", "TheoryMaster", "tm@example.com", time.Now())
	require.NoError(t, repo.Create(ctx, models.NewPost("p1", author, models.PostDraft{Show: "Dark", Content: "x"}, time.Now())))

	updated, err := repo.Update(ctx, "p1", func(p *models.Post) error {
		p.ToggleUpvote("u2")
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, updated.Reactions.Upvotes)
	require.Equal(t, []string{"u2"}, updated.UpvotedBy)

	_, err = repo.Update(ctx, "missing", func(*models.Post) error { return nil })
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPostRepositoryUserPostIndex(t *testing.T) {
	ctx := context.Background()
	repo := NewPostRepository(store.NewMemoryStore())

	empty, err := repo.ListUserPosts(ctx, "u1")
	require.NoError(t, err)
	require.Empty(t, empty)

	_, err = repo.AppendUserPost(ctx, "u1", "p1")
	require.NoError(t, err)
	_, err = repo.AppendUserPost(ctx, "u1", "p2")
	require.NoError(t, err)
	ids, err := repo.AppendUserPost(ctx, "u1", "p1")
	require.NoError(t, err)
	require.Equal(t, []string{"p1", "p2"}, ids)
}

func TestCommentRepositoryConcurrentToggles(t *testing.T) {
	ctx := context.Background()
	repo := NewCommentRepository(setupRedisStore(t))

	author := models.NewUserProfile("u1", "TheoryMaster", "tm@example.com", time.Now())
	_, err := repo.Update(ctx, "p1", func(forest []models.Comment) ([]models.Comment, error) {
		return commenttree.Engine{}.Append(forest, models.NewComment("c1", author, "root", time.Now()), "")
	})
	require.NoError(t, err)

	const voters = 4
	var wg sync.WaitGroup
	for i := 0; i < voters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// retries exhausted under contention are acceptable; lost updates are not
			_, _ = repo.Update(ctx, "p1", func(forest []models.Comment) ([]models.Comment, error) {
				updated, _, err := commenttree.Engine{}.ToggleUpvote(forest, "c1", fmt.Sprintf("voter-%d", i))
				return updated, err
			})
		}(i)
	}
	wg.Wait()

	forest, err := repo.List(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, forest, 1)
	require.Equal(t, len(forest[0].UpvotedBy), forest[0].Reactions.Upvotes)
}

func TestCommentRepositoryListMissingForest(t *testing.T) {
	forest, err := NewCommentRepository(store.NewMemoryStore()).List(context.Background(), "none")
	require.NoError(t, err)
	require.NotNil(t, forest)
	require.Empty(t, forest)
}

func TestNotificationRepositoryNewestFirstAndMarkRead(t *testing.T) {
	ctx := context.Background()
	repo := NewNotificationRepository(store.NewMemoryStore())

	first := models.NewNotification("n1", models.NotificationComment, nil, "first", "p1", time.Now())
	second := models.NewNotification("n2", models.NotificationUpvote, nil, "second", "p1", time.Now())
	require.NoError(t, repo.Append(ctx, "u1", first))
	require.NoError(t, repo.Append(ctx, "u1", second))

	items, err := repo.List(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, "n2", items[0].ID)
	require.Equal(t, "n1", items[1].ID)

	found, err := repo.MarkRead(ctx, "u1", "n1")
	require.NoError(t, err)
	require.True(t, found)

	found, err = repo.MarkRead(ctx, "u1", "unknown")
	require.NoError(t, err)
	require.False(t, found)

	items, err = repo.List(ctx, "u1")
	require.NoError(t, err)
	require.False(t, items[0].Read)
	require.True(t, items[1].Read)

	changed, err := repo.MarkAllRead(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 1, changed)
}

func TestNotificationRepositoryCapsList(t *testing.T) {
	ctx := context.Background()
	repo := NewNotificationRepository(store.NewMemoryStore())

	for i := 0; i < MaxStoredNotifications+5; i++ {
		n := models.NewNotification(fmt.Sprintf("n%d", i), models.NotificationMention, nil, "hi", "", time.Now())
		require.NoError(t, repo.Append(ctx, "u1", n))
	}

	items, err := repo.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, items, MaxStoredNotifications)
	require.Equal(t, fmt.Sprintf("n%d", MaxStoredNotifications+4), items[0].ID)
}

func TestTokenRepositoryRevocation(t *testing.T) {
	ctx := context.Background()
	repo := NewTokenRepository(store.NewMemoryStore())

	revoked, err := repo.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	require.False(t, revoked)

	require.NoError(t, repo.Revoke(ctx, "jti-1", time.Now().Add(time.Hour)))
	revoked, err = repo.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	require.True(t, revoked)
}
