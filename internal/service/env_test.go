package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/subnets-api/internal/dto"
	"github.com/noah-isme/subnets-api/internal/models"
	"github.com/noah-isme/subnets-api/internal/repository"
	"github.com/noah-isme/subnets-api/internal/store"
)

const testSecret = "test-secret-with-enough-entropy"

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

type sentNotification struct {
	RecipientID string
	Type        models.NotificationType
	Content     string
	PostID      string
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls []sentNotification
}

func (r *recordingNotifier) Notify(_ context.Context, recipientID string, kind models.NotificationType, _ *models.AuthorSnapshot, content, postID string) (models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, sentNotification{RecipientID: recipientID, Type: kind, Content: content, PostID: postID})
	return models.Notification{ID: "n", Type: kind, Content: content, PostID: postID}, nil
}

func (r *recordingNotifier) sent() []sentNotification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]sentNotification, len(r.calls))
	copy(out, r.calls)
	return out
}

func (r *recordingNotifier) recipients() []string {
	out := make([]string, 0)
	for _, call := range r.sent() {
		out = append(out, call.RecipientID)
	}
	return out
}

// tickingClock advances one second per reading so creation order is unambiguous.
type tickingClock struct {
	mu      sync.Mutex
	current time.Time
}

func newTickingClock() *tickingClock {
	return &tickingClock{current: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *tickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(time.Second)
	return c.current
}

type testEnv struct {
	store     store.Store
	users     repository.UserRepository
	posts     repository.PostRepository
	comments  repository.CommentRepository
	identity  IdentityProvider
	notifier  *recordingNotifier
	validator *validator.Validate

	auth    AuthService
	user    UserService
	post    PostService
	comment CommentService
	search  SearchService
	badges  BadgeService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithStore(t, store.NewMemoryStore())
}

func newTestEnvWithStore(t *testing.T, s store.Store) *testEnv {
	t.Helper()

	env := &testEnv{
		store:     s,
		users:     repository.NewUserRepository(s),
		posts:     repository.NewPostRepository(s),
		comments:  repository.NewCommentRepository(s),
		notifier:  &recordingNotifier{},
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
	env.identity = NewJWTIdentityProvider(testSecret, "subnets-test", time.Hour, repository.NewTokenRepository(s))
	env.badges = NewBadgeService(env.posts)

	auth := NewAuthService(env.users, env.identity, env.validator, testLogger())
	// the default bcrypt cost makes every sign-up slow
	auth.(*authService).bcryptCost = 4
	env.auth = auth

	clock := newTickingClock()

	env.user = NewUserService(env.users, env.badges, env.validator, testLogger())
	post := NewPostService(env.posts, env.users, env.badges, env.notifier, env.validator, testLogger())
	post.(*postService).now = clock.Now
	env.post = post
	comment := NewCommentService(env.comments, env.posts, env.users, env.notifier, 0, env.validator, testLogger())
	comment.(*commentService).now = clock.Now
	env.comment = comment
	env.search = NewSearchService(env.posts, env.users)
	return env
}

func (e *testEnv) signUp(t *testing.T, username string) models.UserProfile {
	t.Helper()
	profile, err := e.auth.SignUp(context.Background(), dto.SignUpRequest{
		Email:    username + "@subnets.test",
		Password: "password",
		Username: username,
	})
	require.NoError(t, err)
	return profile
}

func (e *testEnv) createPost(t *testing.T, authorID, show, content string) models.Post {
	t.Helper()
	post, err := e.post.Create(context.Background(), authorID, dto.CreatePostRequest{Show: show, Content: content})
	require.NoError(t, err)
	return post
}
