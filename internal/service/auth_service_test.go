package service

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/subnets-api/internal/dto"
	"github.com/noah-isme/subnets-api/internal/models"
	"github.com/noah-isme/subnets-api/internal/repository"
)

type failingProfileRepository struct {
	repository.UserRepository
	err error
}

func (r failingProfileRepository) Create(context.Context, models.UserProfile) error {
	return r.err
}

func TestAuthServiceSignUpCreatesProfile(t *testing.T) {
	env := newTestEnv(t)

	profile := env.signUp(t, "TheoryMaster")
	require.NotEmpty(t, profile.ID)
	require.Equal(t, models.DefaultAvatar("TheoryMaster"), profile.Avatar)
	require.Equal(t, "", profile.Bio)
	require.Equal(t, []string{}, profile.Badges)
	require.False(t, profile.Verified)

	stored, err := env.users.Get(context.Background(), profile.ID)
	require.NoError(t, err)
	require.Equal(t, profile.Username, stored.Username)
}

func TestAuthServiceSignUpRequiresFields(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.auth.SignUp(context.Background(), dto.SignUpRequest{Email: "a@b.co", Password: "password"})
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Equal(t, "Email, password, and username are required", validationErr.Message)
}

func TestAuthServiceSignUpRejectsTakenUsernameIgnoringCase(t *testing.T) {
	env := newTestEnv(t)
	env.signUp(t, "TheoryMaster")

	_, err := env.auth.SignUp(context.Background(), dto.SignUpRequest{
		Email:    "other@subnets.test",
		Password: "password",
		Username: "theorymaster",
	})
	require.ErrorIs(t, err, ErrUsernameTaken)
}

func TestAuthServiceSignUpRejectsTakenEmail(t *testing.T) {
	env := newTestEnv(t)
	env.signUp(t, "first")

	_, err := env.auth.SignUp(context.Background(), dto.SignUpRequest{
		Email:    "FIRST@subnets.test",
		Password: "password",
		Username: "second",
	})
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestAuthServiceSignInAndSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	profile := env.signUp(t, "viewer")

	_, err := env.auth.SignIn(ctx, dto.SignInRequest{Email: "viewer@subnets.test", Password: "wrong-password"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = env.auth.SignIn(ctx, dto.SignInRequest{Email: "nobody@subnets.test", Password: "password"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	signIn, err := env.auth.SignIn(ctx, dto.SignInRequest{Email: "Viewer@subnets.test", Password: "password"})
	require.NoError(t, err)
	require.NotEmpty(t, signIn.AccessToken)
	user, ok := signIn.User.(models.UserProfile)
	require.True(t, ok)
	require.Equal(t, profile.ID, user.ID)

	session, err := env.auth.Session(ctx, signIn.AccessToken)
	require.NoError(t, err)
	require.NotNil(t, session.Session)
	require.Equal(t, profile.ID, session.Session.UserID)
	require.Equal(t, signIn.AccessToken, session.Session.AccessToken)
}

func TestAuthServiceSessionWithInvalidToken(t *testing.T) {
	env := newTestEnv(t)

	session, err := env.auth.Session(context.Background(), "not-a-token")
	require.NoError(t, err)
	require.Nil(t, session.User)
	require.Nil(t, session.Session)
}

func TestAuthServiceSignOutRevokesToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.signUp(t, "leaver")

	signIn, err := env.auth.SignIn(ctx, dto.SignInRequest{Email: "leaver@subnets.test", Password: "password"})
	require.NoError(t, err)

	require.NoError(t, env.auth.SignOut(ctx, signIn.AccessToken))

	_, err = env.identity.Verify(ctx, signIn.AccessToken)
	require.ErrorIs(t, err, ErrInvalidToken)

	session, err := env.auth.Session(ctx, signIn.AccessToken)
	require.NoError(t, err)
	require.Nil(t, session.Session)
}

func TestAuthServiceSignOutWithoutToken(t *testing.T) {
	env := newTestEnv(t)

	err := env.auth.SignOut(context.Background(), "  ")
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Equal(t, "No session to sign out", validationErr.Message)

	require.NoError(t, env.auth.SignOut(context.Background(), "garbage"))
}

func TestAuthServiceSignUpLogsAbandonedReservation(t *testing.T) {
	env := newTestEnv(t)
	storeErr := errors.New("profile write failed")

	var logs bytes.Buffer
	auth := NewAuthService(failingProfileRepository{UserRepository: env.users, err: storeErr}, env.identity, env.validator, zerolog.New(&logs))
	auth.(*authService).bcryptCost = 4

	_, err := auth.SignUp(context.Background(), dto.SignUpRequest{
		Email:    "Lost@subnets.test",
		Password: "password",
		Username: "lost",
	})
	require.ErrorIs(t, err, storeErr)
	require.Contains(t, logs.String(), "sign-up aborted after email reservation")
	require.Contains(t, logs.String(), repository.UserEmailKey("lost@subnets.test"))
	require.Contains(t, logs.String(), repository.UserCredentialsKey("lost@subnets.test"))
}
