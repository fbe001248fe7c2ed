package handler_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAuthSignUpAndSignIn(t *testing.T) {
	api := newAPI(t)

	resp := api.do(t, http.MethodPost, "/auth/signup", "", map[string]string{
		"email": "fan@subnets.test", "password": "password", "username": "TheoryFan",
	})
	require.Equal(t, http.StatusOK, resp.status)
	require.Equal(t, "User created successfully", resp.body["message"])
	user := resp.data()["user"].(map[string]interface{})
	require.Equal(t, "TheoryFan", user["username"])
	require.Equal(t, false, user["verified"])
	require.NotContains(t, user, "passwordHash")

	resp = api.do(t, http.MethodPost, "/auth/signin", "", map[string]string{"email": "fan@subnets.test", "password": "password"})
	require.Equal(t, http.StatusOK, resp.status)
	require.NotEmpty(t, resp.data()["accessToken"])
	require.NotEmpty(t, resp.data()["expiresAt"])
}

func TestAuthSignUpErrors(t *testing.T) {
	api := newAPI(t)
	api.signUp(t, "taken")

	resp := api.do(t, http.MethodPost, "/auth/signup", "", map[string]string{"email": "x@subnets.test"})
	requireFailure(t, resp, http.StatusBadRequest, "Email, password, and username are required")

	resp = api.do(t, http.MethodPost, "/auth/signup", "", map[string]string{
		"email": "other@subnets.test", "password": "password", "username": "TAKEN",
	})
	requireFailure(t, resp, http.StatusBadRequest, "Username is already taken")

	resp = api.do(t, http.MethodPost, "/auth/signup", "", map[string]string{
		"email": "taken@subnets.test", "password": "password", "username": "fresh",
	})
	requireFailure(t, resp, http.StatusBadRequest, "A user with this email address has already been registered")
}

func TestAuthSignInRejectsWrongPassword(t *testing.T) {
	api := newAPI(t)
	api.signUp(t, "viewer")

	resp := api.do(t, http.MethodPost, "/auth/signin", "", map[string]string{"email": "viewer@subnets.test", "password": "nope"})
	requireFailure(t, resp, http.StatusUnauthorized, "Invalid login credentials")
}

func TestAuthRejectsMalformedBody(t *testing.T) {
	api := newAPI(t)

	resp := api.do(t, http.MethodPost, "/auth/signin", "", "not an object")
	requireFailure(t, resp, http.StatusBadRequest, "Invalid request body")
}

func TestAuthSessionLifecycle(t *testing.T) {
	api := newAPI(t)
	userID, token := api.signUp(t, "watcher")

	resp := api.do(t, http.MethodGet, "/auth/session", token, nil)
	require.Equal(t, http.StatusOK, resp.status)
	require.Equal(t, "session active", resp.body["message"])
	requireContract(t, "session.schema.json", resp)
	session := resp.data()["session"].(map[string]interface{})
	require.Equal(t, userID, session["userId"])
	require.Equal(t, token, session["accessToken"])

	resp = api.do(t, http.MethodPost, "/auth/signout", token, nil)
	require.Equal(t, http.StatusOK, resp.status)
	require.Equal(t, "Signed out successfully", resp.body["message"])

	resp = api.do(t, http.MethodGet, "/auth/session", token, nil)
	require.Equal(t, http.StatusOK, resp.status)
	require.Equal(t, "no active session", resp.body["message"])
	requireContract(t, "session.schema.json", resp)
	require.Nil(t, resp.data()["session"])
	require.Nil(t, resp.data()["user"])

	// a revoked token no longer authenticates writes
	resp = api.do(t, http.MethodPost, "/posts", token, map[string]string{"show": "Dark", "content": "Time loops"})
	requireFailure(t, resp, http.StatusUnauthorized, "Unauthorized - must be logged in to create posts")
}

func TestAuthSignOutWithoutToken(t *testing.T) {
	api := newAPI(t)

	resp := api.do(t, http.MethodPost, "/auth/signout", "", nil)
	requireFailure(t, resp, http.StatusBadRequest, "No session to sign out")

	resp = api.do(t, http.MethodPost, "/auth/signout", "garbage", nil)
	require.Equal(t, http.StatusOK, resp.status)
}
