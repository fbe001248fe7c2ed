package handler_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUserProfileAndUpdate(t *testing.T) {
	api := newAPI(t)
	userID, token := api.signUp(t, "binger")
	_, otherToken := api.signUp(t, "lurker")

	resp := api.do(t, http.MethodGet, "/users/"+userID, "", nil)
	require.Equal(t, http.StatusOK, resp.status)
	require.Equal(t, "binger", resp.data()["username"])

	resp = api.do(t, http.MethodGet, "/users/nobody", "", nil)
	requireFailure(t, resp, http.StatusNotFound, "User not found")

	resp = api.do(t, http.MethodPut, "/users/"+userID, otherToken, map[string]string{"bio": "mine now"})
	requireFailure(t, resp, http.StatusForbidden, "Forbidden - can only update own profile")

	resp = api.do(t, http.MethodPut, "/users/"+userID, "", map[string]string{"bio": "anon"})
	requireFailure(t, resp, http.StatusUnauthorized, "Unauthorized")

	resp = api.do(t, http.MethodPut, "/users/"+userID, token, map[string]string{"bio": "<i>Binge</i> watcher"})
	require.Equal(t, http.StatusOK, resp.status, string(resp.raw))
	require.Equal(t, "Profile updated successfully", resp.body["message"])
	require.Equal(t, "Binge watcher", resp.data()["bio"])

	resp = api.do(t, http.MethodPut, "/users/"+userID, token, map[string]string{"username": "LURKER"})
	requireFailure(t, resp, http.StatusBadRequest, "Username is already taken")
}

func TestUserBadgesProgress(t *testing.T) {
	api := newAPI(t)
	userID, token := api.signUp(t, "collector")

	resp := api.do(t, http.MethodGet, "/users/"+userID+"/badges", "", nil)
	require.Equal(t, http.StatusOK, resp.status)
	badges := resp.data()["badges"].([]interface{})
	require.Len(t, badges, 4)

	api.createPost(t, token, "Dark", "The stranger is Jonas")

	resp = api.do(t, http.MethodGet, "/users/"+userID+"/badges", "", nil)
	var firstPost map[string]interface{}
	for _, item := range resp.data()["badges"].([]interface{}) {
		badge := item.(map[string]interface{})
		if badge["id"] == "b2" {
			firstPost = badge
		}
	}
	require.NotNil(t, firstPost)
	require.NotEmpty(t, firstPost["unlockedAt"])

	resp = api.do(t, http.MethodGet, "/users/"+userID, "", nil)
	require.Contains(t, resp.data()["badges"], "b2")
}

func TestSearchPostsAndUsers(t *testing.T) {
	api := newAPI(t)
	_, token := api.signUp(t, "stranger_fan")
	api.createPost(t, token, "Stranger Things", "The Upside Down is a frozen moment")
	api.createPost(t, token, "Dark", "Nothing strange here")

	resp := api.do(t, http.MethodGet, "/search?q=STRANGER", "", nil)
	require.Equal(t, http.StatusOK, resp.status)
	require.Len(t, resp.data()["posts"], 1)
	require.Len(t, resp.data()["users"], 1)

	resp = api.do(t, http.MethodGet, "/search?q=stranger&type=posts", "", nil)
	require.Len(t, resp.data()["posts"], 1)
	require.Empty(t, resp.data()["users"])

	resp = api.do(t, http.MethodGet, "/search", "", nil)
	require.Equal(t, http.StatusOK, resp.status)
	require.NotNil(t, resp.data()["posts"])
	require.Empty(t, resp.data()["posts"])
	require.Empty(t, resp.data()["users"])
}
