package feed

import (
	"strings"

	"github.com/noah-isme/subnets-api/internal/models"
)

// SearchType restricts which collections Search looks at.
type SearchType string

const (
	SearchAll   SearchType = "all"
	SearchPosts SearchType = "posts"
	SearchUsers SearchType = "users"
)

// ParseSearchType maps a query parameter to a SearchType. Unknown values search everything.
func ParseSearchType(raw string) SearchType {
	switch SearchType(strings.ToLower(strings.TrimSpace(raw))) {
	case SearchPosts:
		return SearchPosts
	case SearchUsers:
		return SearchUsers
	default:
		return SearchAll
	}
}

// Results holds the matches of a search. Both lists are always non-nil.
type Results struct {
	Posts []models.Post
	Users []models.UserProfile
}

// Search matches query case-insensitively against post show, content and tag text
// and against username and email. Results keep the input order and are capped at
// SearchLimit per list; there is no relevance or recency ranking.
func Search(posts []models.Post, users []models.UserProfile, query string, kind SearchType) Results {
	results := Results{Posts: []models.Post{}, Users: []models.UserProfile{}}

	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return results
	}

	if kind == SearchPosts || kind == SearchAll {
		for _, post := range posts {
			if len(results.Posts) == SearchLimit {
				break
			}
			if !post.IsDeleted && postMatches(post, needle) {
				results.Posts = append(results.Posts, post)
			}
		}
	}

	if kind == SearchUsers || kind == SearchAll {
		for _, user := range users {
			if len(results.Users) == SearchLimit {
				break
			}
			if containsFold(user.Username, needle) || containsFold(user.Email, needle) {
				results.Users = append(results.Users, user)
			}
		}
	}

	return results
}

func postMatches(post models.Post, needle string) bool {
	if containsFold(post.Show, needle) || containsFold(post.Content, needle) {
		return true
	}
	for _, tag := range post.Tags {
		if containsFold(tag.Text, needle) {
			return true
		}
	}
	return false
}
