// Package feed assembles the paginated post feed and search results.
package feed

import (
	"sort"
	"strings"

	"github.com/noah-isme/subnets-api/internal/models"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
	// SearchLimit caps each result list returned by Search.
	SearchLimit = 20
)

// Query selects a page of the feed.
type Query struct {
	Limit  int
	Offset int
	Show   string
}

// Page is one slice of the feed. Total counts every post matching the filter.
type Page struct {
	Posts   []models.Post
	Total   int
	HasMore bool
}

// Normalize applies the default and maximum limit and clamps a negative offset.
func (q Query) Normalize() Query {
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	q.Show = strings.TrimSpace(q.Show)
	return q
}

// List drops deleted posts, filters by show, orders newest first and paginates.
// Posts with equal creation times keep their input order.
func List(posts []models.Post, query Query) Page {
	query = query.Normalize()
	show := strings.ToLower(query.Show)

	visible := make([]models.Post, 0, len(posts))
	for _, post := range posts {
		if post.IsDeleted {
			continue
		}
		if show != "" && !containsFold(post.Show, show) {
			continue
		}
		visible = append(visible, post)
	}

	sort.SliceStable(visible, func(i, j int) bool {
		return visible[i].CreatedAt.After(visible[j].CreatedAt)
	})

	total := len(visible)
	start := query.Offset
	if start > total {
		start = total
	}
	end := start + query.Limit
	if end > total {
		end = total
	}

	page := make([]models.Post, end-start)
	copy(page, visible[start:end])

	return Page{
		Posts:   page,
		Total:   total,
		HasMore: end < total,
	}
}

func containsFold(value, lowerNeedle string) bool {
	return strings.Contains(strings.ToLower(value), lowerNeedle)
}
