package service

import (
	"context"
	"strings"

	"github.com/noah-isme/subnets-api/internal/dto"
	"github.com/noah-isme/subnets-api/internal/feed"
	"github.com/noah-isme/subnets-api/internal/models"
	"github.com/noah-isme/subnets-api/internal/repository"
)

// SearchService matches posts and users by substring.
type SearchService interface {
	Search(ctx context.Context, query dto.SearchQuery) (dto.SearchResponse, error)
}

type searchService struct {
	posts repository.PostRepository
	users repository.UserRepository
}

func NewSearchService(posts repository.PostRepository, users repository.UserRepository) SearchService {
	return &searchService{posts: posts, users: users}
}

func (s *searchService) Search(ctx context.Context, query dto.SearchQuery) (dto.SearchResponse, error) {
	empty := dto.SearchResponse{Posts: []models.Post{}, Users: []models.UserProfile{}}
	if strings.TrimSpace(query.Query) == "" {
		return empty, nil
	}

	kind := feed.ParseSearchType(query.Type)

	var (
		posts []models.Post
		users []models.UserProfile
		err   error
	)
	if kind != feed.SearchUsers {
		if posts, err = s.posts.List(ctx); err != nil {
			return dto.SearchResponse{}, err
		}
	}
	if kind != feed.SearchPosts {
		if users, err = s.users.List(ctx); err != nil {
			return dto.SearchResponse{}, err
		}
	}

	results := feed.Search(posts, users, query.Query, kind)
	return dto.SearchResponse{Posts: results.Posts, Users: results.Users}, nil
}
