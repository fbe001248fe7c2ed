package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/noah-isme/subnets-api/internal/models"
	"github.com/noah-isme/subnets-api/internal/store"
)

// PostRepository persists posts and the per-author post index.
type PostRepository interface {
	Get(ctx context.Context, postID string) (models.Post, error)
	Create(ctx context.Context, post models.Post) error
	Update(ctx context.Context, postID string, mutate func(*models.Post) error) (models.Post, error)
	List(ctx context.Context) ([]models.Post, error)

	AppendUserPost(ctx context.Context, userID, postID string) ([]string, error)
	ListUserPosts(ctx context.Context, userID string) ([]string, error)
}

type postRepository struct {
	store store.Store
}

// NewPostRepository constructs a repository backed by the key-value store.
func NewPostRepository(s store.Store) PostRepository {
	return &postRepository{store: s}
}

func (r *postRepository) Get(ctx context.Context, postID string) (models.Post, error) {
	return store.GetJSON[models.Post](ctx, r.store, PostKey(postID))
}

func (r *postRepository) Create(ctx context.Context, post models.Post) error {
	if err := store.CreateJSON(ctx, r.store, PostKey(post.ID), post); err != nil {
		return fmt.Errorf("create post %s: %w", post.ID, createErr(err))
	}
	return nil
}

func (r *postRepository) Update(ctx context.Context, postID string, mutate func(*models.Post) error) (models.Post, error) {
	return store.Update(ctx, r.store, PostKey(postID), func(current *models.Post, exists bool) error {
		if !exists {
			return ErrNotFound
		}
		return mutate(current)
	})
}

// List returns every stored post in key order, soft-deleted ones included.
func (r *postRepository) List(ctx context.Context) ([]models.Post, error) {
	return store.ScanJSON[models.Post](ctx, r.store, PostPrefix)
}

func (r *postRepository) AppendUserPost(ctx context.Context, userID, postID string) ([]string, error) {
	return store.Update(ctx, r.store, UserPostsKey(userID), func(ids *[]string, _ bool) error {
		for _, id := range *ids {
			if id == postID {
				return nil
			}
		}
		*ids = append(*ids, postID)
		return nil
	})
}

func (r *postRepository) ListUserPosts(ctx context.Context, userID string) ([]string, error) {
	ids, err := store.GetJSON[[]string](ctx, r.store, UserPostsKey(userID))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return []string{}, nil
		}
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}
