package repository

import (
	"context"
	"errors"

	"github.com/noah-isme/subnets-api/internal/models"
	"github.com/noah-isme/subnets-api/internal/store"
)

// CommentRepository stores one comment forest per post.
type CommentRepository interface {
	List(ctx context.Context, postID string) ([]models.Comment, error)
	Update(ctx context.Context, postID string, mutate func([]models.Comment) ([]models.Comment, error)) ([]models.Comment, error)
}

type commentRepository struct {
	store store.Store
}

// NewCommentRepository constructs a repository backed by the key-value store.
func NewCommentRepository(s store.Store) CommentRepository {
	return &commentRepository{store: s}
}

// List returns the forest of postID, empty when the post has no comments yet.
func (r *commentRepository) List(ctx context.Context, postID string) ([]models.Comment, error) {
	forest, err := store.GetJSON[[]models.Comment](ctx, r.store, PostCommentsKey(postID))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return []models.Comment{}, nil
		}
		return nil, err
	}
	if forest == nil {
		forest = []models.Comment{}
	}
	return forest, nil
}

// Update replaces the forest with the result of mutate under optimistic concurrency.
// mutate may be called more than once and must not have side effects.
func (r *commentRepository) Update(ctx context.Context, postID string, mutate func([]models.Comment) ([]models.Comment, error)) ([]models.Comment, error) {
	return store.Update(ctx, r.store, PostCommentsKey(postID), func(forest *[]models.Comment, _ bool) error {
		current := *forest
		if current == nil {
			current = []models.Comment{}
		}
		updated, err := mutate(current)
		if err != nil {
			return err
		}
		*forest = updated
		return nil
	})
}
