package service

import (
	"context"
	"time"

	"github.com/noah-isme/subnets-api/internal/models"
	"github.com/noah-isme/subnets-api/internal/repository"
)

const badgeDateLayout = "2006-01-02"

// BadgeService renders the static badge catalogue for a user and decides which
// post-count badges a user has earned.
type BadgeService interface {
	ForProfile(ctx context.Context, profile models.UserProfile) ([]models.Badge, error)
	Earned(postCount int, owned []string) []models.BadgeDefinition
}

type badgeService struct {
	posts repository.PostRepository
}

func NewBadgeService(posts repository.PostRepository) BadgeService {
	return &badgeService{posts: posts}
}

// ForProfile marks badges listed on the profile as unlocked and reports progress
// toward post-count badges from the user's post index.
func (s *badgeService) ForProfile(ctx context.Context, profile models.UserProfile) ([]models.Badge, error) {
	postIDs, err := s.posts.ListUserPosts(ctx, profile.ID)
	if err != nil {
		return nil, err
	}

	owned := make(map[string]struct{}, len(profile.Badges))
	for _, id := range profile.Badges {
		owned[id] = struct{}{}
	}

	badges := make([]models.Badge, 0, len(models.BadgeCatalogue))
	for _, def := range models.BadgeCatalogue {
		badge := def.Badge
		if _, ok := owned[badge.ID]; ok {
			at := s.unlockDate(ctx, profile, def, postIDs)
			badge.UnlockedAt = &at
		} else if def.PostGoal > 0 {
			current := len(postIDs)
			if current > def.PostGoal {
				current = def.PostGoal
			}
			badge.Progress = &models.BadgeProgress{Current: current, Total: def.PostGoal}
		}
		badges = append(badges, badge)
	}
	return badges, nil
}

// unlockDate is the creation date of the post that reached the goal, or the
// profile creation date for manually granted badges.
func (s *badgeService) unlockDate(ctx context.Context, profile models.UserProfile, def models.BadgeDefinition, postIDs []string) string {
	at := profile.CreatedAt
	if def.PostGoal > 0 && len(postIDs) >= def.PostGoal {
		if post, err := s.posts.Get(ctx, postIDs[def.PostGoal-1]); err == nil {
			at = post.CreatedAt
		}
	}
	if at.IsZero() {
		at = time.Now()
	}
	return at.UTC().Format(badgeDateLayout)
}

// Earned returns the post-count badges reached by postCount that are not in owned yet.
func (s *badgeService) Earned(postCount int, owned []string) []models.BadgeDefinition {
	have := make(map[string]struct{}, len(owned))
	for _, id := range owned {
		have[id] = struct{}{}
	}

	earned := make([]models.BadgeDefinition, 0)
	for _, def := range models.BadgeCatalogue {
		if def.PostGoal == 0 || postCount < def.PostGoal {
			continue
		}
		if _, ok := have[def.Badge.ID]; ok {
			continue
		}
		earned = append(earned, def)
	}
	return earned
}
