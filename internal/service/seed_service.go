package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/subnets-api/internal/dto"
	"github.com/noah-isme/subnets-api/internal/models"
	"github.com/noah-isme/subnets-api/internal/repository"
)

var (
	// ErrSeedDisabled indicates the seeding tools are disabled by configuration.
	ErrSeedDisabled = errors.New("seeding is disabled")
	// ErrSeedUnauthorized indicates the provided token is invalid.
	ErrSeedUnauthorized = errors.New("invalid seed token")
)

const (
	DemoEmail    = "demo@subnets.com"
	DemoPassword = "password"
	DemoUsername = "DemoUser"
	demoBio      = "Demo user for SubNets"
)

type samplePost struct {
	draft models.PostDraft
	age   time.Duration
	label string
}

var samplePosts = []samplePost{
	{
		draft: models.PostDraft{
			Show:    "Stranger Things",
			Content: "I think Vecna is actually connected to the Mind Flayer through time manipulation. The clocks, the visions... it all adds up! 🕐",
			Tags:    []models.Tag{{Text: "Theory", Color: models.TagPurple}, {Text: "Season 4", Color: models.TagOrange}},
		},
		age:   2 * time.Hour,
		label: "2h ago",
	},
	{
		draft: models.PostDraft{
			Show:       "The Last of Us",
			Content:    "MAJOR SPOILER: That ending scene completely changed everything we thought we knew about Joel's decision...",
			HasSpoiler: true,
			Tags:       []models.Tag{{Text: "Spoiler", Color: models.TagOrange}, {Text: "Episode 9", Color: models.TagBlue}},
		},
		age:   5 * time.Hour,
		label: "5h ago",
	},
	{
		draft: models.PostDraft{
			Show:    "Wednesday",
			Content: "The cinematography in the dance scene is absolutely incredible. Burton's signature style combined with modern aesthetics 💀",
			Tags:    []models.Tag{{Text: "Discussion", Color: models.TagBlue}, {Text: "Cinematography", Color: models.TagPurple}},
		},
		age:   26 * time.Hour,
		label: "1d ago",
	},
	{
		draft: models.PostDraft{
			Show:    "Breaking Bad",
			Content: "Just finished my 5th rewatch. The foreshadowing in S1E1 is INSANE when you know how it all ends. Walter's pants flying in the desert? Chef's kiss.",
			Tags:    []models.Tag{{Text: "Rewatch", Color: models.TagPurple}, {Text: "Foreshadowing", Color: models.TagOrange}},
		},
		age:   3 * 24 * time.Hour,
		label: "3d ago",
	},
	{
		draft: models.PostDraft{
			Show:    "The Mandalorian",
			Content: "Grogu mastering the Force is the best character development in Star Wars since the original trilogy. Change my mind.",
			Tags:    []models.Tag{{Text: "Theory", Color: models.TagPurple}, {Text: "Star Wars", Color: models.TagBlue}},
		},
		age:   6 * 24 * time.Hour,
		label: "6d ago",
	},
}

var sampleComments = []struct {
	content string
	label   string
}{
	{content: "This is exactly what I've been saying! The clock symbolism is everywhere.", label: "1h ago"},
	{content: "I never thought about it that way. Mind blown 🤯", label: "30m ago"},
}

// SeedService creates the demo account and sample content.
type SeedService interface {
	Seed(ctx context.Context, token string) (dto.SeedReport, error)
}

type seedService struct {
	auth     AuthService
	users    repository.UserRepository
	posts    repository.PostRepository
	comments repository.CommentRepository
	enabled  bool
	token    string
	logger   zerolog.Logger
	now      func() time.Time
}

// NewSeedService constructs a seeding service. An empty token disables the token check.
func NewSeedService(auth AuthService, users repository.UserRepository, posts repository.PostRepository, comments repository.CommentRepository, enabled bool, token string, logger zerolog.Logger) SeedService {
	return &seedService{
		auth:     auth,
		users:    users,
		posts:    posts,
		comments: comments,
		enabled:  enabled,
		token:    token,
		logger:   logger.With().Str("component", "seed_service").Logger(),
		now:      time.Now,
	}
}

// Seed is idempotent on the demo account: sample content is only created together with it.
func (s *seedService) Seed(ctx context.Context, token string) (dto.SeedReport, error) {
	if !s.enabled {
		return dto.SeedReport{}, ErrSeedDisabled
	}
	if !s.validateToken(token) {
		return dto.SeedReport{}, ErrSeedUnauthorized
	}

	report := dto.SeedReport{DemoUser: DemoEmail, DemoPassword: DemoPassword, PostIDs: []string{}}

	profile, err := s.auth.SignUp(ctx, dto.SignUpRequest{Email: DemoEmail, Password: DemoPassword, Username: DemoUsername})
	switch {
	case err == nil:
	case errors.Is(err, ErrEmailTaken):
		userID, lookupErr := s.users.LookupEmail(ctx, DemoEmail)
		if lookupErr != nil {
			return dto.SeedReport{}, fmt.Errorf("lookup demo user: %w", lookupErr)
		}
		report.UserID = userID
		report.AlreadySeeded = true
		s.logger.Info().Str("user_id", userID).Msg("demo user already exists")
		return report, nil
	default:
		return dto.SeedReport{}, fmt.Errorf("create demo user: %w", err)
	}

	profile, err = s.users.Update(ctx, profile.ID, func(p *models.UserProfile) error {
		p.Verified = true
		p.Bio = demoBio
		return nil
	})
	if err != nil {
		return dto.SeedReport{}, fmt.Errorf("verify demo user: %w", err)
	}
	report.UserID = profile.ID

	now := s.now()
	for _, sample := range samplePosts {
		post := models.NewPost(uuid.NewString(), profile, sample.draft, now.Add(-sample.age))
		post.Timestamp = sample.label
		if err := s.posts.Create(ctx, post); err != nil {
			return report, fmt.Errorf("create sample post: %w", err)
		}
		if _, err := s.posts.AppendUserPost(ctx, profile.ID, post.ID); err != nil {
			return report, fmt.Errorf("index sample post: %w", err)
		}
		report.PostIDs = append(report.PostIDs, post.ID)
	}
	report.PostsCreated = len(report.PostIDs)

	if len(report.PostIDs) > 0 {
		first := report.PostIDs[0]
		_, err := s.comments.Update(ctx, first, func(forest []models.Comment) ([]models.Comment, error) {
			out := make([]models.Comment, len(forest), len(forest)+len(sampleComments))
			copy(out, forest)
			for i, sample := range sampleComments {
				comment := models.NewComment(uuid.NewString(), profile, sample.content, now.Add(-time.Duration(len(sampleComments)-i)*time.Minute))
				comment.Timestamp = sample.label
				out = append(out, comment)
			}
			return out, nil
		})
		if err != nil {
			return report, fmt.Errorf("create sample comments: %w", err)
		}
		if _, err := s.posts.Update(ctx, first, func(p *models.Post) error {
			p.Reactions.Comments += len(sampleComments)
			return nil
		}); err != nil {
			return report, fmt.Errorf("count sample comments: %w", err)
		}
		report.CommentsCreated = len(sampleComments)
	}

	s.logger.Info().Str("user_id", profile.ID).Int("posts", report.PostsCreated).Int("comments", report.CommentsCreated).Msg("database seeded")
	return report, nil
}

func (s *seedService) validateToken(token string) bool {
	expected := strings.TrimSpace(s.token)
	if expected == "" {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(strings.TrimSpace(token))) == 1
}
