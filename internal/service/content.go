package service

import (
	"context"
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/noah-isme/subnets-api/internal/models"
	"github.com/noah-isme/subnets-api/internal/repository"
)

var mentionPattern = regexp.MustCompile(`@([a-zA-Z0-9_\-]+)`)

// textSanitizer strips markup from user supplied text. Content is stored as plain
// text, so entities escaped by the policy are decoded again. Encoded input such as
// "&lt;b&gt;" therefore comes back as a literal "<b>": cleaned text is not safe to
// embed in HTML and clients must escape it when rendering.
type textSanitizer struct {
	policy *bluemonday.Policy
}

func newTextSanitizer() textSanitizer {
	return textSanitizer{policy: bluemonday.StrictPolicy()}
}

func (t textSanitizer) Clean(value string) string {
	return strings.TrimSpace(html.UnescapeString(t.policy.Sanitize(value)))
}

func extractMentions(content string) []string {
	matches := mentionPattern.FindAllStringSubmatch(content, -1)
	mentions := make([]string, 0, len(matches))
	seen := make(map[string]struct{}, len(matches))
	for _, match := range matches {
		if len(match) < 2 {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(match[1]))
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		mentions = append(mentions, name)
	}
	return mentions
}

// notifyMentions notifies every user named with @username in content, except
// the author and anyone in skip.
func notifyMentions(ctx context.Context, users repository.UserRepository, notifier Notifier, logger zerolog.Logger, author models.UserProfile, content, postID string, skip map[string]struct{}) {
	if notifier == nil {
		return
	}
	names := extractMentions(content)
	if len(names) == 0 {
		return
	}

	profiles, err := users.List(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to resolve mentions")
		return
	}

	wanted := make(map[string]struct{}, len(names))
	for _, name := range names {
		wanted[name] = struct{}{}
	}

	actor := author.Snapshot()
	for _, profile := range profiles {
		if _, ok := wanted[strings.ToLower(profile.Username)]; !ok {
			continue
		}
		if profile.ID == author.ID {
			continue
		}
		if _, ok := skip[profile.ID]; ok {
			continue
		}
		message := author.Username + " mentioned you"
		if _, err := notifier.Notify(ctx, profile.ID, models.NotificationMention, &actor, message, postID); err != nil {
			logger.Warn().Err(err).Str("user_id", profile.ID).Msg("failed to publish mention notification")
		}
	}
}
