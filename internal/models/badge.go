package models

// BadgeRarity grades how hard a badge is to unlock.
type BadgeRarity string

const (
	RarityCommon    BadgeRarity = "common"
	RarityRare      BadgeRarity = "rare"
	RarityEpic      BadgeRarity = "epic"
	RarityLegendary BadgeRarity = "legendary"
)

// BadgeProgress tracks how far a user is from unlocking a badge.
type BadgeProgress struct {
	Current int `json:"current"`
	Total   int `json:"total"`
}

// Badge is a presentation-only achievement. Badges are never persisted; the
// profile only stores the ids of unlocked badges.
type Badge struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Icon        string         `json:"icon"`
	Rarity      BadgeRarity    `json:"rarity"`
	UnlockedAt  *string        `json:"unlockedAt,omitempty"`
	Progress    *BadgeProgress `json:"progress,omitempty"`
}

// BadgeDefinition pairs a catalogue badge with the post count that unlocks it.
// A zero PostGoal means the badge is granted manually.
type BadgeDefinition struct {
	Badge    Badge
	PostGoal int
}

// BadgeCatalogue is the static list of badges offered by the app.
var BadgeCatalogue = []BadgeDefinition{
	{
		Badge: Badge{
			ID:          "b1",
			Name:        "Theory Master",
			Description: "Create 10 theories that get 100+ upvotes",
			Icon:        "🧠",
			Rarity:      RarityEpic,
		},
	},
	{
		Badge: Badge{
			ID:          "b2",
			Name:        "First Post",
			Description: "Share your first theory",
			Icon:        "🎬",
			Rarity:      RarityCommon,
		},
		PostGoal: 1,
	},
	{
		Badge: Badge{
			ID:          "b3",
			Name:        "Spoiler Hunter",
			Description: "Correctly predict 5 plot twists",
			Icon:        "🔮",
			Rarity:      RarityLegendary,
		},
	},
	{
		Badge: Badge{
			ID:          "b4",
			Name:        "Binge Watcher",
			Description: "Share 50 theories",
			Icon:        "📺",
			Rarity:      RarityRare,
		},
		PostGoal: 50,
	},
}
