package achievements

import "github.com/julianstephens/routinely/internal/models"

// Stats is the snapshot the threshold checks are evaluated against.
type Stats struct {
	Streak            int
	XP                int
	Level             int
	CompletedRoutines int
}

// Definition pairs a catalog entry with its unlock condition. A nil
// condition means the achievement is only unlocked explicitly.
type Definition struct {
	ID          string
	Title       string
	Description string
	Icon        string
	Condition   func(Stats) bool
}

const (
	FirstRoutine = "first_routine"
	Streak7      = "streak_7"
	Streak30     = "streak_30"
	XP1000       = "xp_1000"
	XP5000       = "xp_5000"
	Level10      = "level_10"
	Routines10   = "routines_10"
	Routines50   = "routines_50"
)

var catalog = []Definition{
	{
		ID:          FirstRoutine,
		Title:       "First Step",
		Description: "Complete your first routine",
		Icon:        "🎯",
	},
	{
		ID:          Streak7,
		Title:       "Perfect Week",
		Description: "Keep a 7-day streak",
		Icon:        "🔥",
		Condition:   func(s Stats) bool { return s.Streak >= 7 },
	},
	{
		ID:          Streak30,
		Title:       "Month of Success",
		Description: "Keep a 30-day streak",
		Icon:        "⭐",
		Condition:   func(s Stats) bool { return s.Streak >= 30 },
	},
	{
		ID:          XP1000,
		Title:       "Expert",
		Description: "Reach 1000 XP",
		Icon:        "💎",
		Condition:   func(s Stats) bool { return s.XP >= 1000 },
	},
	{
		ID:          XP5000,
		Title:       "Master",
		Description: "Reach 5000 XP",
		Icon:        "👑",
		Condition:   func(s Stats) bool { return s.XP >= 5000 },
	},
	{
		ID:          Level10,
		Title:       "High Level",
		Description: "Reach level 10",
		Icon:        "🚀",
		Condition:   func(s Stats) bool { return s.Level >= 10 },
	},
	{
		ID:          Routines10,
		Title:       "Productive",
		Description: "Complete 10 routines",
		Icon:        "📚",
		Condition:   func(s Stats) bool { return s.CompletedRoutines >= 10 },
	},
	{
		ID:          Routines50,
		Title:       "Super Productive",
		Description: "Complete 50 routines",
		Icon:        "🏆",
		Condition:   func(s Stats) bool { return s.CompletedRoutines >= 50 },
	},
}

func lookup(id string) (Definition, bool) {
	for _, d := range catalog {
		if d.ID == id {
			return d, true
		}
	}
	return Definition{}, false
}

func (d Definition) locked() models.Achievement {
	return models.Achievement{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		Icon:        d.Icon,
	}
}
