package constants

// Store keys. Each service owns the keys it reads and writes; nothing else
// touches them directly.
const (
	KeyRoutines           = "routines"
	KeyActiveRoutineID    = "activeRoutineId"
	KeyUserXP             = "USER_XP"
	KeyCurrentStreak      = "CURRENT_STREAK"
	KeyBestStreak         = "BEST_STREAK"
	KeyLastCompletionDate = "LAST_COMPLETION_DATE"
	KeyAchievements       = "achievements"
	KeyRoutineHistory     = "routineHistory"
	KeyNotes              = "notes"

	// Calendar events are not interpreted, only carried through backups
	KeyCalendarEvents = "calendarEvents"

	// Cosmetic profile keys, seeded from settings at init
	KeyPetType  = "petType"
	KeyPetName  = "petName"
	KeyUserName = "userName"
)
