package constants

import (
	"encoding/json"
	"time"
)

// RecurrenceType represents how a recurring routine resets
type RecurrenceType string

// Direction selects which way routine navigation scans
type Direction string

const (
	AppName             = "routinely"
	DefaultKeyringUser  = "database-connection"
	DefaultConfigPath   = "~/.config/routinely/routinely.db"
	DefaultSettingsFile = "config.yaml"
	ConnectionEnvVar    = "ROUTINELY_DB_CONNECTION"
	MemoryConfig        = ":memory:"
	KeyringConfig       = "keyring"
	Version             = "v0.3.0"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// Progression constants
	XPPerLevel        = 100
	MaxHistoryEntries = 1000
	WeeklyResetDays   = 7
	DefaultTaskPoints = 10
	DefaultNoteColor  = "#6366f1"
	MillisPerDay      = int64(24 * time.Hour / time.Millisecond)

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "routinely-"
	BackupFileSuffix = ".json"
	BackupVersion    = "1.0.0"

	// Notify constants
	NotifierLockfileName   = "routinely-notifier.lock"
	NotificationDurationMs = 5000
	TrayAppIdentifier      = "com.julianstephens.routinely"
	TrayAppExecutable      = "routinely-tray"

	// Recurrence constants
	RecurrenceNone   RecurrenceType = ""
	RecurrenceDaily  RecurrenceType = "daily"
	RecurrenceWeekly RecurrenceType = "weekly"

	// Navigation directions
	DirectionNext     Direction = "next"
	DirectionPrevious Direction = "previous"
)

// MarshalJSON writes RecurrenceNone as null, the stored shape for a
// routine that does not repeat.
func (r RecurrenceType) MarshalJSON() ([]byte, error) {
	if r == RecurrenceNone {
		return []byte("null"), nil
	}
	return json.Marshal(string(r))
}
