package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/routinely/internal/constants"
	"github.com/julianstephens/routinely/internal/logger"
	"github.com/julianstephens/routinely/internal/models"
	"github.com/julianstephens/routinely/internal/progress"
	"github.com/julianstephens/routinely/internal/storage"
	"github.com/julianstephens/routinely/internal/streak"
	"github.com/julianstephens/routinely/internal/utils"
	"github.com/julianstephens/routinely/internal/validation"
)

const timestampFormat = "20060102-150405"

// ErrPartialRestore means a restore stopped after some keys were written.
var ErrPartialRestore = errors.New("restore interrupted, stored data may be partially overwritten")

// Snapshot is the on-disk backup document. Pointer fields are absent from
// the source store when nil.
type Snapshot struct {
	Version         string                `json:"version"`
	Timestamp       int64                 `json:"timestamp"`
	Routines        []models.Routine      `json:"routines"`
	ActiveRoutineID *string               `json:"activeRoutineId"`
	Achievements    []models.Achievement  `json:"achievements"`
	RoutineHistory  []models.HistoryEntry `json:"routineHistory"`
	TotalXP         int                   `json:"totalXP"`
	Streak          models.StreakState    `json:"streak"`
	PetType         *string               `json:"petType"`
	PetName         *string               `json:"petName"`
	UserName        *string               `json:"userName"`
	// CalendarEvents is carried verbatim; nothing in routinely reads it.
	CalendarEvents json.RawMessage `json:"calendarEvents"`
	// Notes is nil in backups written before notes were captured, and
	// restoring those leaves the stored notes alone.
	Notes []models.Note `json:"notes"`
}

// BackupInfo contains information about a backup file
type BackupInfo struct {
	Path      string
	Timestamp time.Time
	Size      int64
}

// Manager handles backup operations
type Manager struct {
	kv         storage.KeyValueStore
	backupDir  string
	maxBackups int
	now        utils.Clock
}

// NewManager creates a backup manager writing into backupDir. A
// non-positive maxBackups keeps the default retention.
func NewManager(kv storage.KeyValueStore, backupDir string, maxBackups int, clock utils.Clock) *Manager {
	if maxBackups <= 0 {
		maxBackups = constants.MaxBackups
	}
	return &Manager{
		kv:         kv,
		backupDir:  backupDir,
		maxBackups: maxBackups,
		now:        clock.OrSystem(),
	}
}

// DefaultDir places backups next to a file-backed store, or under the
// default config directory for everything else.
func DefaultDir(configPath string) (string, error) {
	if configPath == "" || configPath == constants.MemoryConfig || configPath == constants.KeyringConfig ||
		strings.HasPrefix(configPath, "postgres://") || strings.HasPrefix(configPath, "postgresql://") {
		configPath = constants.DefaultConfigPath
	}
	expanded, err := utils.ExpandHome(configPath)
	if err != nil {
		return "", err
	}
	return filepath.Join(filepath.Dir(expanded), constants.BackupDirName), nil
}

// GetBackupDir returns the backup directory path
func (m *Manager) GetBackupDir() string {
	return m.backupDir
}

func (m *Manager) ensureBackupDir() error {
	return os.MkdirAll(m.backupDir, 0700)
}

// Capture reads every backed-up key into a snapshot.
func (m *Manager) Capture(ctx context.Context) (Snapshot, error) {
	snap := Snapshot{
		Version:   constants.BackupVersion,
		Timestamp: utils.ToMillis(m.now()),
	}

	if _, err := storage.GetJSON(ctx, m.kv, constants.KeyRoutines, &snap.Routines); err != nil {
		return snap, err
	}
	if _, err := storage.GetJSON(ctx, m.kv, constants.KeyAchievements, &snap.Achievements); err != nil {
		return snap, err
	}
	if _, err := storage.GetJSON(ctx, m.kv, constants.KeyRoutineHistory, &snap.RoutineHistory); err != nil {
		return snap, err
	}

	xp, err := progress.NewLedger(m.kv).GetXP(ctx)
	if err != nil {
		return snap, err
	}
	snap.TotalXP = xp

	st, err := streak.NewTracker(m.kv, m.now).State(ctx)
	if err != nil {
		return snap, err
	}
	snap.Streak = st

	if _, err := storage.GetJSON(ctx, m.kv, constants.KeyNotes, &snap.Notes); err != nil {
		return snap, err
	}
	snap.Notes = nonNil(snap.Notes)

	events, ok, err := m.kv.Get(ctx, constants.KeyCalendarEvents)
	if err != nil {
		return snap, fmt.Errorf("failed to read %s: %w", constants.KeyCalendarEvents, err)
	}
	if ok && json.Valid([]byte(events)) {
		snap.CalendarEvents = json.RawMessage(events)
	} else {
		snap.CalendarEvents = json.RawMessage("[]")
	}

	for key, dst := range m.optionalFields(&snap) {
		v, ok, err := m.kv.Get(ctx, key)
		if err != nil {
			return snap, fmt.Errorf("failed to read %s: %w", key, err)
		}
		if ok {
			*dst = &v
		}
	}

	if snap.Routines == nil {
		snap.Routines = []models.Routine{}
	}
	return snap, nil
}

func (m *Manager) optionalFields(snap *Snapshot) map[string]**string {
	return map[string]**string{
		constants.KeyActiveRoutineID: &snap.ActiveRoutineID,
		constants.KeyPetType:         &snap.PetType,
		constants.KeyPetName:         &snap.PetName,
		constants.KeyUserName:        &snap.UserName,
	}
}

// CreateBackup writes a new snapshot file and rotates old ones.
func (m *Manager) CreateBackup(ctx context.Context) (string, error) {
	return m.createBackup(ctx, false)
}

// skipRotation keeps a pre-restore backup from pushing out the file being restored
func (m *Manager) createBackup(ctx context.Context, skipRotation bool) (string, error) {
	if err := m.ensureBackupDir(); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	snap, err := m.Capture(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to capture state: %w", err)
	}

	backupPath, err := m.uniquePath(m.now())
	if err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode backup: %w", err)
	}
	if err := writeFileAtomic(backupPath, data); err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}
	logger.Info("Backup created", "path", backupPath, "routines", len(snap.Routines))

	if !skipRotation {
		if err := m.rotateBackups(); err != nil {
			logger.Warn("Failed to rotate old backups", "error", err)
		}
	}

	return backupPath, nil
}

func (m *Manager) uniquePath(now time.Time) (string, error) {
	timestamp := now.Format(timestampFormat)
	path := filepath.Join(m.backupDir, constants.BackupFilePrefix+timestamp+constants.BackupFileSuffix)
	for counter := 1; ; counter++ {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path, nil
		}
		if counter > 100 {
			return "", fmt.Errorf("failed to generate unique backup filename")
		}
		name := fmt.Sprintf("%s%s-%d%s", constants.BackupFilePrefix, timestamp, counter, constants.BackupFileSuffix)
		path = filepath.Join(m.backupDir, name)
	}
}

// parseBackupName extracts the timestamp and collision counter from a backup file name.
func parseBackupName(name string) (time.Time, int, bool) {
	if !strings.HasPrefix(name, constants.BackupFilePrefix) || !strings.HasSuffix(name, constants.BackupFileSuffix) {
		return time.Time{}, 0, false
	}
	stamp := strings.TrimSuffix(strings.TrimPrefix(name, constants.BackupFilePrefix), constants.BackupFileSuffix)

	counter := 0
	if parts := strings.Split(stamp, "-"); len(parts) == 3 {
		n, err := strconv.Atoi(parts[2])
		if err != nil {
			return time.Time{}, 0, false
		}
		counter = n
		stamp = parts[0] + "-" + parts[1]
	}

	ts, err := time.ParseInLocation(timestampFormat, stamp, time.Local)
	if err != nil {
		return time.Time{}, 0, false
	}
	return ts, counter, true
}

// ListBackups returns all available backups, newest first
func (m *Manager) ListBackups() ([]BackupInfo, error) {
	if _, err := os.Stat(m.backupDir); os.IsNotExist(err) {
		return []BackupInfo{}, nil
	}

	entries, err := os.ReadDir(m.backupDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	type listed struct {
		BackupInfo
		counter int
	}
	var found []listed
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ts, counter, ok := parseBackupName(entry.Name())
		if !ok {
			continue
		}
		path := filepath.Join(m.backupDir, entry.Name())
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		found = append(found, listed{BackupInfo{Path: path, Timestamp: ts, Size: info.Size()}, counter})
	}

	sort.SliceStable(found, func(i, j int) bool {
		if !found[i].Timestamp.Equal(found[j].Timestamp) {
			return found[i].Timestamp.After(found[j].Timestamp)
		}
		return found[i].counter > found[j].counter
	})

	backups := make([]BackupInfo, len(found))
	for i, f := range found {
		backups[i] = f.BackupInfo
	}
	return backups, nil
}

// rotateBackups removes old backups beyond the retention limit
func (m *Manager) rotateBackups() error {
	backups, err := m.ListBackups()
	if err != nil {
		return err
	}
	for i := m.maxBackups; i < len(backups); i++ {
		if err := os.Remove(backups[i].Path); err != nil {
			return fmt.Errorf("failed to remove old backup %s: %w", backups[i].Path, err)
		}
	}
	return nil
}

// ReadSnapshot loads and validates a backup file without touching the store.
func ReadSnapshot(path string) (Snapshot, error) {
	var snap Snapshot
	data, err := os.ReadFile(path)
	if err != nil {
		return snap, fmt.Errorf("failed to read backup file: %w", err)
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		return snap, fmt.Errorf("backup file is corrupted or invalid: %w", err)
	}
	if err := Verify(snap); err != nil {
		return snap, err
	}
	return snap, nil
}

// Verify rejects snapshots from an unknown major version or whose routines
// or streak would fail the collection audit. A dangling active pointer is
// tolerated; it is re-resolved on the next load.
func Verify(snap Snapshot) error {
	major, _, _ := strings.Cut(snap.Version, ".")
	wantMajor, _, _ := strings.Cut(constants.BackupVersion, ".")
	if major != wantMajor {
		return fmt.Errorf("unsupported backup version %q", snap.Version)
	}

	vr := validation.New().ValidateCollection(snap.Routines, "", snap.Streak)
	if vr.HasConflicts() {
		return fmt.Errorf("backup contains invalid data:\n%s", vr.FormatReport())
	}
	if snap.TotalXP < 0 {
		return fmt.Errorf("backup has negative XP (%d)", snap.TotalXP)
	}
	return nil
}

// RestoreBackup replaces the stored state with the contents of a backup
// file. The whole file is validated before anything is written, and the
// current state is backed up first.
func (m *Manager) RestoreBackup(ctx context.Context, backupPath string) (string, error) {
	if _, err := os.Stat(backupPath); os.IsNotExist(err) {
		return "", fmt.Errorf("backup file does not exist: %s", backupPath)
	}

	snap, err := ReadSnapshot(backupPath)
	if err != nil {
		return "", err
	}

	current, err := m.createBackup(ctx, true)
	if err != nil {
		return "", fmt.Errorf("failed to backup current state before restore: %w", err)
	}

	if err := m.apply(ctx, snap); err != nil {
		return current, fmt.Errorf("%w; restore the pre-restore backup %s to roll back: %w", ErrPartialRestore, current, err)
	}
	logger.Info("Backup restored", "path", backupPath, "pre_restore", current)
	return current, nil
}

func (m *Manager) apply(ctx context.Context, snap Snapshot) error {
	routines := snap.Routines
	if routines == nil {
		routines = []models.Routine{}
	}
	if err := storage.SetJSON(ctx, m.kv, constants.KeyRoutines, routines); err != nil {
		return err
	}
	if err := storage.SetJSON(ctx, m.kv, constants.KeyAchievements, nonNil(snap.Achievements)); err != nil {
		return err
	}
	if err := storage.SetJSON(ctx, m.kv, constants.KeyRoutineHistory, nonNil(snap.RoutineHistory)); err != nil {
		return err
	}
	if err := storage.SetInt(ctx, m.kv, constants.KeyUserXP, snap.TotalXP); err != nil {
		return err
	}
	if err := storage.SetInt(ctx, m.kv, constants.KeyCurrentStreak, snap.Streak.Current); err != nil {
		return err
	}
	if err := storage.SetInt(ctx, m.kv, constants.KeyBestStreak, snap.Streak.Best); err != nil {
		return err
	}
	if err := m.setOrRemove(ctx, constants.KeyLastCompletionDate, snap.Streak.LastCompletionDate); err != nil {
		return err
	}

	for key, src := range m.optionalFields(&snap) {
		v := ""
		if *src != nil {
			v = **src
		}
		if err := m.setOrRemove(ctx, key, v); err != nil {
			return err
		}
	}

	if snap.Notes != nil {
		if err := storage.SetJSON(ctx, m.kv, constants.KeyNotes, snap.Notes); err != nil {
			return err
		}
	}
	if events := snap.CalendarEvents; len(events) > 0 && string(events) != "null" {
		var compact bytes.Buffer
		if err := json.Compact(&compact, events); err != nil {
			return fmt.Errorf("failed to encode %s: %w", constants.KeyCalendarEvents, err)
		}
		if err := m.kv.Set(ctx, constants.KeyCalendarEvents, compact.String()); err != nil {
			return fmt.Errorf("failed to write %s: %w", constants.KeyCalendarEvents, err)
		}
	}
	return nil
}

func (m *Manager) setOrRemove(ctx context.Context, key, value string) error {
	var err error
	if value == "" {
		err = m.kv.Remove(ctx, key)
	} else {
		err = m.kv.Set(ctx, key, value)
	}
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
