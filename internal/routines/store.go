// Package routines owns the routine collection and the active-routine
// pointer. It is the only writer of the "routines" and "activeRoutineId"
// keys.
package routines

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/julianstephens/routinely/internal/constants"
	"github.com/julianstephens/routinely/internal/logger"
	"github.com/julianstephens/routinely/internal/models"
	"github.com/julianstephens/routinely/internal/storage"
	"github.com/julianstephens/routinely/internal/utils"
	"github.com/julianstephens/routinely/internal/validation"
)

var (
	ErrRoutineNotFound  = errors.New("routine not found")
	ErrTaskNotFound     = errors.New("task not found")
	ErrRoutineCompleted = errors.New("completed routines cannot be edited")
)

type Store struct {
	kv        storage.KeyValueStore
	now       utils.Clock
	validator *validation.Validator

	// mu makes each read-modify-write of the collection atomic
	mu sync.Mutex
}

func NewStore(kv storage.KeyValueStore, clock utils.Clock) *Store {
	return &Store{
		kv:        kv,
		now:       clock.OrSystem(),
		validator: validation.New(),
	}
}

// Sort orders routines by creation time, oldest first. Ties keep their
// relative order.
func Sort(routines []models.Routine) {
	sort.SliceStable(routines, func(i, j int) bool {
		return routines[i].SortKey() < routines[j].SortKey()
	})
}

func indexOf(routines []models.Routine, id string) int {
	for i, r := range routines {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// load reads and sorts the collection. Missing or malformed data is an
// empty collection; exists reports whether the key was present at all.
func (s *Store) load(ctx context.Context) (routines []models.Routine, exists bool, err error) {
	raw, exists, err := s.kv.Get(ctx, constants.KeyRoutines)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read routines: %w", err)
	}
	if exists && strings.TrimSpace(raw) != "" {
		if err := json.Unmarshal([]byte(raw), &routines); err != nil {
			logger.Warn("Ignoring malformed routine collection", "error", err)
			routines = nil
		}
	}
	for i := range routines {
		if routines[i].Tasks == nil {
			routines[i].Tasks = []models.Task{}
		}
	}
	Sort(routines)
	return routines, exists, nil
}

func (s *Store) save(ctx context.Context, routines []models.Routine) error {
	if routines == nil {
		routines = []models.Routine{}
	}
	Sort(routines)
	return storage.SetJSON(ctx, s.kv, constants.KeyRoutines, routines)
}

func (s *Store) activeID(ctx context.Context) (string, error) {
	return storage.GetString(ctx, s.kv, constants.KeyActiveRoutineID)
}

func (s *Store) setActiveID(ctx context.Context, id string) error {
	if err := s.kv.Set(ctx, constants.KeyActiveRoutineID, id); err != nil {
		return fmt.Errorf("failed to write active routine: %w", err)
	}
	return nil
}

func (s *Store) clearActiveID(ctx context.Context) error {
	if err := s.kv.Remove(ctx, constants.KeyActiveRoutineID); err != nil {
		return fmt.Errorf("failed to clear active routine: %w", err)
	}
	return nil
}

// List returns the sorted collection without touching the active pointer.
func (s *Store) List(ctx context.Context) ([]models.Routine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	routines, _, err := s.load(ctx)
	return routines, err
}

// Get returns one routine by id.
func (s *Store) Get(ctx context.Context, id string) (models.Routine, error) {
	routines, err := s.List(ctx)
	if err != nil {
		return models.Routine{}, err
	}
	i := indexOf(routines, id)
	if i < 0 {
		return models.Routine{}, fmt.Errorf("%w: %s", ErrRoutineNotFound, id)
	}
	return routines[i], nil
}

// ActiveID returns the stored pointer, which may be dangling. Callers
// that need a valid routine use LoadActiveRoutine.
func (s *Store) ActiveID(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID(ctx)
}

// Mutate runs fn over the loaded collection and persists the result, all
// under the store lock. Returning an error from fn discards the changes.
func (s *Store) Mutate(ctx context.Context, fn func([]models.Routine) ([]models.Routine, error)) ([]models.Routine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	routines, _, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	routines, err = fn(routines)
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, routines); err != nil {
		return nil, err
	}
	return routines, nil
}

// resolveIndex applies the active-routine priority chain: the stored
// pointer when it exists and is not completed, else the first incomplete
// routine, else the first routine. It returns -1 for an empty collection.
func resolveIndex(routines []models.Routine, storedID string) int {
	if storedID != "" {
		if i := indexOf(routines, storedID); i >= 0 && !routines[i].Completed {
			return i
		}
	}
	return fallbackIndex(routines)
}

// fallbackIndex is the chain without the stored pointer.
func fallbackIndex(routines []models.Routine) int {
	for i, r := range routines {
		if !r.Completed {
			return i
		}
	}
	if len(routines) > 0 {
		return 0
	}
	return -1
}

// LoadActiveRoutine loads the sorted collection and resolves the active
// routine. The pointer is rewritten whenever the resolution differs from
// what was stored, and removed when the collection is empty.
func (s *Store) LoadActiveRoutine(ctx context.Context) (*models.Routine, []models.Routine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	routines, _, err := s.load(ctx)
	if err != nil {
		return nil, nil, err
	}
	storedID, err := s.activeID(ctx)
	if err != nil {
		return nil, nil, err
	}

	i := resolveIndex(routines, storedID)
	if i < 0 {
		if storedID != "" {
			logger.Debug("Clearing active routine, collection is empty", "id", storedID)
			if err := s.clearActiveID(ctx); err != nil {
				return nil, routines, err
			}
		}
		return nil, routines, nil
	}

	active := routines[i].Clone()
	if active.ID != storedID {
		logger.Debug("Active routine re-resolved", "from", storedID, "to", active.ID)
		if err := s.setActiveID(ctx, active.ID); err != nil {
			return nil, routines, err
		}
	}
	return &active, routines, nil
}

// SetActive points the active routine at id.
func (s *Store) SetActive(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	routines, _, err := s.load(ctx)
	if err != nil {
		return err
	}
	if indexOf(routines, id) < 0 {
		return fmt.Errorf("%w: %s", ErrRoutineNotFound, id)
	}
	return s.setActiveID(ctx, id)
}

// DeleteRoutine removes a routine. When it was the active one the pointer
// moves to the first incomplete routine, else the first routine, else it
// is cleared. Unknown ids are a no-op.
func (s *Store) DeleteRoutine(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	routines, _, err := s.load(ctx)
	if err != nil {
		return err
	}
	i := indexOf(routines, id)
	if i < 0 {
		return nil
	}

	routines = append(routines[:i], routines[i+1:]...)
	if err := s.save(ctx, routines); err != nil {
		return err
	}
	logger.Info("Routine deleted", "id", id)

	storedID, err := s.activeID(ctx)
	if err != nil {
		return err
	}
	if storedID != id {
		return nil
	}

	next := fallbackIndex(routines)
	if next < 0 {
		return s.clearActiveID(ctx)
	}
	return s.setActiveID(ctx, routines[next].ID)
}
