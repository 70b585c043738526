// Package notes keeps free-form notes under the "notes" key, pinned notes
// first and the most recently updated next.
package notes

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/julianstephens/routinely/internal/constants"
	"github.com/julianstephens/routinely/internal/logger"
	"github.com/julianstephens/routinely/internal/models"
	"github.com/julianstephens/routinely/internal/storage"
	"github.com/julianstephens/routinely/internal/utils"
)

var (
	ErrNoteNotFound = errors.New("note not found")
	ErrEmptyNote    = errors.New("a note needs a title or content")
)

type Store struct {
	kv  storage.KeyValueStore
	now utils.Clock

	mu sync.Mutex
}

func NewStore(kv storage.KeyValueStore, clock utils.Clock) *Store {
	return &Store{kv: kv, now: clock.OrSystem()}
}

// Sort puts pinned notes first, then orders by updatedAt, newest first.
func Sort(notes []models.Note) {
	sort.SliceStable(notes, func(i, j int) bool {
		if notes[i].Pinned != notes[j].Pinned {
			return notes[i].Pinned
		}
		return notes[i].UpdatedAt > notes[j].UpdatedAt
	})
}

func (s *Store) load(ctx context.Context) ([]models.Note, error) {
	var notes []models.Note
	if _, err := storage.GetJSON(ctx, s.kv, constants.KeyNotes, &notes); err != nil {
		return nil, err
	}
	return notes, nil
}

func (s *Store) save(ctx context.Context, notes []models.Note) error {
	Sort(notes)
	if notes == nil {
		notes = []models.Note{}
	}
	if err := storage.SetJSON(ctx, s.kv, constants.KeyNotes, notes); err != nil {
		return fmt.Errorf("failed to save notes: %w", err)
	}
	return nil
}

func indexOf(notes []models.Note, id string) int {
	for i, n := range notes {
		if n.ID == id {
			return i
		}
	}
	return -1
}

// List returns every note in display order.
func (s *Store) List(ctx context.Context) ([]models.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	notes, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	Sort(notes)
	return notes, nil
}

// Add creates a note. Ids are creation-time epoch milliseconds, bumped
// past any id already taken.
func (s *Store) Add(ctx context.Context, title, content string) (models.Note, error) {
	title, content = strings.TrimSpace(title), strings.TrimSpace(content)
	if title == "" && content == "" {
		return models.Note{}, ErrEmptyNote
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	notes, err := s.load(ctx)
	if err != nil {
		return models.Note{}, err
	}

	ms := utils.ToMillis(s.now())
	id := strconv.FormatInt(ms, 10)
	for indexOf(notes, id) >= 0 {
		ms++
		id = strconv.FormatInt(ms, 10)
	}

	n := models.Note{
		ID:        id,
		Title:     title,
		Content:   content,
		CreatedAt: ms,
		UpdatedAt: ms,
		Color:     constants.DefaultNoteColor,
	}
	if err := s.save(ctx, append(notes, n)); err != nil {
		return models.Note{}, err
	}
	logger.Debug("Note created", "id", n.ID)
	return n, nil
}

// update applies fn to one note and stamps updatedAt.
func (s *Store) update(ctx context.Context, id string, fn func(*models.Note) error) (models.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	notes, err := s.load(ctx)
	if err != nil {
		return models.Note{}, err
	}
	i := indexOf(notes, id)
	if i < 0 {
		return models.Note{}, fmt.Errorf("%w: %s", ErrNoteNotFound, id)
	}
	if err := fn(&notes[i]); err != nil {
		return models.Note{}, err
	}
	notes[i].UpdatedAt = utils.ToMillis(s.now())
	updated := notes[i]
	if err := s.save(ctx, notes); err != nil {
		return models.Note{}, err
	}
	return updated, nil
}

// Edit replaces the title and/or content. Nil leaves a field unchanged.
func (s *Store) Edit(ctx context.Context, id string, title, content *string) (models.Note, error) {
	return s.update(ctx, id, func(n *models.Note) error {
		t, c := n.Title, n.Content
		if title != nil {
			t = strings.TrimSpace(*title)
		}
		if content != nil {
			c = strings.TrimSpace(*content)
		}
		if t == "" && c == "" {
			return ErrEmptyNote
		}
		n.Title, n.Content = t, c
		return nil
	})
}

func (s *Store) SetPinned(ctx context.Context, id string, pinned bool) (models.Note, error) {
	return s.update(ctx, id, func(n *models.Note) error {
		n.Pinned = pinned
		return nil
	})
}

// Delete removes a note. Unknown ids are a no-op.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	notes, err := s.load(ctx)
	if err != nil {
		return err
	}
	i := indexOf(notes, id)
	if i < 0 {
		return nil
	}
	if err := s.save(ctx, append(notes[:i], notes[i+1:]...)); err != nil {
		return err
	}
	logger.Debug("Note deleted", "id", id)
	return nil
}
