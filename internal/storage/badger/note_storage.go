package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/rednote/internal/interfaces"
	"github.com/ternarybob/rednote/pkg/models"
	"github.com/timshannon/badgerhold/v4"
)

// NoteStorage implements the NoteStorage interface for Badger
type NoteStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewNoteStorage creates a new NoteStorage instance
func NewNoteStorage(db *BadgerDB, logger arbor.ILogger) interfaces.NoteStorage {
	return &NoteStorage{
		db:     db,
		logger: logger,
	}
}

// Save upserts a cached note keyed by note ID
func (s *NoteStorage) Save(ctx context.Context, note *models.CachedNote) error {
	if note.ID == "" {
		return fmt.Errorf("note ID is required")
	}
	if note.FetchedAt.IsZero() {
		note.FetchedAt = time.Now()
	}

	if err := s.db.Store().Upsert(note.ID, note); err != nil {
		return fmt.Errorf("failed to save note: %w", err)
	}
	return nil
}

// GetByID retrieves a cached note by note ID
func (s *NoteStorage) GetByID(ctx context.Context, id string) (*models.CachedNote, error) {
	var note models.CachedNote
	if err := s.db.Store().Get(id, &note); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, interfaces.ErrNoteNotFound
		}
		return nil, fmt.Errorf("failed to get note: %w", err)
	}
	return &note, nil
}

// GetByURL retrieves a cached note by the raw URL it was scraped from.
// The same note reached through different URLs (share links carry volatile
// query tokens) yields separate URL values but one ID, so callers fall
// back to an ID lookup on a miss here.
func (s *NoteStorage) GetByURL(ctx context.Context, url string) (*models.CachedNote, error) {
	var notes []models.CachedNote
	err := s.db.Store().Find(&notes, badgerhold.Where("URL").Eq(url))
	if err != nil {
		return nil, fmt.Errorf("failed to find note by url: %w", err)
	}
	if len(notes) == 0 {
		return nil, interfaces.ErrNoteNotFound
	}
	return &notes[0], nil
}

// Delete removes a cached note; deleting a missing note is not an error
func (s *NoteStorage) Delete(ctx context.Context, id string) error {
	if err := s.db.Store().Delete(id, &models.CachedNote{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil
		}
		return fmt.Errorf("failed to delete note: %w", err)
	}
	return nil
}

// DeleteOlderThan removes cached notes fetched before the cutoff and
// returns how many were removed.
func (s *NoteStorage) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	query := badgerhold.Where("FetchedAt").Lt(cutoff)

	count, err := s.db.Store().Count(&models.CachedNote{}, query)
	if err != nil {
		return 0, fmt.Errorf("failed to count expired notes: %w", err)
	}
	if count == 0 {
		return 0, nil
	}

	if err := s.db.Store().DeleteMatching(&models.CachedNote{}, query); err != nil {
		return 0, fmt.Errorf("failed to delete expired notes: %w", err)
	}

	return int(count), nil
}

// Count returns the number of cached notes
func (s *NoteStorage) Count(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.CachedNote{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count notes: %w", err)
	}
	return int(count), nil
}
