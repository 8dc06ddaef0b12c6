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

// LoginEventStorage implements the LoginEventStorage interface for Badger
type LoginEventStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewLoginEventStorage creates a new LoginEventStorage instance
func NewLoginEventStorage(db *BadgerDB, logger arbor.ILogger) interfaces.LoginEventStorage {
	return &LoginEventStorage{
		db:     db,
		logger: logger,
	}
}

// Append stores a login event under the next sequence key. The assigned
// ID is written back into the event.
func (s *LoginEventStorage) Append(ctx context.Context, event *models.LoginEvent) error {
	if event.SessionID == "" {
		return fmt.Errorf("login event session ID is required")
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	if err := s.db.Store().Insert(badgerhold.NextSequence(), event); err != nil {
		return fmt.Errorf("failed to append login event: %w", err)
	}
	return nil
}

// Recent returns up to limit events, newest first
func (s *LoginEventStorage) Recent(ctx context.Context, limit int) ([]*models.LoginEvent, error) {
	if limit <= 0 {
		return []*models.LoginEvent{}, nil
	}

	var events []models.LoginEvent
	query := badgerhold.Where("SessionID").Ne("").SortBy("CreatedAt").Reverse().Limit(limit)
	if err := s.db.Store().Find(&events, query); err != nil {
		return nil, fmt.Errorf("failed to list login events: %w", err)
	}

	result := make([]*models.LoginEvent, len(events))
	for i := range events {
		result[i] = &events[i]
	}
	return result, nil
}

// DeleteOlderThan removes events recorded before the cutoff and returns
// how many were removed.
func (s *LoginEventStorage) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	query := badgerhold.Where("CreatedAt").Lt(cutoff)

	count, err := s.db.Store().Count(&models.LoginEvent{}, query)
	if err != nil {
		return 0, fmt.Errorf("failed to count expired login events: %w", err)
	}
	if count == 0 {
		return 0, nil
	}

	if err := s.db.Store().DeleteMatching(&models.LoginEvent{}, query); err != nil {
		return 0, fmt.Errorf("failed to delete expired login events: %w", err)
	}

	return int(count), nil
}
