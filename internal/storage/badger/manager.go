package badger

import (
	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/rednote/internal/common"
	"github.com/ternarybob/rednote/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db     *BadgerDB
	notes  interfaces.NoteStorage
	kv     interfaces.KVStorage
	events interfaces.LoginEventStorage
	logger arbor.ILogger
}

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:     db,
		notes:  NewNoteStorage(db, logger),
		kv:     NewKVStorage(db, logger),
		events: NewLoginEventStorage(db, logger),
		logger: logger,
	}

	logger.Info().Msg("Badger storage manager initialized")

	return manager, nil
}

// NoteStorage returns the note cache storage interface
func (m *Manager) NoteStorage() interfaces.NoteStorage {
	return m.notes
}

// KVStorage returns the key/value storage interface
func (m *Manager) KVStorage() interfaces.KVStorage {
	return m.kv
}

// LoginEventStorage returns the login audit storage interface
func (m *Manager) LoginEventStorage() interfaces.LoginEventStorage {
	return m.events
}

// RunValueLogGC rewrites value log files whose discardable fraction exceeds
// discardRatio, repeating until badger reports nothing left to rewrite.
func (m *Manager) RunValueLogGC(discardRatio float64) error {
	for {
		err := m.db.Store().Badger().RunValueLogGC(discardRatio)
		if err == badgerdb.ErrNoRewrite {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
