package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/rednote/internal/common"
	"github.com/ternarybob/rednote/internal/interfaces"
)

// Maintenance job names.
const (
	JobNoteCacheGC        = "note_cache_gc"
	JobLoginSessionReaper = "login_session_reaper"
	JobLoginEventPurge    = "login_event_purge"
	JobValueLogGC         = "badger_value_log_gc"
)

// badgerDiscardRatio is the value log rewrite threshold recommended by the
// badger docs.
const badgerDiscardRatio = 0.5

// RegisterMaintenanceJobs wires the standing maintenance jobs into the
// scheduler. Jobs whose config disables them are skipped, not failed.
func RegisterMaintenanceJobs(s interfaces.SchedulerService, cfg *common.Config, storage interfaces.StorageManager, loginService interfaces.LoginService, logger arbor.ILogger) error {
	if cfg.Cache.TTL > 0 {
		ttl := cfg.Cache.TTL
		notes := storage.NoteStorage()
		err := s.RegisterJob(JobNoteCacheGC, cfg.Scheduler.CacheGCSchedule, "Deletes cached notes past their TTL", func() error {
			cutoff := time.Now().Add(-ttl)
			deleted, err := notes.DeleteOlderThan(context.Background(), cutoff)
			if err != nil {
				return fmt.Errorf("note cache gc: %w", err)
			}
			if deleted > 0 {
				logger.Info().Int("deleted", deleted).Msg("Expired cached notes removed")
			}
			return nil
		})
		if err != nil {
			return err
		}
	} else {
		logger.Debug().Msg("Cache TTL disabled, skipping note cache gc job")
	}

	if cfg.Login.MaxSessionAge > 0 {
		maxAge := cfg.Login.MaxSessionAge
		err := s.RegisterJob(JobLoginSessionReaper, cfg.Scheduler.SessionReaperSchedule, "Closes login sessions left open too long", func() error {
			since, active := loginService.ActiveSince()
			if !active {
				return nil
			}
			age := time.Since(since)
			if age < maxAge {
				return nil
			}
			logger.Warn().
				Str("age", age.Round(time.Second).String()).
				Msg("Reaping stale login session")
			if err := loginService.Close(); err != nil {
				return fmt.Errorf("close stale login session: %w", err)
			}
			return nil
		})
		if err != nil {
			return err
		}
	} else {
		logger.Debug().Msg("Max session age disabled, skipping login session reaper job")
	}

	if cfg.Scheduler.EventRetention > 0 {
		retention := cfg.Scheduler.EventRetention
		audit := storage.LoginEventStorage()
		// Purge rides the cache gc cadence, it has no schedule of its own
		err := s.RegisterJob(JobLoginEventPurge, cfg.Scheduler.CacheGCSchedule, "Purges old login audit events", func() error {
			cutoff := time.Now().Add(-retention)
			deleted, err := audit.DeleteOlderThan(context.Background(), cutoff)
			if err != nil {
				return fmt.Errorf("login event purge: %w", err)
			}
			if deleted > 0 {
				logger.Info().Int("deleted", deleted).Msg("Old login events purged")
			}
			return nil
		})
		if err != nil {
			return err
		}
	} else {
		logger.Debug().Msg("Event retention disabled, skipping login event purge job")
	}

	// Badger never compacts its value log on its own
	err := s.RegisterJob(JobValueLogGC, cfg.Scheduler.CacheGCSchedule, "Reclaims disk space from the badger value log", func() error {
		if err := storage.RunValueLogGC(badgerDiscardRatio); err != nil {
			return fmt.Errorf("value log gc: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	return nil
}
