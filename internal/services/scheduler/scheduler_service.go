package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/rednote/internal/interfaces"
)

const stopTimeout = 30 * time.Second

// jobEntry tracks a registered job and its execution history.
type jobEntry struct {
	name        string
	schedule    string
	description string
	handler     func() error
	cronID      cron.EntryID
	lastRun     *time.Time
	lastError   string
	runCount    int
	isRunning   bool
}

// Service runs registered maintenance jobs on cron schedules.
type Service struct {
	events interfaces.EventService
	cron   *cron.Cron
	logger arbor.ILogger

	jobMu    sync.Mutex // protects jobs map
	globalMu sync.Mutex // serializes job execution
	jobs     map[string]*jobEntry
	running  bool
}

// NewService creates a new scheduler service.
func NewService(events interfaces.EventService, logger arbor.ILogger) *Service {
	return &Service{
		events: events,
		cron:   cron.New(),
		logger: logger,
		jobs:   make(map[string]*jobEntry),
	}
}

// RegisterJob registers a job under a standard 5-field cron schedule.
func (s *Service) RegisterJob(name, schedule, description string, handler func() error) error {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", schedule, err)
	}

	s.jobMu.Lock()
	defer s.jobMu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already registered", name)
	}

	entry := &jobEntry{
		name:        name,
		schedule:    schedule,
		description: description,
		handler:     handler,
	}

	cronID, err := s.cron.AddFunc(schedule, func() {
		s.executeJob(name)
	})
	if err != nil {
		return fmt.Errorf("failed to add job to cron: %w", err)
	}

	entry.cronID = cronID
	s.jobs[name] = entry

	s.logger.Info().
		Str("job_name", name).
		Str("schedule", schedule).
		Msg("Job registered")

	return nil
}

// Start begins executing registered jobs.
func (s *Service) Start() error {
	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	s.cron.Start()
	s.running = true

	s.jobMu.Lock()
	count := len(s.jobs)
	s.jobMu.Unlock()

	s.logger.Info().Int("jobs", count).Msg("Scheduler started")
	return nil
}

// Stop halts the scheduler and waits for in-flight jobs to finish.
func (s *Service) Stop() error {
	if !s.running {
		return nil
	}

	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(stopTimeout):
		s.logger.Warn().Msg("Jobs did not finish within stop timeout")
	}

	s.running = false
	s.logger.Info().Msg("Scheduler stopped")
	return nil
}

// IsRunning returns true if the scheduler is active.
func (s *Service) IsRunning() bool {
	return s.running
}

// GetAllJobStatuses returns all job statuses.
func (s *Service) GetAllJobStatuses() map[string]*interfaces.JobStatus {
	s.jobMu.Lock()
	defer s.jobMu.Unlock()

	statuses := make(map[string]*interfaces.JobStatus, len(s.jobs))
	for name, entry := range s.jobs {
		statuses[name] = &interfaces.JobStatus{
			Name:        entry.name,
			Schedule:    entry.schedule,
			Description: entry.description,
			LastRun:     entry.lastRun,
			LastError:   entry.lastError,
			RunCount:    entry.runCount,
		}
	}
	return statuses
}

// TriggerJob runs a registered job immediately in the background.
func (s *Service) TriggerJob(name string) error {
	s.jobMu.Lock()
	entry, exists := s.jobs[name]
	if !exists {
		s.jobMu.Unlock()
		return fmt.Errorf("job %s not found", name)
	}
	if entry.isRunning {
		s.jobMu.Unlock()
		return fmt.Errorf("job %s is already running", name)
	}
	s.jobMu.Unlock()

	s.logger.Info().Str("job_name", name).Msg("Manually triggering job")
	go s.executeJob(name)
	return nil
}

// executeJob wraps job execution with panic recovery and status tracking.
func (s *Service) executeJob(name string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Str("job_name", name).
				Str("panic", fmt.Sprintf("%v", r)).
				Msg("PANIC RECOVERED in job execution")

			s.jobMu.Lock()
			if entry, exists := s.jobs[name]; exists {
				entry.isRunning = false
				entry.lastError = fmt.Sprintf("panic: %v", r)
			}
			s.jobMu.Unlock()
		}
	}()

	// Maintenance jobs share the browser and store, so never run two at once
	s.globalMu.Lock()
	defer s.globalMu.Unlock()

	s.jobMu.Lock()
	entry, exists := s.jobs[name]
	if !exists {
		s.jobMu.Unlock()
		s.logger.Warn().Str("job_name", name).Msg("Job not found")
		return
	}
	entry.isRunning = true
	handler := entry.handler
	s.jobMu.Unlock()

	started := time.Now()
	err := handler()
	duration := time.Since(started)

	completed := time.Now()
	s.jobMu.Lock()
	entry.isRunning = false
	entry.lastRun = &completed
	entry.runCount++
	if err != nil {
		entry.lastError = err.Error()
	} else {
		entry.lastError = ""
	}
	s.jobMu.Unlock()

	if err != nil {
		s.logger.Warn().
			Str("job_name", name).
			Err(err).
			Dur("duration", duration).
			Msg("Job execution failed")
	} else {
		s.logger.Info().
			Str("job_name", name).
			Dur("duration", duration).
			Msg("Job execution completed")
	}

	s.publishJobResult(name, err, duration)
}

func (s *Service) publishJobResult(name string, jobErr error, duration time.Duration) {
	if s.events == nil {
		return
	}

	payload := map[string]interface{}{
		"job":         name,
		"status":      "ok",
		"duration_ms": duration.Milliseconds(),
	}
	if jobErr != nil {
		payload["status"] = "failed"
		payload["error"] = jobErr.Error()
	}

	event := interfaces.Event{
		Type:    interfaces.EventSchedulerJob,
		Payload: payload,
	}
	if err := s.events.Publish(context.Background(), event); err != nil {
		s.logger.Warn().Err(err).Str("job_name", name).Msg("Failed to publish job event")
	}
}
