package interfaces

import "time"

// JobStatus represents the current status of a scheduled job
type JobStatus struct {
	Name        string     `json:"name"`
	Schedule    string     `json:"schedule"`
	Description string     `json:"description"`
	LastRun     *time.Time `json:"last_run,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
	RunCount    int        `json:"run_count"`
}

// SchedulerService manages cron-based maintenance jobs
type SchedulerService interface {
	// RegisterJob registers a job under a cron schedule
	RegisterJob(name, schedule, description string, handler func() error) error

	// Start begins executing registered jobs
	Start() error

	// Stop halts the scheduler, waiting for in-flight jobs
	Stop() error

	// IsRunning returns true if the scheduler is active
	IsRunning() bool

	// GetAllJobStatuses returns all job statuses
	GetAllJobStatuses() map[string]*JobStatus
}
