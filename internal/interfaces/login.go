package interfaces

import (
	"context"
	"time"

	"github.com/ternarybob/rednote/pkg/models"
)

// Screenshot is a captured image plus its sniffed media type.
type Screenshot struct {
	Data      []byte
	MediaType string
}

// LoginService owns the process-wide human-assisted login session.
// At most one session is active at any time; all lifecycle transitions are
// serialized behind the service's internal lock.
type LoginService interface {
	// Open creates or reuses the login session, navigates to url, triggers
	// the login prompt best-effort and returns a screenshot of the page.
	Open(ctx context.Context, url string) (*Screenshot, error)

	// Poll watches the session for login completion until timeout. On
	// success cookies are persisted and the session is closed. Returns
	// ErrNoLoginSession when no session is active.
	Poll(ctx context.Context, timeout time.Duration) (*models.LoginStatus, error)

	// Close tears the session down. Idempotent; close errors are swallowed.
	Close() error

	// ActiveSince reports the creation time of the active session, if any.
	ActiveSince() (time.Time, bool)
}
