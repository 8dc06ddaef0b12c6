package interfaces

import (
	"context"
	"time"

	"github.com/ternarybob/rednote/pkg/models"
)

// ExtractorService locates and parses the embedded application state of a
// live page through an ordered strategy cascade.
type ExtractorService interface {
	// Extract runs the full cascade. A nil-State result carries the failure
	// diagnostics; hard errors (context cancellation) surface as error.
	Extract(ctx context.Context, page Page) (*models.ExtractionResult, error)

	// ProbeRuntime runs only the runtime polling strategy with the given
	// budget. Used by the login verifier with a short budget.
	ProbeRuntime(ctx context.Context, page Page, budget time.Duration) (models.RawState, error)

	// HasLockClass reports whether the page shows the overlay-lock signal.
	// htmlFallback is scanned when script evaluation fails.
	HasLockClass(ctx context.Context, page Page, htmlFallback string) bool
}
