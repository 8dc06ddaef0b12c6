package interfaces

import "github.com/ternarybob/rednote/pkg/models"

// CookieStore loads credentials for scraping and persists them after a
// confirmed login. Load priority: JSON env var, plain cookie-string env
// var, on-disk file, absent.
type CookieStore interface {
	// Load resolves cookies from the highest-priority available source.
	// A nil set with nil error means no credentials are configured.
	Load() (models.CookieSet, error)

	// Save persists the set to the configured file. Write failures are
	// logged, never propagated; persistence is best-effort by contract.
	Save(cookies models.CookieSet)

	// FilePath returns the resolved persistence path, empty when disabled.
	FilePath() string
}
