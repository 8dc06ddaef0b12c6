package interfaces

import (
	"context"
	"time"

	"github.com/ternarybob/rednote/pkg/models"
)

// Page is the handle contract for one browser tab. Implementations own the
// underlying browser process; Close releases it and is idempotent. All
// blocking operations honor the passed context.
type Page interface {
	// Navigate loads the URL and waits for the document to be ready.
	Navigate(ctx context.Context, url string) error

	// Reload refreshes the current document.
	Reload(ctx context.Context) error

	// Evaluate runs a script expected to produce a string value.
	Evaluate(ctx context.Context, js string) (string, error)

	// EvaluateBool runs a script expected to produce a boolean value.
	EvaluateBool(ctx context.Context, js string) (bool, error)

	// HTML returns the current serialized document markup.
	HTML(ctx context.Context) (string, error)

	// Title returns the current document title.
	Title(ctx context.Context) (string, error)

	// URL returns the current page location.
	URL(ctx context.Context) (string, error)

	// Cookies returns all cookies visible to the browser session.
	Cookies(ctx context.Context) (models.CookieSet, error)

	// SetCookies installs cookies into the browser session.
	SetCookies(ctx context.Context, cookies models.CookieSet) error

	// ClickFirst tries each selector in order and clicks the first match.
	// Individual probe failures are swallowed; the return reports whether
	// any click landed.
	ClickFirst(ctx context.Context, selectors []string) bool

	// Screenshot captures the current viewport.
	Screenshot(ctx context.Context) ([]byte, error)

	// Wait sleeps for a fixed settle duration, cancellable via ctx.
	Wait(ctx context.Context, d time.Duration) error

	// Close shuts the page and its browser process down. Safe to call twice.
	Close() error
}

// BrowserService creates page handles. Each page owns an isolated browser
// process configured from the service's options.
type BrowserService interface {
	NewPage(ctx context.Context) (Page, error)
}
