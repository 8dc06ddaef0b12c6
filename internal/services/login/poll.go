package login

import (
	"context"
	"strings"
	"time"

	"github.com/ternarybob/rednote/internal/interfaces"
	"github.com/ternarybob/rednote/internal/services/extractor"
	"github.com/ternarybob/rednote/pkg/models"
)

// goneTitleMarker appears in the page title when the target note is not
// reachable for the current account, which means login did not really land.
const goneTitleMarker = "不见了"

// Diagnostic previews stay short; they exist to explain a stuck login, not
// to mirror the page.
const (
	cookieNamesPreviewLimit  = 10
	runtimeStatePreviewLimit = 200
)

// Poll watches the open session until login completes or timeout passes.
//
// Two success paths per iteration: the overlay lock disappearing, or, when
// the lock persists but the cookie jar already looks logged-in, a
// refresh-and-renavigate recheck that must independently confirm note
// access. On success cookies are persisted and the session is closed. A
// deadline without success returns a waiting status with the last page
// snapshot; the caller can simply poll again.
func (s *Service) Poll(ctx context.Context, timeout time.Duration) (*models.LoginStatus, error) {
	if timeout < time.Second {
		timeout = time.Second
	}
	deadline := time.Now().Add(timeout)

	var lastDiag *models.LoginDiagnostics
	var lastURL string
	var lastRecheck time.Time

	for time.Now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		s.mu.Lock()
		page, sessionID := s.page, s.sessionID
		lastURL = s.lastURL
		s.mu.Unlock()

		if page == nil {
			return nil, ErrNoLoginSession
		}

		status, done := s.pollOnce(ctx, page, sessionID, lastURL, &lastDiag, &lastRecheck)
		if done {
			return status, nil
		}
	}

	status := &models.LoginStatus{
		Status:      models.LoginWaiting,
		Timeout:     int(timeout / time.Second),
		LastURL:     lastURL,
		Diagnostics: lastDiag,
	}
	return status, nil
}

// pollOnce runs one poll iteration and reports whether the poll is done.
// All page errors inside the iteration downgrade to a retry.
func (s *Service) pollOnce(
	ctx context.Context,
	page interfaces.Page,
	sessionID, lastURL string,
	lastDiag **models.LoginDiagnostics,
	lastRecheck *time.Time,
) (*models.LoginStatus, bool) {
	html, err := page.HTML(ctx)
	if err != nil {
		s.logger.Debug().Err(err).Msg("Login poll snapshot failed, retrying")
		_ = page.Wait(ctx, errorRetryWait)
		return nil, false
	}

	diag := s.collectDiagnostics(ctx, page, html)
	*lastDiag = diag
	s.publishStatus(ctx, &models.LoginStatus{
		Status:      models.LoginWaiting,
		LastURL:     lastURL,
		Diagnostics: diag,
	})

	// Success path 1: the overlay lock is gone
	if !diag.HasLockClass {
		return s.succeed(ctx, page, sessionID, "lock released"), true
	}

	// Success path 2: lock still up but the cookie jar looks logged in
	if diag.CookiesCount >= s.config.Login.CookieThreshold {
		page.ClickFirst(ctx, s.selectors.CloseButtons)

		if time.Since(*lastRecheck) >= s.config.Login.RecheckInterval {
			*lastRecheck = time.Now()
			if s.verifyNoteAccess(ctx, page, lastURL) {
				return s.succeed(ctx, page, sessionID, "note access verified"), true
			}
		}
	}

	_ = page.Wait(ctx, s.config.Login.PollStep)
	return nil, false
}

// collectDiagnostics snapshots the page for waiting statuses. Every read is
// individually best-effort. Cookie names only; values never leave here.
func (s *Service) collectDiagnostics(ctx context.Context, page interfaces.Page, html string) *models.LoginDiagnostics {
	diag := &models.LoginDiagnostics{
		CookieNamesPreview: []string{},
	}

	if title, err := page.Title(ctx); err == nil {
		diag.Title = title
	}
	if url, err := page.URL(ctx); err == nil {
		diag.URL = url
	}
	if cookies, err := page.Cookies(ctx); err == nil {
		diag.CookiesCount = len(cookies)
		names := cookies.Names()
		if len(names) > cookieNamesPreviewLimit {
			names = names[:cookieNamesPreviewLimit]
		}
		diag.CookieNamesPreview = names
	}
	diag.HasLockClass = s.extractor.HasLockClass(ctx, page, html)

	if raw, err := page.Evaluate(ctx, extractor.InitialStateJS); err == nil && strings.TrimSpace(raw) != "" {
		if len(raw) > runtimeStatePreviewLimit {
			raw = raw[:runtimeStatePreviewLimit]
		}
		diag.RuntimeStatePreview = raw
	}

	return diag
}

// verifyNoteAccess refreshes, returns to the target URL and accepts login
// only when a short runtime probe yields real note detail on an unlocked
// page whose title is not the gone notice. The lock vanishing transiently
// during redirects is why this second, content-based check exists.
func (s *Service) verifyNoteAccess(ctx context.Context, page interfaces.Page, lastURL string) bool {
	settle := s.config.Login.SettleWait

	if err := page.Reload(ctx); err != nil {
		s.logger.Debug().Err(err).Msg("Login verify refresh failed")
	} else {
		_ = page.Wait(ctx, settle)
	}
	if lastURL != "" {
		if err := page.Navigate(ctx, lastURL); err != nil {
			s.logger.Debug().Err(err).Msg("Login verify renavigation failed")
		} else {
			_ = page.Wait(ctx, settle)
		}
	}

	state, err := s.extractor.ProbeRuntime(ctx, page, s.config.Extractor.VerifyBudget)
	if err != nil || !state.HasNoteDetail() {
		return false
	}

	html, _ := page.HTML(ctx)
	if s.extractor.HasLockClass(ctx, page, html) {
		return false
	}

	title, _ := page.Title(ctx)
	return !strings.Contains(title, goneTitleMarker)
}

// succeed persists cookies, releases the session and returns the success
// status. The cookie count in the response lets callers sanity-check that
// the login actually produced credentials.
func (s *Service) succeed(ctx context.Context, page interfaces.Page, sessionID, how string) *models.LoginStatus {
	cookies, err := page.Cookies(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Cookie read after login failed")
		cookies = models.CookieSet{}
	}
	s.cookies.Save(cookies)

	s.releaseSession(page, how)
	s.appendAudit(ctx, sessionID, "completed", models.LoginSuccess, how)

	status := &models.LoginStatus{
		Status:       models.LoginSuccess,
		CookiesCount: len(cookies),
	}
	s.publishStatus(ctx, status)
	s.logger.Info().
		Int("cookies_count", len(cookies)).
		Str("path", how).
		Msg("Login confirmed")

	return status
}
