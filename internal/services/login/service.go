// -----------------------------------------------------------------------
// Login Service - shared QR login session lifecycle
// One session per process; open reuses, poll confirms, close releases
// -----------------------------------------------------------------------

package login

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/rednote/internal/common"
	"github.com/ternarybob/rednote/internal/interfaces"
	"github.com/ternarybob/rednote/internal/services/browser"
	"github.com/ternarybob/rednote/pkg/models"
)

// ErrNoLoginSession means poll was called with no session open.
var ErrNoLoginSession = errors.New("no active login session")

// modalPollStep paces the wait for the login overlay to appear after the
// trigger click.
const modalPollStep = 500 * time.Millisecond

// errorRetryWait spaces retries after a failed page snapshot inside poll.
const errorRetryWait = 1 * time.Second

// Service owns the process-wide login session. The lock guards the session
// fields only; the poll loop runs unlocked between snapshots so it never
// holds the lock across page I/O.
type Service struct {
	config    *common.Config
	browser   interfaces.BrowserService
	extractor interfaces.ExtractorService
	cookies   interfaces.CookieStore
	events    interfaces.EventService
	audit     interfaces.LoginEventStorage
	selectors *common.SelectorProfile
	logger    arbor.ILogger

	mu        sync.Mutex
	page      interfaces.Page
	sessionID string
	createdAt time.Time
	lastURL   string
}

// NewService creates a login service. events and audit may be nil.
func NewService(
	config *common.Config,
	browserSvc interfaces.BrowserService,
	extractorSvc interfaces.ExtractorService,
	cookies interfaces.CookieStore,
	events interfaces.EventService,
	audit interfaces.LoginEventStorage,
	logger arbor.ILogger,
) (*Service, error) {
	selectors, err := common.LoadSelectorProfile(config.Login.SelectorProfile)
	if err != nil {
		return nil, fmt.Errorf("load selector profile: %w", err)
	}

	return &Service{
		config:    config,
		browser:   browserSvc,
		extractor: extractorSvc,
		cookies:   cookies,
		events:    events,
		audit:     audit,
		selectors: selectors,
		logger:    logger,
	}, nil
}

// Open creates or reuses the login session, navigates to url, tries to
// surface the login prompt and returns a screenshot for QR display. The
// session survives this call so the user can scan and the page can finish
// the login flow; failures after session creation leave the session open
// for a retry.
func (s *Service) Open(ctx context.Context, url string) (*interfaces.Screenshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if url == "" {
		url = s.config.Login.DefaultURL
	}

	if s.page == nil {
		page, err := s.browser.NewPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("create login browser: %w", err)
		}
		s.page = page
		s.sessionID = common.NewSessionID()
		s.createdAt = time.Now()
		s.appendAudit(ctx, s.sessionID, "opened", "", url)
		s.logger.Info().Str("session_id", s.sessionID).Str("url", url).Msg("Login session opened")
	} else {
		s.logger.Debug().Str("session_id", s.sessionID).Msg("Reusing login session")
	}
	s.lastURL = url

	if err := s.page.Navigate(ctx, url); err != nil {
		return nil, err
	}
	if err := s.page.Wait(ctx, s.config.Login.SettleWait); err != nil {
		return nil, err
	}

	s.triggerLoginModal(ctx, s.page)

	shot, err := s.page.Screenshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("capture login screenshot: %w", err)
	}
	mediaType, err := browser.SniffImageMediaType(shot)
	if err != nil {
		return nil, fmt.Errorf("login screenshot is not an image: %w", err)
	}

	return &interfaces.Screenshot{Data: shot, MediaType: mediaType}, nil
}

// Close tears the session down. Safe to call with no session open.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.page != nil {
		s.appendAudit(context.Background(), s.sessionID, "closed", "", "manual close")
	}
	s.closeSessionLocked("manual close")
	return nil
}

// ActiveSince reports when the current session was created.
func (s *Service) ActiveSince() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createdAt, s.page != nil
}

// triggerLoginModal clicks a login affordance and waits for the overlay or
// a QR marker to show up. Best-effort: a page that does not demand login
// simply times the wait out.
func (s *Service) triggerLoginModal(ctx context.Context, page interfaces.Page) {
	html, _ := page.HTML(ctx)
	if s.extractor.HasLockClass(ctx, page, html) {
		return
	}

	if clicked := page.ClickFirst(ctx, s.selectors.LoginTriggers); !clicked {
		// Some layouts open the modal on their own; keep waiting either way
		s.logger.Debug().Msg("No login trigger matched")
	}

	deadline := time.Now().Add(s.config.Login.ModalWait)
	for {
		html, _ := page.HTML(ctx)
		if s.extractor.HasLockClass(ctx, page, html) {
			return
		}
		if containsAny(html, s.selectors.QRMarkers) {
			return
		}
		if ctx.Err() != nil || time.Now().After(deadline) {
			return
		}
		if err := page.Wait(ctx, modalPollStep); err != nil {
			return
		}
	}
}

// closeSessionLocked closes the page and resets session state. Callers must
// hold s.mu. Close errors are swallowed; the handle is gone either way.
func (s *Service) closeSessionLocked(reason string) {
	if s.page == nil {
		return
	}
	if err := s.page.Close(); err != nil {
		s.logger.Debug().Err(err).Msg("Login page close reported an error")
	}
	s.logger.Info().
		Str("session_id", s.sessionID).
		Str("reason", reason).
		Msg("Login session closed")

	s.page = nil
	s.sessionID = ""
	s.createdAt = time.Time{}
	s.lastURL = ""
}

// releaseSession closes the session only if it still holds the same page
// the caller snapshotted, so a success path never tears down a session
// another caller just reopened.
func (s *Service) releaseSession(page interfaces.Page, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.page == page {
		s.closeSessionLocked(reason)
	}
}

func (s *Service) appendAudit(ctx context.Context, sessionID, phase string, status models.LoginState, detail string) {
	if s.audit == nil {
		return
	}
	event := &models.LoginEvent{
		SessionID: sessionID,
		Phase:     phase,
		Status:    status,
		Detail:    detail,
		CreatedAt: time.Now(),
	}
	if err := s.audit.Append(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("phase", phase).Msg("Login audit append failed")
	}
}

func (s *Service) publishStatus(ctx context.Context, status *models.LoginStatus) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, interfaces.Event{Type: interfaces.EventLoginStatus, Payload: status}); err != nil {
		s.logger.Warn().Err(err).Msg("Login status publish failed")
	}
}

func containsAny(s string, markers []string) bool {
	for _, marker := range markers {
		if marker != "" && strings.Contains(s, marker) {
			return true
		}
	}
	return false
}
