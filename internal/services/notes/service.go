package notes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/rednote/internal/common"
	"github.com/ternarybob/rednote/internal/interfaces"
	"github.com/ternarybob/rednote/pkg/models"
)

var (
	// ErrInvalidURL means the URL does not belong to a supported note host.
	ErrInvalidURL = errors.New("not a recognized note URL")

	// ErrRiskControl means the target served a verification page instead of
	// the note. The page title is attached to the error.
	ErrRiskControl = errors.New("risk control triggered")
)

// riskTitleMarkers are title substrings of verification interstitials.
var riskTitleMarkers = []string{"验证", "安全"}

const kvKeyTargetBaseURL = "target_base_url"

// Service orchestrates note scraping: cache lookups, rate limiting, cookie
// injection, navigation, extraction and decoding.
type Service struct {
	config    *common.Config
	browser   interfaces.BrowserService
	extractor interfaces.ExtractorService
	cookies   interfaces.CookieStore
	storage   interfaces.StorageManager
	events    interfaces.EventService
	pdf       interfaces.PDFService
	limiter   *rate.Limiter
	logger    arbor.ILogger
}

// NewService creates a note service. events and pdf may be nil; event
// publishing and PDF export degrade gracefully without them.
func NewService(
	config *common.Config,
	browser interfaces.BrowserService,
	extractor interfaces.ExtractorService,
	cookies interfaces.CookieStore,
	storage interfaces.StorageManager,
	events interfaces.EventService,
	pdf interfaces.PDFService,
	logger arbor.ILogger,
) *Service {
	return &Service{
		config:    config,
		browser:   browser,
		extractor: extractor,
		cookies:   cookies,
		storage:   storage,
		events:    events,
		pdf:       pdf,
		limiter:   newScrapeLimiter(config.RateLimit),
		logger:    logger,
	}
}

// newScrapeLimiter spaces scrapes evenly across the configured per-minute
// budget rather than allowing a burst at the top of each minute.
func newScrapeLimiter(cfg common.RateLimitConfig) *rate.Limiter {
	if cfg.RequestsPerMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	interval := time.Minute / time.Duration(cfg.RequestsPerMinute)
	return rate.NewLimiter(rate.Every(interval), burst)
}

// Scrape fetches and decodes one note. force bypasses the cache but still
// writes the fresh result back to it.
func (s *Service) Scrape(ctx context.Context, rawURL string, force bool) (*interfaces.ScrapeResult, error) {
	if !common.IsNoteURL(rawURL) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidURL, rawURL)
	}

	if !force {
		if cached := s.cacheLookup(ctx, rawURL); cached != nil {
			s.logger.Debug().Str("note_id", cached.ID).Str("url", rawURL).Msg("Serving note from cache")
			return &interfaces.ScrapeResult{Summary: &cached.Summary, Strategy: cached.Strategy, Cached: true}, nil
		}
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	s.publish(ctx, interfaces.EventScrapeStarted, map[string]interface{}{"url": rawURL})

	page, err := s.browser.NewPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("create browser page: %w", err)
	}
	defer page.Close()

	if err := s.injectCookies(ctx, page); err != nil {
		return nil, err
	}

	s.logger.Info().Str("url", rawURL).Msg("Navigating to note")
	if err := page.Navigate(ctx, rawURL); err != nil {
		return nil, err
	}

	if title, terr := page.Title(ctx); terr == nil && isRiskTitle(title) {
		s.logger.Warn().Str("title", title).Str("url", rawURL).Msg("Risk control page detected")
		return nil, fmt.Errorf("%w: page title %q", ErrRiskControl, title)
	}

	// Shell pages hydrate their state after load; give the scripts room
	if err := page.Wait(ctx, s.config.Browser.SettleWait); err != nil {
		return nil, err
	}

	result, err := s.extractor.Extract(ctx, page)
	if err != nil {
		return nil, describeExtractionFailure(err, result)
	}

	summary, noteID, err := DecodeSummary(result.State, rawURL)
	if err != nil {
		return nil, err
	}

	s.store(ctx, noteID, rawURL, summary, result.Strategy)
	s.publish(ctx, interfaces.EventScrapeCompleted, map[string]interface{}{
		"url":      rawURL,
		"note_id":  noteID,
		"strategy": result.Strategy,
		"title":    summary.Title,
	})

	s.logger.Info().
		Str("note_id", noteID).
		Str("strategy", result.Strategy).
		Msg("Note scraped")

	return &interfaces.ScrapeResult{Summary: summary, Strategy: result.Strategy}, nil
}

// GetCached returns a previously scraped note by ID.
func (s *Service) GetCached(ctx context.Context, id string) (*models.CachedNote, error) {
	return s.storage.NoteStorage().GetByID(ctx, id)
}

// cacheLookup resolves a fresh cache entry by URL, falling back to the
// URL-derived note ID. Expired entries count as misses; the scheduler's GC
// job removes them.
func (s *Service) cacheLookup(ctx context.Context, rawURL string) *models.CachedNote {
	store := s.storage.NoteStorage()

	note, err := store.GetByURL(ctx, rawURL)
	if err != nil || note == nil {
		id := common.NoteIDFromURL(rawURL)
		if id == "" {
			return nil
		}
		if note, err = store.GetByID(ctx, id); err != nil || note == nil {
			return nil
		}
	}
	if note.Expired(s.config.Cache.TTL) {
		return nil
	}
	return note
}

// injectCookies installs stored credentials into the page. Cookies can only
// be set from a first-party context, so the page lands on the base origin
// before installation. A store load error fails the scrape — the operator
// configured credentials that cannot be used — while browser-side failures
// downgrade to an uncredentialed scrape.
func (s *Service) injectCookies(ctx context.Context, page interfaces.Page) error {
	cookies, err := s.cookies.Load()
	if err != nil {
		return fmt.Errorf("load cookies: %w", err)
	}
	if len(cookies) == 0 {
		return nil
	}

	base := s.targetBaseURL(ctx)
	if err := page.Navigate(ctx, base); err != nil {
		s.logger.Warn().Err(err).Str("base_url", base).Msg("Base origin navigation failed, skipping cookie injection")
		return nil
	}
	if err := page.SetCookies(ctx, cookies); err != nil {
		s.logger.Warn().Err(err).Msg("Cookie injection failed, scraping without credentials")
		return nil
	}
	s.logger.Info().Int("count", len(cookies)).Msg("Injected stored cookies")
	return nil
}

// targetBaseURL reads the first-party origin from KV settings, falling back
// to the seeded default.
func (s *Service) targetBaseURL(ctx context.Context) string {
	if v, err := s.storage.KVStorage().Get(ctx, kvKeyTargetBaseURL); err == nil && v != "" {
		return v
	}
	for _, kv := range common.GetDefaultKVValues() {
		if kv.Key == kvKeyTargetBaseURL {
			return kv.Value
		}
	}
	return "https://www.xiaohongshu.com"
}

// store caches the scrape result. Failures are logged; a broken cache must
// not fail a successful scrape.
func (s *Service) store(ctx context.Context, noteID, rawURL string, summary *models.NoteSummary, strategy string) {
	note := &models.CachedNote{
		ID:        noteID,
		URL:       rawURL,
		Summary:   *summary,
		Strategy:  strategy,
		FetchedAt: time.Now(),
	}
	if err := s.storage.NoteStorage().Save(ctx, note); err != nil {
		s.logger.Warn().Err(err).Str("note_id", noteID).Msg("Failed to cache note")
	}
}

func (s *Service) publish(ctx context.Context, eventType interfaces.EventType, payload map[string]interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, interfaces.Event{Type: eventType, Payload: payload}); err != nil {
		s.logger.Warn().Err(err).Str("event_type", string(eventType)).Msg("Event publish failed")
	}
}

func isRiskTitle(title string) bool {
	for _, marker := range riskTitleMarkers {
		if strings.Contains(title, marker) {
			return true
		}
	}
	return false
}

// describeExtractionFailure attaches the extractor's diagnostics to the
// error so API clients see why the page yielded nothing. The HTML sample
// stays out of the message; it is logged by the extractor instead.
func describeExtractionFailure(err error, result *models.ExtractionResult) error {
	if result == nil || result.Diagnostics == nil {
		return err
	}
	d := result.Diagnostics
	return fmt.Errorf("%w: page title %q, url %q, cookies %d, lock overlay %v",
		err, d.Title, d.URL, d.CookieCount, d.LockPresent)
}
