// -----------------------------------------------------------------------
// Browser Service - Headless Chrome lifecycle via ChromeDP
// Each page owns its own allocator so login sessions survive requests
// -----------------------------------------------------------------------

package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/rednote/internal/common"
	"github.com/ternarybob/rednote/internal/interfaces"
)

var (
	// ErrLaunch indicates Chrome could not be started or failed its startup test.
	ErrLaunch = errors.New("browser launch failed")
	// ErrNavigation indicates a navigation did not complete.
	ErrNavigation = errors.New("navigation failed")
)

// Service creates browser pages. Pages are independent Chrome processes:
// the login flow holds one open across HTTP requests while scrapes use
// short-lived ones, so nothing is pooled here.
type Service struct {
	config common.BrowserConfig
	logger arbor.ILogger
}

// NewService creates a browser service from configuration.
func NewService(cfg *common.Config, logger arbor.ILogger) *Service {
	return &Service{
		config: cfg.Browser,
		logger: logger,
	}
}

// NewPage launches a Chrome instance and returns a page bound to it. The
// provided context bounds the launch only; the page itself lives until Close
// so callers can keep it across requests.
func (s *Service) NewPage(ctx context.Context) (interfaces.Page, error) {
	opts := s.buildAllocatorOptions()

	allocatorCtx, allocatorCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	browserCtx, browserCancel := chromedp.NewContext(allocatorCtx,
		chromedp.WithLogf(func(format string, args ...interface{}) {
			s.logger.Debug().Msgf("chromedp: "+format, args...)
		}),
	)

	cleanup := func() {
		browserCancel()
		allocatorCancel()
	}

	// Startup test proves the process came up before we hand the page out
	testCtx, testCancel := context.WithTimeout(browserCtx, 30*time.Second)
	defer testCancel()
	stop := context.AfterFunc(ctx, testCancel)
	defer stop()

	if err := chromedp.Run(testCtx, chromedp.Navigate("about:blank")); err != nil {
		cleanup()
		s.logger.Error().Err(err).Msg("Browser failed startup test")
		return nil, fmt.Errorf("%w: %v", ErrLaunch, err)
	}

	// Enable the network domain once so cookie operations work on this session
	if err := chromedp.Run(testCtx, network.Enable()); err != nil {
		cleanup()
		return nil, fmt.Errorf("%w: enabling network domain: %v", ErrLaunch, err)
	}

	s.logger.Debug().
		Bool("headless", s.config.Headless).
		Str("lang", s.config.Lang).
		Msg("Browser page launched")

	return &Page{
		browserCtx:      browserCtx,
		browserCancel:   browserCancel,
		allocatorCancel: allocatorCancel,
		navTimeout:      s.config.NavTimeout,
		logger:          s.logger,
	}, nil
}

// buildAllocatorOptions creates Chrome allocator options. Stability flags are
// always on; stealth flags keep the automation banner and webdriver hints out
// of the rendered page.
func (s *Service) buildAllocatorOptions() []chromedp.ExecAllocatorOption {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,

		chromedp.UserAgent(s.config.UserAgent),

		// Container-safe process flags
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),

		// Stealth flags
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("excludeSwitches", "enable-automation"),
		chromedp.Flag("useAutomationExtension", false),

		chromedp.Flag("lang", s.config.Lang),
		chromedp.WindowSize(s.config.WindowWidth, s.config.WindowHeight),
	}

	if s.config.UserDataDir != "" {
		opts = append(opts, chromedp.UserDataDir(s.config.UserDataDir))
		if s.config.Profile != "" {
			opts = append(opts, chromedp.Flag("profile-directory", s.config.Profile))
		}
		s.logger.Debug().Str("path", s.config.UserDataDir).Msg("Using user data directory")
	}

	if s.config.Headless {
		// New headless mode is less detectable than the classic one
		opts = append(opts, chromedp.Flag("headless", "new"))
	}

	return opts
}
