package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/rednote/pkg/models"
)

// clickTimeout bounds each candidate probe in ClickFirst. Candidates for
// absent elements must fail fast so the full list stays cheap to walk.
const clickTimeout = 1 * time.Second

// Page wraps a dedicated Chrome instance. All operations honor the caller's
// context while running against the page's own browser context, so a page
// outlives individual requests until Close.
type Page struct {
	browserCtx      context.Context
	browserCancel   context.CancelFunc
	allocatorCancel context.CancelFunc
	navTimeout      time.Duration
	logger          arbor.ILogger
	closeOnce       sync.Once
}

// run executes actions against the browser context, bounded by the given
// timeout and cancelable through the caller's context.
func (p *Page) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	opCtx, cancel := context.WithTimeout(p.browserCtx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(opCtx, actions...)
}

// Navigate loads the given URL.
func (p *Page) Navigate(ctx context.Context, url string) error {
	if err := p.run(ctx, p.navTimeout, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNavigation, url, err)
	}
	return nil
}

// Reload refreshes the current document.
func (p *Page) Reload(ctx context.Context) error {
	if err := p.run(ctx, p.navTimeout, chromedp.Reload()); err != nil {
		return fmt.Errorf("%w: reload: %v", ErrNavigation, err)
	}
	return nil
}

// Evaluate runs a JavaScript expression returning a string.
func (p *Page) Evaluate(ctx context.Context, js string) (string, error) {
	var out string
	if err := p.run(ctx, p.navTimeout, chromedp.Evaluate(js, &out)); err != nil {
		return "", err
	}
	return out, nil
}

// EvaluateBool runs a JavaScript expression returning a boolean.
func (p *Page) EvaluateBool(ctx context.Context, js string) (bool, error) {
	var out bool
	if err := p.run(ctx, p.navTimeout, chromedp.Evaluate(js, &out)); err != nil {
		return false, err
	}
	return out, nil
}

// HTML returns the current document's outer HTML.
func (p *Page) HTML(ctx context.Context) (string, error) {
	var html string
	if err := p.run(ctx, p.navTimeout, chromedp.OuterHTML("html", &html)); err != nil {
		return "", err
	}
	return html, nil
}

// Title returns the current document title.
func (p *Page) Title(ctx context.Context) (string, error) {
	var title string
	if err := p.run(ctx, p.navTimeout, chromedp.Title(&title)); err != nil {
		return "", err
	}
	return title, nil
}

// URL returns the current location.
func (p *Page) URL(ctx context.Context) (string, error) {
	var location string
	if err := p.run(ctx, p.navTimeout, chromedp.Location(&location)); err != nil {
		return "", err
	}
	return location, nil
}

// Cookies returns the cookies visible to the current page.
func (p *Page) Cookies(ctx context.Context) (models.CookieSet, error) {
	var raw []*network.Cookie
	err := p.run(ctx, p.navTimeout, chromedp.ActionFunc(func(ctx context.Context) error {
		cookies, err := network.GetCookies().Do(ctx)
		if err != nil {
			return err
		}
		raw = cookies
		return nil
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to read cookies: %w", err)
	}
	return fromNetworkCookies(raw), nil
}

// SetCookies injects cookies into the browser. Individual failures are
// logged and skipped so one stale cookie cannot block a whole session.
func (p *Page) SetCookies(ctx context.Context, cookies models.CookieSet) error {
	params := toCookieParams(cookies)

	return p.run(ctx, p.navTimeout, chromedp.ActionFunc(func(ctx context.Context) error {
		injected := 0
		for _, cookie := range params {
			if err := network.SetCookie(cookie.Name, cookie.Value).
				WithDomain(cookie.Domain).
				WithPath(cookie.Path).
				WithSecure(cookie.Secure).
				WithHTTPOnly(cookie.HTTPOnly).
				WithExpires(cookie.Expires).
				Do(ctx); err != nil {
				p.logger.Warn().Err(err).Str("cookie_name", cookie.Name).Msg("Failed to inject cookie")
				continue
			}
			injected++
		}
		p.logger.Debug().Int("injected", injected).Int("total", len(params)).Msg("Cookie injection complete")
		return nil
	}))
}

// ClickFirst tries each selector in order and clicks the first match.
// Selectors may be XPath or CSS. Returns true once a click succeeds.
func (p *Page) ClickFirst(ctx context.Context, selectors []string) bool {
	for _, selector := range selectors {
		if err := ctx.Err(); err != nil {
			return false
		}
		err := p.run(ctx, clickTimeout, chromedp.Click(selector, chromedp.BySearch))
		if err == nil {
			p.logger.Debug().Str("selector", selector).Msg("Clicked element")
			return true
		}
	}
	return false
}

// Screenshot captures the visible viewport.
func (p *Page) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := p.run(ctx, p.navTimeout, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, fmt.Errorf("failed to capture screenshot: %w", err)
	}
	return buf, nil
}

// Wait sleeps for the given duration, returning early if the caller's
// context or the page itself goes away.
func (p *Page) Wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-p.browserCtx.Done():
		return p.browserCtx.Err()
	}
}

// Close shuts down the Chrome instance. Safe to call more than once.
func (p *Page) Close() error {
	p.closeOnce.Do(func() {
		p.browserCancel()
		p.allocatorCancel()
		p.logger.Debug().Msg("Browser page closed")
	})
	return nil
}

// toCookieParams converts stored cookies into CDP cookie parameters.
func toCookieParams(cookies models.CookieSet) []*network.CookieParam {
	params := make([]*network.CookieParam, 0, len(cookies))
	for _, c := range cookies {
		// Leading dots confuse the CDP cookie domain matcher
		domain := strings.TrimPrefix(c.Domain, ".")
		path := c.Path
		if path == "" {
			path = "/"
		}

		var expires *cdp.TimeSinceEpoch
		if c.Expires > 0 {
			sec := int64(c.Expires)
			nsec := int64((c.Expires - float64(sec)) * 1e9)
			expiresTime := time.Unix(sec, nsec)
			if expiresTime.After(time.Now()) {
				ts := cdp.TimeSinceEpoch(expiresTime)
				expires = &ts
			}
		}

		params = append(params, &network.CookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   domain,
			Path:     path,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
			Expires:  expires,
		})
	}
	return params
}

// fromNetworkCookies converts CDP cookies into the stored representation.
func fromNetworkCookies(raw []*network.Cookie) models.CookieSet {
	cookies := make(models.CookieSet, 0, len(raw))
	for _, c := range raw {
		cookies = append(cookies, models.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expires,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
		})
	}
	return cookies
}
