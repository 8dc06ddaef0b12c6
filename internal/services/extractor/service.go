// -----------------------------------------------------------------------
// Extractor Service - Initial state recovery cascade
// Runtime probes first, then progressively blunter HTML parsing
// -----------------------------------------------------------------------

package extractor

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/rednote/internal/common"
	"github.com/ternarybob/rednote/internal/interfaces"
	"github.com/ternarybob/rednote/pkg/models"
)

// ErrNotFound indicates no strategy recovered a state object from the page.
var ErrNotFound = errors.New("initial state not found")

// Strategy names reported on extraction results.
const (
	StrategyRuntime      = "runtime_probe"
	StrategyNextData     = "next_data"
	StrategyScriptScan   = "script_scan"
	StrategyBalancedScan = "balanced_scan"
)

// InitialStateJS serializes the page's global state object, or yields an
// empty string before hydration. Exported for the login verifier's
// diagnostics preview.
const InitialStateJS = `(window.__INITIAL_STATE__ ? JSON.stringify(window.__INITIAL_STATE__) : "")`

// JavaScript probes. All are expressions so they can go straight through
// Runtime.evaluate.
const (
	nextDataJS  = `(function() { var e = document.getElementById("__NEXT_DATA__"); return e ? (e.textContent || "") : ""; })()`
	lockClassJS = `document.documentElement.classList.contains('reds-lock-scroll')`
)

// lockClassName marks a scroll-locked page, which means a login or
// verification overlay is blocking content.
const lockClassName = "reds-lock-scroll"

// htmlSampleLength bounds the HTML excerpt included in diagnostics.
const htmlSampleLength = 500

// Service recovers the page's serialized state object. The runtime probe
// waits for client-side hydration; the HTML strategies handle pages where
// script evaluation is unavailable or the state never reaches the runtime.
type Service struct {
	config common.ExtractorConfig
	logger arbor.ILogger
}

// NewService creates an extractor service.
func NewService(cfg *common.Config, logger arbor.ILogger) *Service {
	return &Service{
		config: cfg.Extractor,
		logger: logger,
	}
}

// Extract runs the full cascade. A state containing note detail returns
// immediately with its strategy. A state without note detail is kept as a
// fallback candidate while later strategies run; if nothing better appears
// the candidate is returned so callers can report what the page held. With
// no state at all the result carries diagnostics and the error is ErrNotFound.
func (s *Service) Extract(ctx context.Context, page interfaces.Page) (*models.ExtractionResult, error) {
	var candidate models.RawState
	var candidateStrategy string

	keep := func(state models.RawState, strategy string) {
		if candidate == nil {
			candidate = state
			candidateStrategy = strategy
		}
	}

	// Strategy 1: runtime probe, waiting for hydration to land
	deadline := time.Now().Add(s.config.RuntimeBudget)
	for {
		if state := s.probeOnce(ctx, page); state != nil {
			if state.HasNoteDetail() {
				s.logger.Debug().Str("strategy", StrategyRuntime).Msg("State extracted")
				return &models.ExtractionResult{State: state, Strategy: StrategyRuntime}, nil
			}
			keep(state, StrategyRuntime)
		}
		if ctx.Err() != nil || time.Now().After(deadline) {
			break
		}
		if err := page.Wait(ctx, s.config.RuntimeStep); err != nil {
			break
		}
	}

	html, htmlErr := page.HTML(ctx)
	if htmlErr != nil {
		s.logger.Warn().Err(htmlErr).Msg("Failed to read page HTML, skipping static strategies")
	}

	if htmlErr == nil {
		doc, docErr := goquery.NewDocumentFromReader(strings.NewReader(html))
		if docErr != nil {
			s.logger.Warn().Err(docErr).Msg("Failed to parse page HTML")
		} else {
			// Strategy 2: static __NEXT_DATA__ element
			if text := doc.Find("script#__NEXT_DATA__").First().Text(); strings.TrimSpace(text) != "" {
				if state, err := parseState(text); err == nil {
					if state.HasNoteDetail() {
						s.logger.Debug().Str("strategy", StrategyNextData).Msg("State extracted")
						return &models.ExtractionResult{State: state, Strategy: StrategyNextData}, nil
					}
					keep(state, StrategyNextData)
				}
			}

			// Strategy 3: scan inline scripts for the state assignment
			if state := s.scanScripts(doc); state != nil {
				if state.HasNoteDetail() {
					s.logger.Debug().Str("strategy", StrategyScriptScan).Msg("State extracted")
					return &models.ExtractionResult{State: state, Strategy: StrategyScriptScan}, nil
				}
				keep(state, StrategyScriptScan)
			}
		}

		// Strategy 4: balanced-brace scan over the raw document
		if expr := ScanBalancedState(html); expr != "" {
			if state, err := DecodeStateExpression(expr); err == nil {
				if state.HasNoteDetail() {
					s.logger.Debug().Str("strategy", StrategyBalancedScan).Msg("State extracted")
					return &models.ExtractionResult{State: state, Strategy: StrategyBalancedScan}, nil
				}
				keep(state, StrategyBalancedScan)
			} else {
				s.logger.Debug().Err(err).Msg("Balanced scan produced undecodable expression")
			}
		}
	}

	if candidate != nil {
		s.logger.Debug().Str("strategy", candidateStrategy).Msg("Returning state without note detail")
		return &models.ExtractionResult{State: candidate, Strategy: candidateStrategy}, nil
	}

	diagnostics := s.diagnose(ctx, page, html)
	s.logger.Warn().
		Str("title", diagnostics.Title).
		Str("url", diagnostics.URL).
		Bool("lock_present", diagnostics.LockPresent).
		Int("cookie_count", diagnostics.CookieCount).
		Msg("No extraction strategy succeeded")

	return &models.ExtractionResult{Diagnostics: diagnostics}, ErrNotFound
}

// ProbeRuntime polls the runtime for any parseable state within the budget.
// Unlike Extract it does not require note detail; the login flow uses it to
// confirm the page hydrated at all.
func (s *Service) ProbeRuntime(ctx context.Context, page interfaces.Page, budget time.Duration) (models.RawState, error) {
	deadline := time.Now().Add(budget)
	for {
		if state := s.probeOnce(ctx, page); state != nil {
			return state, nil
		}
		if ctx.Err() != nil || time.Now().After(deadline) {
			break
		}
		if err := page.Wait(ctx, s.config.RuntimeStep); err != nil {
			break
		}
	}
	return nil, ErrNotFound
}

// HasLockClass reports whether the scroll-lock overlay class is present,
// preferring the live DOM and falling back to an HTML substring check when
// script evaluation fails.
func (s *Service) HasLockClass(ctx context.Context, page interfaces.Page, htmlFallback string) bool {
	if locked, err := page.EvaluateBool(ctx, lockClassJS); err == nil {
		return locked
	}
	return strings.Contains(htmlFallback, lockClassName)
}

// probeOnce evaluates both runtime sources once, returning the first state
// that parses.
func (s *Service) probeOnce(ctx context.Context, page interfaces.Page) models.RawState {
	if raw, err := page.Evaluate(ctx, InitialStateJS); err == nil && strings.TrimSpace(raw) != "" {
		if state, err := parseState(raw); err == nil {
			return state
		}
	}
	if raw, err := page.Evaluate(ctx, nextDataJS); err == nil && strings.TrimSpace(raw) != "" {
		if state, err := parseState(raw); err == nil {
			return state
		}
	}
	return nil
}

// scanScripts walks inline script tags looking for a decodable state
// assignment.
func (s *Service) scanScripts(doc *goquery.Document) models.RawState {
	var found models.RawState
	doc.Find("script").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		expr := MatchStateExpression(sel.Text())
		if expr == "" {
			return true
		}
		state, err := DecodeStateExpression(expr)
		if err != nil {
			s.logger.Debug().Err(err).Msg("Script expression did not decode, continuing scan")
			return true
		}
		found = state
		return false
	})
	return found
}

// diagnose collects page evidence for failed extractions. Cookie values are
// never included, only the count.
func (s *Service) diagnose(ctx context.Context, page interfaces.Page, html string) *models.Diagnostics {
	d := &models.Diagnostics{}

	if title, err := page.Title(ctx); err == nil {
		d.Title = title
	}
	if url, err := page.URL(ctx); err == nil {
		d.URL = url
	}
	if cookies, err := page.Cookies(ctx); err == nil {
		d.CookieCount = len(cookies)
	}
	d.LockPresent = s.HasLockClass(ctx, page, html)

	sample := html
	if len(sample) > htmlSampleLength {
		sample = sample[:htmlSampleLength]
	}
	d.HTMLSample = sample

	return d
}

// parseState decodes plain JSON emitted by the runtime probes.
func parseState(raw string) (models.RawState, error) {
	var state models.RawState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, err
	}
	if len(state) == 0 {
		return nil, errors.New("empty state object")
	}
	return state, nil
}
