package llm

// Summary Service - LLM-written digests of scraped notes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/rednote/internal/common"
	"github.com/ternarybob/rednote/internal/interfaces"
	"github.com/ternarybob/rednote/pkg/models"
)

// ErrNotConfigured is returned when no provider has an API key.
var ErrNotConfigured = errors.New("no LLM provider is configured")

const (
	kvKeySummaryPrompt = "summary_prompt"
	untitledNote       = "无标题"
	defaultLLMTimeout  = 2 * time.Minute
)

// SummaryService implements note summarization over the provider factory.
type SummaryService struct {
	config  *common.Config
	factory *ProviderFactory
	kv      interfaces.KVStorage
	logger  arbor.ILogger
}

// NewSummaryService creates a summary service. kv may be nil, in which
// case prompts and API keys resolve from config alone.
func NewSummaryService(config *common.Config, kv interfaces.KVStorage, logger arbor.ILogger) *SummaryService {
	return &SummaryService{
		config:  config,
		factory: NewProviderFactory(&config.Gemini, &config.Claude, &config.LLM, kv, logger),
		kv:      kv,
		logger:  logger,
	}
}

// Enabled reports whether any provider is configured with an API key.
func (s *SummaryService) Enabled() bool {
	return s.factory.HasAnyProvider(context.Background())
}

// Summarize produces a digest of the note using the provider the model
// string selects. An empty model uses the configured default provider.
func (s *SummaryService) Summarize(ctx context.Context, summary *models.NoteSummary, model string) (string, error) {
	if summary == nil {
		return "", fmt.Errorf("note summary is required")
	}
	if !s.Enabled() {
		return "", ErrNotConfigured
	}

	prompt := s.buildPrompt(ctx, summary)
	provider := s.factory.DetectProvider(model)

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeoutFor(provider))
	defer cancel()

	started := time.Now()
	resp, err := s.factory.GenerateContent(timeoutCtx, &ContentRequest{
		Prompt: prompt,
		Model:  model,
	})
	if err != nil {
		return "", fmt.Errorf("summarize note: %w", err)
	}

	s.logger.Info().
		Str("provider", string(resp.Provider)).
		Str("model", resp.Model).
		Int("length", len(resp.Text)).
		Dur("duration", time.Since(started)).
		Msg("Note summarized")

	return strings.TrimSpace(resp.Text), nil
}

// buildPrompt renders the stored prompt template with the note's fields.
func (s *SummaryService) buildPrompt(ctx context.Context, summary *models.NoteSummary) string {
	template := defaultSummaryPrompt()
	if s.kv != nil {
		if stored, err := s.kv.Get(ctx, kvKeySummaryPrompt); err == nil && stored != "" {
			template = stored
		}
	}

	title := summary.Title
	if title == "" {
		title = untitledNote
	}

	return common.ReplacePlaceholders(template, map[string]string{
		"title": title,
		"desc":  summary.Desc,
	}, s.logger)
}

// timeoutFor parses the provider's configured timeout, falling back to
// the package default on a bad duration string.
func (s *SummaryService) timeoutFor(provider ProviderType) time.Duration {
	raw := s.config.Gemini.Timeout
	if provider == ProviderClaude {
		raw = s.config.Claude.Timeout
	}

	if raw == "" {
		return defaultLLMTimeout
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		s.logger.Warn().Str("timeout", raw).Msg("Invalid LLM timeout, using default")
		return defaultLLMTimeout
	}
	return d
}

func defaultSummaryPrompt() string {
	for _, kv := range common.GetDefaultKVValues() {
		if kv.Key == kvKeySummaryPrompt {
			return kv.Value
		}
	}
	// Unreachable while the defaults list carries the prompt
	return "Summarize the following note.\n\nTitle: {title}\n\nContent:\n{desc}"
}
