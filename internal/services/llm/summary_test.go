package llm

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/rednote/internal/common"
	"github.com/ternarybob/rednote/pkg/models"
)

func TestSummaryService_EnabledWithoutKeys(t *testing.T) {
	cfg := common.NewDefaultConfig()
	cfg.Gemini.APIKey = ""
	cfg.Claude.APIKey = ""

	svc := NewSummaryService(cfg, &mockKV{}, arbor.NewLogger())
	assert.False(t, svc.Enabled())
}

func TestSummaryService_EnabledWithKey(t *testing.T) {
	cfg := common.NewDefaultConfig()
	cfg.Gemini.APIKey = "AIza-test"

	svc := NewSummaryService(cfg, &mockKV{}, arbor.NewLogger())
	assert.True(t, svc.Enabled())
}

func TestSummarize_NilSummary(t *testing.T) {
	cfg := common.NewDefaultConfig()
	cfg.Gemini.APIKey = "AIza-test"
	svc := NewSummaryService(cfg, &mockKV{}, arbor.NewLogger())

	_, err := svc.Summarize(context.Background(), nil, "")
	assert.Error(t, err)
}

func TestSummarize_NotConfigured(t *testing.T) {
	cfg := common.NewDefaultConfig()
	cfg.Gemini.APIKey = ""
	cfg.Claude.APIKey = ""
	svc := NewSummaryService(cfg, &mockKV{}, arbor.NewLogger())

	_, err := svc.Summarize(context.Background(), &models.NoteSummary{Title: "t"}, "")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestBuildPrompt_DefaultTemplate(t *testing.T) {
	cfg := common.NewDefaultConfig()
	svc := NewSummaryService(cfg, &mockKV{}, arbor.NewLogger())

	summary := &models.NoteSummary{
		Title: "成都火锅攻略",
		Desc:  "三天吃遍成都的火锅店",
	}
	prompt := svc.buildPrompt(context.Background(), summary)

	assert.Contains(t, prompt, "成都火锅攻略")
	assert.Contains(t, prompt, "三天吃遍成都的火锅店")
	assert.NotContains(t, prompt, "{title}")
	assert.NotContains(t, prompt, "{desc}")
}

func TestBuildPrompt_KVTemplateOverride(t *testing.T) {
	cfg := common.NewDefaultConfig()
	kv := &mockKV{values: map[string]string{
		"summary_prompt": "TL;DR of {title}: {desc}",
	}}
	svc := NewSummaryService(cfg, kv, arbor.NewLogger())

	prompt := svc.buildPrompt(context.Background(), &models.NoteSummary{Title: "a", Desc: "b"})
	assert.Equal(t, "TL;DR of a: b", prompt)
}

func TestBuildPrompt_EmptyTitleUsesPlaceholder(t *testing.T) {
	cfg := common.NewDefaultConfig()
	svc := NewSummaryService(cfg, &mockKV{}, arbor.NewLogger())

	prompt := svc.buildPrompt(context.Background(), &models.NoteSummary{Desc: "d"})
	assert.Contains(t, prompt, "无标题")
}

func TestTimeoutFor(t *testing.T) {
	cfg := common.NewDefaultConfig()
	cfg.Gemini.Timeout = "90s"
	cfg.Claude.Timeout = "junk"
	svc := NewSummaryService(cfg, &mockKV{}, arbor.NewLogger())

	assert.Equal(t, 90*time.Second, svc.timeoutFor(ProviderGemini))
	assert.Equal(t, defaultLLMTimeout, svc.timeoutFor(ProviderClaude))
}

func TestDefaultSummaryPrompt_MatchesSeededKV(t *testing.T) {
	prompt := defaultSummaryPrompt()
	require.True(t, strings.Contains(prompt, "{title}"))
	require.True(t, strings.Contains(prompt, "{desc}"))
}
