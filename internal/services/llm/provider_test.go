package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/rednote/internal/common"
)

type mockKV struct {
	values map[string]string
}

func (m *mockKV) Get(ctx context.Context, key string) (string, error) {
	if v, ok := m.values[key]; ok {
		return v, nil
	}
	return "", nil
}

func (m *mockKV) Set(ctx context.Context, key, value string) error { return nil }
func (m *mockKV) Delete(ctx context.Context, key string) error     { return nil }
func (m *mockKV) Keys(ctx context.Context) ([]string, error) {
	return nil, nil
}

func newTestFactory(cfg *common.Config, kv *mockKV) *ProviderFactory {
	return NewProviderFactory(&cfg.Gemini, &cfg.Claude, &cfg.LLM, kv, arbor.NewLogger())
}

func TestDetectProvider(t *testing.T) {
	cfg := common.NewDefaultConfig()
	cfg.LLM.DefaultProvider = common.LLMProviderGemini
	f := newTestFactory(cfg, &mockKV{})

	tests := []struct {
		model    string
		expected ProviderType
	}{
		{"", ProviderGemini},
		{"claude-haiku-3-5-20241022", ProviderClaude},
		{"claude/claude-haiku-3-5-20241022", ProviderClaude},
		{"anthropic/claude-opus-4", ProviderClaude},
		{"gemini-3-flash-preview", ProviderGemini},
		{"gemini/gemini-3-flash-preview", ProviderGemini},
		{"google/gemini-3-pro", ProviderGemini},
		{"CLAUDE-SONNET", ProviderClaude},
		{"something-else", ProviderGemini},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, f.DetectProvider(tt.model), "model %q", tt.model)
	}
}

func TestDetectProvider_DefaultsToClaudeWhenConfigured(t *testing.T) {
	cfg := common.NewDefaultConfig()
	cfg.LLM.DefaultProvider = common.LLMProviderClaude
	f := newTestFactory(cfg, &mockKV{})

	assert.Equal(t, ProviderClaude, f.DetectProvider(""))
	assert.Equal(t, ProviderClaude, f.DetectProvider("something-else"))
}

func TestNormalizeModel(t *testing.T) {
	f := newTestFactory(common.NewDefaultConfig(), &mockKV{})

	assert.Equal(t, "claude-haiku-3-5-20241022", f.NormalizeModel("claude/claude-haiku-3-5-20241022"))
	assert.Equal(t, "gemini-3-flash-preview", f.NormalizeModel("gemini/gemini-3-flash-preview"))
	assert.Equal(t, "gemini-3-flash-preview", f.NormalizeModel("gemini-3-flash-preview"))
	assert.Equal(t, "模型", f.NormalizeModel("google/模型"))
}

func TestHasAnyProvider_NoKeys(t *testing.T) {
	cfg := common.NewDefaultConfig()
	cfg.Gemini.APIKey = ""
	cfg.Claude.APIKey = ""
	f := newTestFactory(cfg, &mockKV{})

	assert.False(t, f.HasAnyProvider(context.Background()))
}

func TestHasAnyProvider_ConfigKey(t *testing.T) {
	cfg := common.NewDefaultConfig()
	cfg.Claude.APIKey = "sk-ant-test"
	f := newTestFactory(cfg, &mockKV{})

	assert.True(t, f.HasAnyProvider(context.Background()))
}

func TestHasAnyProvider_KVKey(t *testing.T) {
	cfg := common.NewDefaultConfig()
	cfg.Gemini.APIKey = ""
	cfg.Claude.APIKey = ""
	kv := &mockKV{values: map[string]string{"gemini_api_key": "AIza-test"}}
	f := newTestFactory(cfg, kv)

	assert.True(t, f.HasAnyProvider(context.Background()))
}

func TestResolveAPIKey_KVWinsOverConfig(t *testing.T) {
	cfg := common.NewDefaultConfig()
	cfg.Gemini.APIKey = "config-key"
	kv := &mockKV{values: map[string]string{"gemini_api_key": "kv-key"}}
	f := newTestFactory(cfg, kv)

	key, err := f.resolveAPIKey(context.Background(), kvKeyGeminiAPIKey, cfg.Gemini.APIKey)
	assert.NoError(t, err)
	assert.Equal(t, "kv-key", key)
}

func TestResolveAPIKey_NilKVFallsToConfig(t *testing.T) {
	cfg := common.NewDefaultConfig()
	cfg.Claude.APIKey = "config-key"
	f := NewProviderFactory(&cfg.Gemini, &cfg.Claude, &cfg.LLM, nil, arbor.NewLogger())

	key, err := f.resolveAPIKey(context.Background(), kvKeyAnthropicAPIKey, cfg.Claude.APIKey)
	assert.NoError(t, err)
	assert.Equal(t, "config-key", key)
}

func TestIsRateLimitError(t *testing.T) {
	assert.False(t, IsRateLimitError(nil))
	assert.False(t, IsRateLimitError(errors.New("connection refused")))
	assert.True(t, IsRateLimitError(errors.New("Error 429: too many requests")))
	assert.True(t, IsRateLimitError(errors.New("RESOURCE_EXHAUSTED")))
	assert.True(t, IsRateLimitError(errors.New("quota exceeded for project")))
}

func TestExtractRetryDelay(t *testing.T) {
	assert.Equal(t, time.Duration(0), ExtractRetryDelay(nil))
	assert.Equal(t, time.Duration(0), ExtractRetryDelay(errors.New("no delay here")))

	err := errors.New("Error 429, Message: Please retry in 45.387061394s., Status: RESOURCE_EXHAUSTED")
	delay := ExtractRetryDelay(err)
	assert.InDelta(t, 45.387, delay.Seconds(), 0.01)

	err = errors.New("retryDelay: 12s")
	assert.Equal(t, 12*time.Second, ExtractRetryDelay(err))
}

func TestCalculateBackoff(t *testing.T) {
	c := &RetryConfig{
		MaxRetries:        3,
		InitialBackoff:    10 * time.Second,
		MaxBackoff:        60 * time.Second,
		BackoffMultiplier: 2.0,
	}

	assert.Equal(t, 10*time.Second, c.CalculateBackoff(0, 0))
	assert.Equal(t, 20*time.Second, c.CalculateBackoff(1, 0))
	assert.Equal(t, 40*time.Second, c.CalculateBackoff(2, 0))
	// Capped at MaxBackoff
	assert.Equal(t, 60*time.Second, c.CalculateBackoff(3, 0))

	// API-provided delay plus buffer becomes the base
	assert.Equal(t, 35*time.Second, c.CalculateBackoff(0, 30*time.Second))
}
