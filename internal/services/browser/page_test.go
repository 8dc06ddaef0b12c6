package browser

import (
	"testing"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/rednote/pkg/models"
)

func TestToCookieParams_StripsLeadingDotAndDefaultsPath(t *testing.T) {
	params := toCookieParams(models.CookieSet{
		{Name: "web_session", Value: "abc", Domain: ".xiaohongshu.com", HTTPOnly: true, Secure: true},
	})

	require.Len(t, params, 1)
	assert.Equal(t, "xiaohongshu.com", params[0].Domain)
	assert.Equal(t, "/", params[0].Path)
	assert.True(t, params[0].HTTPOnly)
	assert.True(t, params[0].Secure)
	assert.Nil(t, params[0].Expires)
}

func TestToCookieParams_FutureExpiryPreserved(t *testing.T) {
	future := float64(time.Now().Add(24 * time.Hour).Unix())
	params := toCookieParams(models.CookieSet{
		{Name: "a1", Value: "x", Domain: "xiaohongshu.com", Path: "/", Expires: future},
	})

	require.Len(t, params, 1)
	require.NotNil(t, params[0].Expires)
	assert.InDelta(t, future, float64(time.Time(*params[0].Expires).Unix()), 1)
}

func TestToCookieParams_PastExpiryDropped(t *testing.T) {
	past := float64(time.Now().Add(-24 * time.Hour).Unix())
	params := toCookieParams(models.CookieSet{
		{Name: "a1", Value: "x", Expires: past},
	})

	require.Len(t, params, 1)
	// Expired cookies become session cookies rather than being rejected
	assert.Nil(t, params[0].Expires)
}

func TestFromNetworkCookies(t *testing.T) {
	cookies := fromNetworkCookies([]*network.Cookie{
		{Name: "web_session", Value: "abc", Domain: ".xiaohongshu.com", Path: "/", Expires: 1900000000, HTTPOnly: true, Secure: true},
		{Name: "a1", Value: "x", Domain: ".xiaohongshu.com", Path: "/"},
	})

	require.Len(t, cookies, 2)
	assert.Equal(t, []string{"web_session", "a1"}, cookies.Names())
	assert.Equal(t, float64(1900000000), cookies[0].Expires)
	assert.True(t, cookies[0].HTTPOnly)
}
