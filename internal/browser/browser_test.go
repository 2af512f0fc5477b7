package browser

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/runtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stupside/cloak/internal/app"
	"github.com/stupside/cloak/internal/profile"
	"github.com/stupside/cloak/internal/stealth"
)

func TestOverrides_FollowProfile(t *testing.T) {
	p := profile.NewRandom(3).Profile()
	ovs := overrides(p)

	names := make([]string, len(ovs))
	for i, o := range ovs {
		names[i] = o.name
	}
	assert.Equal(t, []string{
		"automation", "focus", "hardware concurrency", "timezone",
		"locale", "touch", "device metrics", "user agent",
	}, names)

	metrics, ok := ovs[6].action.(*emulation.SetDeviceMetricsOverrideParams)
	require.True(t, ok)
	assert.Equal(t, int64(p.InnerWidth), metrics.Width)
	assert.Equal(t, int64(p.ScreenHeight), metrics.ScreenHeight)
	assert.False(t, metrics.Mobile)

	ua, ok := ovs[7].action.(*emulation.SetUserAgentOverrideParams)
	require.True(t, ok)
	assert.Equal(t, p.UserAgent, ua.UserAgent)
	assert.Equal(t, "Win32", ua.Platform)
	assert.Equal(t, p.AcceptLanguage, ua.AcceptLanguage)
	require.NotNil(t, ua.UserAgentMetadata)
	assert.Equal(t, "Windows", ua.UserAgentMetadata.Platform)
	assert.False(t, ua.UserAgentMetadata.Mobile)
	require.Len(t, ua.UserAgentMetadata.Brands, len(p.Brands))
	assert.Equal(t, "Google Chrome", ua.UserAgentMetadata.Brands[2].Brand)
	assert.Equal(t, p.ChromeMajor(), ua.UserAgentMetadata.Brands[2].Version)
}

func TestAllocatorOpts(t *testing.T) {
	cfg := app.BrowserConfig{ChromePath: "/usr/bin/chromium", Headless: true, Timeout: time.Second}
	assert.NotEmpty(t, allocatorOpts(cfg, profile.Fixed().Profile()))
}

func TestExceptionCollector(t *testing.T) {
	c := newExceptionCollector(2)
	assert.Nil(t, c.Entries())

	c.Listen(&runtime.EventExceptionThrown{ExceptionDetails: &runtime.ExceptionDetails{
		Text:         "Uncaught",
		URL:          "https://example.test/app.js",
		LineNumber:   9,
		ColumnNumber: 4,
		Exception:    &runtime.RemoteObject{Description: "TypeError: Illegal invocation"},
	}})
	c.Listen(&runtime.EventConsoleAPICalled{})
	c.Listen(&runtime.EventExceptionThrown{ExceptionDetails: &runtime.ExceptionDetails{Text: "Uncaught SyntaxError"}})
	c.Listen(&runtime.EventExceptionThrown{})

	entries := c.Entries()
	assert.Equal(t, []string{
		"TypeError: Illegal invocation (https://example.test/app.js:10:5)",
		"Uncaught SyntaxError",
	}, entries)

	entries[0] = "changed"
	assert.NotEqual(t, "changed", c.Entries()[0])
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "example.com_path_to", sanitize("https://example.com/path/to/"))
	assert.Equal(t, "localhost_8080", sanitize("http://localhost:8080"))
	assert.Equal(t, "unknown", sanitize("::not a url"))
	assert.Len(t, sanitize("https://example.com/"+strings.Repeat("a", 200)), 80)
}

// TestProbe_Chrome drives a real browser. It needs CLOAK_CHROME_PATH.
func TestProbe_Chrome(t *testing.T) {
	chromePath := os.Getenv("CLOAK_CHROME_PATH")
	if chromePath == "" {
		t.Skip("CLOAK_CHROME_PATH not set")
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><h1>probe</h1></body></html>`)
	}))
	defer server.Close()

	p := profile.Fixed().Profile()
	pr, err := NewProber(
		app.BrowserConfig{ChromePath: chromePath, Headless: true, NoSandbox: true, Timeout: 30 * time.Second},
		app.ProbeConfig{MaxConcurrency: 2, Settle: 200 * time.Millisecond, MaxExceptions: 16},
		p,
		stealth.Config{},
	)
	require.NoError(t, err)

	results := ProbeAll(t.Context(), pr, []string{server.URL, server.URL + "/second"})
	require.Len(t, results, 2)

	for _, res := range results {
		require.NoError(t, res.Err, res.URL)
		r := res.Report

		assert.Equal(t, p.UserAgent, r.UserAgent)
		assert.Equal(t, p.Platform, r.Platform)
		assert.False(t, r.Webdriver)
		assert.Equal(t, 0, r.MaxTouchPoints)
		assert.Equal(t, p.ScreenWidth, r.ScreenWidth)
		assert.Empty(t, r.Exceptions)
		assert.Empty(t, r.Leaks)
		assert.Empty(t, r.OwnProps)
		if r.WebGL != nil {
			assert.Equal(t, p.Renderer, r.WebGL.Renderer)
		}
		require.NotNil(t, r.Canvas)
		assert.Equal(t, stealth.PlaceholderPNG, r.Canvas.Export)
		assert.True(t, r.Canvas.ReadbackVaries)
	}
}

func TestSession_InstallIsIdempotent(t *testing.T) {
	chromePath := os.Getenv("CLOAK_CHROME_PATH")
	if chromePath == "" {
		t.Skip("CLOAK_CHROME_PATH not set")
	}

	pr, err := NewProber(
		app.BrowserConfig{ChromePath: chromePath, Headless: true, NoSandbox: true, Timeout: 30 * time.Second},
		app.ProbeConfig{MaxConcurrency: 1, MaxExceptions: 4},
		profile.Fixed().Profile(),
		stealth.Config{},
	)
	require.NoError(t, err)

	s, err := newSession(t.Context(), pr, "about:blank")
	require.NoError(t, err)
	t.Cleanup(s.Close)

	require.NoError(t, s.Install())
	require.NoError(t, s.Install())
	assert.True(t, s.installed)
}
