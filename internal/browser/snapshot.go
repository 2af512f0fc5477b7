package browser

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	jsoniter "github.com/json-iterator/go"
)

// debugDir keeps per-target debug artifacts. Nothing is written unless debug
// logging is enabled.
type debugDir string

func newDebugDir(targetURL string) debugDir {
	return debugDir(filepath.Join(".debug", sanitize(targetURL)))
}

func (d debugDir) enabled(ctx context.Context) bool {
	if !slog.Default().Enabled(ctx, slog.LevelDebug) {
		return false
	}
	if err := os.MkdirAll(string(d), 0o755); err != nil {
		slog.DebugContext(ctx, "snapshot: mkdir failed", "error", err)
		return false
	}
	return true
}

func (d debugDir) prefix(label string) string {
	return filepath.Join(string(d), fmt.Sprintf("%s_%d", label, time.Now().UnixMilli()))
}

// capture saves a screenshot and the page HTML.
func (d debugDir) capture(ctx context.Context, label string) {
	if !d.enabled(ctx) {
		return
	}
	prefix := d.prefix(label)

	var buf []byte
	if err := chromedp.Run(ctx, chromedp.FullScreenshot(&buf, 90)); err != nil {
		slog.DebugContext(ctx, "snapshot: screenshot failed", "label", label, "error", err)
	} else if err := os.WriteFile(prefix+".png", buf, 0o644); err != nil {
		slog.DebugContext(ctx, "snapshot: write png failed", "error", err)
	}

	var html string
	if err := chromedp.Run(ctx, chromedp.OuterHTML("html", &html)); err != nil {
		slog.DebugContext(ctx, "snapshot: html failed", "label", label, "error", err)
	} else if err := os.WriteFile(prefix+".html", []byte(html), 0o644); err != nil {
		slog.DebugContext(ctx, "snapshot: write html failed", "error", err)
	}

	slog.DebugContext(ctx, "snapshot: saved", "label", label, "path", prefix)
}

// dump saves v as indented JSON.
func (d debugDir) dump(ctx context.Context, label string, v any) {
	if !d.enabled(ctx) {
		return
	}
	data, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(v, "", "  ")
	if err != nil {
		slog.DebugContext(ctx, "snapshot: encode failed", "label", label, "error", err)
		return
	}
	path := d.prefix(label) + ".json"
	if err := os.WriteFile(path, data, 0o644); err != nil {
		slog.DebugContext(ctx, "snapshot: write json failed", "error", err)
		return
	}
	slog.DebugContext(ctx, "snapshot: saved", "label", label, "path", path)
}

// sanitize turns a URL into a safe directory name.
func sanitize(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	s := strings.NewReplacer("/", "_", ":", "_").Replace(u.Host + u.Path)
	s = strings.TrimRight(s, "_")
	if len(s) > 80 {
		s = s[:80]
	}
	return s
}
