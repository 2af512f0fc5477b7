// Package browser installs the stealth script into real Chrome sessions over
// the DevTools protocol and reads back what pages observe.
package browser

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/stupside/cloak/internal/app"
	"github.com/stupside/cloak/internal/fingerprint"
	"github.com/stupside/cloak/internal/profile"
	"github.com/stupside/cloak/internal/stealth"
)

// Prober opens one fresh Chrome session per target, installs the script
// before navigating, and reports what the page can observe.
type Prober struct {
	browser app.BrowserConfig
	probe   app.ProbeConfig
	profile profile.Profile
	script  string
}

// NewProber builds the script for p once; every session reuses it.
func NewProber(browserCfg app.BrowserConfig, probeCfg app.ProbeConfig, p profile.Profile, stealthCfg stealth.Config) (*Prober, error) {
	script, err := stealth.Build(p, stealthCfg)
	if err != nil {
		return nil, fmt.Errorf("building script: %w", err)
	}

	return &Prober{
		browser: browserCfg,
		probe:   probeCfg,
		profile: p,
		script:  script,
	}, nil
}

// Probe runs a single session against targetURL.
func (pr *Prober) Probe(ctx context.Context, targetURL string) (*fingerprint.Report, error) {
	s, err := newSession(ctx, pr, targetURL)
	if err != nil {
		return nil, fmt.Errorf("creating session for %s: %w", targetURL, err)
	}
	defer s.Close()

	if err := s.Install(); err != nil {
		return nil, fmt.Errorf("installing on %s: %w", targetURL, err)
	}

	if err := s.Navigate(targetURL); err != nil {
		return nil, fmt.Errorf("navigating to %s: %w", targetURL, err)
	}
	s.debug.capture(s.ctx, "after_nav")

	report, err := s.Probe(ctx, pr.probe.Settle)
	if err != nil {
		return nil, fmt.Errorf("probing %s: %w", targetURL, err)
	}
	s.debug.dump(ctx, "report", report)

	return report, nil
}

// Result is the outcome of probing one URL.
type Result struct {
	URL    string
	Report *fingerprint.Report
	Err    error
}

// Verify returns the probe failure, or every signal that disagrees with p.
func (r Result) Verify(p profile.Profile) error {
	if r.Err != nil {
		return r.Err
	}
	return r.Report.Verify(p)
}

// ProbeAll runs Probe concurrently on all given URLs, bounded by the probe
// MaxConcurrency. Results keep the order of urls; a failed URL carries its
// error instead of a report.
func ProbeAll(ctx context.Context, pr *Prober, urls []string) []Result {
	var g errgroup.Group
	g.SetLimit(pr.probe.MaxConcurrency)

	results := make([]Result, len(urls))

	for i, targetURL := range urls {
		g.Go(func() error {
			report, err := pr.Probe(ctx, targetURL)
			results[i] = Result{URL: targetURL, Report: report, Err: err}
			return err
		})
	}

	if err := g.Wait(); err != nil {
		slog.WarnContext(ctx, "some URLs failed probing", "error", err)
	}

	return results
}
