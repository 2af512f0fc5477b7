package browser

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	cdpbrowser "github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/stupside/cloak/internal/fingerprint"
	"github.com/stupside/cloak/internal/profile"
)

// session owns the chromedp lifecycle for one probed target.
type session struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	profile     profile.Profile
	script      string
	timeout     time.Duration
	exceptions  *exceptionCollector
	debug       debugDir

	mu        sync.Mutex
	installed bool
}

// newSession starts Chrome with the profile's launch flags. Nothing is
// installed yet; call Install before the first navigation.
func newSession(ctx context.Context, pr *Prober, targetURL string) (*session, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocatorOpts(pr.browser, pr.profile)...)
	taskCtx, taskCancel := chromedp.NewContext(allocCtx)

	exceptions := newExceptionCollector(pr.probe.MaxExceptions)
	chromedp.ListenTarget(taskCtx, exceptions.Listen)

	s := &session{
		ctx:         taskCtx,
		cancel:      taskCancel,
		allocCancel: allocCancel,
		profile:     pr.profile,
		script:      pr.script,
		timeout:     pr.browser.Timeout,
		exceptions:  exceptions,
		debug:       newDebugDir(targetURL),
	}

	if err := chromedp.Run(taskCtx,
		runtime.Enable(),
		cdpbrowser.SetDownloadBehavior(cdpbrowser.SetDownloadBehaviorBehaviorDeny),
	); err != nil {
		s.Close()
		return nil, fmt.Errorf("starting browser: %w", err)
	}
	return s, nil
}

// Install registers the script for every new document and applies the
// CDP-level overrides. Calls after the first one do nothing.
func (s *session) Install() error {
	return chromedp.Run(s.ctx, chromedp.ActionFunc(s.install))
}

func (s *session) install(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.installed {
		slog.DebugContext(ctx, "session: already installed, skipping")
		return nil
	}

	if _, err := page.AddScriptToEvaluateOnNewDocument(s.script).Do(ctx); err != nil {
		return fmt.Errorf("registering script: %w", err)
	}

	for _, o := range overrides(s.profile) {
		if err := o.action.Do(ctx); err != nil {
			slog.DebugContext(ctx, "session: override not supported, skipping", "override", o.name, "error", err)
		}
	}

	s.installed = true
	return nil
}

// Navigate loads targetURL, giving up after the configured browser timeout.
func (s *session) Navigate(targetURL string) error {
	// Bound the wait without a child context: canceling a child of the
	// chromedp task context breaks the target in chromedp v0.14.
	navDone := make(chan error, 1)
	go func() {
		navDone <- chromedp.Run(s.ctx, chromedp.Navigate(targetURL))
	}()

	select {
	case err := <-navDone:
		return err
	case <-time.After(s.timeout):
		return fmt.Errorf("navigation timed out after %s", s.timeout)
	}
}

// Probe waits settle for page scripts to run, then evaluates the fingerprint
// probe and attaches the exceptions seen so far.
func (s *session) Probe(ctx context.Context, settle time.Duration) (*fingerprint.Report, error) {
	if settle > 0 {
		timer := time.NewTimer(settle)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	var raw []byte
	if err := chromedp.Run(s.ctx, chromedp.Evaluate(fingerprint.ProbeJS, &raw,
		func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithAwaitPromise(true)
		},
	)); err != nil {
		return nil, fmt.Errorf("evaluating probe: %w", err)
	}

	report, err := fingerprint.DecodeReport(raw)
	if err != nil {
		return nil, err
	}
	report.Exceptions = s.exceptions.Entries()
	return report, nil
}

// Close tears down the browser and allocator.
func (s *session) Close() {
	s.cancel()
	s.allocCancel()
}
