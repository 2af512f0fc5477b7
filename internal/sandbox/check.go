package sandbox

import (
	"context"
	"fmt"

	"github.com/stupside/cloak/internal/fingerprint"
	"github.com/stupside/cloak/internal/profile"
)

// Check installs script on a fresh page, installs it again to catch
// non-idempotent overrides, then probes and compares against p. The report is
// returned even when signals disagree; the error then wraps
// fingerprint.ErrMismatch.
func Check(ctx context.Context, p profile.Profile, script string, opts ...Option) (*fingerprint.Report, error) {
	s, err := New(opts...)
	if err != nil {
		return nil, err
	}

	for pass := 1; pass <= 2; pass++ {
		if err := s.Install(ctx, script); err != nil {
			return nil, fmt.Errorf("install pass %d: %w", pass, err)
		}
	}

	report, err := s.Probe(ctx)
	if err != nil {
		return nil, err
	}
	return report, report.Verify(p)
}
