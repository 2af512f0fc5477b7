package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/stupside/cloak/internal/app"
	"github.com/stupside/cloak/internal/browser"
	"github.com/stupside/cloak/internal/fingerprint"
)

func probeCommand() *cli.Command {
	return &cli.Command{
		Name:      "probe",
		Usage:     "Open each URL in Chrome with the script installed and check what the page observes",
		ArgsUsage: "<url> [url...]",
		Flags:     []cli.Flag{seedFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			urls := cmd.Args().Slice()
			if len(urls) == 0 {
				return errors.New("at least one URL is required")
			}

			cfg, err := app.ConfigFrom(cmd)
			if err != nil {
				return err
			}

			p, err := resolveProfile(ctx, cmd)
			if err != nil {
				return err
			}

			prober, err := browser.NewProber(cfg.Browser, cfg.Probe, p, cfg.Stealth)
			if err != nil {
				return err
			}

			var errs []error
			for _, res := range browser.ProbeAll(ctx, prober, urls) {
				if res.Err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", res.URL, res.Err))
					continue
				}

				mismatches := res.Report.Check(p)
				for _, m := range mismatches {
					slog.Warn("signal mismatch", "url", res.URL, "signal", m.Signal, "want", m.Want, "got", m.Got)
				}
				if len(mismatches) > 0 {
					errs = append(errs, fmt.Errorf("%s: %d signals disagree: %w", res.URL, len(mismatches), fingerprint.ErrMismatch))
					continue
				}
				slog.Info("probe passed", "url", res.URL)
			}
			return errors.Join(errs...)
		},
	}
}
