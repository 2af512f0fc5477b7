package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/stupside/cloak/internal/app"
	"github.com/stupside/cloak/internal/fingerprint"
	"github.com/stupside/cloak/internal/sandbox"
	"github.com/stupside/cloak/internal/stealth"
)

func verifyCommand() *cli.Command {
	return &cli.Command{
		Name:  "verify",
		Usage: "Install the script into a simulated page and check every signal",
		Flags: []cli.Flag{
			seedFlag(),
			&cli.StringSliceFlag{
				Name:  "without",
				Usage: "Remove an API from the simulated page (e.g. WebGL2RenderingContext, navigator.deviceMemory)",
			},
			&cli.StringFlag{
				Name:  "notification-permission",
				Usage: "Initial Notification.permission of the simulated page",
				Value: "default",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := app.ConfigFrom(cmd)
			if err != nil {
				return err
			}

			p, err := resolveProfile(ctx, cmd)
			if err != nil {
				return err
			}

			script, err := stealth.Build(p, cfg.Stealth)
			if err != nil {
				return err
			}

			report, err := sandbox.Check(ctx, p, script,
				sandbox.WithoutGlobals(cmd.StringSlice("without")...),
				sandbox.WithNotificationPermission(cmd.String("notification-permission")),
			)
			if report == nil {
				return fmt.Errorf("verifying script: %w", err)
			}

			mismatches := report.Check(p)
			for _, m := range mismatches {
				slog.Warn("signal mismatch", "signal", m.Signal, "want", m.Want, "got", m.Got)
			}
			if len(mismatches) > 0 {
				return fmt.Errorf("%d signals disagree with the profile: %w", len(mismatches), fingerprint.ErrMismatch)
			}
			slog.Info("verified", "user_agent", p.UserAgent, "renderer", p.Renderer)
			return nil
		},
	}
}
