package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/stupside/cloak/internal/app"
	"github.com/stupside/cloak/internal/stealth"
)

func scriptCommand() *cli.Command {
	return &cli.Command{
		Name:  "script",
		Usage: "Print the in-page script for the configured profile",
		Flags: []cli.Flag{
			seedFlag(),
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the script to this file instead of stdout",
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

			output := cmd.String("output")
			if output == "" {
				fmt.Println(script)
				return nil
			}

			if err := os.WriteFile(output, []byte(script), 0o644); err != nil {
				return fmt.Errorf("writing script to %s: %w", output, err)
			}
			slog.Info("script written", "path", output, "bytes", len(script))
			return nil
		},
	}
}
