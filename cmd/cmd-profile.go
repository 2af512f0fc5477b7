package cmd

import (
	"context"
	"fmt"
	"log/slog"

	jsoniter "github.com/json-iterator/go"
	"github.com/urfave/cli/v3"

	"github.com/stupside/cloak/internal/app"
	"github.com/stupside/cloak/internal/profile"
)

func profileCommand() *cli.Command {
	return &cli.Command{
		Name:  "profile",
		Usage: "Print the synthetic profile as JSON",
		Flags: []cli.Flag{seedFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			p, err := resolveProfile(ctx, cmd)
			if err != nil {
				return err
			}

			out, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(p, "", "  ")
			if err != nil {
				return fmt.Errorf("encoding profile: %w", err)
			}
			fmt.Println(string(out))
			return nil
		},
	}
}

// seedFlag overrides the configured profile with a seeded random one.
func seedFlag() cli.Flag {
	return &cli.Uint64Flag{
		Name:  "seed",
		Usage: "Draw a random profile from this seed instead of the configured source",
	}
}

// resolveProfile builds the profile for this run from the config, or from
// --seed when given. A random seed is logged so the run can be reproduced.
func resolveProfile(ctx context.Context, cmd *cli.Command) (profile.Profile, error) {
	cfg, err := app.ConfigFrom(cmd)
	if err != nil {
		return profile.Profile{}, err
	}

	pcfg := cfg.Profile
	if cmd.IsSet("seed") {
		pcfg = profile.Config{Source: profile.SourceRandom, Seed: cmd.Uint64("seed")}
	}

	provider, err := profile.FromConfig(pcfg)
	if err != nil {
		return profile.Profile{}, err
	}

	if r, ok := provider.(*profile.Random); ok {
		slog.InfoContext(ctx, "profile drawn", "seed", r.Seed())
	}
	return provider.Profile(), nil
}
