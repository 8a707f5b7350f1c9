package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"coinclaw/internal/browser"
	"coinclaw/internal/claim"
)

func (c *rootCommand) newClaimCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "claim",
		Short: "Claim today's coin reward (the default command)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runClaim(cmd.Context())
		},
	}
}

func (c *rootCommand) runClaim(ctx context.Context) error {
	profile, err := c.loadProfile()
	if err != nil {
		return err
	}
	return c.withBrowser(ctx, func(ctx context.Context, b *browser.Browser) error {
		if err := c.sessionManager(b).Establish(ctx, profile.RewardsURL, profile.Avatar); err != nil {
			return err
		}
		report, err := claim.NewSequencer(b, profile, c.claimOptions(), c.log("claim")).Claim(ctx)
		if err != nil {
			return err
		}
		printClaimReport(report)
		return nil
	})
}

func printClaimReport(r *claim.Report) {
	switch {
	case r.DryRun:
		fmt.Printf("%s would claim %s (balance %s)\n", yellow("dry-run:"), bold(r.ControlLabel), cyan(orDash(r.BalanceBefore)))
	case r.Outcome == claim.AlreadyClaimed:
		fmt.Printf("%s today's coins were already claimed (balance %s)\n", green("ok:"), cyan(orDash(r.BalanceAfter)))
	default:
		fmt.Printf("%s coins claimed, balance %s -> %s\n", green("ok:"), cyan(orDash(r.BalanceBefore)), cyan(orDash(r.BalanceAfter)))
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
