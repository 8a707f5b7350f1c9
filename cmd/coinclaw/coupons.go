package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"coinclaw/internal/browser"
	"coinclaw/internal/claim"
)

func (c *rootCommand) newCouponsCmd() *cobra.Command {
	var max int
	cmd := &cobra.Command{
		Use:   "coupons",
		Short: "Sweep the seller voucher page and claim what it offers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("max") {
				max = c.cfg.MaxCoupons
			}
			return c.runCoupons(cmd.Context(), max)
		},
	}
	cmd.Flags().IntVar(&max, "max", 0, "claim at most this many coupons, 0 for no limit (default from config)")
	return cmd
}

func (c *rootCommand) runCoupons(ctx context.Context, max int) error {
	profile, err := c.loadProfile()
	if err != nil {
		return err
	}
	return c.withBrowser(ctx, func(ctx context.Context, b *browser.Browser) error {
		if err := c.sessionManager(b).Establish(ctx, profile.VoucherURL, profile.Avatar); err != nil {
			return err
		}
		report, err := claim.NewSweeper(b, profile, c.claimOptions(), max, c.log("coupons")).Sweep(ctx)
		if err != nil {
			return err
		}
		printSweepReport(report)
		return nil
	})
}

func printSweepReport(r *claim.SweepReport) {
	verb := "claimed"
	if r.DryRun {
		verb = "would claim"
	}
	fmt.Printf("%s %s %d coupon(s), %d browse-only skipped, %d gone\n",
		green("ok:"), verb, len(r.Claimed), r.BrowseOnly, r.SoldOut)
	for _, name := range r.Claimed {
		fmt.Printf("  %s %s\n", green("+"), name)
	}
}
