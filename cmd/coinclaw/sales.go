package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"coinclaw/internal/browser"
	"coinclaw/internal/claim"
)

func (c *rootCommand) newSalesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sales",
		Short: "List the current flash sale items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runSales(cmd.Context())
		},
	}
}

// runSales needs no session: the overview is public.
func (c *rootCommand) runSales(ctx context.Context) error {
	profile, err := c.loadProfile()
	if err != nil {
		return err
	}
	return c.withBrowser(ctx, func(ctx context.Context, b *browser.Browser) error {
		items, err := claim.NewLister(b, profile, c.claimOptions(), c.log("sales")).List(ctx)
		if err != nil {
			return err
		}
		printSaleItems(os.Stdout, items)
		return nil
	})
}

func printSaleItems(w io.Writer, items []claim.SaleItem) {
	if len(items) == 0 {
		fmt.Fprintln(w, gray("no flash sale items right now"))
		return
	}
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	for _, item := range items {
		state := ""
		if item.SoldOut {
			state = red("sold out")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", item.Name, cyan(item.Price), state)
	}
	_ = tw.Flush()
	fmt.Fprintln(w, gray(fmt.Sprintf("%d item(s)", len(items))))
}
