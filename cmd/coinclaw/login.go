package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"coinclaw/internal/browser"
)

func (c *rootCommand) newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Log in through the browser window and save the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runLogin(cmd.Context())
		},
	}
}

func (c *rootCommand) runLogin(ctx context.Context) error {
	if c.cfg.Headless {
		return errors.New("login needs a visible browser window, drop --headless")
	}
	profile, err := c.loadProfile()
	if err != nil {
		return err
	}
	return c.withBrowser(ctx, func(ctx context.Context, b *browser.Browser) error {
		if err := c.sessionManager(b).Establish(ctx, profile.HomeURL, profile.Avatar); err != nil {
			return err
		}
		info, err := c.sessionStore().Stat()
		if err != nil {
			return fmt.Errorf("session saved but unreadable: %w", err)
		}
		fmt.Printf("%s session saved to %s (%d cookies)\n", green("ok:"), bold(info.Path), info.Cookies)
		return nil
	})
}
