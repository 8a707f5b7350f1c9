package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"coinclaw/internal/session"
)

func (c *rootCommand) newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect or clear the saved session",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Describe the saved session file",
			Args:  cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				return c.runSessionShow()
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Delete the saved session file",
			Args:  cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				return c.runSessionClear()
			},
		},
	)
	return cmd
}

func (c *rootCommand) runSessionShow() error {
	info, err := c.sessionStore().Stat()
	if errors.Is(err, session.ErrNoSession) {
		fmt.Printf("%s no saved session at %s\n", yellow("none:"), c.cfg.CookieName)
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Println(bold(info.Path))
	fmt.Printf("  cookies  %d\n", info.Cookies)
	fmt.Printf("  size     %d bytes\n", info.Size)
	fmt.Printf("  saved    %s (%s)\n", info.ModTime.Format(time.RFC3339), humanAge(time.Since(info.ModTime)))
	return nil
}

func (c *rootCommand) runSessionClear() error {
	err := c.sessionStore().Clear()
	if errors.Is(err, session.ErrNoSession) {
		fmt.Printf("%s nothing to clear at %s\n", yellow("none:"), c.cfg.CookieName)
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Printf("%s session cleared, the next run will ask for a fresh login\n", green("ok:"))
	return nil
}

func humanAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
