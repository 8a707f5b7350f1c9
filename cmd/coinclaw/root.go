package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"coinclaw/internal/browser"
	"coinclaw/internal/claim"
	"coinclaw/internal/config"
	"coinclaw/internal/logging"
	"coinclaw/internal/session"
)

// isTTY checks whether the run is attached to a terminal on both ends.
func isTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// rootCommand wires flags, config, logging and the flows together.
type rootCommand struct {
	cmd *cobra.Command

	cfgFile    string
	cookiePath string
	timeout    time.Duration
	headless   bool
	debug      bool
	trace      bool
	dryRun     bool
	noLogFile  bool

	cfg      *config.Config
	logger   *logrus.Logger
	closeLog func() error
	runID    string
}

func newRootCommand() *rootCommand {
	c := &rootCommand{logger: logrus.New()}
	c.cmd = &cobra.Command{
		Use:   "coinclaw",
		Short: "Claim the daily storefront coin reward",
		Long: `coinclaw drives a real Chrome session through the storefront's daily
check-in: it restores the saved login, opens the rewards page and clicks
the claim control. Run it bare to claim today's coins; subcommands cover
the coupon sweep, the flash sale listing and session management.`,
		Args:              cobra.NoArgs,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runClaim(cmd.Context())
		},
	}

	pf := c.cmd.PersistentFlags()
	pf.StringVarP(&c.cfgFile, "config", "c", "", "config file (default ./coinclaw.yaml)")
	pf.StringVar(&c.cookiePath, "cookie", "", "session cookie file (default from config)")
	pf.DurationVar(&c.timeout, "timeout", 0, "element wait timeout (default from config)")
	pf.BoolVarP(&c.headless, "headless", "n", false, "run Chrome without a window")
	pf.BoolVarP(&c.debug, "debug", "d", false, "log at debug level")
	pf.BoolVarP(&c.trace, "trace", "t", false, "log at trace level")
	pf.BoolVarP(&c.dryRun, "dry-run", "D", false, "walk the flow but skip the final click")
	pf.BoolVarP(&c.noLogFile, "no-log-file", "f", false, "log to stderr only, write no files")

	c.cmd.AddCommand(
		c.newClaimCmd(),
		c.newCouponsCmd(),
		c.newSalesCmd(),
		c.newLoginCmd(),
		c.newSessionCmd(),
		newVersionCmd(),
	)
	return c
}

// Execute runs the CLI and exits the process with the flow's code.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := newRootCommand()
	if code := c.finish(c.cmd.ExecuteContext(ctx)); code != 0 {
		os.Exit(code)
	}
}

// finish reports err on both sinks and maps it to the process exit code.
// The log file must still be open when the error is written; teardown
// comes last.
func (c *rootCommand) finish(err error) int {
	if err != nil {
		c.logger.Error(err)
		fmt.Fprintf(c.cmd.ErrOrStderr(), "%s %v\n", red("failed:"), err)
	}
	c.teardown()
	if err == nil {
		return 0
	}
	return exitCodeFor(err)
}

// setup resolves config and builds the logger before any command runs.
func (c *rootCommand) setup(cmd *cobra.Command, _ []string) error {
	switch cmd.Name() {
	case "version", "help", "completion", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
		return nil
	}
	if cmd.Parent() != nil && cmd.Parent().Name() == "completion" {
		return nil
	}

	cfg, err := config.Load(c.cfgFile)
	if err != nil {
		return err
	}
	if c.cookiePath != "" {
		cfg.CookieName = c.cookiePath
	}
	if c.timeout > 0 {
		cfg.WaitTimeout = c.timeout
	}
	if cmd.Flags().Changed("headless") {
		cfg.Headless = c.headless
	}
	c.cfg = cfg

	logger, closeLog, err := logging.New(logging.Options{
		Dir:         cfg.LogDir,
		Debug:       c.debug,
		Trace:       c.trace,
		DisableFile: c.noLogFile,
	})
	if err != nil {
		return err
	}
	c.logger = logger
	c.closeLog = closeLog
	c.runID = uuid.NewString()
	c.log("cli").WithFields(logrus.Fields{"version": version, "command": cmd.Name()}).Debug("starting")
	return nil
}

func (c *rootCommand) teardown() {
	if c.closeLog != nil {
		_ = c.closeLog()
	}
}

// log returns an entry tagged with the component and this run's id.
func (c *rootCommand) log(component string) *logrus.Entry {
	return c.logger.WithFields(logrus.Fields{"component": component, "run_id": c.runID})
}

// withBrowser starts Chrome, hands it to fn and guarantees teardown on
// every path, signals included.
func (c *rootCommand) withBrowser(ctx context.Context, fn func(context.Context, *browser.Browser) error) error {
	b := browser.New(browser.Config{
		Headless:    c.cfg.Headless,
		ChromePath:  c.cfg.ChromePath,
		CDPURL:      c.cfg.CDPURL,
		UserDataDir: c.cfg.UserDataDir,
	}, c.log("browser"))
	if err := b.Start(ctx); err != nil {
		return fmt.Errorf("start browser: %w", err)
	}
	defer b.Close()
	return fn(ctx, b)
}

func (c *rootCommand) loadProfile() (claim.Profile, error) {
	if c.cfg.ProfilePath == "" {
		return claim.DefaultProfile(), nil
	}
	return claim.LoadProfile(afero.NewOsFs(), c.cfg.ProfilePath)
}

func (c *rootCommand) sessionStore() *session.Store {
	return session.NewStore(afero.NewOsFs(), c.cfg.CookieName)
}

func (c *rootCommand) sessionManager(b *browser.Browser) *session.Manager {
	cfg := session.Config{
		WaitTimeout:  c.cfg.WaitTimeout,
		LoginTimeout: c.cfg.LoginTimeout,
		Interactive:  isTTY() && !c.cfg.Headless,
	}
	return session.NewManager(c.sessionStore(), b, cfg, session.EnterPrompt(), c.log("session"))
}

func (c *rootCommand) claimOptions() claim.Options {
	opts := claim.Options{
		WaitTimeout: c.cfg.WaitTimeout,
		DryRun:      c.dryRun,
	}
	if !c.noLogFile {
		opts.ShotDir = c.cfg.LogDir
	}
	return opts
}
