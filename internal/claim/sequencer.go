package claim

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"coinclaw/internal/browser"
)

// Driver is the slice of the browser the flows need. All calls block
// until done, an internal wait expires, or ctx is canceled.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	Find(ctx context.Context, sel string, wait time.Duration) (browser.Lookup, error)
	Click(ctx context.Context, sel string) error
	ClickNth(ctx context.Context, sel string, index int) error
	OuterHTML(ctx context.Context, sel string) (string, error)
	Evaluate(ctx context.Context, expr string, out any) error
	PageDown(ctx context.Context, times int, pause time.Duration) error
	SettleText(ctx context.Context, sel string, interval time.Duration) (string, error)
	Screenshot(ctx context.Context) ([]byte, error)
}

const (
	// interstitialWait bounds the lookup for the entry promo dialog.
	// The dialog either renders quickly or not at all, so this stays
	// shorter than the regular wait.
	interstitialWait = 2 * time.Second

	// settleInterval paces the balance reads while its count-up
	// animation runs.
	settleInterval = time.Second
)

// Options tunes behavior shared by all flows.
type Options struct {
	// WaitTimeout bounds each element lookup.
	WaitTimeout time.Duration

	// DryRun walks the flow and reports what it would do, but never
	// performs the mutating click.
	DryRun bool

	// ShotDir receives a page screenshot when a flow fails, for
	// debugging selector drift. Empty disables screenshots.
	ShotDir string

	// ShotFs is the filesystem screenshots are written to. Defaults to
	// the OS filesystem.
	ShotFs afero.Fs
}

// Outcome is the terminal state of a claim run.
type Outcome string

const (
	// Claimed means the reward was claimed by this run.
	Claimed Outcome = "claimed"

	// AlreadyClaimed means today's reward had been claimed before this
	// run, which still counts as success.
	AlreadyClaimed Outcome = "already_claimed"
)

// Report describes what a claim run did. Balances are the raw widget
// text, usually a bare number.
type Report struct {
	Outcome       Outcome
	BalanceBefore string
	BalanceAfter  string
	ControlLabel  string
	DryRun        bool
}

// Sequencer runs the daily coin claim from navigation to verification.
type Sequencer struct {
	drv  Driver
	p    Profile
	opts Options
	log  *logrus.Entry
}

func NewSequencer(drv Driver, p Profile, opts Options, log *logrus.Entry) *Sequencer {
	if log == nil {
		log = logrus.NewEntry(logrus.New())
	}
	return &Sequencer{drv: drv, p: p, opts: opts, log: log}
}

// Claim navigates to the rewards page and claims the daily coins.
// Finding the reward already claimed is a success; a page without the
// claim control in either state is an error.
func (s *Sequencer) Claim(ctx context.Context) (*Report, error) {
	report := &Report{DryRun: s.opts.DryRun}

	if err := s.drv.Navigate(ctx, s.p.RewardsURL); err != nil {
		return nil, &StepError{Step: "open rewards page", Err: fmt.Errorf("%w: %v", ErrNavigation, err)}
	}
	ready, err := s.drv.Find(ctx, s.p.PageReady, s.opts.WaitTimeout)
	if err != nil {
		return nil, &StepError{Step: "wait for rewards widget", Err: err}
	}
	if ready.State != browser.Found {
		s.failureShot(ctx, "rewards-widget")
		return nil, &StepError{
			Step: "wait for rewards widget",
			Err:  fmt.Errorf("%w: %q never rendered", ErrNavigation, s.p.PageReady),
		}
	}

	dismissInterstitial(ctx, s.drv, s.p, s.log)

	control, err := s.drv.Find(ctx, s.p.ClaimControl, s.opts.WaitTimeout)
	if err != nil {
		return nil, &StepError{Step: "locate claim control", Err: err}
	}
	if control.State == browser.Found {
		report.ControlLabel = control.Text
		if !s.claimable(control.Text) {
			s.log.WithField("label", control.Text).Info("control present but not claimable, treating as already claimed")
			report.Outcome = AlreadyClaimed
			report.BalanceAfter = s.balance(ctx)
			return report, nil
		}
		report.BalanceBefore = s.balance(ctx)
		s.log.WithFields(logrus.Fields{"label": control.Text, "balance": report.BalanceBefore}).Info("claim control located")

		if s.opts.DryRun {
			s.log.Info("dry run, skipping the claim click")
			report.Outcome = Claimed
			report.BalanceAfter = report.BalanceBefore
			return report, nil
		}
		if err := s.drv.Click(ctx, s.p.ClaimControl); err != nil {
			s.failureShot(ctx, "claim-click")
			return nil, &StepError{Step: "click claim control", Err: err}
		}
		report.Outcome = Claimed
		s.verify(ctx, report)
		return report, nil
	}

	marker, err := s.drv.Find(ctx, s.p.ClaimedMarker, s.opts.WaitTimeout)
	if err != nil {
		return nil, &StepError{Step: "check claimed marker", Err: err}
	}
	if marker.State == browser.Found {
		s.log.Info("today's reward was already claimed")
		report.Outcome = AlreadyClaimed
		report.ControlLabel = marker.Text
		report.BalanceAfter = s.balance(ctx)
		return report, nil
	}

	s.failureShot(ctx, "claim-control")
	return nil, &StepError{
		Step: "locate claim control",
		Err:  fmt.Errorf("%w: neither %q nor %q present", ErrControlNotFound, s.p.ClaimControl, s.p.ClaimedMarker),
	}
}

// claimable checks the control's label. The same node can render in a
// non-claimable state with different text, which must not be clicked.
func (s *Sequencer) claimable(label string) bool {
	if s.p.ClaimLabel == "" {
		return true
	}
	return strings.Contains(label, s.p.ClaimLabel)
}

// verify confirms the click took effect. Verification failures only warn
// because the click itself succeeded and re-running is harmless.
func (s *Sequencer) verify(ctx context.Context, report *Report) {
	marker, err := s.drv.Find(ctx, s.p.ClaimedMarker, s.opts.WaitTimeout)
	if err != nil || marker.State != browser.Found {
		s.log.WithField("selector", s.p.ClaimedMarker).Warn("claimed marker did not appear after the click")
	}
	balance, err := s.drv.SettleText(ctx, s.p.Balance, settleInterval)
	if err != nil {
		s.log.WithError(err).Warn("could not read the settled balance")
		return
	}
	report.BalanceAfter = balance
	s.log.WithFields(logrus.Fields{"before": report.BalanceBefore, "after": balance}).Info("coins claimed")
}

// dismissInterstitial closes the promo dialog some visits get. Its
// absence is the normal case.
func dismissInterstitial(ctx context.Context, drv Driver, p Profile, log *logrus.Entry) {
	if p.PopupClose == "" {
		return
	}
	look, err := drv.Find(ctx, p.PopupClose, interstitialWait)
	if err != nil || look.State != browser.Found {
		return
	}
	if err := drv.Click(ctx, p.PopupClose); err != nil {
		log.WithError(err).Debug("could not close the promo dialog")
		return
	}
	log.Debug("promo dialog closed")
}

// balance reads the coin total, best effort.
func (s *Sequencer) balance(ctx context.Context) string {
	look, err := s.drv.Find(ctx, s.p.Balance, s.opts.WaitTimeout)
	if err != nil || look.State != browser.Found {
		return ""
	}
	return look.Text
}

// failureShot saves a screenshot of the failed page under ShotDir.
func (s *Sequencer) failureShot(ctx context.Context, step string) {
	saveFailureShot(ctx, s.drv, s.opts, s.log, step)
}
