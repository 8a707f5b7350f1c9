package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"coinclaw/internal/browser"
)

// ErrLoginFailed means no valid session could be established, either
// because the run is non-interactive or because the operator did not
// finish logging in.
var ErrLoginFailed = errors.New("login failed")

// ErrNavigation means the page the session is probed on never loaded,
// so whether a login exists could not be determined.
var ErrNavigation = errors.New("navigation failed")

// Driver is the slice of the browser the manager needs.
type Driver interface {
	SetCookies(ctx context.Context, cookies []browser.Cookie) error
	Cookies(ctx context.Context) ([]browser.Cookie, error)
	Navigate(ctx context.Context, url string) error
	Find(ctx context.Context, sel string, wait time.Duration) (browser.Lookup, error)
}

// PromptFunc blocks until the operator confirms they finished logging in
// inside the browser window.
type PromptFunc func(label string) error

// Config tunes the manager's wait windows.
type Config struct {
	// WaitTimeout bounds the first logged-in probe after navigation.
	WaitTimeout time.Duration

	// LoginTimeout bounds the re-probe after the operator confirms a
	// manual login. Login redirects can be slow, so this is usually
	// longer than WaitTimeout.
	LoginTimeout time.Duration

	// Interactive allows falling back to a manual login prompt. Must be
	// off for headless or unattended runs.
	Interactive bool
}

// Manager establishes a logged-in browser session: restore saved
// cookies, verify them against the page, and fall back to an
// operator-assisted login when they are missing or stale.
type Manager struct {
	store  *Store
	drv    Driver
	cfg    Config
	prompt PromptFunc
	log    *logrus.Entry
}

func NewManager(store *Store, drv Driver, cfg Config, prompt PromptFunc, log *logrus.Entry) *Manager {
	if log == nil {
		log = logrus.NewEntry(logrus.New())
	}
	if cfg.LoginTimeout <= 0 {
		cfg.LoginTimeout = cfg.WaitTimeout
	}
	return &Manager{store: store, drv: drv, cfg: cfg, prompt: prompt, log: log}
}

// Establish makes the browser logged in at url. probe is the CSS
// selector whose presence proves a valid session (the account avatar).
// On success the current cookies are saved back to the store, refreshing
// whatever tokens the site rotated.
func (m *Manager) Establish(ctx context.Context, url, probe string) error {
	cookies, err := m.store.Load()
	switch {
	case err == nil:
		if err := m.drv.SetCookies(ctx, cookies); err != nil {
			m.log.WithError(err).Warn("could not restore saved cookies")
		} else {
			m.log.WithField("count", len(cookies)).Info("saved session restored")
		}
	case errors.Is(err, ErrNoSession):
		m.log.Debug("no saved session")
	default:
		m.log.WithError(err).Warn("saved session unreadable, starting fresh")
	}

	if err := m.drv.Navigate(ctx, url); err != nil {
		return fmt.Errorf("open %s: %w: %v", url, ErrNavigation, err)
	}

	look, err := m.drv.Find(ctx, probe, m.cfg.WaitTimeout)
	if err != nil {
		return err
	}
	if look.State == browser.Found {
		m.log.Info("already logged in")
		m.persist(ctx)
		return nil
	}

	if !m.cfg.Interactive {
		return fmt.Errorf("%w: no valid session and manual login is unavailable in this run", ErrLoginFailed)
	}

	m.log.Info("waiting for manual login in the browser window")
	if err := m.prompt("Log in in the browser window, then press Enter"); err != nil {
		return fmt.Errorf("%w: login prompt aborted: %v", ErrLoginFailed, err)
	}

	look, err = m.drv.Find(ctx, probe, m.cfg.LoginTimeout)
	if err != nil {
		return err
	}
	if look.State != browser.Found {
		return fmt.Errorf("%w: still not logged in after manual login", ErrLoginFailed)
	}
	m.log.Info("manual login confirmed")
	m.persist(ctx)
	return nil
}

// persist saves the live cookies back to the store. Failures are logged
// rather than returned: the session itself is valid, only its reuse next
// run is at risk.
func (m *Manager) persist(ctx context.Context) {
	cookies, err := m.drv.Cookies(ctx)
	if err != nil {
		m.log.WithError(err).Warn("could not read cookies for saving")
		return
	}
	if err := m.store.Save(cookies); err != nil {
		m.log.WithError(err).Warn("could not save session")
		return
	}
	m.log.WithFields(logrus.Fields{"path": m.store.Path(), "count": len(cookies)}).Info("session saved")
}
