package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"github.com/sirupsen/logrus"
)

const (
	windowWidth  = 1200
	windowHeight = 800

	// navigateTimeout bounds full page loads, which are much slower than
	// element lookups on an already loaded page.
	navigateTimeout  = 60 * time.Second
	defaultOpTimeout = 10 * time.Second
)

// Config controls how the Chrome session is started and how long page
// operations may block.
type Config struct {
	// Headless hides the browser window. Interactive login is impossible
	// while it is set.
	Headless bool

	// ChromePath overrides the Chrome binary discovered on PATH.
	ChromePath string

	// CDPURL attaches to an already running Chrome over the DevTools
	// protocol instead of launching one. Accepts a ws:// URL, an http://
	// DevTools address, or a bare port.
	CDPURL string

	// UserDataDir keeps the Chrome profile between runs. Empty means a
	// throwaway profile.
	UserDataDir string

	// OpTimeout bounds single page operations (clicks, reads, scripts).
	OpTimeout time.Duration
}

func (c Config) opTimeout() time.Duration {
	if c.OpTimeout > 0 {
		return c.OpTimeout
	}
	return defaultOpTimeout
}

// State reports whether a bounded lookup matched an element.
type State int

const (
	NotFound State = iota
	Found
)

func (s State) String() string {
	if s == Found {
		return "found"
	}
	return "not found"
}

// Lookup is the result of a bounded element search. Text carries the
// element's trimmed inner text when State is Found.
type Lookup struct {
	State State
	Text  string
}

// Browser drives a single Chrome tab. All methods block until the
// operation completes, its internal timeout expires, or ctx is done.
type Browser struct {
	cfg Config
	log *logrus.Entry

	allocCtx    context.Context
	allocCancel context.CancelFunc
	tabCtx      context.Context
	tabCancel   context.CancelFunc
}

func New(cfg Config, log *logrus.Entry) *Browser {
	if log == nil {
		log = logrus.NewEntry(logrus.New())
	}
	return &Browser{cfg: cfg, log: log}
}

// Start launches Chrome (or attaches to a running one when CDPURL is set)
// and opens the tab every later call operates on.
func (b *Browser) Start(ctx context.Context) error {
	if b.tabCtx != nil {
		return errors.New("browser already started")
	}

	if raw := strings.TrimSpace(b.cfg.CDPURL); raw != "" {
		wsURL, err := resolveCDPURL(ctx, raw)
		if err != nil {
			return fmt.Errorf("resolve cdp url %q: %w", raw, err)
		}
		b.log.WithField("ws_url", wsURL).Debug("attaching to remote chrome")
		b.allocCtx, b.allocCancel = chromedp.NewRemoteAllocator(context.Background(), wsURL)
	} else {
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", b.cfg.Headless),
			chromedp.Flag("disable-gpu", b.cfg.Headless),
			chromedp.WindowSize(windowWidth, windowHeight),
		)
		if path := strings.TrimSpace(b.cfg.ChromePath); path != "" {
			opts = append(opts, chromedp.ExecPath(path))
		}
		if dir := strings.TrimSpace(b.cfg.UserDataDir); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create user data dir: %w", err)
			}
			opts = append(opts, chromedp.UserDataDir(dir))
		}
		b.log.WithField("headless", b.cfg.Headless).Debug("launching chrome")
		b.allocCtx, b.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	}

	b.tabCtx, b.tabCancel = chromedp.NewContext(b.allocCtx)
	if err := b.run(ctx, navigateTimeout, chromedp.Navigate("about:blank")); err != nil {
		b.Close()
		return fmt.Errorf("start chrome: %w", err)
	}
	return nil
}

// Close tears the tab and the browser down. Safe to call on a Browser
// that never started or already closed.
func (b *Browser) Close() {
	if b.tabCancel != nil {
		b.tabCancel()
		b.tabCtx, b.tabCancel = nil, nil
	}
	if b.allocCancel != nil {
		b.allocCancel()
		b.allocCtx, b.allocCancel = nil, nil
	}
}

// run executes actions against the tab, bounded by both timeout and ctx.
func (b *Browser) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if b.tabCtx == nil {
		return errors.New("browser not started")
	}
	runCtx, cancel := context.WithTimeout(b.tabCtx, timeout)
	defer cancel()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-stop:
		}
	}()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

// Navigate loads url and waits for the page load event.
func (b *Browser) Navigate(ctx context.Context, url string) error {
	b.log.WithField("url", url).Debug("navigating")
	if err := b.run(ctx, navigateTimeout, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

// Find waits up to wait for an element matching the CSS selector sel.
// Absence within the window is a NotFound lookup, not an error; errors
// are reserved for a canceled ctx or a broken browser session.
func (b *Browser) Find(ctx context.Context, sel string, wait time.Duration) (Lookup, error) {
	if wait <= 0 {
		wait = b.cfg.opTimeout()
	}
	var text string
	err := b.run(ctx, wait, chromedp.Text(sel, &text, chromedp.ByQuery))
	if err == nil {
		return Lookup{State: Found, Text: strings.TrimSpace(text)}, nil
	}
	if ctx.Err() != nil {
		return Lookup{}, err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		b.log.WithField("selector", sel).Trace("element not found within wait window")
		return Lookup{}, nil
	}
	return Lookup{}, fmt.Errorf("find %s: %w", sel, err)
}

// Click clicks the first element matching sel. When the browser engine
// refuses the click (typically because an overlay intercepts the hit
// point) it retries once from inside the page.
func (b *Browser) Click(ctx context.Context, sel string) error {
	err := b.run(ctx, b.cfg.opTimeout(), chromedp.Click(sel, chromedp.ByQuery))
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return err
	}
	b.log.WithField("selector", sel).WithError(err).Debug("engine click failed, retrying from page script")
	return b.scriptClick(ctx, sel, 0)
}

// ClickNth clicks the index-th element matching sel, counted in document
// order. The click runs inside the page so covered or off-screen
// elements still receive it.
func (b *Browser) ClickNth(ctx context.Context, sel string, index int) error {
	return b.scriptClick(ctx, sel, index)
}

const scriptClickJS = `(function(sel, idx) {
	const nodes = document.querySelectorAll(sel);
	if (idx < 0 || idx >= nodes.length) {
		return false;
	}
	nodes[idx].scrollIntoView({block: "center"});
	nodes[idx].click();
	return true;
})(%q, %d)`

func (b *Browser) scriptClick(ctx context.Context, sel string, index int) error {
	var clicked bool
	script := fmt.Sprintf(scriptClickJS, sel, index)
	if err := b.run(ctx, b.cfg.opTimeout(), chromedp.Evaluate(script, &clicked)); err != nil {
		return fmt.Errorf("click %s: %w", sel, err)
	}
	if !clicked {
		return fmt.Errorf("click %s: no element at index %d", sel, index)
	}
	return nil
}

// Text returns the trimmed inner text of the first element matching sel.
func (b *Browser) Text(ctx context.Context, sel string) (string, error) {
	var text string
	if err := b.run(ctx, b.cfg.opTimeout(), chromedp.Text(sel, &text, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("read %s: %w", sel, err)
	}
	return strings.TrimSpace(text), nil
}

// OuterHTML returns the serialized HTML of the first element matching sel.
func (b *Browser) OuterHTML(ctx context.Context, sel string) (string, error) {
	var html string
	if err := b.run(ctx, b.cfg.opTimeout(), chromedp.OuterHTML(sel, &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("snapshot %s: %w", sel, err)
	}
	return html, nil
}

// Evaluate runs a JavaScript expression in the page and unmarshals its
// result into out. A nil out discards the result.
func (b *Browser) Evaluate(ctx context.Context, expr string, out any) error {
	if err := b.run(ctx, b.cfg.opTimeout(), chromedp.Evaluate(expr, out)); err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}
	return nil
}

// PageDown sends the PageDown key times times, pausing between presses
// so lazily rendered content gets a chance to load.
func (b *Browser) PageDown(ctx context.Context, times int, pause time.Duration) error {
	budget := b.cfg.opTimeout() + time.Duration(times)*pause
	for i := 0; i < times; i++ {
		if err := b.run(ctx, budget, chromedp.KeyEvent(kb.PageDown), chromedp.Sleep(pause)); err != nil {
			return fmt.Errorf("page down: %w", err)
		}
	}
	return nil
}

// SettleText polls the text of sel until two consecutive reads agree,
// then returns it. Animated counters need this before their value can be
// trusted. Gives up with the last read after three op timeouts.
func (b *Browser) SettleText(ctx context.Context, sel string, interval time.Duration) (string, error) {
	if interval <= 0 {
		interval = time.Second
	}
	settleCtx, cancel := context.WithTimeout(ctx, 3*b.cfg.opTimeout())
	defer cancel()

	last, err := b.Text(ctx, sel)
	if err != nil {
		return "", err
	}
	for {
		select {
		case <-settleCtx.Done():
			return last, settleCtx.Err()
		case <-time.After(interval):
		}
		text, err := b.Text(ctx, sel)
		if err != nil {
			return "", err
		}
		if text == last {
			return text, nil
		}
		b.log.WithFields(logrus.Fields{"selector": sel, "text": text}).Trace("text still changing")
		last = text
	}
}

// Screenshot captures the current viewport as PNG.
func (b *Browser) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := b.run(ctx, b.cfg.opTimeout(), chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, fmt.Errorf("capture screenshot: %w", err)
	}
	return buf, nil
}
