package claim

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"coinclaw/internal/browser"
)

const (
	// scrollPresses and scrollPause pace each scroll round of the lazily
	// rendered voucher list.
	scrollPresses = 2
	scrollPause   = 500 * time.Millisecond

	// sweepGrace is how many consecutive rounds may pass without new
	// cards or claims before the sweep concludes the list is exhausted.
	sweepGrace = 5
)

// Coupon is one card parsed from the voucher list.
type Coupon struct {
	Name    string
	Terms   string
	Button  string
	Buttons int
	Badge   string
}

// key identifies a card across scroll rounds. The list only appends, so
// name plus terms is stable.
func (c Coupon) key() string { return c.Name + "\x00" + c.Terms }

// SweepReport describes what a coupon sweep did.
type SweepReport struct {
	Claimed    []string
	BrowseOnly int
	SoldOut    int
	Rounds     int
	DryRun     bool
}

// Sweeper walks the seller voucher list and claims every coupon that can
// be claimed, up to a configured limit.
type Sweeper struct {
	drv  Driver
	p    Profile
	opts Options
	max  int
	log  *logrus.Entry
}

// NewSweeper builds a sweeper claiming at most maxClaims coupons per
// run; zero or negative means no limit.
func NewSweeper(drv Driver, p Profile, opts Options, maxClaims int, log *logrus.Entry) *Sweeper {
	if log == nil {
		log = logrus.NewEntry(logrus.New())
	}
	return &Sweeper{drv: drv, p: p, opts: opts, max: maxClaims, log: log}
}

// Sweep scrolls through the voucher list in rounds, parsing the page
// after each scroll and claiming the new claimable cards. Individual
// card failures are logged and skipped; only page-level failures abort.
func (w *Sweeper) Sweep(ctx context.Context) (*SweepReport, error) {
	if err := w.drv.Navigate(ctx, w.p.VoucherURL); err != nil {
		return nil, &StepError{Step: "open voucher page", Err: fmt.Errorf("%w: %v", ErrNavigation, err)}
	}
	w.focusList(ctx)

	report := &SweepReport{DryRun: w.opts.DryRun}
	seen := make(map[string]bool)
	grace := 0
	lastSeen := -1

	for {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if w.limitReached(report) {
			w.log.WithField("max", w.max).Info("claim limit reached")
			return report, nil
		}

		if err := w.drv.PageDown(ctx, scrollPresses, scrollPause); err != nil {
			return report, &StepError{Step: "scroll voucher list", Err: err}
		}
		html, err := w.drv.OuterHTML(ctx, "body")
		if err != nil {
			return report, &StepError{Step: "snapshot voucher list", Err: err}
		}
		coupons, err := parseCoupons(html, w.p)
		if err != nil {
			return report, &StepError{Step: "parse voucher list", Err: err}
		}
		report.Rounds++

		claimed := w.processRound(ctx, coupons, seen, report)

		if len(seen) == lastSeen && claimed == 0 {
			grace++
			if grace >= sweepGrace {
				w.log.WithField("cards", len(seen)).Info("voucher list exhausted")
				return report, nil
			}
		} else {
			grace = 0
		}
		lastSeen = len(seen)
	}
}

// processRound handles the cards of one scroll round and returns how
// many coupons it claimed.
func (w *Sweeper) processRound(ctx context.Context, coupons []Coupon, seen map[string]bool, report *SweepReport) int {
	claimed := 0
	nextButton := 0
	for _, c := range coupons {
		// buttonIdx indexes the page's live button list, which includes
		// buttons of cards handled in earlier rounds; a card can render
		// more than one match, so step by its count.
		buttonIdx := nextButton
		nextButton += c.Buttons
		if c.Name == "" || seen[c.key()] {
			continue
		}
		entry := w.log.WithField("coupon", c.Name)
		switch {
		case c.Buttons == 0:
			seen[c.key()] = true
			if c.Badge != "" {
				report.SoldOut++
				entry.WithField("badge", c.Badge).Info("coupon gone")
			} else {
				entry.Debug("coupon card without a button, skipping")
			}
		case w.p.BrowseOnlyLabel != "" && strings.Contains(c.Button, w.p.BrowseOnlyLabel):
			seen[c.key()] = true
			report.BrowseOnly++
			entry.Info("browse-only coupon, skipping")
		default:
			if w.limitReached(report) {
				return claimed
			}
			seen[c.key()] = true
			if w.opts.DryRun {
				entry.Info("dry run, would claim coupon")
			} else if err := w.drv.ClickNth(ctx, w.buttonSelector(), buttonIdx); err != nil {
				entry.WithError(err).Warn("could not claim coupon, moving on")
				continue
			}
			report.Claimed = append(report.Claimed, c.Name)
			claimed++
			entry.WithField("terms", c.Terms).Info("coupon claimed")
		}
	}
	return claimed
}

func (w *Sweeper) limitReached(report *SweepReport) bool {
	return w.max > 0 && len(report.Claimed) >= w.max
}

func (w *Sweeper) buttonSelector() string {
	return w.p.CouponCard + " " + w.p.CouponButton
}

// focusList clicks the list banner so the document owns keyboard focus
// and PageDown scrolls it.
func (w *Sweeper) focusList(ctx context.Context) {
	if w.p.VoucherAnchor == "" {
		return
	}
	look, err := w.drv.Find(ctx, w.p.VoucherAnchor, w.opts.WaitTimeout)
	if err != nil || look.State != browser.Found {
		w.log.WithField("selector", w.p.VoucherAnchor).Debug("voucher banner not found")
		return
	}
	if err := w.drv.Click(ctx, w.p.VoucherAnchor); err != nil {
		w.log.WithError(err).Debug("could not focus the voucher list")
	}
}

// parseCoupons extracts the coupon cards from a page snapshot.
func parseCoupons(html string, p Profile) ([]Coupon, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	var coupons []Coupon
	doc.Find(p.CouponCard).Each(func(_ int, card *goquery.Selection) {
		var c Coupon
		if btns := card.Find(p.CouponButton); btns.Length() > 0 {
			c.Buttons = btns.Length()
			c.Button = strings.TrimSpace(btns.First().Text())
		} else if p.CouponBadge != "" {
			if badge := card.Find(p.CouponBadge).First(); badge.Length() > 0 {
				c.Badge = strings.TrimSpace(badge.Text())
			}
		}
		if detail := card.Find(p.CouponDetail).First(); detail.Length() > 0 {
			c.Name = strings.TrimSpace(detail.Find(p.CouponName).First().Text())
			var terms []string
			detail.Find(p.CouponTerm).Each(func(_ int, term *goquery.Selection) {
				terms = append(terms, term.Text())
			})
			c.Terms = joinTerms(terms)
		}
		coupons = append(coupons, c)
	})
	return coupons, nil
}

// joinTerms flattens the term paragraphs into one line, inserting a
// fullwidth comma between fragments unless one already ends with closing
// punctuation.
func joinTerms(terms []string) string {
	var b strings.Builder
	for _, term := range terms {
		text := strings.TrimSpace(strings.ReplaceAll(term, "\n", ""))
		if text == "" {
			continue
		}
		b.WriteString(text)
		if r, _ := utf8.DecodeLastRuneInString(text); !strings.ContainsRune("，！。", r) {
			b.WriteString("，")
		}
	}
	return strings.TrimSuffix(b.String(), "，")
}
