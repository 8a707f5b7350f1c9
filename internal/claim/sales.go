package claim

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"coinclaw/internal/browser"
)

const (
	// salesScrollPause gives the sale grid time to append a batch of
	// cards after each scroll.
	salesScrollPause = 3 * time.Second

	// maxScrollRounds caps the scroll loop in case the grid never stops
	// growing.
	maxScrollRounds = 50
)

// SaleItem is one product card from the flash sale overview.
type SaleItem struct {
	Name    string
	Price   string
	SoldOut bool
}

// Lister collects the current flash sale items. Read only, works
// without a session.
type Lister struct {
	drv  Driver
	p    Profile
	opts Options
	log  *logrus.Entry
}

func NewLister(drv Driver, p Profile, opts Options, log *logrus.Entry) *Lister {
	if log == nil {
		log = logrus.NewEntry(logrus.New())
	}
	return &Lister{drv: drv, p: p, opts: opts, log: log}
}

// List opens the flash sale overview from the home page, scrolls until
// the grid stops growing, and returns every item card on it.
func (l *Lister) List(ctx context.Context) ([]SaleItem, error) {
	if err := l.drv.Navigate(ctx, l.p.HomeURL); err != nil {
		return nil, &StepError{Step: "open home page", Err: fmt.Errorf("%w: %v", ErrNavigation, err)}
	}
	dismissInterstitial(ctx, l.drv, l.p, l.log)

	rail, err := l.drv.Find(ctx, l.p.FlashSaleEntry, l.opts.WaitTimeout)
	if err != nil {
		return nil, &StepError{Step: "locate flash sale rail", Err: err}
	}
	if rail.State != browser.Found {
		return nil, &StepError{
			Step: "locate flash sale rail",
			Err:  fmt.Errorf("%w: %q", ErrControlNotFound, l.p.FlashSaleEntry),
		}
	}
	if err := l.drv.Click(ctx, l.p.FlashSaleEntry); err != nil {
		return nil, &StepError{Step: "open flash sale overview", Err: err}
	}

	first, err := l.drv.Find(ctx, l.p.SaleItemCard, l.opts.WaitTimeout)
	if err != nil {
		return nil, &StepError{Step: "wait for sale items", Err: err}
	}
	if first.State != browser.Found {
		return nil, &StepError{
			Step: "wait for sale items",
			Err:  fmt.Errorf("%w: %q never rendered", ErrControlNotFound, l.p.SaleItemCard),
		}
	}

	if err := l.scrollToEnd(ctx); err != nil {
		return nil, err
	}
	html, err := l.drv.OuterHTML(ctx, "body")
	if err != nil {
		return nil, &StepError{Step: "snapshot sale overview", Err: err}
	}
	items, err := parseSaleItems(html, l.p)
	if err != nil {
		return nil, &StepError{Step: "parse sale overview", Err: err}
	}
	l.log.WithField("items", len(items)).Info("flash sale items collected")
	return items, nil
}

// scrollToEnd pages down until the document height stops changing, which
// is when the grid has loaded all its cards.
func (l *Lister) scrollToEnd(ctx context.Context) error {
	lastHeight := int64(-1)
	for round := 0; round < maxScrollRounds; round++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		var height int64
		if err := l.drv.Evaluate(ctx, "document.body.scrollHeight", &height); err != nil {
			return &StepError{Step: "measure sale overview", Err: err}
		}
		if height == lastHeight {
			return nil
		}
		lastHeight = height
		if err := l.drv.PageDown(ctx, 1, salesScrollPause); err != nil {
			return &StepError{Step: "scroll sale overview", Err: err}
		}
	}
	l.log.WithField("rounds", maxScrollRounds).Warn("sale overview kept growing, listing what loaded")
	return nil
}

// parseSaleItems extracts the item cards from a page snapshot.
func parseSaleItems(html string, p Profile) ([]SaleItem, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	var items []SaleItem
	doc.Find(p.SaleItemCard).Each(func(_ int, card *goquery.Selection) {
		item := SaleItem{
			Name:  strings.TrimSpace(card.Find(p.SaleItemName).First().Text()),
			Price: strings.TrimSpace(card.Find(p.SaleItemPrice).First().Text()),
		}
		if p.SaleItemSoldOut != "" && card.Find(p.SaleItemSoldOut).Length() > 0 {
			item.SoldOut = true
		}
		items = append(items, item)
	})
	return items, nil
}
