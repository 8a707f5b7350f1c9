package claim

import (
	"context"
	"errors"
	"time"

	"coinclaw/internal/browser"
)

// fakeDriver scripts lookup results per selector and records every
// mutating call. Find results are consumed in order; an exhausted queue
// reads as NotFound. OuterHTML snapshots and Evaluate heights repeat
// their last entry once consumed.
type fakeDriver struct {
	finds   map[string][]browser.Lookup
	findErr map[string]error

	navigated []string
	navErr    error

	clicks   []string
	clickErr map[string]error

	nthSel []string
	nthIdx []int
	nthErr error

	htmls   []string
	heights []int64

	settle    map[string]string
	settleErr error

	shot    []byte
	shotErr error

	pageDowns int
}

func (f *fakeDriver) Navigate(_ context.Context, url string) error {
	f.navigated = append(f.navigated, url)
	return f.navErr
}

func (f *fakeDriver) Find(_ context.Context, sel string, _ time.Duration) (browser.Lookup, error) {
	if err := f.findErr[sel]; err != nil {
		return browser.Lookup{}, err
	}
	queue := f.finds[sel]
	if len(queue) == 0 {
		return browser.Lookup{}, nil
	}
	next := queue[0]
	f.finds[sel] = queue[1:]
	return next, nil
}

func (f *fakeDriver) Click(_ context.Context, sel string) error {
	if err := f.clickErr[sel]; err != nil {
		return err
	}
	f.clicks = append(f.clicks, sel)
	return nil
}

func (f *fakeDriver) ClickNth(_ context.Context, sel string, index int) error {
	if f.nthErr != nil {
		return f.nthErr
	}
	f.nthSel = append(f.nthSel, sel)
	f.nthIdx = append(f.nthIdx, index)
	return nil
}

func (f *fakeDriver) OuterHTML(context.Context, string) (string, error) {
	if len(f.htmls) == 0 {
		return "", errors.New("no scripted html")
	}
	next := f.htmls[0]
	if len(f.htmls) > 1 {
		f.htmls = f.htmls[1:]
	}
	return next, nil
}

func (f *fakeDriver) Evaluate(_ context.Context, _ string, out any) error {
	if len(f.heights) == 0 {
		return errors.New("no scripted height")
	}
	next := f.heights[0]
	if len(f.heights) > 1 {
		f.heights = f.heights[1:]
	}
	if p, ok := out.(*int64); ok {
		*p = next
	}
	return nil
}

func (f *fakeDriver) PageDown(context.Context, int, time.Duration) error {
	f.pageDowns++
	return nil
}

func (f *fakeDriver) SettleText(_ context.Context, sel string, _ time.Duration) (string, error) {
	if f.settleErr != nil {
		return "", f.settleErr
	}
	return f.settle[sel], nil
}

func (f *fakeDriver) Screenshot(context.Context) ([]byte, error) {
	if f.shotErr != nil {
		return nil, f.shotErr
	}
	if f.shot == nil {
		return []byte("png"), nil
	}
	return f.shot, nil
}
