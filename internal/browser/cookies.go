package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"
)

// Cookie is the persisted form of a browser cookie. Expires is seconds
// since the Unix epoch; values below zero mark session cookies, which
// are restored without an expiry.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	HTTPOnly bool    `json:"http_only"`
	Secure   bool    `json:"secure"`
	SameSite string  `json:"same_site,omitempty"`
}

// Session reports whether the cookie lives only as long as the browser.
func (c Cookie) Session() bool { return c.Expires < 0 }

// Cookies returns every cookie in the browser's cookie store.
func (b *Browser) Cookies(ctx context.Context) ([]Cookie, error) {
	var cookies []*network.Cookie
	err := b.run(ctx, b.cfg.opTimeout(), chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		cookies, err = storage.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("read cookies: %w", err)
	}
	return fromCDP(cookies), nil
}

// SetCookies injects cookies into the browser's cookie store. Meant to
// run before the first navigation so the site sees them immediately.
func (b *Browser) SetCookies(ctx context.Context, cookies []Cookie) error {
	if len(cookies) == 0 {
		return nil
	}
	params := toCDP(cookies)
	err := b.run(ctx, b.cfg.opTimeout(), chromedp.ActionFunc(func(ctx context.Context) error {
		return storage.SetCookies(params).Do(ctx)
	}))
	if err != nil {
		return fmt.Errorf("set cookies: %w", err)
	}
	b.log.WithField("count", len(cookies)).Debug("cookies restored")
	return nil
}

func fromCDP(in []*network.Cookie) []Cookie {
	out := make([]Cookie, 0, len(in))
	for _, c := range in {
		if c == nil {
			continue
		}
		cookie := Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expires,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
			SameSite: string(c.SameSite),
		}
		if c.Session || c.Expires <= 0 {
			cookie.Expires = -1
		}
		out = append(out, cookie)
	}
	return out
}

func toCDP(in []Cookie) []*network.CookieParam {
	out := make([]*network.CookieParam, 0, len(in))
	for _, c := range in {
		param := &network.CookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
		}
		if c.SameSite != "" {
			param.SameSite = network.CookieSameSite(c.SameSite)
		}
		if !c.Session() {
			sec := int64(c.Expires)
			nsec := int64((c.Expires - float64(sec)) * float64(time.Second))
			expires := cdp.TimeSinceEpoch(time.Unix(sec, nsec))
			param.Expires = &expires
		}
		out = append(out, param)
	}
	return out
}
