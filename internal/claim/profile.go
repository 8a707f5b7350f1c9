// Package claim drives the storefront reward flows: the daily coin
// claim, the seller coupon sweep, and the flash sale listing.
package claim

import (
	"fmt"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Profile holds the storefront's URLs and CSS selectors. Sites of this
// kind rename their obfuscated classes without notice, so everything the
// flows touch is data here and can be overridden from a YAML file
// without a rebuild.
type Profile struct {
	HomeURL    string `yaml:"home_url"`
	RewardsURL string `yaml:"rewards_url"`
	VoucherURL string `yaml:"voucher_url"`

	// PopupClose dismisses the interstitial promo dialog shown on entry.
	PopupClose string `yaml:"popup_close"`
	// Avatar is present only while logged in.
	Avatar string `yaml:"avatar"`

	// PageReady marks the rewards widget as rendered.
	PageReady string `yaml:"page_ready"`
	// Balance is the current coin total inside the widget.
	Balance string `yaml:"balance"`
	// ClaimControl is the claim button. It leaves the DOM once the day's
	// reward is taken.
	ClaimControl string `yaml:"claim_control"`
	// ClaimLabel must appear in the control's text for it to be
	// claimable; any other text means today's reward is already taken.
	ClaimLabel string `yaml:"claim_label"`
	// ClaimedMarker replaces the control after a successful claim.
	ClaimedMarker string `yaml:"claimed_marker"`

	CouponCard      string `yaml:"coupon_card"`
	CouponDetail    string `yaml:"coupon_detail"`
	CouponName      string `yaml:"coupon_name"`
	CouponTerm      string `yaml:"coupon_term"`
	CouponButton    string `yaml:"coupon_button"`
	CouponBadge     string `yaml:"coupon_badge"`
	BrowseOnlyLabel string `yaml:"browse_only_label"`
	// VoucherAnchor is clicked once after opening the voucher page so
	// the document receives keyboard focus and PageDown scrolls it.
	VoucherAnchor string `yaml:"voucher_anchor"`

	FlashSaleEntry  string `yaml:"flash_sale_entry"`
	SaleItemCard    string `yaml:"sale_item_card"`
	SaleItemName    string `yaml:"sale_item_name"`
	SaleItemPrice   string `yaml:"sale_item_price"`
	SaleItemSoldOut string `yaml:"sale_item_sold_out"`
}

// DefaultProfile returns the selectors and URLs of the Taiwan storefront
// as currently deployed.
func DefaultProfile() Profile {
	return Profile{
		HomeURL:    "https://shopee.tw",
		RewardsURL: "https://shopee.tw/shopee-coins",
		VoucherURL: "https://shopee.tw/m/seller-voucher?smtt=0.0.7",

		PopupClose: ".shopee-popup__close-btn",
		Avatar:     ".shopee-avatar",

		PageReady:     ".check-box",
		Balance:       ".check-box .total-coins",
		ClaimControl:  ".check-box .check-in-tip",
		ClaimLabel:    "簽到",
		ClaimedMarker: ".check-box .top-btn.Regular",

		CouponCard:      "div._3ubyiy",
		CouponDetail:    "div._2sbcJ3",
		CouponName:      "h1",
		CouponTerm:      "p",
		CouponButton:    "button",
		CouponBadge:     "svg > g > text",
		BrowseOnlyLabel: "去逛逛",
		VoucherAnchor:   "img.uSG0wm.V1Fpl5",

		FlashSaleEntry:  "div.shopee-flash-sale-overview-carousel button",
		SaleItemCard:    "div.flash-sale-item-card",
		SaleItemName:    "div.flash-sale-item-card__item-name",
		SaleItemPrice:   "div.flash-sale-item-card__current-price",
		SaleItemSoldOut: "div.flash-sale-sold-out",
	}
}

// LoadProfile reads a YAML profile from path and lays it over the
// defaults, so an override file only needs the selectors that drifted.
func LoadProfile(fs afero.Fs, path string) (Profile, error) {
	profile := DefaultProfile()
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return Profile{}, fmt.Errorf("read profile %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return Profile{}, fmt.Errorf("parse profile %s: %w", path, err)
	}
	if err := profile.Validate(); err != nil {
		return Profile{}, fmt.Errorf("profile %s: %w", path, err)
	}
	return profile, nil
}

// Validate rejects profiles with blanked-out fields the flows cannot run
// without.
func (p Profile) Validate() error {
	required := []struct{ name, value string }{
		{"home_url", p.HomeURL},
		{"rewards_url", p.RewardsURL},
		{"voucher_url", p.VoucherURL},
		{"avatar", p.Avatar},
		{"page_ready", p.PageReady},
		{"balance", p.Balance},
		{"claim_control", p.ClaimControl},
		{"claimed_marker", p.ClaimedMarker},
		{"coupon_card", p.CouponCard},
		{"coupon_detail", p.CouponDetail},
		{"coupon_name", p.CouponName},
		{"coupon_button", p.CouponButton},
		{"sale_item_card", p.SaleItemCard},
		{"sale_item_name", p.SaleItemName},
	}
	for _, field := range required {
		if field.value == "" {
			return fmt.Errorf("field %s must not be empty", field.name)
		}
	}
	return nil
}
