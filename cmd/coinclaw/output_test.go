package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"coinclaw/internal/claim"
)

func TestPrintSaleItems(t *testing.T) {
	var buf bytes.Buffer
	printSaleItems(&buf, []claim.SaleItem{
		{Name: "無線滑鼠", Price: "$299"},
		{Name: "藍牙耳機", Price: "$599", SoldOut: true},
	})

	out := buf.String()
	assert.Contains(t, out, "無線滑鼠")
	assert.Contains(t, out, "藍牙耳機")
	assert.Contains(t, out, "sold out")
	assert.Contains(t, out, "2 item(s)")
}

func TestPrintSaleItemsEmpty(t *testing.T) {
	var buf bytes.Buffer
	printSaleItems(&buf, nil)
	assert.Contains(t, buf.String(), "no flash sale items")
}

func TestOrDash(t *testing.T) {
	assert.Equal(t, "-", orDash(""))
	assert.Equal(t, "120", orDash("120"))
}

func TestHumanAge(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{30 * time.Second, "just now"},
		{5 * time.Minute, "5m ago"},
		{3 * time.Hour, "3h ago"},
		{49 * time.Hour, "2d ago"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, humanAge(tc.d))
	}
}
