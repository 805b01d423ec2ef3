package dashboard

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatter_Currency(t *testing.T) {
	f := NewFormatter("PLN")

	tests := []struct {
		name    string
		amount  float64
		compact bool
		want    string
	}{
		{"zero", 0, false, "PLN 0.00"},
		{"grouping", 1234567.891, false, "PLN 1,234,567.89"},
		{"two decimals", 12.5, false, "PLN 12.50"},
		{"negative", -2500, false, "-PLN 2,500.00"},
		{"rounds to zero keeps no sign", -0.001, false, "PLN 0.00"},
		{"compact below threshold", 9999.99, true, "PLN 9,999.99"},
		{"compact thousands", 12345, true, "PLN 12.3K"},
		{"compact whole", 12000, true, "PLN 12K"},
		{"compact millions", 1500000, true, "PLN 1.5M"},
		{"compact negative", -45000, true, "-PLN 45K"},
		{"compact promotes unit", 999950, true, "PLN 1M"},
		{"compact billions", 2340000000, true, "PLN 2.3B"},
		{"no compact when disabled", 12345, false, "PLN 12,345.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.Currency(tt.amount, tt.compact))
		})
	}
}

func TestFormatter_DefaultCurrency(t *testing.T) {
	assert.Equal(t, "PLN 1.00", NewFormatter("").Currency(1, false))
	assert.Equal(t, "EUR 1.00", NewFormatter("EUR").Currency(1, false))
}

func TestFormatter_Amount(t *testing.T) {
	f := NewFormatter("PLN")
	assert.Equal(t, "PLN 10.10", f.Amount(decimal.RequireFromString("10.1"), false))
}

func TestFormatter_Date(t *testing.T) {
	f := NewFormatter("PLN")
	s := "2024-03-07"
	bad := "soon"
	empty := ""

	assert.Equal(t, "3/7/2024", f.Date(&s, false))
	assert.Equal(t, "Mar 7", f.Date(&s, true))
	assert.Equal(t, Placeholder, f.Date(nil, false))
	assert.Equal(t, Placeholder, f.Date(&empty, true))
	assert.Equal(t, "soon", f.Date(&bad, false))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "Short", Truncate("Short", 8))
	assert.Equal(t, "Exactly8", Truncate("Exactly8", 8))
	assert.Equal(t, "Warehous...", Truncate("Warehouse Expansion", 8))
	assert.Equal(t, "Łódź Offic...", Truncate("Łódź Office Fitout", 10))
	assert.Equal(t, "Warehouse Expansion", Truncate("Warehouse Expansion", 0))
}

func TestLastUpdated(t *testing.T) {
	loaded := time.Date(2024, 5, 1, 14, 3, 9, 0, time.UTC)

	tests := []struct {
		after time.Duration
		want  string
	}{
		{0, "Just now"},
		{59 * time.Second, "Just now"},
		{time.Minute, "1 minute ago"},
		{5*time.Minute + 10*time.Second, "5 minutes ago"},
		{59 * time.Minute, "59 minutes ago"},
		{2 * time.Hour, "2:03:09 PM"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LastUpdated(loaded, loaded.Add(tt.after)), "after %s", tt.after)
	}
	assert.Equal(t, "", LastUpdated(time.Time{}, loaded))
}

func TestStatusColorAndTone(t *testing.T) {
	assert.Equal(t, "#4CAF50", StatusColor("Completed"))
	assert.Equal(t, "#2196F3", StatusColor("In Progress"))
	assert.Equal(t, "#9E9E9E", StatusColor("Not Started"))
	assert.Equal(t, "#000000", StatusColor("Archived"))

	assert.Equal(t, "positive", Tone(0))
	assert.Equal(t, "negative", Tone(-0.01))
}
