package dashboard

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/dalemusser/projectdash/internal/domain/models"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Placeholder is shown for values that are absent.
const Placeholder = "—"

// compactThreshold is the smallest magnitude shown in compact notation.
const compactThreshold = 10000

// Formatter renders amounts, dates and labels for display.
type Formatter struct {
	currency string
	p        *message.Printer
}

// NewFormatter builds a Formatter using US English grouping.
func NewFormatter(currency string) Formatter {
	if currency == "" {
		currency = "PLN"
	}
	return Formatter{
		currency: currency,
		p:        message.NewPrinter(language.AmericanEnglish),
	}
}

// Currency formats an amount with two decimals, e.g. "PLN 12,345.60".
// With compact set, magnitudes of 10,000 and above use K/M/B notation with at
// most one decimal, e.g. "PLN 12.3K".
func (f Formatter) Currency(amount float64, compact bool) string {
	d := decimal.NewFromFloat(amount).Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}

	if compact && d.GreaterThanOrEqual(decimal.NewFromInt(compactThreshold)) {
		return sign + f.currency + " " + compactNumber(d)
	}
	v, _ := d.Float64()
	return sign + f.currency + " " + f.p.Sprintf("%.2f", v)
}

// Amount formats a decimal total.
func (f Formatter) Amount(d decimal.Decimal, compact bool) string {
	v, _ := d.Float64()
	return f.Currency(v, compact)
}

var compactUnits = []struct {
	suffix string
	size   decimal.Decimal
}{
	{"K", decimal.New(1, 3)},
	{"M", decimal.New(1, 6)},
	{"B", decimal.New(1, 9)},
	{"T", decimal.New(1, 12)},
}

func compactNumber(d decimal.Decimal) string {
	unit := 0
	for unit+1 < len(compactUnits) && d.GreaterThanOrEqual(compactUnits[unit+1].size) {
		unit++
	}
	scaled := d.Div(compactUnits[unit].size).Round(1)
	// 999,950 rounds to 1000.0K; promote to the next unit.
	if scaled.GreaterThanOrEqual(decimal.NewFromInt(1000)) && unit+1 < len(compactUnits) {
		unit++
		scaled = d.Div(compactUnits[unit].size).Round(1)
	}
	return scaled.String() + compactUnits[unit].suffix
}

// Date formats a YYYY-MM-DD date. Compact dates omit the year.
// nil renders the placeholder; unparseable input is returned as is.
func (f Formatter) Date(s *string, compact bool) string {
	if s == nil || *s == "" {
		return Placeholder
	}
	t, err := time.Parse(models.DateLayout, *s)
	if err != nil {
		return *s
	}
	if compact {
		return t.Format("Jan 2")
	}
	return t.Format("1/2/2006")
}

// Percent formats a completion percentage.
func (f Formatter) Percent(v int) string {
	return fmt.Sprintf("%d%%", v)
}

// Truncate shortens s to limit runes plus "...". A limit of zero disables it.
func Truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)
	return string(r[:limit]) + "..."
}

// LastUpdated describes how long ago data was loaded.
func LastUpdated(loadedAt, now time.Time) string {
	if loadedAt.IsZero() {
		return ""
	}
	minutes := int(now.Sub(loadedAt) / time.Minute)
	switch {
	case minutes < 1:
		return "Just now"
	case minutes == 1:
		return "1 minute ago"
	case minutes < 60:
		return fmt.Sprintf("%d minutes ago", minutes)
	default:
		return loadedAt.Format("3:04:05 PM")
	}
}

// StatusColor is the chart and badge color for a status.
func StatusColor(status string) string {
	switch status {
	case models.StatusCompleted:
		return "#4CAF50"
	case models.StatusInProgress:
		return "#2196F3"
	case models.StatusNotStarted:
		return "#9E9E9E"
	default:
		return "#000000"
	}
}

// Tone classifies a signed amount for styling.
func Tone(v float64) string {
	if v >= 0 {
		return "positive"
	}
	return "negative"
}
