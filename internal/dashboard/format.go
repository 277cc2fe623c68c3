package dashboard

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var usPrinter = message.NewPrinter(language.AmericanEnglish)

// FormatUSD renders a price with grouping and two decimals: $63,123.45.
func FormatUSD(v float64) string {
	return "$" + usPrinter.Sprintf("%.2f", v)
}

// FormatUSDWhole renders an amount rounded to whole dollars: $2,400,000,000,000.
func FormatUSDWhole(v float64) string {
	return "$" + usPrinter.Sprintf("%.0f", v)
}

func FormatPct(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}

// FormatLocalTime uses the en-US short date-time form: 2/13/2026, 7:10:00 PM.
func FormatLocalTime(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("1/2/2006, 3:04:05 PM")
}
