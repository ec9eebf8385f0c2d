package bot

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/Syauqi-N/Bot-Saham/internal/model"
)

// Footer is the attribution line appended to every outbound message.
const Footer = "© Haris Stockbit"

const timeLayout = "2006-01-02 15:04:05"

// FormatNumber renders a price or volume with thousands separators.
// Integral values drop the decimals; absent values render as "-".
func FormatNumber(v *float64) string {
	if v == nil {
		return "-"
	}
	n := *v
	if n == math.Trunc(n) && math.Abs(n) < 1e15 {
		return humanize.Comma(int64(n))
	}
	return humanize.FormatFloat("#,###.##", n)
}

// FormatChange renders an absolute change and its percentage, both with an
// explicit leading sign for non-negative values. Either absent renders "-".
func FormatChange(change, pct *float64) string {
	if change == nil || pct == nil {
		return "-"
	}
	sign := ""
	if *change >= 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%s (%s%.2f%%)", sign, humanize.FormatFloat("#,###.##", *change), sign, *pct)
}

// FormatTime normalizes upstream time representations into one display
// pattern. Strings that cannot be parsed pass through unchanged.
func FormatTime(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case time.Time:
		if t.IsZero() {
			return ""
		}
		return t.Format(timeLayout)
	case string:
		for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", timeLayout, "2006-01-02"} {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed.Format(timeLayout)
			}
		}
		return t
	case int64:
		return time.Unix(t, 0).Format(timeLayout)
	case float64:
		return time.Unix(int64(t), 0).Format(timeLayout)
	default:
		return fmt.Sprint(v)
	}
}

// QuoteMessage builds the multi-line quote reply. display overrides the
// default "SYMBOL (EXCHANGE)" header; piv, when present, appends the
// support/resistance block.
func QuoteMessage(symbol, exchange string, bar model.QuoteBar, display string, piv *model.PivotLevels) string {
	var change, pct *float64
	if bar.Close != nil && bar.Open != nil {
		c := *bar.Close - *bar.Open
		change = &c
		if *bar.Open != 0 {
			p := c / *bar.Open * 100
			pct = &p
		}
	}

	header := display
	if header == "" {
		header = fmt.Sprintf("%s (%s)", symbol, exchange)
	}

	var b strings.Builder
	b.WriteString(header + "\n")
	b.WriteString(fmt.Sprintf("Close: %s\n", FormatNumber(bar.Close)))
	b.WriteString(fmt.Sprintf("Change: %s\n", FormatChange(change, pct)))
	b.WriteString(fmt.Sprintf("O/H/L: %s / %s / %s\n",
		FormatNumber(bar.Open), FormatNumber(bar.High), FormatNumber(bar.Low)))
	b.WriteString(fmt.Sprintf("Volume: %s", FormatNumber(bar.Volume)))
	if bar.Timestamp != "" {
		b.WriteString(fmt.Sprintf("\nTime: %s", bar.Timestamp))
	}

	if piv != nil {
		barTime := piv.Time
		if barTime == "" {
			barTime = "-"
		}
		b.WriteString("\n\n")
		b.WriteString(fmt.Sprintf("📊 SUPPORT & RESISTANCE — %s (1 Day)\n\n", symbol))
		b.WriteString("🔻 Support\n")
		b.WriteString(fmt.Sprintf("S1: %s\n", fnum(piv.S1)))
		b.WriteString(fmt.Sprintf("S2: %s\n", fnum(piv.S2)))
		b.WriteString(fmt.Sprintf("S3: %s\n\n", fnum(piv.S3)))
		b.WriteString("🔺 Resistance\n")
		b.WriteString(fmt.Sprintf("R1: %s\n", fnum(piv.R1)))
		b.WriteString(fmt.Sprintf("R2: %s\n", fnum(piv.R2)))
		b.WriteString(fmt.Sprintf("R3: %s\n\n", fnum(piv.R3)))
		b.WriteString(fmt.Sprintf("⏱ %s\n", barTime))
		b.WriteString(Footer)
	}

	return b.String()
}

// HelpMessage returns the static usage text.
func HelpMessage() string {
	return strings.Join([]string{
		"Panduan cepat:",
		"1) Kirim kode saham dengan format: $KODE (contoh: $BBCA)",
		"2) Lihat IHSG: !ihsg",
		"3) Lihat bantuan: !help",
		"",
		"Catatan:",
		"- Data TradingView timeframe 1D",
		"- Output S/R berbasis pivot harian",
	}, "\n")
}

func fnum(v float64) string { return FormatNumber(&v) }
