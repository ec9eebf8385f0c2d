package marketdata

import (
	"fmt"

	"github.com/Syauqi-N/Bot-Saham/internal/model"
)

// Interval is a bar interval in the data source's own notation.
type Interval string

const (
	Interval1m  Interval = "1"
	Interval5m  Interval = "5"
	Interval15m Interval = "15"
	Interval1h  Interval = "60"
	Interval1D  Interval = "1D"
)

// ParseInterval maps the short config notation to an Interval.
func ParseInterval(s string) (Interval, error) {
	switch s {
	case "1m":
		return Interval1m, nil
	case "5m":
		return Interval5m, nil
	case "15m":
		return Interval15m, nil
	case "1h":
		return Interval1h, nil
	case "1d":
		return Interval1D, nil
	}
	return "", fmt.Errorf("unknown interval %q", s)
}

// Fetcher defines the interface for fetching historical bars.
type Fetcher interface {
	FetchBars(symbol, exchange string, interval Interval, nBars int) ([]model.Bar, error)
	Name() string
}
