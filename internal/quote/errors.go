package quote

import "errors"

// Error taxonomy for data fetches. Callers convert these to short
// user-facing messages; they never surface as HTTP failures.
var (
	// ErrUpstreamUnavailable means the datafeed client could not be
	// constructed or authenticated.
	ErrUpstreamUnavailable = errors.New("upstream client unavailable")
	// ErrNoData means the provider returned an empty result set.
	ErrNoData = errors.New("no data returned")
	// ErrInvalidBar means the pivot source bar is unusable (missing
	// high/low/close, or high equals low).
	ErrInvalidBar = errors.New("invalid pivot bar")
	// ErrTransport means the fetch itself failed.
	ErrTransport = errors.New("upstream transport failure")
)

// QuoteErrorMessage maps a Quote error to its user-facing reply text.
func QuoteErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrUpstreamUnavailable):
		return "Gagal login ke TradingView. Periksa kredensial."
	case errors.Is(err, ErrNoData):
		return "Data tidak tersedia untuk simbol tersebut."
	default:
		return "Gagal mengambil data. Coba lagi nanti."
	}
}

// PivotErrorMessage maps a PivotLevels error to its user-facing reply text.
func PivotErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrUpstreamUnavailable):
		return "Gagal login ke TradingView."
	case errors.Is(err, ErrNoData):
		return "Data SR tidak tersedia."
	case errors.Is(err, ErrInvalidBar):
		return "Data SR tidak valid."
	default:
		return "Gagal mengambil data SR."
	}
}
