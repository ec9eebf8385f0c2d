package quote

import "github.com/Syauqi-N/Bot-Saham/internal/model"

// computePivots derives classic pivot-point support/resistance levels from
// one high/low/close bar. Callers must ensure high != low.
func computePivots(high, low, close float64) model.PivotLevels {
	pivot := (high + low + close) / 3
	return model.PivotLevels{
		R1: 2*pivot - low,
		S1: 2*pivot - high,
		R2: pivot + (high - low),
		S2: pivot - (high - low),
		R3: high + 2*(pivot-low),
		S3: low - 2*(high-pivot),
	}
}
