package model

import "time"

// Bar is a single OHLCV candlestick as returned by the data source.
// Numeric fields may be NaN when the provider sends null values.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// QuoteBar is the sanitized latest-bar view served to users. Nil pointers
// mean the value was absent or non-numeric upstream; a non-nil pointer is
// always a finite number.
type QuoteBar struct {
	Open      *float64
	High      *float64
	Low       *float64
	Close     *float64
	Volume    *float64
	PrevClose *float64
	Timestamp string // display form, empty when unknown
}

// PivotLevels holds classic pivot-point support/resistance levels derived
// from one daily bar.
type PivotLevels struct {
	S1, S2, S3 float64
	R1, R2, R3 float64
	Time       string // display timestamp of the source bar, "-" style handled by formatter
}
