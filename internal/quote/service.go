package quote

import (
	"fmt"
	"log"
	"math"
	"strconv"
	"sync"

	"github.com/Syauqi-N/Bot-Saham/internal/bot"
	"github.com/Syauqi-N/Bot-Saham/internal/cache"
	"github.com/Syauqi-N/Bot-Saham/internal/marketdata"
	"github.com/Syauqi-N/Bot-Saham/internal/model"
)

// Pivot levels always come from daily bars, using the last closed session.
const (
	pivotBars     = 3
	pivotInterval = marketdata.Interval1D
)

type clientState int

const (
	stateUninitialized clientState = iota
	stateReady
	stateFailed
)

// Service answers quote and pivot-level queries. It owns the datafeed
// client behind a lazily-initialized singleton: a failed initialization is
// sticky for the process lifetime, so a broken upstream degrades replies
// instead of hammering the sign-in endpoint. Known limitation; restart to
// recover.
type Service struct {
	newFetcher func() (marketdata.Fetcher, error)
	cache      *cache.Store
	exchange   string
	interval   marketdata.Interval
	bars       int

	mu      sync.Mutex
	state   clientState
	fetcher marketdata.Fetcher
	initErr error
}

// NewService builds a Service. newFetcher is invoked at most once, on the
// first query that needs the upstream.
func NewService(newFetcher func() (marketdata.Fetcher, error), store *cache.Store, exchange string, interval marketdata.Interval, bars int) *Service {
	return &Service{
		newFetcher: newFetcher,
		cache:      store,
		exchange:   exchange,
		interval:   interval,
		bars:       bars,
	}
}

func (s *Service) handle() (marketdata.Fetcher, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case stateReady:
		return s.fetcher, nil
	case stateFailed:
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, s.initErr)
	}
	f, err := s.newFetcher()
	if err != nil {
		s.state = stateFailed
		s.initErr = err
		log.Printf("[ERROR] init datafeed client: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	s.state = stateReady
	s.fetcher = f
	log.Printf("[INFO] datafeed client ready: %s", f.Name())
	return f, nil
}

// Quote returns the latest bar for symbol, cache-first. The previous bar's
// close is carried along for change computation.
func (s *Service) Quote(symbol string) (model.QuoteBar, error) {
	key := cache.Key(s.exchange, symbol, "quote", string(s.interval), strconv.Itoa(s.bars))
	if v, ok := s.cache.Get(key); ok {
		if qb, ok := v.(model.QuoteBar); ok {
			return qb, nil
		}
	}

	f, err := s.handle()
	if err != nil {
		return model.QuoteBar{}, err
	}
	bars, err := f.FetchBars(symbol, s.exchange, s.interval, s.bars)
	if err != nil {
		log.Printf("[WARN] fetch bars %s:%s: %v", s.exchange, symbol, err)
		return model.QuoteBar{}, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	if len(bars) == 0 {
		return model.QuoteBar{}, ErrNoData
	}

	last := bars[len(bars)-1]
	qb := model.QuoteBar{
		Open:      safeFloat(last.Open),
		High:      safeFloat(last.High),
		Low:       safeFloat(last.Low),
		Close:     safeFloat(last.Close),
		Volume:    safeFloat(last.Volume),
		Timestamp: bot.FormatTime(last.Time),
	}
	if len(bars) > 1 {
		qb.PrevClose = safeFloat(bars[len(bars)-2].Close)
	}

	s.cache.Set(key, qb)
	return qb, nil
}

// PivotLevels computes support/resistance levels for symbol from the most
// recently closed daily session, cache-first under its own key.
func (s *Service) PivotLevels(symbol string) (model.PivotLevels, error) {
	key := cache.Key(s.exchange, symbol, "sr", string(pivotInterval), strconv.Itoa(pivotBars))
	if v, ok := s.cache.Get(key); ok {
		if p, ok := v.(model.PivotLevels); ok {
			return p, nil
		}
	}

	f, err := s.handle()
	if err != nil {
		return model.PivotLevels{}, err
	}
	bars, err := f.FetchBars(symbol, s.exchange, pivotInterval, pivotBars)
	if err != nil {
		log.Printf("[WARN] fetch pivot bars %s:%s: %v", s.exchange, symbol, err)
		return model.PivotLevels{}, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	if len(bars) == 0 {
		return model.PivotLevels{}, ErrNoData
	}

	// Prefer the second-to-last bar: the last one may be an incomplete
	// current session.
	idx := len(bars) - 1
	if len(bars) > 1 {
		idx = len(bars) - 2
	}
	bar := bars[idx]
	high := safeFloat(bar.High)
	low := safeFloat(bar.Low)
	close := safeFloat(bar.Close)
	if high == nil || low == nil || close == nil || *high == *low {
		return model.PivotLevels{}, ErrInvalidBar
	}

	levels := computePivots(*high, *low, *close)
	levels.Time = bot.FormatTime(bar.Time)

	s.cache.Set(key, levels)
	return levels, nil
}

// safeFloat converts a raw numeric into an optional value, mapping NaN and
// infinities to absent.
func safeFloat(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
