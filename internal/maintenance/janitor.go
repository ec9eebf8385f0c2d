package maintenance

import (
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Syauqi-N/Bot-Saham/internal/cache"
	"github.com/Syauqi-N/Bot-Saham/internal/ratelimit"
)

// Idle chats older than this lose their rate-limit record. Correctness
// never depends on it; the record table is just kept bounded.
const limiterMaxIdle = time.Hour

// Janitor runs periodic sweeps over the ephemeral stores.
type Janitor struct {
	cron    *cron.Cron
	cache   *cache.Store
	limiter *ratelimit.Limiter
}

// NewJanitor creates a Janitor for the given stores.
func NewJanitor(store *cache.Store, limiter *ratelimit.Limiter) *Janitor {
	return &Janitor{
		cron:    cron.New(cron.WithSeconds()),
		cache:   store,
		limiter: limiter,
	}
}

// Start registers the sweep tasks and starts the cron loop.
func (j *Janitor) Start() error {
	if _, err := j.cron.AddFunc("0 * * * * *", j.sweep); err != nil {
		return fmt.Errorf("register sweep task: %w", err)
	}
	j.cron.Start()
	log.Println("[INFO] maintenance janitor started")
	return nil
}

// Stop stops the cron loop; a running sweep finishes first.
func (j *Janitor) Stop() {
	j.cron.Stop()
	log.Println("[INFO] maintenance janitor stopped")
}

func (j *Janitor) sweep() {
	expired := j.cache.Sweep()
	idle := j.limiter.Sweep(limiterMaxIdle)
	if expired > 0 || idle > 0 {
		log.Printf("[INFO] sweep: %d cache entries expired, %d idle chats dropped", expired, idle)
	}
}
