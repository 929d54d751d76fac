/*
scheduler.go - Automated horizon extension

PURPOSE:
  Open-ended allocations (no effort target, no end) are only computed up
  to a horizon. This scheduler periodically pushes every open-ended
  allocation forward so it always reaches today + HorizonDays.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Runs once immediately on start
  - Allocations already reaching the horizon are left untouched, so a
    check is idempotent

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - HorizonDays: How far ahead of today to keep allocations (default: 90)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewHorizonScheduler(handler.Service)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: ExtendOpenEnded endpoint (manual extension)
  - allocation/service.go: ExtendOpenEnded
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/warp/capacity-engine/allocation"
	"github.com/warp/capacity-engine/workday"
)

// DefaultHorizonDays is how far ahead open-ended allocations are kept.
const DefaultHorizonDays = 90

// HorizonScheduler extends open-ended allocations in the background.
type HorizonScheduler struct {
	Service       *allocation.Service
	CheckInterval time.Duration
	HorizonDays   int
	Enabled       bool

	// Today is overridable in tests.
	Today func() workday.Date

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex

	statsMu      sync.Mutex
	lastRun      time.Time
	lastExtended int
}

// NewHorizonScheduler creates a new scheduler.
func NewHorizonScheduler(service *allocation.Service) *HorizonScheduler {
	return &HorizonScheduler{
		Service:       service,
		CheckInterval: 1 * time.Hour,
		HorizonDays:   DefaultHorizonDays,
		Enabled:       true,
		Today:         workday.Today,
	}
}

// Start begins the scheduler.
func (hs *HorizonScheduler) Start() {
	hs.mu.Lock()
	defer hs.mu.Unlock()

	if !hs.Enabled {
		log.Println("[Scheduler] Disabled, not starting")
		return
	}
	if hs.ticker != nil {
		return
	}

	hs.ticker = time.NewTicker(hs.CheckInterval)
	hs.stop = make(chan bool)
	hs.wg.Add(1)

	go hs.run(hs.ticker, hs.stop)

	log.Printf("[Scheduler] Started with check interval: %v, horizon: %d days", hs.CheckInterval, hs.HorizonDays)
}

// Stop stops the scheduler and waits for a running check to finish.
func (hs *HorizonScheduler) Stop() {
	hs.mu.Lock()
	if hs.ticker == nil {
		hs.mu.Unlock()
		return
	}
	hs.ticker.Stop()
	close(hs.stop)
	hs.ticker = nil
	hs.mu.Unlock()

	hs.wg.Wait()
	log.Println("[Scheduler] Stopped")
}

func (hs *HorizonScheduler) run(ticker *time.Ticker, stop <-chan bool) {
	defer hs.wg.Done()

	// Run immediately on start
	hs.checkAndExtend()

	for {
		select {
		case <-ticker.C:
			hs.checkAndExtend()
		case <-stop:
			return
		}
	}
}

func (hs *HorizonScheduler) checkAndExtend() int {
	ctx := context.Background()
	until := hs.Today().AddDays(hs.HorizonDays)

	log.Printf("[Scheduler] Extending open-ended allocations up to %s", until)

	n, err := hs.Service.ExtendOpenEnded(ctx, until)
	if err != nil {
		log.Printf("[Scheduler] Error extending allocations: %v", err)
	}
	if n > 0 {
		log.Printf("[Scheduler] Completed: %d allocations extended", n)
	}

	hs.statsMu.Lock()
	hs.lastRun = time.Now()
	hs.lastExtended = n
	hs.statsMu.Unlock()
	return n
}

// RunNow triggers an immediate check (for testing/admin) and returns how
// many allocations were extended.
func (hs *HorizonScheduler) RunNow() int {
	return hs.checkAndExtend()
}

// LastRun reports when the last check finished and how many allocations it
// extended.
func (hs *HorizonScheduler) LastRun() (time.Time, int) {
	hs.statsMu.Lock()
	defer hs.statsMu.Unlock()
	return hs.lastRun, hs.lastExtended
}

// GetNextRunTime returns when the next scheduled check will occur.
func (hs *HorizonScheduler) GetNextRunTime() time.Time {
	return time.Now().Add(hs.CheckInterval)
}
