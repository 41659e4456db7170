package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"subnetd/internal/export"
	"subnetd/internal/log"
	"subnetd/internal/storage"
)

// Republisher re-exports every placement to the export store on a cron
// schedule so the published lists never drift from what storage holds.
type Republisher struct {
	mu       sync.Mutex
	schedule cron.Schedule
	storage  storage.Storage
	exports  storage.ExportStore
	running  bool
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewRepublisher creates a republisher from a standard cron spec
// (descriptors like @hourly are accepted)
func NewRepublisher(spec string, st storage.Storage, es storage.ExportStore) (*Republisher, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parsing republish schedule %q: %w", spec, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Republisher{
		schedule: schedule,
		storage:  st,
		exports:  es,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Start starts the background republish loop
func (r *Republisher) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return
	}
	r.running = true

	r.wg.Add(1)
	go r.run()
	log.Info("Republish scheduler started", "next_run", r.schedule.Next(time.Now()))
}

// Stop stops the loop and waits for an in-flight run to finish
func (r *Republisher) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	r.mu.Unlock()

	r.cancel()
	r.wg.Wait()
}

func (r *Republisher) run() {
	defer r.wg.Done()

	for {
		next := r.schedule.Next(time.Now())
		timer := time.NewTimer(time.Until(next))

		select {
		case <-r.ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			r.RepublishAll(r.ctx)
		}
	}
}

// RepublishAll re-exports every placement once. Failures are logged
// per placement and do not stop the sweep.
func (r *Republisher) RepublishAll(ctx context.Context) {
	placements, err := r.storage.ListPlacements(nil)
	if err != nil {
		log.Error("Republish sweep failed to list placements", "error", err)
		return
	}

	published := 0
	for i := range placements {
		if ctx.Err() != nil {
			return
		}
		p := &placements[i]

		zs, err := r.storage.GetZoneSet(p.ZoneSetID)
		if err != nil {
			log.Error("Republish skipping placement without zone set", "placement", p.Name, "zoneset_id", p.ZoneSetID, "error", err)
			continue
		}

		if _, err := export.Publish(r.exports, p, zs.Zones); err != nil {
			log.Error("Republish failed", "placement", p.Name, "error", err)
			continue
		}
		published++
	}

	log.Info("Republish sweep complete", "placements", len(placements), "published", published)
}
