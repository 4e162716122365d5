package poller

import (
	"context"
	"log/slog"
	"time"

	"incident-assignment/internal/metrics"
	"incident-assignment/internal/models"
)

// Fetcher reads unassigned incidents from the ticketing system.
type Fetcher interface {
	FetchUnassigned(ctx context.Context, groupSysIDs []string, since time.Time) ([]models.Incident, error)
}

// Poller periodically fetches unassigned incidents for the configured
// groups and pushes unseen ones onto a bounded queue. Incidents can stay
// unassigned across several polls, so each sys_id is enqueued once and
// remembered until it ages out of the lookback horizon.
type Poller struct {
	fetcher  Fetcher
	groups   []string
	interval time.Duration
	lookback time.Duration
	logger   *slog.Logger

	queue chan models.Incident
	seen  map[string]time.Time
	now   func() time.Time
}

func New(fetcher Fetcher, groups []string, interval, lookback time.Duration, queueSize int, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		fetcher:  fetcher,
		groups:   groups,
		interval: interval,
		lookback: lookback,
		logger:   logger,
		queue:    make(chan models.Incident, queueSize),
		seen:     make(map[string]time.Time),
		now:      time.Now,
	}
}

// SetClock replaces the time source. Test hook.
func (p *Poller) SetClock(now func() time.Time) { p.now = now }

// Incidents is the queue consumed by the processor. It is closed when
// Run returns.
func (p *Poller) Incidents() <-chan models.Incident { return p.queue }

// Run polls until ctx is cancelled, then closes the incident queue.
func (p *Poller) Run(ctx context.Context) {
	defer close(p.queue)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	since := p.now().Add(-p.lookback)
	incidents, err := p.fetcher.FetchUnassigned(ctx, p.groups, since)
	if err != nil {
		if ctx.Err() == nil {
			p.logger.Error("poll failed", "error", err)
		}
		return
	}
	p.prune(since)

	enqueued := 0
	for _, inc := range incidents {
		if _, dup := p.seen[inc.SysID]; dup {
			continue
		}
		select {
		case p.queue <- inc:
			p.seen[inc.SysID] = p.now()
			enqueued++
		case <-ctx.Done():
			return
		}
	}
	if enqueued > 0 {
		metrics.AddFetched(enqueued)
		p.logger.Info("enqueued incidents", "count", enqueued, "fetched", len(incidents))
	}
}

// prune forgets sys_ids first seen before the lookback cutoff. Anything
// that old can no longer appear in a fetch, so the entry is dead weight.
func (p *Poller) prune(cutoff time.Time) {
	for sysID, firstSeen := range p.seen {
		if firstSeen.Before(cutoff) {
			delete(p.seen, sysID)
		}
	}
}
