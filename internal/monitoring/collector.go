// Package monitoring watches the submission journal and alerts operators
// when lead syncing degrades, so failed CRM handoffs get followed up
// before leads go stale.
package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/urbanika/leadsync/internal/store"
)

// MetricsSnapshot holds a point-in-time view of submission health.
type MetricsSnapshot struct {
	Total    int     `json:"total"`
	Synced   int     `json:"synced"`
	Failed   int     `json:"failed"`
	FailRate float64 `json:"fail_rate"`

	LookbackHours int       `json:"lookback_hours"`
	CollectedAt   time.Time `json:"collected_at"`
}

// Collector gathers submission counts from the journal.
type Collector struct {
	journal store.Store
}

// NewCollector creates a new metrics collector over the given journal.
func NewCollector(journal store.Store) *Collector {
	return &Collector{journal: journal}
}

// Collect gathers a snapshot of submission metrics over the given lookback window.
func (c *Collector) Collect(ctx context.Context, lookbackHours int) (*MetricsSnapshot, error) {
	snap := &MetricsSnapshot{
		LookbackHours: lookbackHours,
		CollectedAt:   time.Now().UTC(),
	}

	cutoff := time.Now().UTC().Add(-time.Duration(lookbackHours) * time.Hour)

	total, err := c.journal.CountSubmissions(ctx, "", cutoff)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: count submissions")
	}
	failed, err := c.journal.CountSubmissions(ctx, store.StatusFailed, cutoff)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: count failed submissions")
	}

	snap.Total = total
	snap.Failed = failed
	snap.Synced = total - failed
	if total > 0 {
		snap.FailRate = float64(failed) / float64(total)
	}
	return snap, nil
}
