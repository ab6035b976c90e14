package tracker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gw2tools/tpwatch/internal/api"
	"github.com/gw2tools/tpwatch/internal/chunk"
	"github.com/gw2tools/tpwatch/internal/model"
)

// EntrySource provides the targets to evaluate each cycle.
type EntrySource interface {
	List(ctx context.Context) ([]Entry, error)
}

// PriceClient fetches current best prices for a batch of item IDs.
type PriceClient interface {
	GetPricesByIDs(ctx context.Context, ids []int) ([]api.ItemPrice, error)
}

// Tracker periodically checks tracked price targets against current best
// prices and emits edge-triggered alerts.
type Tracker struct {
	cfg     Config
	client  PriceClient
	entries EntrySource
	alert   AlertFunc
	logger  *slog.Logger

	// triggered records targets whose condition held on the previous
	// cycle so alerts only fire on the transition.
	triggered   map[uuid.UUID]bool
	triggeredMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new Tracker.
func New(cfg Config, client PriceClient, entries EntrySource, alert AlertFunc, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		cfg:       cfg,
		client:    client,
		entries:   entries,
		alert:     alert,
		logger:    logger,
		triggered: make(map[uuid.UUID]bool),
	}
}

// Start begins the tracking loop.
func (t *Tracker) Start(ctx context.Context) error {
	t.ctx, t.cancel = context.WithCancel(ctx)

	t.wg.Add(1)
	go t.run()

	t.logger.Info("price tracker started", "interval", t.cfg.Interval)

	return nil
}

// Stop gracefully shuts down the tracker.
func (t *Tracker) Stop(ctx context.Context) error {
	if t.cancel != nil {
		t.cancel()
	}

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.logger.Info("price tracker stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run is the main tracking loop.
func (t *Tracker) run() {
	defer t.wg.Done()

	ticker := time.NewTicker(t.cfg.Interval)
	defer ticker.Stop()

	// Check immediately on start.
	t.checkAll()

	for {
		select {
		case <-t.ctx.Done():
			return
		case <-ticker.C:
			t.checkAll()
		}
	}
}

// checkAll evaluates every tracked target against current best prices.
func (t *Tracker) checkAll() {
	start := time.Now()

	ctx, cancel := context.WithTimeout(t.ctx, t.cfg.Timeout)
	defer cancel()

	entries, err := t.entries.List(ctx)
	if err != nil {
		t.logger.Warn("failed to list tracked targets", "err", err)
		return
	}
	if len(entries) == 0 {
		t.logger.Debug("no tracked targets")
		return
	}

	prices, err := t.fetchPrices(ctx, entries)
	if err != nil {
		t.logger.Warn("failed to fetch prices for tracked targets", "err", err)
		return
	}

	alerts := t.evaluate(entries, prices)

	t.logger.Info("tracker cycle complete",
		"targets", len(entries),
		"alerts", len(alerts),
		"duration", time.Since(start),
	)

	for _, a := range alerts {
		if t.alert != nil {
			t.alert(a)
		}
	}
}

// fetchPrices retrieves best prices for the distinct item IDs of the entries.
func (t *Tracker) fetchPrices(ctx context.Context, entries []Entry) (map[int]model.BestPriceSnapshot, error) {
	seen := make(map[int]bool, len(entries))
	var ids []int
	for _, e := range entries {
		if !seen[e.ItemID] {
			seen[e.ItemID] = true
			ids = append(ids, e.ItemID)
		}
	}

	prices := make(map[int]model.BestPriceSnapshot, len(ids))
	for _, batch := range chunk.Split(ids, api.MaxPageSize) {
		listings, err := t.client.GetPricesByIDs(ctx, batch)
		if err != nil {
			return nil, err
		}
		for _, p := range listings {
			snap := p.ToModel()
			prices[snap.ItemID] = snap
		}
	}
	return prices, nil
}

// evaluate returns alerts for targets whose condition newly holds. Targets
// whose condition no longer holds are re-armed for a future alert.
func (t *Tracker) evaluate(entries []Entry, prices map[int]model.BestPriceSnapshot) []Alert {
	now := time.Now()

	t.triggeredMu.Lock()
	defer t.triggeredMu.Unlock()

	var alerts []Alert
	for _, e := range entries {
		snap, ok := prices[e.ItemID]
		if !ok {
			// Item not tradeable right now; leave the trigger state alone.
			continue
		}

		reached := e.reached(snap)
		was := t.triggered[e.ID]

		switch {
		case reached && !was:
			t.triggered[e.ID] = true
			alerts = append(alerts, Alert{Entry: e, Price: snap, TriggeredAt: now})
		case !reached && was:
			delete(t.triggered, e.ID)
		}
	}
	return alerts
}
