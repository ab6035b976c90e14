package tradingpost

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gw2tools/tpwatch/internal/api"
	"github.com/gw2tools/tpwatch/internal/model"
)

// CommerceAPI is the slice of the GW2 client the aggregator depends on.
type CommerceAPI interface {
	GetTokenInfo(ctx context.Context) (*api.TokenInfo, error)
	GetCurrentBuyOrders(ctx context.Context) ([]api.Transaction, error)
	GetCurrentSellOrders(ctx context.Context) ([]api.Transaction, error)
	GetItemsByIDs(ctx context.Context, ids []int) ([]api.Item, error)
	GetPricesByIDs(ctx context.Context, ids []int) ([]api.ItemPrice, error)
}

// RequiredPermissions are the token scopes a fetch cycle needs.
var RequiredPermissions = []string{api.PermissionAccount, api.PermissionTradingpost}

// Status describes the aggregator's position in its fetch lifecycle.
type Status int

const (
	// StatusIdle means no cycle has run yet (or the state was cleared).
	StatusIdle Status = iota
	// StatusFetching means a cycle is in flight.
	StatusFetching
	// StatusUpdated means the last cycle succeeded and published a result.
	StatusUpdated
	// StatusFailed means the last cycle failed; the previous result is retained.
	StatusFailed
)

// String returns the lowercase name of the status.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusFetching:
		return "fetching"
	case StatusUpdated:
		return "updated"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Config holds aggregator configuration.
type Config struct {
	Interval     time.Duration // Refresh interval between fetch attempts (default: 2m)
	TickInterval time.Duration // Granularity of the Run loop's drive tick (default: 1s)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval:     2 * time.Minute,
		TickInterval: time.Second,
	}
}

// subscriber is one registered update callback.
type subscriber struct {
	id uuid.UUID
	fn func()
}

// State polls the trading post on a schedule and publishes enriched order
// snapshots to subscribers.
//
// All shared fields are guarded by mu. At most one fetch cycle is in flight
// at any time: Tick and Reload are no-ops while inFlight is set.
type State struct {
	cfg    Config
	client CommerceAPI
	logger *slog.Logger

	mu          sync.Mutex
	current     *model.AggregationResult
	inFlight    bool
	status      Status
	lastAttempt time.Time
	lastSuccess time.Time
	lastErr     error
	subs        []subscriber

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new aggregator around the given API client. The client and
// its credential scope are explicit; there is no ambient singleton.
func New(cfg Config, client CommerceAPI, logger *slog.Logger) *State {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Interval == 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	if cfg.TickInterval == 0 {
		cfg.TickInterval = DefaultConfig().TickInterval
	}
	return &State{
		cfg:     cfg,
		client:  client,
		logger:  logger,
		current: model.EmptyResult(),
		status:  StatusIdle,
		ctx:     context.Background(),
	}
}

// Start verifies the token's scopes and begins the polling loop. A missing
// scope is fatal: the error is returned and no fetch is ever attempted.
func (s *State) Start(ctx context.Context) error {
	info, err := s.client.GetTokenInfo(ctx)
	if err != nil {
		return fmt.Errorf("verify token: %w", err)
	}
	if missing := info.MissingPermissions(RequiredPermissions); len(missing) > 0 {
		return &PermissionError{Missing: missing}
	}

	s.ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.run()

	s.logger.Info("trading post aggregator started",
		"interval", s.cfg.Interval,
		"token_name", info.Name,
	)
	return nil
}

// Stop shuts down the polling loop and waits for an in-flight cycle.
func (s *State) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("trading post aggregator stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run drives Tick until the context is cancelled.
func (s *State) run() {
	defer s.wg.Done()

	// Fetch immediately on start.
	s.Tick(time.Now())

	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case now := <-ticker.C:
			s.Tick(now)
		}
	}
}

// Tick starts an async fetch cycle if the refresh interval has elapsed since
// the last attempt and no cycle is in flight. It never blocks; the return
// value reports whether a cycle was started.
func (s *State) Tick(now time.Time) bool {
	return s.startCycle(now, false)
}

// Reload starts a fetch cycle regardless of the interval. A reload issued
// while a cycle is in flight is dropped: the running cycle's result is at
// most seconds old and the schedule fires again shortly.
func (s *State) Reload() bool {
	return s.startCycle(time.Now(), true)
}

func (s *State) startCycle(now time.Time, force bool) bool {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		if force {
			s.logger.Debug("reload dropped, fetch already in flight")
		}
		return false
	}
	if !force && now.Sub(s.lastAttempt) < s.cfg.Interval && !s.lastAttempt.IsZero() {
		s.mu.Unlock()
		return false
	}
	s.inFlight = true
	s.status = StatusFetching
	s.lastAttempt = now
	s.mu.Unlock()

	s.wg.Add(1)
	go s.runCycle()
	return true
}

// runCycle executes one fetch-join-publish pass.
func (s *State) runCycle() {
	defer s.wg.Done()

	start := time.Now()
	result, err := s.fetchCurrentOrders(s.ctx)

	if err != nil {
		s.mu.Lock()
		s.inFlight = false
		s.status = StatusFailed
		s.lastErr = err
		s.mu.Unlock()

		s.logger.Error("fetch cycle failed", "error", err, "duration", time.Since(start))
		return
	}

	s.mu.Lock()
	s.current = result
	s.inFlight = false
	s.status = StatusUpdated
	s.lastErr = nil
	s.lastSuccess = time.Now()
	subs := make([]subscriber, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	s.logger.Info("fetch cycle complete",
		"orders", len(result.Orders),
		"items", len(result.Prices),
		"duration", time.Since(start),
	)

	for _, sub := range subs {
		s.notify(sub)
	}
}

// notify invokes one subscriber, isolating panics so a failing subscriber
// cannot prevent the rest from being notified.
func (s *State) notify(sub subscriber) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("subscriber panicked", "subscription", sub.id, "panic", r)
		}
	}()
	sub.fn()
}

// CurrentResult returns the latest published result. It is empty before the
// first successful cycle and after Clear. Callers must not mutate it.
func (s *State) CurrentResult() *model.AggregationResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// OnUpdated registers a callback invoked after every successful cycle, in
// registration order. The callback reads the new result via CurrentResult.
func (s *State) OnUpdated(fn func()) uuid.UUID {
	id := uuid.New()
	s.mu.Lock()
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	s.mu.Unlock()
	return id
}

// Unsubscribe removes a previously registered callback.
func (s *State) Unsubscribe(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sub := range s.subs {
		if sub.id == id {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			return true
		}
	}
	return false
}

// Clear discards the current result without touching the schedule. No update
// notification fires.
func (s *State) Clear() {
	s.mu.Lock()
	s.current = model.EmptyResult()
	s.status = StatusIdle
	s.mu.Unlock()

	s.logger.Debug("cleared current result")
}

// Status returns the aggregator's lifecycle status.
func (s *State) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// LastError returns the most recent cycle failure, or nil after a success.
func (s *State) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// LastSuccess returns the completion time of the most recent successful cycle.
func (s *State) LastSuccess() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSuccess
}
