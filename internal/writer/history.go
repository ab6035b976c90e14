package writer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gw2tools/tpwatch/internal/buffer"
	"github.com/gw2tools/tpwatch/internal/model"
)

// HistoryWriter consumes OrderMsg from the input buffer and writes to the
// order_history table.
type HistoryWriter struct {
	cfg    Config
	logger *slog.Logger

	// Input from the aggregator subscription
	input *buffer.Growable[OrderMsg]

	// Database
	db *pgxpool.Pool

	// Batching
	batch       []historyRow
	batchMu     sync.Mutex
	flushTicker *time.Ticker

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Metrics
	metrics Metrics
}

// NewHistoryWriter creates a new HistoryWriter.
func NewHistoryWriter(
	cfg Config,
	input *buffer.Growable[OrderMsg],
	db *pgxpool.Pool,
	logger *slog.Logger,
) *HistoryWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &HistoryWriter{
		cfg:    cfg,
		input:  input,
		db:     db,
		logger: logger,
		batch:  make([]historyRow, 0, cfg.BatchSize),
	}
}

// EnqueueResult fans a published aggregation result out into the input buffer.
// It is safe to call from an aggregator update callback.
func (w *HistoryWriter) EnqueueResult(res *model.AggregationResult) {
	if res == nil {
		return
	}
	for _, o := range res.Orders {
		w.input.Send(OrderMsg{Order: o, FetchedAt: res.FetchedAt})
	}
}

// Start begins consuming messages and writing to the database.
func (w *HistoryWriter) Start(ctx context.Context) error {
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.flushTicker = time.NewTicker(w.cfg.FlushInterval)

	// Consumer goroutine
	w.wg.Add(1)
	go w.consumeLoop()

	// Flush ticker goroutine
	w.wg.Add(1)
	go w.flushLoop()

	w.logger.Info("history writer started",
		"batch_size", w.cfg.BatchSize,
		"flush_interval", w.cfg.FlushInterval,
	)
	return nil
}

// Stop gracefully shuts down the writer.
func (w *HistoryWriter) Stop(ctx context.Context) error {
	w.logger.Info("stopping history writer")

	if w.cancel != nil {
		w.cancel()
	}

	if w.flushTicker != nil {
		w.flushTicker.Stop()
	}

	// Wait for goroutines
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("history writer stopped")
	case <-ctx.Done():
		w.logger.Warn("history writer stop timed out")
	}

	// Final flush
	w.flush()

	return nil
}

// Stats returns current metrics.
func (w *HistoryWriter) Stats() Metrics {
	w.batchMu.Lock()
	defer w.batchMu.Unlock()
	return w.metrics
}

// consumeLoop reads from the input buffer and accumulates batches.
func (w *HistoryWriter) consumeLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		default:
			msg, ok := w.input.TryReceive()
			if !ok {
				// Buffer empty, wait a bit before trying again
				select {
				case <-w.ctx.Done():
					return
				case <-time.After(10 * time.Millisecond):
					continue
				}
			}

			w.handleMessage(msg)
		}
	}
}

// flushLoop periodically flushes the batch.
func (w *HistoryWriter) flushLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-w.flushTicker.C:
			w.flush()
		}
	}
}

// handleMessage transforms and adds a message to the batch.
func (w *HistoryWriter) handleMessage(msg OrderMsg) {
	row := w.transform(msg)

	w.batchMu.Lock()
	w.batch = append(w.batch, row)
	shouldFlush := len(w.batch) >= w.cfg.BatchSize
	w.batchMu.Unlock()

	if shouldFlush {
		w.flush()
	}
}

// transform converts an OrderMsg to a historyRow.
func (w *HistoryWriter) transform(msg OrderMsg) historyRow {
	name := ""
	if msg.Order.Item != nil {
		name = msg.Order.Item.Name
	}
	return historyRow{
		OrderID:     msg.Order.ID,
		ItemID:      msg.Order.ItemID,
		ItemName:    name,
		Kind:        msg.Order.Kind.String(),
		Price:       msg.Order.Price,
		Quantity:    msg.Order.Quantity,
		IsBestPrice: msg.Order.IsBestPrice,
		CreatedAt:   msg.Order.CreatedAt.UnixMicro(),
		FetchedAt:   msg.FetchedAt.UnixMicro(),
	}
}

// flush writes the current batch to the database.
func (w *HistoryWriter) flush() {
	w.batchMu.Lock()
	if len(w.batch) == 0 {
		w.batchMu.Unlock()
		return
	}

	// Take ownership of current batch
	batch := w.batch
	w.batch = make([]historyRow, 0, w.cfg.BatchSize)
	w.batchMu.Unlock()

	start := time.Now()

	conflicts, err := w.batchInsert(batch)
	if err != nil {
		w.logger.Error("batch insert failed", "error", err, "count", len(batch))
		w.batchMu.Lock()
		w.metrics.Errors++
		w.batchMu.Unlock()
		return
	}

	w.batchMu.Lock()
	w.metrics.Inserts += int64(len(batch) - conflicts)
	w.metrics.Conflicts += int64(conflicts)
	w.metrics.Flushes++
	w.batchMu.Unlock()

	w.logger.Debug("flushed order history",
		"count", len(batch),
		"conflicts", conflicts,
		"duration", time.Since(start),
	)
}

// batchInsert inserts rows using pgx.Batch with ON CONFLICT DO NOTHING.
func (w *HistoryWriter) batchInsert(rows []historyRow) (conflicts int, err error) {
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(`
			INSERT INTO order_history (order_id, item_id, item_name, kind, price, quantity, is_best_price, created_at, fetched_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (order_id, fetched_at) DO NOTHING
		`, r.OrderID, r.ItemID, r.ItemName, r.Kind, r.Price, r.Quantity, r.IsBestPrice, r.CreatedAt, r.FetchedAt)
	}

	results := w.db.SendBatch(w.ctx, batch)
	defer results.Close()

	for range rows {
		ct, err := results.Exec()
		if err != nil {
			return 0, err
		}
		if ct.RowsAffected() == 0 {
			conflicts++
		}
	}

	return conflicts, nil
}
