// Package writer implements the batch writer for order history.
//
// The HistoryWriter subscribes to published aggregation results, fans the
// orders out into a growable buffer, and flushes them to PostgreSQL in
// batches. Rows are append-only (never update, only insert); the unique key
// is (order_id, fetched_at) so re-published cycles are deduplicated by the
// database.
package writer
