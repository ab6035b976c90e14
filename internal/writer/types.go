package writer

import (
	"time"

	"github.com/gw2tools/tpwatch/internal/model"
)

// Config holds batching parameters shared by writers.
type Config struct {
	// BatchSize is the number of rows to accumulate before flushing.
	BatchSize int

	// FlushInterval is the maximum time between flushes.
	FlushInterval time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		BatchSize:     500,
		FlushInterval: time.Second,
	}
}

// OrderMsg is a single order tagged with the poll cycle it was observed in.
type OrderMsg struct {
	Order     model.Order
	FetchedAt time.Time
}

// historyRow represents a row for the order_history table.
type historyRow struct {
	OrderID     int64
	ItemID      int
	ItemName    string
	Kind        string
	Price       int // Copper coins
	Quantity    int
	IsBestPrice bool
	CreatedAt   int64 // Microseconds
	FetchedAt   int64 // Microseconds
}

// Metrics tracks writer statistics.
type Metrics struct {
	Inserts   int64
	Conflicts int64
	Errors    int64
	Flushes   int64
}
