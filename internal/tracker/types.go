package tracker

import (
	"time"

	"github.com/google/uuid"

	"github.com/gw2tools/tpwatch/internal/model"
)

// Entry is a tracked price target for a single item.
type Entry struct {
	ID          uuid.UUID
	ItemID      int
	Kind        model.OrderKind // Which side of the book the target watches
	TargetPrice int             // Copper coins
	CreatedAt   time.Time
}

// Alert is emitted when a tracked target is reached.
type Alert struct {
	Entry       Entry
	Price       model.BestPriceSnapshot
	TriggeredAt time.Time
}

// AlertFunc receives alerts for reached targets.
type AlertFunc func(Alert)

// Config holds tracker configuration.
type Config struct {
	Interval time.Duration // Poll interval (default: 5m)
	Timeout  time.Duration // Per-request timeout (default: 10s)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval: 5 * time.Minute,
		Timeout:  10 * time.Second,
	}
}

// reached reports whether the current best prices satisfy the target.
// A buy target is reached when the best buy offer rises to the target
// price; a sell target when the best listing falls to it.
func (e Entry) reached(snap model.BestPriceSnapshot) bool {
	switch e.Kind {
	case model.KindBuy:
		return snap.BestBuyUnitPrice >= e.TargetPrice
	case model.KindSell:
		return snap.BestSellUnitPrice > 0 && snap.BestSellUnitPrice <= e.TargetPrice
	default:
		return false
	}
}
