package model

import "time"

// OrderKind distinguishes the two sides of a trading-post listing.
type OrderKind int

const (
	// KindBuy is an outstanding buy order.
	KindBuy OrderKind = iota
	// KindSell is an outstanding sell listing.
	KindSell
)

// String returns the lowercase name of the kind.
func (k OrderKind) String() string {
	switch k {
	case KindBuy:
		return "buy"
	case KindSell:
		return "sell"
	default:
		return "unknown"
	}
}

// ItemMetadata describes an item from the catalog.
type ItemMetadata struct {
	ID          int    // Item ID (primary key)
	Name        string // Display name
	Icon        string // Icon render URL
	Rarity      string // Rarity tier (e.g., "Exotic")
	VendorValue int    // Vendor sell value in copper
}

// Order represents one outstanding buy or sell listing on the trading post.
//
// ID/ItemID/Price/Quantity/CreatedAt/Kind come from the API; Item and
// IsBestPrice are derived by the aggregator during a fetch cycle.
type Order struct {
	ID        int64     // Order ID (unique per order)
	ItemID    int       // Foreign key into the item catalog
	Price     int       // Unit price in copper
	Quantity  int       // Remaining quantity (>= 1)
	CreatedAt time.Time // Listing creation time
	Kind      OrderKind // Buy or Sell

	// Derived fields, populated per cycle.
	Item        *ItemMetadata // Joined item metadata, never nil in a published result
	IsBestPrice bool          // true if Price matches the current best price for ItemID and Kind
}

// Total returns the order's price times its remaining quantity.
func (o Order) Total() int {
	return o.Price * o.Quantity
}

// BestPriceSnapshot holds the current best buy and sell unit price for one item.
type BestPriceSnapshot struct {
	ItemID            int // Item ID
	BestBuyUnitPrice  int // Highest outstanding buy offer (copper)
	BuyQuantity       int // Quantity demanded at any price
	BestSellUnitPrice int // Lowest outstanding sell listing (copper)
	SellQuantity      int // Quantity listed at any price
}

// AggregationResult is the immutable output of one completed fetch cycle.
//
// Orders holds buy orders followed by sell orders, each sub-list in source
// API order. Prices holds the cycle's best-price lookup for every item that
// appears in Orders. Consumers must not mutate either.
type AggregationResult struct {
	Orders    []Order                   // Buys first, then sells
	Prices    map[int]BestPriceSnapshot // Keyed by item ID
	FetchedAt time.Time                 // Cycle completion time
}

// EmptyResult returns the result published before the first successful cycle
// and after Clear.
func EmptyResult() *AggregationResult {
	return &AggregationResult{
		Orders: []Order{},
		Prices: map[int]BestPriceSnapshot{},
	}
}

// Empty reports whether the result contains no orders.
func (r *AggregationResult) Empty() bool {
	return r == nil || len(r.Orders) == 0
}
