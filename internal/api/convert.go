package api

import (
	"time"

	"github.com/gw2tools/tpwatch/internal/model"
)

// ParseTimestamp parses an RFC 3339 timestamp. Returns the zero time for
// empty or invalid input.
func ParseTimestamp(iso string) time.Time {
	if iso == "" {
		return time.Time{}
	}

	t, err := time.Parse(time.RFC3339, iso)
	if err != nil {
		return time.Time{}
	}
	return t
}

// ToModel converts an API transaction to a model Order of the given kind.
// Derived fields are left unset; the aggregator fills them during a cycle.
func (tx Transaction) ToModel(kind model.OrderKind) model.Order {
	return model.Order{
		ID:        tx.ID,
		ItemID:    tx.ItemID,
		Price:     tx.Price,
		Quantity:  tx.Quantity,
		CreatedAt: ParseTimestamp(tx.Created),
		Kind:      kind,
	}
}

// ToModel converts an API item to model metadata.
func (it Item) ToModel() model.ItemMetadata {
	return model.ItemMetadata{
		ID:          it.ID,
		Name:        it.Name,
		Icon:        it.Icon,
		Rarity:      it.Rarity,
		VendorValue: it.VendorValue,
	}
}

// ToModel converts an API price entry to a best-price snapshot.
func (p ItemPrice) ToModel() model.BestPriceSnapshot {
	return model.BestPriceSnapshot{
		ItemID:            p.ID,
		BestBuyUnitPrice:  p.Buys.UnitPrice,
		BuyQuantity:       p.Buys.Quantity,
		BestSellUnitPrice: p.Sells.UnitPrice,
		SellQuantity:      p.Sells.Quantity,
	}
}
