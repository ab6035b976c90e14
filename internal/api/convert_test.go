package api

import (
	"testing"
	"time"

	"github.com/gw2tools/tpwatch/internal/model"
)

func TestParseTimestamp(t *testing.T) {
	t.Run("valid RFC3339", func(t *testing.T) {
		got := ParseTimestamp("2024-03-01T12:00:00Z")
		want := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		if !got.Equal(want) {
			t.Errorf("ParseTimestamp = %v, want %v", got, want)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		if got := ParseTimestamp(""); !got.IsZero() {
			t.Errorf("ParseTimestamp(\"\") = %v, want zero time", got)
		}
	})

	t.Run("invalid input", func(t *testing.T) {
		if got := ParseTimestamp("not-a-time"); !got.IsZero() {
			t.Errorf("ParseTimestamp(invalid) = %v, want zero time", got)
		}
	})
}

func TestTransaction_ToModel(t *testing.T) {
	tx := Transaction{
		ID:       101,
		ItemID:   19684,
		Price:    1450,
		Quantity: 250,
		Created:  "2024-03-01T12:00:00Z",
	}

	order := tx.ToModel(model.KindBuy)

	if order.ID != 101 {
		t.Errorf("ID = %d, want 101", order.ID)
	}
	if order.ItemID != 19684 {
		t.Errorf("ItemID = %d, want 19684", order.ItemID)
	}
	if order.Price != 1450 {
		t.Errorf("Price = %d, want 1450", order.Price)
	}
	if order.Quantity != 250 {
		t.Errorf("Quantity = %d, want 250", order.Quantity)
	}
	if order.Kind != model.KindBuy {
		t.Errorf("Kind = %v, want KindBuy", order.Kind)
	}
	if order.CreatedAt.IsZero() {
		t.Error("CreatedAt should be parsed")
	}
	if order.Item != nil {
		t.Error("Item should be unset before the join stage")
	}
	if order.IsBestPrice {
		t.Error("IsBestPrice should be unset before the price stage")
	}
}

func TestItem_ToModel(t *testing.T) {
	it := Item{
		ID:          19684,
		Name:        "Mithril Ingot",
		Icon:        "https://render.example/19684.png",
		Rarity:      "Basic",
		VendorValue: 8,
	}

	meta := it.ToModel()

	if meta.ID != 19684 {
		t.Errorf("ID = %d, want 19684", meta.ID)
	}
	if meta.Name != "Mithril Ingot" {
		t.Errorf("Name = %q, want Mithril Ingot", meta.Name)
	}
	if meta.VendorValue != 8 {
		t.Errorf("VendorValue = %d, want 8", meta.VendorValue)
	}
}

func TestItemPrice_ToModel(t *testing.T) {
	p := ItemPrice{
		ID:    19684,
		Buys:  PriceListing{Quantity: 500, UnitPrice: 1450},
		Sells: PriceListing{Quantity: 200, UnitPrice: 1500},
	}

	snap := p.ToModel()

	if snap.ItemID != 19684 {
		t.Errorf("ItemID = %d, want 19684", snap.ItemID)
	}
	if snap.BestBuyUnitPrice != 1450 {
		t.Errorf("BestBuyUnitPrice = %d, want 1450", snap.BestBuyUnitPrice)
	}
	if snap.BestSellUnitPrice != 1500 {
		t.Errorf("BestSellUnitPrice = %d, want 1500", snap.BestSellUnitPrice)
	}
	if snap.BuyQuantity != 500 || snap.SellQuantity != 200 {
		t.Errorf("quantities = %d/%d, want 500/200", snap.BuyQuantity, snap.SellQuantity)
	}
}
