package push

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gw2tools/tpwatch/internal/model"
)

func TestBuildUpdate(t *testing.T) {
	fetchedAt := time.Date(2024, 1, 15, 12, 2, 0, 0, time.UTC)
	res := &model.AggregationResult{
		Orders: []model.Order{
			{
				ID:          1,
				ItemID:      19684,
				Price:       1201,
				Quantity:    250,
				Kind:        model.KindBuy,
				Item:        &model.ItemMetadata{ID: 19684, Name: "Mithril Ingot"},
				IsBestPrice: true,
				CreatedAt:   fetchedAt.Add(-time.Hour),
			},
			{ID: 2, ItemID: 24295, Price: 9999, Quantity: 1, Kind: model.KindSell},
			{ID: 3, ItemID: 24295, Price: 500, Quantity: 5, Kind: model.KindBuy},
		},
		FetchedAt: fetchedAt,
	}

	p := buildUpdate(res)

	if p.OrderCount != 3 {
		t.Errorf("OrderCount = %d, want 3", p.OrderCount)
	}
	if p.BuyCount != 2 {
		t.Errorf("BuyCount = %d, want 2", p.BuyCount)
	}
	if p.SellCount != 1 {
		t.Errorf("SellCount = %d, want 1", p.SellCount)
	}
	if p.FetchedAt != "2024-01-15T12:02:00Z" {
		t.Errorf("FetchedAt = %s, want 2024-01-15T12:02:00Z", p.FetchedAt)
	}
	if len(p.Orders) != 3 {
		t.Fatalf("len(Orders) = %d, want 3", len(p.Orders))
	}
	if p.Orders[0].ItemName != "Mithril Ingot" {
		t.Errorf("Orders[0].ItemName = %s, want Mithril Ingot", p.Orders[0].ItemName)
	}
	if !p.Orders[0].IsBestPrice {
		t.Error("Orders[0].IsBestPrice = false, want true")
	}
	if p.Orders[1].Kind != "sell" {
		t.Errorf("Orders[1].Kind = %s, want sell", p.Orders[1].Kind)
	}
	if p.Orders[1].ItemName != "" {
		t.Errorf("Orders[1].ItemName = %q, want empty", p.Orders[1].ItemName)
	}
}

func TestHub_BroadcastUpdate_Nil(t *testing.T) {
	h := NewHub(nil)

	h.BroadcastUpdate(nil)

	select {
	case msg := <-h.broadcast:
		t.Errorf("broadcast received %s for nil result", msg)
	default:
	}
}

func TestHub_ConnectAndBroadcast(t *testing.T) {
	h := NewHub(nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	srv := httptest.NewServer(h)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	// First frame is the status envelope.
	var status envelope
	if err := conn.ReadJSON(&status); err != nil {
		t.Fatalf("ReadJSON(status) error = %v", err)
	}
	if status.Type != "status" {
		t.Fatalf("first message type = %s, want status", status.Type)
	}

	h.BroadcastUpdate(&model.AggregationResult{
		Orders: []model.Order{
			{ID: 7, ItemID: 19684, Price: 100, Quantity: 1, Kind: model.KindBuy},
		},
		FetchedAt: time.Now(),
	})

	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}

	var update struct {
		Type    string        `json:"type"`
		Payload updatePayload `json:"payload"`
	}
	if err := json.Unmarshal(data, &update); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if update.Type != "orders_updated" {
		t.Errorf("update type = %s, want orders_updated", update.Type)
	}
	if update.Payload.OrderCount != 1 {
		t.Errorf("OrderCount = %d, want 1", update.Payload.OrderCount)
	}
	if update.Payload.Orders[0].ID != 7 {
		t.Errorf("order ID = %d, want 7", update.Payload.Orders[0].ID)
	}
}

func TestHub_ClientCount(t *testing.T) {
	h := NewHub(nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	srv := httptest.NewServer(h)
	defer srv.Close()

	if got := h.ClientCount(); got != 0 {
		t.Errorf("ClientCount() = %d, want 0", got)
	}

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for h.ClientCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("ClientCount() = %d, want 1", h.ClientCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}
