package tradingpost

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gw2tools/tpwatch/internal/api"
	"github.com/gw2tools/tpwatch/internal/chunk"
	"github.com/gw2tools/tpwatch/internal/model"
)

// fetchCurrentOrders runs one complete fetch-and-join pass: both order lists
// concurrently, then the item metadata and best-price lookups (each fanned
// out per chunk of api.MaxPageSize IDs) concurrently, then the joins and the
// best-price flag. Any failure aborts the whole cycle; nothing partial is
// returned.
func (s *State) fetchCurrentOrders(ctx context.Context) (*model.AggregationResult, error) {
	var buys, sells []api.Transaction

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		buys, err = s.client.GetCurrentBuyOrders(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		sells, err = s.client.GetCurrentSellOrders(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetch orders: %w", err)
	}

	// Buys first, then sells, each in source API order.
	orders := make([]model.Order, 0, len(buys)+len(sells))
	for _, tx := range buys {
		orders = append(orders, tx.ToModel(model.KindBuy))
	}
	for _, tx := range sells {
		orders = append(orders, tx.ToModel(model.KindSell))
	}

	itemIDs := distinctItemIDs(orders)

	var (
		items  map[int]model.ItemMetadata
		prices map[int]model.BestPriceSnapshot
	)
	g, gctx = errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = s.fetchItemLookup(gctx, itemIDs)
		return err
	})
	g.Go(func() error {
		var err error
		prices, err = s.fetchPriceLookup(gctx, itemIDs)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i := range orders {
		meta, ok := items[orders[i].ItemID]
		if !ok {
			return nil, &JoinIntegrityError{Stage: "items", ItemID: orders[i].ItemID}
		}
		orders[i].Item = &meta

		snap, ok := prices[orders[i].ItemID]
		if !ok {
			return nil, &JoinIntegrityError{Stage: "prices", ItemID: orders[i].ItemID}
		}

		best, err := isBestPrice(orders[i], snap)
		if err != nil {
			return nil, err
		}
		orders[i].IsBestPrice = best
	}

	return &model.AggregationResult{
		Orders:    orders,
		Prices:    prices,
		FetchedAt: time.Now(),
	}, nil
}

// fetchItemLookup retrieves metadata for all IDs, one concurrent request per
// chunk, and waits for every chunk before building the lookup.
func (s *State) fetchItemLookup(ctx context.Context, ids []int) (map[int]model.ItemMetadata, error) {
	chunks := chunk.Split(ids, api.MaxPageSize)
	results := make([][]api.Item, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	for i, c := range chunks {
		g.Go(func() error {
			batch, err := s.client.GetItemsByIDs(gctx, c)
			if err != nil {
				return err
			}
			results[i] = batch
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetch items: %w", err)
	}

	lookup := make(map[int]model.ItemMetadata, len(ids))
	for _, batch := range results {
		for _, it := range batch {
			lookup[it.ID] = it.ToModel()
		}
	}
	return lookup, nil
}

// fetchPriceLookup retrieves best prices for all IDs, chunked like
// fetchItemLookup.
func (s *State) fetchPriceLookup(ctx context.Context, ids []int) (map[int]model.BestPriceSnapshot, error) {
	chunks := chunk.Split(ids, api.MaxPageSize)
	results := make([][]api.ItemPrice, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	for i, c := range chunks {
		g.Go(func() error {
			batch, err := s.client.GetPricesByIDs(gctx, c)
			if err != nil {
				return err
			}
			results[i] = batch
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetch prices: %w", err)
	}

	lookup := make(map[int]model.BestPriceSnapshot, len(ids))
	for _, batch := range results {
		for _, p := range batch {
			lookup[p.ID] = p.ToModel()
		}
	}
	return lookup, nil
}

// isBestPrice reports whether the order sits at the current best price for
// its side of the market. Exactly one branch applies per kind; an unknown
// kind is a logic error, not a skippable record.
func isBestPrice(o model.Order, snap model.BestPriceSnapshot) (bool, error) {
	switch o.Kind {
	case model.KindBuy:
		return o.Price == snap.BestBuyUnitPrice, nil
	case model.KindSell:
		return o.Price == snap.BestSellUnitPrice, nil
	default:
		return false, fmt.Errorf("order %d has unknown kind %d", o.ID, o.Kind)
	}
}

// distinctItemIDs returns the unique item IDs across orders in first-seen order.
func distinctItemIDs(orders []model.Order) []int {
	seen := make(map[int]struct{}, len(orders))
	ids := make([]int, 0, len(orders))
	for _, o := range orders {
		if _, ok := seen[o.ItemID]; ok {
			continue
		}
		seen[o.ItemID] = struct{}{}
		ids = append(ids, o.ItemID)
	}
	return ids
}
