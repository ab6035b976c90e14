package api

import (
	"context"
	"fmt"
)

// GetCurrentBuyOrders fetches the account's outstanding buy orders.
// Requires a token with the account and tradingpost scopes.
func (c *Client) GetCurrentBuyOrders(ctx context.Context) ([]Transaction, error) {
	var resp []Transaction
	if err := c.get(ctx, "/commerce/transactions/current/buys", nil, &resp); err != nil {
		return nil, fmt.Errorf("get current buy orders: %w", err)
	}
	return resp, nil
}

// GetCurrentSellOrders fetches the account's outstanding sell listings.
// Requires a token with the account and tradingpost scopes.
func (c *Client) GetCurrentSellOrders(ctx context.Context) ([]Transaction, error) {
	var resp []Transaction
	if err := c.get(ctx, "/commerce/transactions/current/sells", nil, &resp); err != nil {
		return nil, fmt.Errorf("get current sell orders: %w", err)
	}
	return resp, nil
}

// GetPricesByIDs fetches current best buy/sell prices for up to MaxPageSize
// items in one call.
func (c *Client) GetPricesByIDs(ctx context.Context, ids []int) ([]ItemPrice, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > MaxPageSize {
		return nil, fmt.Errorf("get prices: %d ids exceeds page size %d", len(ids), MaxPageSize)
	}

	var resp []ItemPrice
	if err := c.get(ctx, "/commerce/prices", idsQuery(ids), &resp); err != nil {
		return nil, fmt.Errorf("get prices: %w", err)
	}
	return resp, nil
}
