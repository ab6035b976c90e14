package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// GetItemsByIDs fetches item metadata for up to MaxPageSize items in one call.
// IDs unknown to the catalog are silently omitted from the response.
func (c *Client) GetItemsByIDs(ctx context.Context, ids []int) ([]Item, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > MaxPageSize {
		return nil, fmt.Errorf("get items: %d ids exceeds page size %d", len(ids), MaxPageSize)
	}

	var resp []Item
	if err := c.get(ctx, "/items", idsQuery(ids), &resp); err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}
	return resp, nil
}

// idsQuery builds the ids=1,2,3 query string used by batched endpoints.
func idsQuery(ids []int) url.Values {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	query := url.Values{}
	query.Set("ids", strings.Join(parts, ","))
	return query
}
