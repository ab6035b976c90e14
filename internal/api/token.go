package api

import (
	"context"
	"fmt"
)

// GetTokenInfo fetches the scopes and metadata of the configured token.
func (c *Client) GetTokenInfo(ctx context.Context) (*TokenInfo, error) {
	var resp TokenInfo
	if err := c.get(ctx, "/tokeninfo", nil, &resp); err != nil {
		return nil, fmt.Errorf("get tokeninfo: %w", err)
	}
	return &resp, nil
}
