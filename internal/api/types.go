package api

// Transaction represents an outstanding order from
// /v2/commerce/transactions/current/{buys,sells}.
type Transaction struct {
	ID       int64  `json:"id"`
	ItemID   int    `json:"item_id"`
	Price    int    `json:"price"`
	Quantity int    `json:"quantity"`
	Created  string `json:"created"` // RFC 3339
}

// Item represents an item from /v2/items.
type Item struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	Type        string `json:"type"`
	Rarity      string `json:"rarity"`
	Level       int    `json:"level"`
	VendorValue int    `json:"vendor_value"`
}

// PriceListing is one side of an item's current market summary.
type PriceListing struct {
	Quantity  int `json:"quantity"`
	UnitPrice int `json:"unit_price"`
}

// ItemPrice represents an item's best prices from /v2/commerce/prices.
type ItemPrice struct {
	ID          int          `json:"id"`
	Whitelisted bool         `json:"whitelisted"`
	Buys        PriceListing `json:"buys"`
	Sells       PriceListing `json:"sells"`
}

// TokenInfo describes the API key from /v2/tokeninfo.
type TokenInfo struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

// Token permission scopes.
const (
	PermissionAccount     = "account"
	PermissionTradingpost = "tradingpost"
)

// HasPermission returns true if the token carries the given scope.
func (t *TokenInfo) HasPermission(perm string) bool {
	for _, p := range t.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

// MissingPermissions returns the subset of required scopes the token lacks,
// in the order given.
func (t *TokenInfo) MissingPermissions(required []string) []string {
	var missing []string
	for _, perm := range required {
		if !t.HasPermission(perm) {
			missing = append(missing, perm)
		}
	}
	return missing
}
