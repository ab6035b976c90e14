// Package model defines shared data types used across the watcher.
//
// Conventions:
//   - Prices: integer copper (the GW2 currency minor unit)
//   - Timestamps: time.Time, parsed from API RFC 3339 strings
//   - IDs: int64 for order IDs, int for item IDs
package model
