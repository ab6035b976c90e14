package tradingpost

import (
	"fmt"
	"strings"
)

// PermissionError indicates the configured token lacks a required scope.
// It is a fatal precondition failure: no fetch cycle starts while it holds.
type PermissionError struct {
	Missing []string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("token missing required scopes: %s", strings.Join(e.Missing, ", "))
}

// JoinIntegrityError indicates an item ID present in the order set was absent
// from a batched lookup response. This is a contract violation by the API and
// fails the whole cycle; the next scheduled cycle retries from scratch.
type JoinIntegrityError struct {
	Stage  string // "items" or "prices"
	ItemID int
}

func (e *JoinIntegrityError) Error() string {
	return fmt.Sprintf("%s lookup missing item %d", e.Stage, e.ItemID)
}
