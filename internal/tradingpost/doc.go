// Package tradingpost implements the polling aggregator over the account's
// trading-post activity.
//
// The State polls the API on a fixed interval (default 2 minutes), enriches
// every outstanding order with item metadata and a best-price flag, and
// atomically swaps the completed snapshot in as the current result. Cycles
// are all-or-nothing: any failure retains the previously published result
// and is retried on the next scheduled tick. At most one cycle is in flight
// per State.
//
// Consumers register callbacks with OnUpdated and read the snapshot through
// CurrentResult; results are read-only views.
package tradingpost
