// Package tracker watches user-defined price targets.
//
// Targets are persisted in PostgreSQL and evaluated on a fixed interval
// against the commerce prices endpoint. A buy target fires when the best buy
// offer rises to the target price; a sell target fires when the cheapest
// listing falls to it. Alerts are edge-triggered: a target alerts once when
// its condition starts holding and re-arms when the condition lapses.
package tracker
