// Package push serves aggregation updates to overlay clients over WebSocket.
//
// The Hub accepts connections, keeps them alive with ping/pong frames, and
// broadcasts a JSON envelope for every published poll cycle. Slow clients are
// never allowed to block a broadcast; their messages are dropped instead.
package push
