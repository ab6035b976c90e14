// Package api provides a typed client for the Guild Wars 2 v2 REST API.
//
// Authenticated endpoints use a bearer API key. Batched lookups (/items,
// /commerce/prices) accept at most MaxPageSize IDs per call; callers split
// larger sets with the chunk package. Retryable failures (5xx, 429) are
// retried with exponential backoff and jitter.
package api
