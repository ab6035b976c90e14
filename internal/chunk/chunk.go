// Package chunk splits key sets into fixed-size batches for batched API lookups.
package chunk

// Split divides items into consecutive chunks of at most size elements,
// preserving input order. Every chunk except possibly the last has exactly
// size elements. The returned chunks are subslices of items, not copies.
//
// Split panics if size < 1.
func Split[T any](items []T, size int) [][]T {
	if size < 1 {
		panic("chunk: size must be >= 1")
	}

	if len(items) == 0 {
		return nil
	}

	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[start:end])
	}
	return chunks
}
