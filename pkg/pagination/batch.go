package pagination

import (
	"context"
	"iter"
)

// MaxBatchIDs caps how many record IDs fit into a single lookup request.
const MaxBatchIDs = 100

// BatchFetch retrieves the records for one batch of IDs. The server does not
// promise any relation between input order and response order, nor that every
// requested ID resolves to a record.
type BatchFetch[T any] func(ctx context.Context, ids []uint64) ([]T, error)

// BatchByID resolves an arbitrarily long ID sequence into records, consuming
// ids lazily and issuing one rate-limited request per batch of at most size
// IDs (MaxBatchIDs when size is out of range). Records of one batch are
// yielded in whatever order the server returned them; callers needing input
// order must re-sort. A fetch error is yielded once as the final item and
// ends the sequence. An empty ID source issues no requests at all.
func BatchByID[T any](ctx context.Context, ids iter.Seq[uint64], size int, fetch BatchFetch[T]) iter.Seq2[T, error] {
	if size <= 0 || size > MaxBatchIDs {
		size = MaxBatchIDs
	}

	return func(yield func(T, error) bool) {
		batch := make([]uint64, 0, size)

		flush := func() bool {
			recs, err := fetch(ctx, batch)
			if err != nil {
				var zero T
				yield(zero, err)
				return false
			}
			for _, rec := range recs {
				if !yield(rec, nil) {
					return false
				}
			}
			batch = batch[:0]
			return true
		}

		for id := range ids {
			batch = append(batch, id)
			if len(batch) == size && !flush() {
				return
			}
		}
		if len(batch) > 0 {
			flush()
		}
	}
}
