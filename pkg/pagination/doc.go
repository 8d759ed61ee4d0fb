// Package pagination turns the bounded, cursor-addressed listing endpoints of
// the API into unbounded lazy record sequences.
//
// A listing request returns at most one page of records plus enough
// information to resume after it. Pager hides that: it issues one page
// request at a time, yields the decoded records in server order and computes
// the next Cursor from the walk Mode and the record IDs it has seen.
// BatchByID does the same for arbitrary collections of record IDs, grouping
// them into fixed-size lookup batches.
//
// Example usage:
//
//	pager, err := pagination.NewPager(pagination.ByIDDescending, pagination.Cursor{}, fetchPosts)
//	if err != nil {
//		return err
//	}
//	for post, err := range pager.All(ctx) {
//		...
//	}
//
// Both producers return iter.Seq2[T, error] sequences. Requests within one
// sequence are strictly sequential, so page N+1 is never requested before
// page N has been consumed; breaking out of the range loop abandons the walk
// without issuing further requests.
package pagination
