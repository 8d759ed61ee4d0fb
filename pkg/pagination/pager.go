package pagination

import (
	"context"
	"errors"
	"fmt"
	"iter"
)

// Mode selects how a walk addresses its next page.
type Mode uint8

const (
	// ByPage advances by absolute page number. Required for queries with a
	// server-defined ordering, which cannot be resumed reliably at an ID
	// boundary.
	ByPage Mode = iota

	// ByIDDescending resumes below the smallest ID of the previous page.
	// Safe even while new records are inserted upstream, because the
	// boundary only ever moves backwards through existing IDs.
	ByIDDescending

	// ByIDAscending resumes above the largest ID of the previous page.
	ByIDAscending
)

func (m Mode) String() string {
	switch m {
	case ByPage:
		return "by_page"
	case ByIDDescending:
		return "by_id_descending"
	case ByIDAscending:
		return "by_id_ascending"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

// ErrCursorMode reports a start cursor that cannot drive the walk mode, e.g.
// an ID-boundary cursor for a query with a server-defined ordering.
var ErrCursorMode = errors.New("start cursor does not match pagination mode")

// Record is anything the pager can compute ID boundaries for.
type Record interface {
	RecordID() uint64
}

// Fetch retrieves the single page addressed by cur. The pager calls it
// strictly sequentially and never has more than one fetch outstanding.
type Fetch[T Record] func(ctx context.Context, cur Cursor) ([]T, error)

// Pager walks a paginated listing lazily, one rate-limited page request at a
// time. A Pager is forward-only and not restartable; build a new one to run
// the same query again.
type Pager[T Record] struct {
	mode  Mode
	start Cursor
	fetch Fetch[T]
}

// NewPager validates the mode/cursor combination and prepares a walk starting
// at start. An unset start means "from the beginning": Page(1) for ByPage,
// and no page parameter at all for the ID-boundary modes, leaving the first
// boundary to the server.
func NewPager[T Record](mode Mode, start Cursor, fetch Fetch[T]) (*Pager[T], error) {
	switch mode {
	case ByPage:
		if !start.IsZero() && start.Kind() != KindPage {
			return nil, fmt.Errorf("%w: %s walk cannot start at %q", ErrCursorMode, mode, start)
		}
		if start.IsZero() {
			start = Page(1)
		}
	case ByIDDescending:
		if !start.IsZero() && start.Kind() != KindBefore {
			return nil, fmt.Errorf("%w: %s walk cannot start at %q", ErrCursorMode, mode, start)
		}
	case ByIDAscending:
		if !start.IsZero() && start.Kind() != KindAfter {
			return nil, fmt.Errorf("%w: %s walk cannot start at %q", ErrCursorMode, mode, start)
		}
	default:
		return nil, fmt.Errorf("%w: unknown mode %s", ErrCursorMode, mode)
	}

	return &Pager[T]{mode: mode, start: start, fetch: fetch}, nil
}

// All returns the matching records as a lazy sequence. Records of one page
// are yielded in server order; the next page is requested only once the
// current one is drained. An empty page ends the sequence. Any fetch error is
// yielded exactly once, with a zero record, as the final item; records
// already yielded before it remain valid.
func (p *Pager[T]) All(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		cur := p.start
		for {
			page, err := p.fetch(ctx, cur)
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}
			if len(page) == 0 {
				return
			}
			for _, rec := range page {
				if !yield(rec, nil) {
					return
				}
			}
			cur = NextCursor(p.mode, cur, page)
		}
	}
}

// NextCursor computes where the page after page resumes. page must be
// non-empty; the walk ends before any cursor arithmetic when a page comes
// back empty.
func NextCursor[T Record](mode Mode, cur Cursor, page []T) Cursor {
	switch mode {
	case ByIDDescending:
		return Before(minID(page))
	case ByIDAscending:
		return After(maxID(page))
	default:
		if cur.IsZero() {
			return Page(2)
		}
		return Page(cur.Value() + 1)
	}
}

func minID[T Record](page []T) uint64 {
	min := page[0].RecordID()
	for _, rec := range page[1:] {
		if id := rec.RecordID(); id < min {
			min = id
		}
	}
	return min
}

func maxID[T Record](page []T) uint64 {
	max := page[0].RecordID()
	for _, rec := range page[1:] {
		if id := rec.RecordID(); id > max {
			max = id
		}
	}
	return max
}
