package booru

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/woodpelt/booru621/pkg/pagination"
)

// PoolCategory classifies a pool.
type PoolCategory string

const (
	PoolSeries     PoolCategory = "series"
	PoolCollection PoolCategory = "collection"
)

// PoolOrder selects the sort order of a pool search.
type PoolOrder string

const (
	PoolOrderName      PoolOrder = "name"
	PoolOrderCreatedAt PoolOrder = "created_at"
	PoolOrderUpdatedAt PoolOrder = "updated_at"
	PoolOrderPostCount PoolOrder = "post_count"
)

// Pool is an ordered collection of posts.
type Pool struct {
	ID          uint64       `json:"id"`
	Name        string       `json:"name"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	CreatorID   uint64       `json:"creator_id"`
	CreatorName string       `json:"creator_name"`
	Description string       `json:"description"`
	IsActive    bool         `json:"is_active"`
	IsDeleted   bool         `json:"is_deleted"`
	Category    PoolCategory `json:"category"`
	PostIDs     []uint64     `json:"post_ids"`
	PostCount   uint64       `json:"post_count"`
}

// RecordID implements pagination.Record.
func (p Pool) RecordID() uint64 {
	return p.ID
}

// PoolQuery describes a pool search. The zero value matches every pool.
// Nil pointer fields leave the corresponding parameter out of the request.
type PoolQuery struct {
	NameMatches        string       `url:"search[name_matches],omitempty"`
	IDs                []uint64     `url:"search[id],comma,omitempty"`
	DescriptionMatches string       `url:"search[description_matches],omitempty"`
	CreatorName        string       `url:"search[creator_name],omitempty"`
	CreatorID          *uint64      `url:"search[creator_id],omitempty"`
	IsActive           *bool        `url:"search[is_active],omitempty"`
	IsDeleted          *bool        `url:"search[is_deleted],omitempty"`
	Category           PoolCategory `url:"search[category],omitempty"`
	Order              PoolOrder    `url:"search[order],omitempty"`

	// PerPage is the page size for each underlying request, at most
	// MaxPageSize. Zero leaves the server default in place.
	PerPage uint64 `url:"limit,omitempty"`

	// Start resumes the listing from an explicit page cursor. The pools
	// endpoint only paginates by page number; ID cursors are rejected at
	// construction.
	Start pagination.Cursor `url:"-"`
}

// SearchPools returns a lazy sequence of every pool matching the query.
// Pages are fetched on demand as the caller iterates; an empty page ends the
// sequence and any error is yielded exactly once as the final item.
func (c *Client) SearchPools(ctx context.Context, q PoolQuery) (iter.Seq2[Pool, error], error) {
	if err := checkPerPage(q.PerPage); err != nil {
		return nil, err
	}

	fetch := func(ctx context.Context, cur pagination.Cursor) ([]Pool, error) {
		vals, err := listingValues(q, cur)
		if err != nil {
			return nil, err
		}
		var page []Pool
		if err := c.api.GetJSON(ctx, "/pools.json", vals, &page); err != nil {
			return nil, err
		}
		return page, nil
	}

	pager, err := pagination.NewPager(pagination.ByPage, q.Start, fetch)
	if err != nil {
		return nil, err
	}
	return pager.All(ctx), nil
}

// GetPool fetches a single pool by ID.
func (c *Client) GetPool(ctx context.Context, id uint64) (Pool, error) {
	var pool Pool
	endpoint := fmt.Sprintf("/pools/%d.json", id)
	if err := c.api.GetJSON(ctx, endpoint, nil, &pool); err != nil {
		return Pool{}, err
	}
	return pool, nil
}
