package booru

import (
	"context"
	"iter"
	"time"

	json "github.com/goccy/go-json"

	"github.com/woodpelt/booru621/pkg/client"
	"github.com/woodpelt/booru621/pkg/pagination"
)

// TagCategory is the kind of property a tag describes. Categories are
// numeric on the wire and the numbering has a historical gap at 2.
type TagCategory uint8

const (
	TagGeneral   TagCategory = 0
	TagArtist    TagCategory = 1
	TagCopyright TagCategory = 3
	TagCharacter TagCategory = 4
	TagSpecies   TagCategory = 5
	TagInvalid   TagCategory = 6
	TagMeta      TagCategory = 7
	TagLore      TagCategory = 8
)

// TagOrder selects the sort order of a tag search.
type TagOrder string

const (
	// TagOrderIDAsc sorts by ID, smallest first.
	TagOrderIDAsc TagOrder = "id_asc"

	// TagOrderIDDesc sorts by ID, largest first.
	TagOrderIDDesc TagOrder = "id_dsc"

	// TagOrderName sorts alphabetically.
	TagOrderName TagOrder = "name"

	// TagOrderDate sorts by ID, largest first.
	TagOrderDate TagOrder = "date"

	// TagOrderCount sorts by post count, largest first.
	TagOrderCount TagOrder = "count"

	// TagOrderSimilarity sorts fuzzy matches by similarity, closest first.
	TagOrderSimilarity TagOrder = "similarity"
)

// Tag is a keyword used to describe posts.
type Tag struct {
	ID          uint64      `json:"id"`
	Name        string      `json:"name"`
	PostCount   uint64      `json:"post_count"`
	RelatedTags string      `json:"related_tags"`
	Category    TagCategory `json:"category"`
	IsLocked    bool        `json:"is_locked"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// RecordID implements pagination.Record.
func (t Tag) RecordID() uint64 {
	return t.ID
}

// TagQuery describes a tag search. The zero value matches every tag.
type TagQuery struct {
	ID               *uint64       `url:"search[id],omitempty"`
	Order            TagOrder      `url:"search[order],omitempty"`
	FuzzyNameMatches string        `url:"search[fuzzy_name_matches],omitempty"`
	NameMatches      string        `url:"search[name_matches],omitempty"`
	Names            []string      `url:"search[name],comma,omitempty"`
	Categories       []TagCategory `url:"search[category],comma,omitempty"`
	HideEmpty        *bool         `url:"search[hide_empty],omitempty"`
	HasWiki          *bool         `url:"search[has_wiki],omitempty"`
	HasArtist        *bool         `url:"search[has_artist],omitempty"`

	// PerPage is the page size for each underlying request, at most
	// MaxPageSize. Zero leaves the server default in place.
	PerPage uint64 `url:"limit,omitempty"`

	// Start resumes the listing from an explicit cursor. The zero cursor
	// starts wherever the search order begins.
	Start pagination.Cursor `url:"-"`
}

// mode derives the pagination mode of the query: an explicit start cursor
// wins, otherwise sorts keyed by ID resume via ID boundaries matching their
// direction and every other sort advances by page number.
func (q TagQuery) mode() pagination.Mode {
	switch q.Start.Kind() {
	case pagination.KindPage:
		return pagination.ByPage
	case pagination.KindAfter:
		return pagination.ByIDAscending
	case pagination.KindBefore:
		return pagination.ByIDDescending
	}
	switch q.Order {
	case "", TagOrderIDDesc, TagOrderDate:
		return pagination.ByIDDescending
	case TagOrderIDAsc:
		return pagination.ByIDAscending
	default:
		return pagination.ByPage
	}
}

// SearchTags returns a lazy sequence of every tag matching the query. Pages
// are fetched on demand as the caller iterates; an empty page ends the
// sequence and any error is yielded exactly once as the final item.
func (c *Client) SearchTags(ctx context.Context, q TagQuery) (iter.Seq2[Tag, error], error) {
	if err := checkPerPage(q.PerPage); err != nil {
		return nil, err
	}

	fetch := func(ctx context.Context, cur pagination.Cursor) ([]Tag, error) {
		vals, err := listingValues(q, cur)
		if err != nil {
			return nil, err
		}
		body, err := c.api.Get(ctx, "/tags.json", vals)
		if err != nil {
			return nil, err
		}
		return decodeTagPage(body)
	}

	pager, err := pagination.NewPager(q.mode(), q.Start, fetch)
	if err != nil {
		return nil, err
	}
	return pager.All(ctx), nil
}

// decodeTagPage decodes one tag listing body. The tags endpoint returns a
// bare array, except when there are no results at all it returns
// {"tags": []} instead.
func decodeTagPage(body []byte) ([]Tag, error) {
	var tags []Tag
	if err := json.Unmarshal(body, &tags); err == nil {
		return tags, nil
	}
	var wrapper struct {
		Tags []Tag `json:"tags"`
	}
	if err := client.Decode(body, &wrapper); err != nil {
		return nil, err
	}
	return wrapper.Tags, nil
}
