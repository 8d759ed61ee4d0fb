package booru

import (
	"context"
	"fmt"
	"iter"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/woodpelt/booru621/pkg/pagination"
)

// Rating classifies how safe for work a post is.
type Rating string

const (
	RatingSafe         Rating = "s"
	RatingQuestionable Rating = "q"
	RatingExplicit     Rating = "e"
)

// PostFile describes the uploaded file of a post. URL is nil for deleted
// posts and for posts hidden from the current session by the site's filters.
type PostFile struct {
	Width  uint64  `json:"width"`
	Height uint64  `json:"height"`
	Ext    string  `json:"ext"`
	Size   uint64  `json:"size"`
	MD5    string  `json:"md5"`
	URL    *string `json:"url"`
}

// PostPreview describes the thumbnail rendition of a post.
type PostPreview struct {
	Width  uint64  `json:"width"`
	Height uint64  `json:"height"`
	URL    *string `json:"url"`
}

// PostSample describes the scaled-down rendition of a post, present only for
// files above the sample threshold.
type PostSample struct {
	Has    bool    `json:"has"`
	Width  uint64  `json:"width"`
	Height uint64  `json:"height"`
	URL    *string `json:"url"`
}

// PostScore is the vote tally of a post. Down is negative or zero.
type PostScore struct {
	Up    int64 `json:"up"`
	Down  int64 `json:"down"`
	Total int64 `json:"total"`
}

// PostTags holds a post's tags grouped by category.
type PostTags struct {
	General   []string `json:"general"`
	Species   []string `json:"species"`
	Character []string `json:"character"`
	Artist    []string `json:"artist"`
	Invalid   []string `json:"invalid"`
	Lore      []string `json:"lore"`
	Meta      []string `json:"meta"`
}

// All returns every tag of the post across all categories.
func (t PostTags) All() []string {
	var all []string
	for _, group := range [][]string{
		t.General, t.Species, t.Character, t.Artist, t.Invalid, t.Lore, t.Meta,
	} {
		all = append(all, group...)
	}
	return all
}

// PostFlags holds a post's moderation state.
type PostFlags struct {
	Pending      bool `json:"pending"`
	Flagged      bool `json:"flagged"`
	NoteLocked   bool `json:"note_locked"`
	StatusLocked bool `json:"status_locked"`
	RatingLocked bool `json:"rating_locked"`
	Deleted      bool `json:"deleted"`
}

// PostRelationships links a post to its parent and children.
type PostRelationships struct {
	ParentID          *uint64  `json:"parent_id"`
	HasChildren       bool     `json:"has_children"`
	HasActiveChildren bool     `json:"has_active_children"`
	Children          []uint64 `json:"children"`
}

// Post is one uploaded item as returned by the listing and lookup endpoints.
type Post struct {
	ID            uint64            `json:"id"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
	File          PostFile          `json:"file"`
	Preview       PostPreview       `json:"preview"`
	Sample        PostSample        `json:"sample"`
	Score         PostScore         `json:"score"`
	Tags          PostTags          `json:"tags"`
	LockedTags    []string          `json:"locked_tags"`
	Flags         PostFlags         `json:"flags"`
	Rating        Rating            `json:"rating"`
	FavCount      uint64            `json:"fav_count"`
	Sources       []string          `json:"sources"`
	Pools         []uint64          `json:"pools"`
	Relationships PostRelationships `json:"relationships"`
	ApproverID    *uint64           `json:"approver_id"`
	UploaderID    uint64            `json:"uploader_id"`
	Description   string            `json:"description"`
	CommentCount  int64             `json:"comment_count"`
	IsFavorited   bool              `json:"is_favorited"`
}

// RecordID implements pagination.Record.
func (p Post) RecordID() uint64 {
	return p.ID
}

// IsDeleted reports whether the post has been deleted.
func (p Post) IsDeleted() bool {
	return p.Flags.Deleted
}

// PostQuery describes a post search.
type PostQuery struct {
	// Filter selects which posts match. An empty filter lists everything.
	Filter Filter

	// PerPage is the page size for each underlying request, at most
	// MaxPageSize. Zero means MaxPageSize.
	PerPage uint64

	// Start resumes the listing from an explicit cursor. The zero cursor
	// starts from the newest matching post (or page 1 for ordered
	// filters). A page cursor with an unordered filter, or an ID cursor
	// with an ordered one, is rejected at construction.
	Start pagination.Cursor
}

// postListParams is the wire shape of a post listing request.
type postListParams struct {
	Limit uint64 `url:"limit"`
	Tags  string `url:"tags,omitempty"`
}

// postEnvelope is the wrapper the posts endpoint puts around listings.
type postEnvelope struct {
	Posts []Post `json:"posts"`
}

// SearchPosts returns a lazy sequence of every post matching the query, in
// listing order. Pages are fetched on demand as the caller iterates; an empty
// page ends the sequence and any error is yielded exactly once as the final
// item. The sequence is forward-only, construct a new one to re-run the
// search.
func (c *Client) SearchPosts(ctx context.Context, q PostQuery) (iter.Seq2[Post, error], error) {
	if err := checkPerPage(q.PerPage); err != nil {
		return nil, err
	}
	perPage := q.PerPage
	if perPage == 0 {
		perPage = MaxPageSize
	}

	params := postListParams{Limit: perPage, Tags: q.Filter.Tags()}

	fetch := func(ctx context.Context, cur pagination.Cursor) ([]Post, error) {
		vals, err := listingValues(params, cur)
		if err != nil {
			return nil, err
		}
		var page postEnvelope
		if err := c.api.GetJSON(ctx, "/posts.json", vals, &page); err != nil {
			return nil, err
		}
		return page.Posts, nil
	}

	pager, err := pagination.NewPager(cursorMode(q.Filter.Ordered(), q.Start), q.Start, fetch)
	if err != nil {
		return nil, err
	}
	return pager.All(ctx), nil
}

// PostsByID returns a lazy sequence of the posts with the given IDs. IDs are
// consumed lazily and grouped into one request per hundred; records within a
// batch come back in server order, which does not necessarily match the input
// order. Unknown IDs are silently absent from the result.
func (c *Client) PostsByID(ctx context.Context, ids iter.Seq[uint64]) iter.Seq2[Post, error] {
	fetch := func(ctx context.Context, batch []uint64) ([]Post, error) {
		terms := make([]string, len(batch))
		for i, id := range batch {
			terms[i] = strconv.FormatUint(id, 10)
		}
		vals := url.Values{
			"limit": {strconv.Itoa(len(batch))},
			"tags":  {"id:" + strings.Join(terms, ",")},
		}
		var page postEnvelope
		if err := c.api.GetJSON(ctx, "/posts.json", vals, &page); err != nil {
			return nil, err
		}
		return page.Posts, nil
	}
	return pagination.BatchByID(ctx, ids, pagination.MaxBatchIDs, fetch)
}

// GetPost fetches a single post by ID.
func (c *Client) GetPost(ctx context.Context, id uint64) (Post, error) {
	var resp struct {
		Post Post `json:"post"`
	}
	endpoint := fmt.Sprintf("/posts/%d.json", id)
	if err := c.api.GetJSON(ctx, endpoint, nil, &resp); err != nil {
		return Post{}, err
	}
	return resp.Post, nil
}

// Favorite adds the post to the logged-in user's favorites and returns its
// updated state. Requires credentials set with Login.
func (c *Client) Favorite(ctx context.Context, id uint64) (Post, error) {
	form := url.Values{"post_id": {strconv.FormatUint(id, 10)}}
	var resp struct {
		Post Post `json:"post"`
	}
	if err := c.api.PostForm(ctx, "/favorites.json", form, &resp); err != nil {
		return Post{}, err
	}
	return resp.Post, nil
}

// Unfavorite removes the post from the logged-in user's favorites. The API
// has no DELETE verb; removal is a POST with a method override field.
func (c *Client) Unfavorite(ctx context.Context, id uint64) error {
	endpoint := fmt.Sprintf("/favorites/%d.json", id)
	form := url.Values{"_method": {"delete"}}
	return c.api.PostForm(ctx, endpoint, form, nil)
}

// PostVote is the vote tally returned after voting on a post. OurScore is the
// logged-in user's own vote after the operation, zero when it was withdrawn.
type PostVote struct {
	Up       int64 `json:"up"`
	Down     int64 `json:"down"`
	Score    int64 `json:"score"`
	OurScore int64 `json:"our_score"`
}

// VotePost casts a vote on the post, score 1 for up and -1 for down. Voting
// the same way twice withdraws the vote. Requires credentials set with Login.
func (c *Client) VotePost(ctx context.Context, id uint64, score int) (PostVote, error) {
	endpoint := fmt.Sprintf("/posts/%d/votes.json", id)
	form := url.Values{"score": {strconv.Itoa(score)}}
	var vote PostVote
	if err := c.api.PostForm(ctx, endpoint, form, &vote); err != nil {
		return PostVote{}, err
	}
	return vote, nil
}
