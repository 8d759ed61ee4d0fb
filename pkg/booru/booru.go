// Package booru is a typed client for e621-style image board APIs. Listings
// are exposed as lazy record sequences that paginate on demand through the
// shared rate-limited transport, so iterating past the server's per-request
// cap costs nothing until the caller actually pulls that far.
package booru

import (
	"net/url"

	"github.com/google/go-querystring/query"

	"github.com/woodpelt/booru621/pkg/client"
	"github.com/woodpelt/booru621/pkg/pagination"
)

// MaxPageSize is the hard server-side ceiling on records per listing page.
// Requesting more fails before any network I/O with an AboveLimitError.
const MaxPageSize = 320

// Client issues typed operations against one image board host. All operations
// of one Client share its request pacer; it is safe for concurrent use.
type Client struct {
	api *client.Client
}

// New creates a client for the given host. The user agent is required, the
// API rejects anonymous library agents.
func New(cfg client.Config) (*Client, error) {
	api, err := client.New(cfg)
	if err != nil {
		return nil, err
	}
	return &Client{api: api}, nil
}

// Login attaches the given username and API key to every subsequent request.
func (c *Client) Login(name, apiKey string) {
	c.api.Login(name, apiKey)
}

// Logout removes credentials previously set with Login.
func (c *Client) Logout() {
	c.api.Logout()
}

// checkPerPage validates a caller-requested page size against MaxPageSize.
func checkPerPage(perPage uint64) error {
	if perPage > MaxPageSize {
		return &client.AboveLimitError{Option: "limit", Value: perPage, Max: MaxPageSize}
	}
	return nil
}

// listingValues encodes a query struct with go-querystring and stamps the
// pagination cursor onto it. An unset cursor sends no page parameter at all,
// which the server treats as the first page.
func listingValues(q any, cur pagination.Cursor) (url.Values, error) {
	vals, err := query.Values(q)
	if err != nil {
		return nil, err
	}
	if !cur.IsZero() {
		vals.Set("page", cur.String())
	}
	return vals, nil
}

// cursorMode derives the pagination mode for a post listing. Ordered filters
// follow a server-defined sort and can only advance by page number; an ID
// cursor combined with one is rejected when the pager is built. Unordered
// listings resume by ID boundary in the direction the start cursor implies,
// descending by default.
func cursorMode(ordered bool, start pagination.Cursor) pagination.Mode {
	if ordered {
		return pagination.ByPage
	}
	if start.Kind() == pagination.KindAfter {
		return pagination.ByIDAscending
	}
	return pagination.ByIDDescending
}
