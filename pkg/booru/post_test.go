package booru

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/woodpelt/booru621/internal/testutil"
	"github.com/woodpelt/booru621/pkg/client"
	"github.com/woodpelt/booru621/pkg/pagination"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	cfg := client.DefaultConfig(baseURL, "booru621-test/1.0 (by tests)")
	cfg.Cooldown = time.Millisecond
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

// collectPosts drains a post sequence into records and errors.
func collectPosts(seq func(func(Post, error) bool)) ([]Post, []error) {
	var posts []Post
	var errs []error
	for p, err := range seq {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		posts = append(posts, p)
	}
	return posts, errs
}

// descendingIDs returns n IDs counting down from start.
func descendingIDs(start uint64, n int) []uint64 {
	ids := make([]uint64, n)
	for i := range ids {
		ids[i] = start - uint64(i)
	}
	return ids
}

func TestSearchPostsUnordered(t *testing.T) {
	// A full page of 320 posts, then an empty page when queried past the
	// smallest ID of the first one.
	ids := descendingIDs(1000, 320)
	minID := ids[len(ids)-1]

	mock := testutil.NewMockBooru()
	defer mock.Close()
	mock.SetHandler("/posts.json", func(w http.ResponseWriter, r *http.Request) {
		switch page := r.URL.Query().Get("page"); page {
		case "":
			w.Write([]byte(testutil.PostsPage(ids...)))
		case "b" + strconv.FormatUint(minID, 10):
			w.Write([]byte(`{"posts":[]}`))
		default:
			t.Errorf("unexpected page cursor %q", page)
			w.Write([]byte(`{"posts":[]}`))
		}
	})

	c := newTestClient(t, mock.URL())

	seq, err := c.SearchPosts(context.Background(), PostQuery{
		Filter: Filter{"fluffy", "rating:s"},
	})
	if err != nil {
		t.Fatalf("SearchPosts() error = %v", err)
	}

	posts, errs := collectPosts(seq)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(posts) != 320 {
		t.Fatalf("got %d posts, want 320", len(posts))
	}
	for i, p := range posts {
		if p.ID != ids[i] {
			t.Fatalf("posts[%d].ID = %d, want %d (server order must be preserved)", i, p.ID, ids[i])
		}
	}
	if got := mock.GetRequestCount(); got != 2 {
		t.Errorf("request count = %d, want 2", got)
	}

	queries := mock.GetQueries("/posts.json")
	if got := queries[0].Get("tags"); got != "fluffy rating:s" {
		t.Errorf("tags = %q, want %q", got, "fluffy rating:s")
	}
	if queries[0].Has("page") {
		t.Error("first unordered request should omit the page parameter")
	}
	if got := queries[0].Get("limit"); got != "320" {
		t.Errorf("limit = %q, want %q", got, "320")
	}
}

func TestSearchPostsOrdered(t *testing.T) {
	mock := testutil.NewMockBooru()
	defer mock.Close()
	mock.SetHandler("/posts.json", func(w http.ResponseWriter, r *http.Request) {
		switch page := r.URL.Query().Get("page"); page {
		case "1":
			w.Write([]byte(testutil.PostsPage(5, 9, 2)))
		case "2":
			w.Write([]byte(testutil.PostsPage(7)))
		case "3":
			w.Write([]byte(`{"posts":[]}`))
		default:
			t.Errorf("unexpected page cursor %q", page)
			w.Write([]byte(`{"posts":[]}`))
		}
	})

	c := newTestClient(t, mock.URL())

	seq, err := c.SearchPosts(context.Background(), PostQuery{
		Filter: Filter{"fluffy", "order:score"},
	})
	if err != nil {
		t.Fatalf("SearchPosts() error = %v", err)
	}

	posts, errs := collectPosts(seq)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	gotIDs := make([]uint64, len(posts))
	for i, p := range posts {
		gotIDs[i] = p.ID
	}
	if want := []uint64{5, 9, 2, 7}; !slices.Equal(gotIDs, want) {
		t.Errorf("got IDs %v, want %v", gotIDs, want)
	}
	if got := mock.GetRequestCount(); got != 3 {
		t.Errorf("request count = %d, want 3", got)
	}
}

func TestSearchPostsErrorShortCircuit(t *testing.T) {
	mock := testutil.NewMockBooru()
	defer mock.Close()
	mock.SetHandler("/posts.json", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "" {
			w.Write([]byte(testutil.PostsPage(descendingIDs(100, 10)...)))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"reason":"Internal server error"}`))
	})

	c := newTestClient(t, mock.URL())

	seq, err := c.SearchPosts(context.Background(), PostQuery{Filter: Filter{"fluffy"}})
	if err != nil {
		t.Fatalf("SearchPosts() error = %v", err)
	}

	posts, errs := collectPosts(seq)
	if len(posts) != 10 {
		t.Errorf("got %d posts before the error, want 10", len(posts))
	}
	if len(errs) != 1 {
		t.Fatalf("got %d errors, want exactly 1", len(errs))
	}
	var httpErr *client.HTTPError
	if !errors.As(errs[0], &httpErr) || httpErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("error = %v, want *client.HTTPError with status 500", errs[0])
	}
	if got := mock.GetRequestCount(); got != 2 {
		t.Errorf("request count = %d, want 2 (no request after the failure)", got)
	}
}

func TestSearchPostsValidation(t *testing.T) {
	mock := testutil.NewMockBooru()
	defer mock.Close()
	c := newTestClient(t, mock.URL())

	t.Run("per_page_above_limit", func(t *testing.T) {
		_, err := c.SearchPosts(context.Background(), PostQuery{PerPage: 400})
		var limitErr *client.AboveLimitError
		if !errors.As(err, &limitErr) {
			t.Fatalf("SearchPosts() error = %v, want *client.AboveLimitError", err)
		}
		if limitErr.Max != MaxPageSize {
			t.Errorf("Max = %d, want %d", limitErr.Max, MaxPageSize)
		}
	})

	t.Run("ordered_filter_with_id_cursor", func(t *testing.T) {
		_, err := c.SearchPosts(context.Background(), PostQuery{
			Filter: Filter{"order:score"},
			Start:  pagination.Before(100),
		})
		if !errors.Is(err, pagination.ErrCursorMode) {
			t.Errorf("SearchPosts() error = %v, want ErrCursorMode", err)
		}
	})

	t.Run("unordered_filter_with_page_cursor", func(t *testing.T) {
		_, err := c.SearchPosts(context.Background(), PostQuery{
			Filter: Filter{"fluffy"},
			Start:  pagination.Page(3),
		})
		if !errors.Is(err, pagination.ErrCursorMode) {
			t.Errorf("SearchPosts() error = %v, want ErrCursorMode", err)
		}
	})

	if got := mock.GetRequestCount(); got != 0 {
		t.Errorf("validation issued %d requests, want 0", got)
	}
}

func TestSearchPostsExplicitStart(t *testing.T) {
	mock := testutil.NewMockBooru()
	defer mock.Close()
	mock.SetHandler("/posts.json", func(w http.ResponseWriter, r *http.Request) {
		switch page := r.URL.Query().Get("page"); page {
		case "a50":
			w.Write([]byte(testutil.PostsPage(51, 52, 53)))
		case "a53":
			w.Write([]byte(`{"posts":[]}`))
		default:
			t.Errorf("unexpected page cursor %q", page)
			w.Write([]byte(`{"posts":[]}`))
		}
	})

	c := newTestClient(t, mock.URL())

	seq, err := c.SearchPosts(context.Background(), PostQuery{
		Filter: Filter{"fluffy"},
		Start:  pagination.After(50),
	})
	if err != nil {
		t.Fatalf("SearchPosts() error = %v", err)
	}

	posts, errs := collectPosts(seq)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(posts) != 3 {
		t.Errorf("got %d posts, want 3", len(posts))
	}
}

func TestPostsByIDBatching(t *testing.T) {
	ids := make([]uint64, 250)
	for i := range ids {
		ids[i] = uint64(i + 1)
	}

	mock := testutil.NewMockBooru()
	defer mock.Close()
	mock.SetHandler("/posts.json", func(w http.ResponseWriter, r *http.Request) {
		tags := r.URL.Query().Get("tags")
		if !strings.HasPrefix(tags, "id:") {
			t.Errorf("tags = %q, want an id: filter", tags)
			w.Write([]byte(`{"posts":[]}`))
			return
		}
		var batch []uint64
		for _, s := range strings.Split(strings.TrimPrefix(tags, "id:"), ",") {
			id, err := strconv.ParseUint(s, 10, 64)
			if err != nil {
				t.Errorf("bad ID %q in tags %q", s, tags)
				continue
			}
			batch = append(batch, id)
		}
		// Mimic the server's unspecified ordering.
		slices.Reverse(batch)
		w.Write([]byte(testutil.PostsPage(batch...)))
	})

	c := newTestClient(t, mock.URL())

	posts, errs := collectPosts(c.PostsByID(context.Background(), slices.Values(ids)))
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(posts) != 250 {
		t.Fatalf("got %d posts, want 250", len(posts))
	}
	if got := mock.GetRequestCount(); got != 3 {
		t.Errorf("request count = %d, want 3", got)
	}

	seen := make(map[uint64]bool, len(posts))
	for _, p := range posts {
		seen[p.ID] = true
	}
	for _, id := range ids {
		if !seen[id] {
			t.Fatalf("post %d missing from results", id)
		}
	}

	queries := mock.GetQueries("/posts.json")
	wantSizes := []int{100, 100, 50}
	for i, q := range queries {
		n := strings.Count(q.Get("tags"), ",") + 1
		if n != wantSizes[i] {
			t.Errorf("batch %d carried %d IDs, want %d", i, n, wantSizes[i])
		}
		if got := q.Get("limit"); got != strconv.Itoa(wantSizes[i]) {
			t.Errorf("batch %d limit = %q, want %d", i, got, wantSizes[i])
		}
	}
}

func TestPostsByIDEmptySource(t *testing.T) {
	mock := testutil.NewMockBooru()
	defer mock.Close()
	c := newTestClient(t, mock.URL())

	posts, errs := collectPosts(c.PostsByID(context.Background(), slices.Values([]uint64{})))
	if len(posts) != 0 || len(errs) != 0 {
		t.Errorf("got %d posts and %d errors, want none", len(posts), len(errs))
	}
	if got := mock.GetRequestCount(); got != 0 {
		t.Errorf("request count = %d, want 0", got)
	}
}

func TestGetPost(t *testing.T) {
	mock := testutil.NewMockBooru()
	defer mock.Close()
	mock.SetResponse("/posts/8595.json", testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       `{"post":` + testutil.PostJSON(8595) + `}`,
	})

	c := newTestClient(t, mock.URL())

	post, err := c.GetPost(context.Background(), 8595)
	if err != nil {
		t.Fatalf("GetPost() error = %v", err)
	}
	if post.ID != 8595 {
		t.Errorf("ID = %d, want 8595", post.ID)
	}
	if post.Rating != RatingSafe {
		t.Errorf("Rating = %q, want %q", post.Rating, RatingSafe)
	}
	if !slices.Contains(post.Tags.All(), "fluffy") {
		t.Errorf("Tags.All() = %v, want to contain fluffy", post.Tags.All())
	}
}

func TestFavorite(t *testing.T) {
	mock := testutil.NewMockBooru()
	defer mock.Close()
	mock.SetHandler("/favorites.json", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %q, want POST", r.Method)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("ParseForm() error = %v", err)
		}
		if got := r.PostForm.Get("post_id"); got != "8595" {
			t.Errorf("post_id = %q, want 8595", got)
		}
		w.Write([]byte(`{"post":` + testutil.PostJSON(8595) + `}`))
	})

	c := newTestClient(t, mock.URL())
	c.Login("alice", "topsecret")

	post, err := c.Favorite(context.Background(), 8595)
	if err != nil {
		t.Fatalf("Favorite() error = %v", err)
	}
	if post.ID != 8595 {
		t.Errorf("ID = %d, want 8595", post.ID)
	}

	queries := mock.GetQueries("/favorites.json")
	if got := queries[0].Get("login"); got != "alice" {
		t.Errorf("login = %q, want alice", got)
	}
}

func TestUnfavorite(t *testing.T) {
	mock := testutil.NewMockBooru()
	defer mock.Close()
	mock.SetHandler("/favorites/8595.json", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %q, want POST", r.Method)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("ParseForm() error = %v", err)
		}
		if got := r.PostForm.Get("_method"); got != "delete" {
			t.Errorf("_method = %q, want delete", got)
		}
		w.Write([]byte(`{}`))
	})

	c := newTestClient(t, mock.URL())

	if err := c.Unfavorite(context.Background(), 8595); err != nil {
		t.Fatalf("Unfavorite() error = %v", err)
	}
}

func TestVotePost(t *testing.T) {
	mock := testutil.NewMockBooru()
	defer mock.Close()
	mock.SetHandler("/posts/8595/votes.json", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("ParseForm() error = %v", err)
		}
		if got := r.PostForm.Get("score"); got != "1" {
			t.Errorf("score = %q, want 1", got)
		}
		w.Write([]byte(`{"up":10,"down":-2,"score":8,"our_score":1}`))
	})

	c := newTestClient(t, mock.URL())

	vote, err := c.VotePost(context.Background(), 8595, 1)
	if err != nil {
		t.Fatalf("VotePost() error = %v", err)
	}
	if vote.Score != 8 || vote.OurScore != 1 {
		t.Errorf("vote = %+v, want score 8 and our_score 1", vote)
	}
}
