// Package testutil provides testing utilities for the booru client.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"time"
)

// MockResponse defines the behavior for a mock endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockBooru is a configurable mock API server for testing.
type MockBooru struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	// Tracking
	RequestCount int
	Queries      map[string][]url.Values
}

// NewMockBooru creates a new mock API server.
func NewMockBooru() *MockBooru {
	mock := &MockBooru{
		handlers: make(map[string]func(w http.ResponseWriter, r *http.Request)),
		Queries:  make(map[string][]url.Values),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.Queries[r.URL.Path] = append(mock.Queries[r.URL.Path], r.URL.Query())
		mock.mu.Unlock()

		mock.mu.RLock()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.RUnlock()

		if exists {
			handler(w, r)
			return
		}

		mock.defaultHandler(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockBooru) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockBooru) Close() {
	m.server.Close()
}

// Reset clears all tracking state.
func (m *MockBooru) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.Queries = make(map[string][]url.Values)
}

// SetHandler sets a custom handler for a specific path.
func (m *MockBooru) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a static response for a path.
func (m *MockBooru) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}

		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}

		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockBooru) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetQueries returns the recorded query parameters of every request made to
// the given path, in request order.
func (m *MockBooru) GetQueries(path string) []url.Values {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]url.Values(nil), m.Queries[path]...)
}

// defaultHandler answers unconfigured paths with an empty listing.
func (m *MockBooru) defaultHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`[]`))
}

// PostJSON builds a minimal post object with the given ID.
func PostJSON(id uint64) string {
	return fmt.Sprintf(`{"id":%d,"created_at":"2024-01-01T00:00:00Z","file":{"width":100,"height":100,"ext":"png","size":1024,"md5":"d41d8cd98f00b204e9800998ecf8427e","url":"https://static.example.test/%d.png"},"score":{"up":1,"down":0,"total":1},"tags":{"general":["fluffy"],"species":[],"character":[],"artist":[],"invalid":[],"lore":[],"meta":["animated"]},"rating":"s","fav_count":3,"sources":[],"description":""}`, id, id)
}

// PostsPage builds a "{"posts": [...]}" listing body for the given IDs.
func PostsPage(ids ...uint64) string {
	posts := make([]string, len(ids))
	for i, id := range ids {
		posts[i] = PostJSON(id)
	}
	return fmt.Sprintf(`{"posts":[%s]}`, strings.Join(posts, ","))
}

// PoolJSON builds a minimal pool object with the given ID and name.
func PoolJSON(id uint64, name string) string {
	return fmt.Sprintf(`{"id":%d,"name":%q,"created_at":"2024-01-01T00:00:00Z","updated_at":"2024-01-01T00:00:00Z","creator_id":1,"description":"","is_active":true,"category":"series","post_ids":[1,2,3],"creator_name":"tester","post_count":3}`, id, name)
}

// PoolsPage builds a bare-array pool listing body.
func PoolsPage(pools ...string) string {
	return "[" + strings.Join(pools, ",") + "]"
}

// TagJSON builds a minimal tag object with the given ID and name.
func TagJSON(id uint64, name string) string {
	return fmt.Sprintf(`{"id":%d,"name":%q,"post_count":10,"related_tags":"","category":0,"is_locked":false,"created_at":"2024-01-01T00:00:00Z","updated_at":"2024-01-01T00:00:00Z"}`, id, name)
}

// TagsPage builds a bare-array tag listing body.
func TagsPage(tags ...string) string {
	return "[" + strings.Join(tags, ",") + "]"
}

// NewErrorResponse creates a non-2xx response carrying a JSON reason body.
func NewErrorResponse(status int, reason string) MockResponse {
	return MockResponse{
		StatusCode: status,
		Body:       fmt.Sprintf(`{"reason":%q}`, reason),
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return NewErrorResponse(http.StatusInternalServerError, "Internal server error")
}
