package testsupport

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
)

// CatalogAPIKey is the credential the stub catalog expects.
const CatalogAPIKey = "test-key"

// CatalogResponse is one canned reply.
type CatalogResponse struct {
	Status int
	Body   string
	Header http.Header
}

// Catalog is an httptest-backed stand-in for the TMDB REST API. Each path
// replays its registered responses in order and then repeats the last one.
type Catalog struct {
	t      testing.TB
	server *httptest.Server

	mu        sync.Mutex
	routes    map[string][]CatalogResponse
	calls     map[string]int
	total     int
	lastQuery map[string]url.Values
}

// NewCatalog starts a stub catalog that is closed when the test ends.
func NewCatalog(t testing.TB) *Catalog {
	t.Helper()
	c := &Catalog{
		t:         t,
		routes:    make(map[string][]CatalogResponse),
		calls:     make(map[string]int),
		lastQuery: make(map[string]url.Values),
	}
	c.server = httptest.NewServer(http.HandlerFunc(c.serve))
	t.Cleanup(c.server.Close)
	return c
}

// URL returns the base URL to hand to the client.
func (c *Catalog) URL() string {
	return c.server.URL
}

// Handle registers a sequence of responses for path.
func (c *Catalog) Handle(path string, responses ...CatalogResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.routes[path] = append([]CatalogResponse(nil), responses...)
}

// JSON registers a single 200 response for path.
func (c *Catalog) JSON(path, body string) {
	c.Handle(path, CatalogResponse{Status: http.StatusOK, Body: body})
}

// StockGenres registers the provider's movie and tv genre lists.
func (c *Catalog) StockGenres() {
	c.JSON("/genre/movie/list", MovieGenresJSON)
	c.JSON("/genre/tv/list", TVGenresJSON)
}

// Calls reports how many requests reached path.
func (c *Catalog) Calls(path string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[path]
}

// Total reports how many requests reached the stub.
func (c *Catalog) Total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

// LastQuery returns the query string of the most recent request to path.
func (c *Catalog) LastQuery(path string) url.Values {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastQuery[path]
}

func (c *Catalog) serve(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if got := query.Get("api_key"); got != CatalogAPIKey {
		c.t.Errorf("catalog: expected api_key %q, got %q", CatalogAPIKey, got)
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	c.mu.Lock()
	c.total++
	c.calls[r.URL.Path]++
	c.lastQuery[r.URL.Path] = query
	responses, ok := c.routes[r.URL.Path]
	var resp CatalogResponse
	if ok && len(responses) > 0 {
		resp = responses[0]
		if len(responses) > 1 {
			c.routes[r.URL.Path] = responses[1:]
		}
	}
	c.mu.Unlock()

	if !ok {
		resp = CatalogResponse{
			Status: http.StatusNotFound,
			Body:   `{"status_code":34,"status_message":"The resource you requested could not be found."}`,
		}
	}
	for key, values := range resp.Header {
		for _, v := range values {
			w.Header().Add(key, v)
		}
	}
	w.Header().Set("Content-Type", "application/json")
	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = w.Write([]byte(resp.Body))
}

// MovieGenresJSON mirrors /genre/movie/list.
const MovieGenresJSON = `{"genres":[
{"id":28,"name":"Action"},{"id":12,"name":"Adventure"},{"id":16,"name":"Animation"},
{"id":35,"name":"Comedy"},{"id":80,"name":"Crime"},{"id":99,"name":"Documentary"},
{"id":18,"name":"Drama"},{"id":10751,"name":"Family"},{"id":14,"name":"Fantasy"},
{"id":36,"name":"History"},{"id":27,"name":"Horror"},{"id":10402,"name":"Music"},
{"id":9648,"name":"Mystery"},{"id":10749,"name":"Romance"},{"id":878,"name":"Science Fiction"},
{"id":10770,"name":"TV Movie"},{"id":53,"name":"Thriller"},{"id":10752,"name":"War"},
{"id":37,"name":"Western"}]}`

// TVGenresJSON mirrors /genre/tv/list.
const TVGenresJSON = `{"genres":[
{"id":10759,"name":"Action & Adventure"},{"id":16,"name":"Animation"},{"id":35,"name":"Comedy"},
{"id":80,"name":"Crime"},{"id":99,"name":"Documentary"},{"id":18,"name":"Drama"},
{"id":10751,"name":"Family"},{"id":10762,"name":"Kids"},{"id":9648,"name":"Mystery"},
{"id":10765,"name":"Sci-Fi & Fantasy"},{"id":37,"name":"Western"}]}`
