package tmdb

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"filmscout/internal/logging"
	"filmscout/internal/services"
	"filmscout/internal/testsupport"
)

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New("  ", "https://example.com")
	if err == nil {
		t.Fatal("expected error when api key missing")
	}
	if !strings.Contains(err.Error(), "configuration error") {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestNewRejectsRelativeBaseURL(t *testing.T) {
	if _, err := New("key", "api.themoviedb.org/3"); err == nil {
		t.Fatal("expected error for base url without scheme")
	}
}

func TestNewFromConfigAppliesSettings(t *testing.T) {
	catalog := testsupport.NewCatalog(t)
	cfg := testsupport.NewConfig(t, testsupport.WithCatalog(catalog))
	cfg.TMDB.Language = "ko-KR"
	cfg.TMDB.RateLimitRequests = 5

	client, err := NewFromConfig(cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	defer client.Close()

	catalog.StockGenres()
	if _, err := client.Genres(context.Background(), MediaMovie); err != nil {
		t.Fatalf("Genres returned error: %v", err)
	}
	if got := catalog.LastQuery("/genre/movie/list").Get("language"); got != "ko-KR" {
		t.Fatalf("language param = %q, want ko-KR", got)
	}
	if stats := client.Stats(); stats.WindowLimit != 5 || stats.CacheEntries != 1 || stats.WindowInFlight != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestTimeoutLeavesCallerHTTPClientUntouched(t *testing.T) {
	shared := &http.Client{Timeout: 42 * time.Second}
	client, err := New(testsupport.CatalogAPIKey, "https://catalog.invalid/3",
		WithHTTPClient(shared), WithTimeout(3*time.Second))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if shared.Timeout != 42*time.Second {
		t.Fatalf("caller's client timeout changed to %s", shared.Timeout)
	}
	if client.httpClient == shared || client.httpClient.Timeout != 3*time.Second {
		t.Fatalf("expected a private copy with a 3s timeout, got %+v", client.httpClient)
	}

	// Option order must not matter.
	client, err = New(testsupport.CatalogAPIKey, "https://catalog.invalid/3",
		WithTimeout(3*time.Second), WithHTTPClient(shared))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if client.httpClient.Timeout != 3*time.Second {
		t.Fatalf("timeout = %s, want 3s", client.httpClient.Timeout)
	}
}

func TestNewFromConfigTimeoutSurvivesCustomHTTPClient(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.TMDB.RequestTimeoutSeconds = 7
	shared := &http.Client{}

	client, err := NewFromConfig(cfg, WithHTTPClient(shared))
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	defer client.Close()
	if client.httpClient.Timeout != 7*time.Second {
		t.Fatalf("timeout = %s, want 7s", client.httpClient.Timeout)
	}
	if shared.Timeout != 0 {
		t.Fatalf("caller's client timeout changed to %s", shared.Timeout)
	}
}

func TestDispatchCachesIdenticalRequests(t *testing.T) {
	catalog := testsupport.NewCatalog(t)
	catalog.JSON("/search/movie", `{"page":1,"results":[{"id":27205,"title":"Inception"}]}`)
	client, _ := newTestClient(t, catalog.URL())
	ctx := context.Background()

	first := url.Values{}
	first.Set("query", "Inception")
	first.Set("year", "2010")
	second := url.Values{}
	second.Set("year", "2010")
	second.Set("query", "Inception")

	a, err := client.Dispatch(ctx, http.MethodGet, "/search/movie", first, true)
	if err != nil {
		t.Fatalf("first dispatch: %v", err)
	}
	b, err := client.Dispatch(ctx, "get", "search/movie", second, true)
	if err != nil {
		t.Fatalf("second dispatch: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatalf("cached payload differs: %s vs %s", a, b)
	}
	if got := catalog.Calls("/search/movie"); got != 1 {
		t.Fatalf("expected a single upstream call, got %d", got)
	}
}

func TestDispatchBypassStillWritesCache(t *testing.T) {
	catalog := testsupport.NewCatalog(t)
	catalog.JSON("/movie/603", `{"id":603,"title":"The Matrix"}`)
	client, _ := newTestClient(t, catalog.URL())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := client.Dispatch(ctx, http.MethodGet, "/movie/603", nil, false); err != nil {
			t.Fatalf("dispatch %d: %v", i, err)
		}
	}
	if got := catalog.Calls("/movie/603"); got != 2 {
		t.Fatalf("bypassing reads should reach the network, got %d calls", got)
	}
	if _, err := client.Dispatch(ctx, http.MethodGet, "/movie/603", nil, true); err != nil {
		t.Fatalf("cached dispatch: %v", err)
	}
	if got := catalog.Calls("/movie/603"); got != 2 {
		t.Fatalf("expected the bypassing read to warm the cache, got %d calls", got)
	}
}

func TestDispatchRefetchesAfterTTL(t *testing.T) {
	catalog := testsupport.NewCatalog(t)
	catalog.JSON("/tv/1399", `{"id":1399,"name":"Game of Thrones"}`)
	client, clock := newTestClient(t, catalog.URL())
	ctx := context.Background()

	if _, err := client.Details(ctx, MediaTV, 1399); err != nil {
		t.Fatalf("Details: %v", err)
	}
	clock.Advance(300 * time.Second)
	if _, err := client.Details(ctx, MediaTV, 1399); err != nil {
		t.Fatalf("Details: %v", err)
	}
	if got := catalog.Calls("/tv/1399"); got != 2 {
		t.Fatalf("expected refetch after ttl, got %d calls", got)
	}
}

func TestDispatchDelaysFortyFirstCall(t *testing.T) {
	catalog := testsupport.NewCatalog(t)
	catalog.JSON("/search/movie", `{"page":1,"results":[]}`)
	client, clock := newTestClient(t, catalog.URL())
	ctx := context.Background()

	for i := 1; i <= 41; i++ {
		if _, err := client.Search(ctx, MediaMovie, fmt.Sprintf("title %d", i), 0, ""); err != nil {
			t.Fatalf("search %d: %v", i, err)
		}
		if i == 40 && len(clock.Sleeps()) != 0 {
			t.Fatalf("first 40 calls should not wait, slept %v", clock.Sleeps())
		}
	}
	sleeps := clock.Sleeps()
	if len(sleeps) != 1 || sleeps[0] != 10*time.Second {
		t.Fatalf("41st call should wait 10s for the window to slide, got %v", sleeps)
	}
	if got := catalog.Total(); got != 41 {
		t.Fatalf("upstream calls = %d, want 41", got)
	}
}

func TestDispatchNeverLogsCredential(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "debug", Writer: &buf})
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}

	server := httptest.NewServer(http.NotFoundHandler())
	deadURL := server.URL
	server.Close()

	client, _ := newTestClient(t, deadURL, WithLogger(logger))
	_, err = client.Dispatch(context.Background(), http.MethodGet, "/search/movie", url.Values{"query": {"x"}}, true)
	if err == nil {
		t.Fatal("expected transport failure")
	}
	if strings.Contains(err.Error(), testsupport.CatalogAPIKey) {
		t.Fatalf("error leaks credential: %v", err)
	}
	if strings.Contains(buf.String(), testsupport.CatalogAPIKey) {
		t.Fatalf("logs leak credential: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "catalog_retry") {
		t.Fatalf("expected retry warnings in logs, got %s", buf.String())
	}
}

func TestResolveGenreIDsDropsUnknownNames(t *testing.T) {
	catalog := testsupport.NewCatalog(t)
	catalog.StockGenres()
	client, _ := newTestClient(t, catalog.URL())
	ctx := context.Background()

	ids, err := client.ResolveGenreIDs(ctx, MediaMovie, []string{"Action", "NotARealGenre", "science fiction", "ACTION"})
	if err != nil {
		t.Fatalf("ResolveGenreIDs: %v", err)
	}
	if len(ids) != 2 || ids[0] != 28 || ids[1] != 878 {
		t.Fatalf("ids = %v, want [28 878]", ids)
	}

	ids, err = client.ResolveGenreIDs(ctx, MediaMovie, []string{"Nope"})
	if err != nil {
		t.Fatalf("ResolveGenreIDs: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("expected no ids, got %v", ids)
	}
	if got := catalog.Calls("/genre/movie/list"); got != 1 {
		t.Fatalf("genre list should be cached, fetched %d times", got)
	}
}

func TestDetailsToleratesMissingFields(t *testing.T) {
	catalog := testsupport.NewCatalog(t)
	catalog.JSON("/movie/42", `{"id":42,"title":"Sparse"}`)
	client, _ := newTestClient(t, catalog.URL())

	details, err := client.Details(context.Background(), MediaMovie, 42)
	if err != nil {
		t.Fatalf("Details: %v", err)
	}
	if details.Runtime != nil || details.Budget != nil || len(details.Genres) != 0 {
		t.Fatalf("expected absent optional fields, got %+v", details)
	}
}

func TestDetailsRejectsWrongShape(t *testing.T) {
	catalog := testsupport.NewCatalog(t)
	catalog.JSON("/movie/43", `["not","an","object"]`)
	client, _ := newTestClient(t, catalog.URL())

	_, err := client.Details(context.Background(), MediaMovie, 43)
	if kind := services.KindOf(err); kind != services.KindMalformedResponse {
		t.Fatalf("kind = %q, want MalformedResponse", kind)
	}
}

func TestEndpointsValidateBeforeNetwork(t *testing.T) {
	catalog := testsupport.NewCatalog(t)
	client, _ := newTestClient(t, catalog.URL())
	ctx := context.Background()

	if _, err := client.Search(ctx, "podcast", "x", 0, ""); services.KindOf(err) != services.KindValidation {
		t.Fatalf("expected validation error for media type, got %v", err)
	}
	if _, err := client.Search(ctx, MediaMovie, "  ", 0, ""); services.KindOf(err) != services.KindValidation {
		t.Fatalf("expected validation error for empty query, got %v", err)
	}
	if _, err := client.Details(ctx, MediaTV, 0); services.KindOf(err) != services.KindValidation {
		t.Fatalf("expected validation error for id, got %v", err)
	}
	if catalog.Total() != 0 {
		t.Fatalf("validation failures must not reach the network, got %d calls", catalog.Total())
	}
}

func TestDiscoverQueryParams(t *testing.T) {
	tv := DiscoverQuery{MediaType: MediaTV, GenreIDs: []int{18, 80}, Year: 2019, Language: "ko", SortBy: "vote_average"}
	params := tv.Params()
	want := map[string]string{
		"with_genres":            "18,80",
		"first_air_date_year":    "2019",
		"with_original_language": "ko",
		"sort_by":                "vote_average.desc",
	}
	for key, value := range want {
		if got := params.Get(key); got != value {
			t.Errorf("%s = %q, want %q", key, got, value)
		}
	}
	if params.Has("primary_release_year") {
		t.Error("tv discover must not send primary_release_year")
	}

	movie := DiscoverQuery{MediaType: MediaMovie, Year: 1999}.Params()
	if movie.Get("primary_release_year") != "1999" || movie.Has("with_genres") || movie.Has("sort_by") {
		t.Fatalf("unexpected movie params %v", movie)
	}
}

type recordingObserver struct {
	mu        sync.Mutex
	hits      int
	misses    int
	routes    []string
	retries   []string
	rateWaits []time.Duration
}

func (o *recordingObserver) ObserveCache(hit bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if hit {
		o.hits++
	} else {
		o.misses++
	}
}

func (o *recordingObserver) ObserveUpstream(route string, status int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.routes = append(o.routes, fmt.Sprintf("%s %d", route, status))
}

func (o *recordingObserver) ObserveRateWait(wait time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.rateWaits = append(o.rateWaits, wait)
}

func (o *recordingObserver) ObserveRetry(route, reason string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.retries = append(o.retries, route+" "+reason)
}

func TestObserverSeesDispatcherEvents(t *testing.T) {
	catalog := testsupport.NewCatalog(t)
	catalog.Handle("/movie/603",
		testsupport.CatalogResponse{Status: http.StatusInternalServerError},
		testsupport.CatalogResponse{Status: http.StatusOK, Body: `{"id":603}`},
	)
	observer := &recordingObserver{}
	client, _ := newTestClient(t, catalog.URL(), WithObserver(observer))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := client.Details(ctx, MediaMovie, 603); err != nil {
			t.Fatalf("Details: %v", err)
		}
	}

	observer.mu.Lock()
	defer observer.mu.Unlock()
	if observer.hits != 1 || observer.misses != 1 {
		t.Fatalf("hits=%d misses=%d, want 1/1", observer.hits, observer.misses)
	}
	if len(observer.routes) != 2 || observer.routes[0] != "/movie/{id} 500" || observer.routes[1] != "/movie/{id} 200" {
		t.Fatalf("unexpected upstream events %v", observer.routes)
	}
	if len(observer.retries) != 1 || observer.retries[0] != "/movie/{id} 500" {
		t.Fatalf("unexpected retry events %v", observer.retries)
	}
}
