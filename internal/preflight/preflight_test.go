package preflight

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"filmscout/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckCredential(t *testing.T) {
	if result := CheckCredential("  "); result.Passed {
		t.Fatal("expected failure for blank credential")
	}
	result := CheckCredential("abc123")
	if !result.Passed || strings.Contains(result.Detail, "abc123") {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestCheckCatalog_OK(t *testing.T) {
	catalog := testsupport.NewCatalog(t)
	catalog.StockGenres()
	cfg := testsupport.NewConfig(t, testsupport.WithCatalog(catalog))

	result := CheckCatalog(context.Background(), cfg)
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	if !strings.Contains(result.Detail, "19 movie genres") {
		t.Fatalf("unexpected detail %q", result.Detail)
	}
}

func TestCheckCatalog_BadKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"status_code":7,"status_message":"Invalid API key"}`))
	}))
	defer srv.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithTMDBKey("wrong-key"))
	cfg.TMDB.BaseURL = srv.URL

	result := CheckCatalog(context.Background(), cfg)
	if result.Passed {
		t.Fatal("expected failure with bad key")
	}
	if result.Detail != "auth failed (invalid api key)" {
		t.Fatalf("unexpected detail %q", result.Detail)
	}
	if strings.Contains(result.Detail, "wrong-key") {
		t.Fatal("credential leaked into detail")
	}
}

func TestCheckCatalog_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	cfg := testsupport.NewConfig(t)
	cfg.TMDB.BaseURL = url

	result := CheckCatalog(context.Background(), cfg)
	if result.Passed {
		t.Fatal("expected failure for a closed server")
	}
	if strings.Contains(result.Detail, testsupport.CatalogAPIKey) {
		t.Fatalf("credential leaked into detail %q", result.Detail)
	}
}

func TestCheckBind(t *testing.T) {
	if result := CheckBind("127.0.0.1:0"); !result.Passed {
		t.Fatalf("expected free port to pass, got %s", result.Detail)
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer listener.Close()
	if result := CheckBind(listener.Addr().String()); result.Passed {
		t.Fatal("expected busy port to fail")
	}
	if result := CheckBind(""); result.Passed {
		t.Fatal("expected empty bind to fail")
	}
}

func TestRunAllSkipsCatalogWithoutCredential(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithTMDBKey(""))
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	results := RunAll(context.Background(), cfg)
	names := make([]string, 0, len(results))
	for _, result := range results {
		names = append(names, result.Name)
	}
	if strings.Contains(strings.Join(names, ","), "TMDB API") {
		t.Fatalf("catalog probe should be skipped, got %v", names)
	}
	if !Failed(results) {
		t.Fatal("expected the missing credential to fail the run")
	}
}

func TestRunAllPasses(t *testing.T) {
	catalog := testsupport.NewCatalog(t)
	catalog.StockGenres()
	cfg := testsupport.NewConfig(t, testsupport.WithCatalog(catalog))
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	results := RunAll(context.Background(), cfg)
	if len(results) != 6 || Failed(results) {
		t.Fatalf("unexpected results %+v", results)
	}
}
