package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"filmscout/internal/testsupport"
)

type cliTestEnv struct {
	catalog    *testsupport.Catalog
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	catalog := testsupport.NewCatalog(t)
	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, catalog.URL(), base)

	return &cliTestEnv{
		catalog:    catalog,
		configPath: configPath,
		baseDir:    base,
	}
}

func writeTestConfig(t *testing.T, path, baseURL, base string) {
	t.Helper()
	content := fmt.Sprintf(
		"[tmdb]\napi_key = %q\nbase_url = %q\nmax_attempts = 1\n\n[server]\nbind = \"127.0.0.1:0\"\ntoken = %q\n\n[paths]\nlog_dir = %q\nstate_dir = %q\n",
		testsupport.CatalogAPIKey,
		baseURL,
		"server-secret",
		filepath.Join(base, "logs"),
		filepath.Join(base, "state"),
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{}
	if env != nil && env.configPath != "" {
		flags = append(flags, "--config", env.configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
