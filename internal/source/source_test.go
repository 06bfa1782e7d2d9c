package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
)

const datasetBody = `{"meta":{"year":2025},"bands":{"vara":{"intervals":[[0,1,0]]}}}`

const rulesBody = `{"yogas":[{"id":"a","name":"A","strength":1,"definition":{"type":"band","band":"vara"}}]}`

func TestFetchHTTPCache(t *testing.T) {
	var hits, notModified atomic.Int32
	var down atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if down.Load() {
			http.Error(w, "down", http.StatusBadGateway)
			return
		}
		if r.Header.Get("If-None-Match") == `"v1"` {
			notModified.Add(1)
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		w.Write([]byte("payload"))
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir())
	src := Source{ID: "feed", URL: srv.URL + "/cal.ics?token=secret"}
	ctx := context.Background()

	res, err := f.FetchOne(ctx, src)
	if err != nil || string(res.Body) != "payload" || res.FromCache {
		t.Fatalf("first fetch = %+v, %v", res, err)
	}

	res, err = f.FetchOne(ctx, src)
	if err != nil || string(res.Body) != "payload" || !res.FromCache {
		t.Fatalf("second fetch = %+v, %v", res, err)
	}
	if notModified.Load() != 1 {
		t.Errorf("conditional requests = %d, want 1", notModified.Load())
	}

	down.Store(true)
	res, err = f.FetchOne(ctx, src)
	if err != nil || !res.FromCache {
		t.Fatalf("fallback fetch = %+v, %v", res, err)
	}
	if hits.Load() != 3 {
		t.Errorf("hits = %d", hits.Load())
	}
}

func TestFetchAllCollectsErrors(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(good, []byte("a"), 0o600); err != nil {
		t.Fatal(err)
	}

	f := NewFetcher(t.TempDir())
	results, errs := f.FetchAll(context.Background(), []Source{
		{ID: "a", URL: good},
		{ID: "missing", URL: filepath.Join(dir, "nope.txt")},
		{ID: "empty"},
	})
	if len(results) != 1 || results[0].Source.ID != "a" || string(results[0].Body) != "a" {
		t.Errorf("results = %+v", results)
	}
	if len(errs) != 2 {
		t.Errorf("errs = %v", errs)
	}
}

func TestLoaderFromDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "panchanga_json"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(dir, "panchanga_json", "panchanga_chennai_2025.json"), datasetBody)
	writeFile(t, filepath.Join(dir, "rules.json"), rulesBody)

	l := NewLoader(NewFetcher(t.TempDir()), dir, "")
	ds, err := l.Dataset(context.Background(), "chennai", 2025)
	if err != nil {
		t.Fatalf("dataset: %v", err)
	}
	if ds.Meta.Year != 2025 || len(ds.Bands["vara"].Intervals) != 1 {
		t.Errorf("dataset = %+v", ds)
	}
	rules, err := l.Rules(context.Background())
	if err != nil {
		t.Fatalf("rules: %v", err)
	}
	if len(rules.Yogas) != 1 || rules.Yogas[0].Name != "A" {
		t.Errorf("rules = %+v", rules.Yogas)
	}

	if _, err := l.Dataset(context.Background(), "nowhere", 2025); err == nil {
		t.Error("expected error for a missing dataset")
	}
}

func TestLoaderFromHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/data/panchanga_json/panchanga_bangalore_2026.json":
			w.Write([]byte(datasetBody))
		case "/data/rules.json":
			w.Write([]byte(rulesBody))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	l := NewLoader(NewFetcher(t.TempDir()), srv.URL+"/data", "")
	if _, err := l.Dataset(context.Background(), "bangalore", 2026); err != nil {
		t.Errorf("dataset: %v", err)
	}
	if _, err := l.Rules(context.Background()); err != nil {
		t.Errorf("rules: %v", err)
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		base, rel, want string
	}{
		{"https://cdn.example/x", "rules.json", "https://cdn.example/x/rules.json"},
		{"/srv/data", "panchanga_json/p.json", filepath.Join("/srv/data", "panchanga_json", "p.json")},
		{"/srv/data", "https://other/r.json", "https://other/r.json"},
		{"", "rules.json", "rules.json"},
	}
	for _, tt := range tests {
		l := NewLoader(nil, tt.base, "")
		if got := l.Resolve(tt.rel); got != tt.want {
			t.Errorf("Resolve(%q, %q) = %q, want %q", tt.base, tt.rel, got, tt.want)
		}
	}
}

func TestRedactURL(t *testing.T) {
	if got := redactURL("https://example.com/private/cal.ics?token=abc"); got != "https://example.com/...(redacted)" {
		t.Errorf("redactURL = %q", got)
	}
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
}
