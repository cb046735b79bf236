package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	perr "plancal/internal/errors"
)

func TestLoadLocalFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plan.txt")
	if err := os.WriteFile(path, []byte("NOTE hello\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	l := NewLoader(filepath.Join(dir, "cache"))
	res, err := l.Load(context.Background(), Source{ID: "plan", Location: path})
	if err != nil {
		t.Fatal(err)
	}
	if string(res.Body) != "NOTE hello\n" || res.FromCache {
		t.Fatalf("got %+v", res)
	}

	_, err = l.Load(context.Background(), Source{ID: "missing", Location: filepath.Join(dir, "nope.txt")})
	if !perr.IsKind(err, perr.KindIO) {
		t.Fatalf("missing file: %v", err)
	}
}

func TestFetchRevalidatesWithETag(t *testing.T) {
	var hits, failing atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if failing.Load() == 1 {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		_, _ = w.Write([]byte("TASK remote\nDATE 2021-11-07\n"))
	}))
	defer srv.Close()

	l := NewLoader(t.TempDir())
	src := Source{ID: "remote", Location: srv.URL + "/plan.txt?token=secret"}

	first, err := l.Load(context.Background(), src)
	if err != nil || first.FromCache {
		t.Fatalf("first load %+v %v", first, err)
	}
	second, err := l.Load(context.Background(), src)
	if err != nil || !second.FromCache || string(second.Body) != string(first.Body) {
		t.Fatalf("second load %+v %v", second, err)
	}

	failing.Store(1)
	third, err := l.Load(context.Background(), src)
	if err != nil || !third.FromCache {
		t.Fatalf("fallback load %+v %v", third, err)
	}
	if hits.Load() != 3 {
		t.Fatalf("server hit %d times", hits.Load())
	}
}

func TestLoadAllCollectsErrors(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.txt")
	if err := os.WriteFile(good, []byte("NOTE ok\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	l := NewLoader(filepath.Join(dir, "cache"))
	res, errs := l.LoadAll(context.Background(), []Source{
		{ID: "good", Location: good},
		{ID: "bad", Location: filepath.Join(dir, "bad.txt")},
	})
	if len(res) != 1 || len(errs) != 1 {
		t.Fatalf("got %d results, %d errors", len(res), len(errs))
	}
	if e, ok := perr.As(errs[0]); !ok || e.Entry() != "bad" {
		t.Fatalf("error %v", errs[0])
	}
}

func TestRedact(t *testing.T) {
	cases := map[string]string{
		"https://example.com/private/plan.txt?token=abc": "https://example.com/...(redacted)",
		"http://example.com":                             "http://example.com",
		"/home/me/plan.txt":                              "/home/me/plan.txt",
	}
	for in, want := range cases {
		if got := redact(Source{Location: in}); got != want {
			t.Errorf("redact(%q) = %q, want %q", in, got, want)
		}
	}
}
