// Package source loads plan documents from local files or http(s) URLs.
//
// Remote documents are cached on disk keyed by a hash of the URL, revalidated
// with ETag / Last-Modified, and served from the cache when the server is
// unreachable or answers with an error.
package source

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	perr "plancal/internal/errors"
	appLog "plancal/internal/log"
)

// Source is one configured plan document.
type Source struct {
	// ID names the document in entry IDs and diagnostics.
	ID string
	// Location is a file path or an http(s) URL.
	Location string
}

// Remote reports whether the source is fetched over HTTP.
func (s Source) Remote() bool {
	return strings.HasPrefix(s.Location, "http://") || strings.HasPrefix(s.Location, "https://")
}

// Result contains the outcome of loading a single source.
type Result struct {
	Source    Source
	Body      []byte
	FromCache bool // reused the cached body (304 or fetch failure)
}

// cacheEntry holds HTTP cache metadata for a single URL.
type cacheEntry struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Loader reads plan documents.
type Loader struct {
	client   *http.Client
	cacheDir string
}

// NewLoader creates a Loader caching remote documents under cacheDir.
func NewLoader(cacheDir string) *Loader {
	if cacheDir == "" {
		cacheDir = "./var/plan-cache"
	}
	return &Loader{
		client:   &http.Client{Timeout: 15 * time.Second},
		cacheDir: cacheDir,
	}
}

// LoadAll loads every source. Failed sources are logged and returned in the
// error slice; the results only contain sources that produced a body.
func (l *Loader) LoadAll(ctx context.Context, sources []Source) ([]Result, []error) {
	results := make([]Result, 0, len(sources))
	var errs []error
	for _, src := range sources {
		res, err := l.Load(ctx, src)
		if err != nil {
			errs = append(errs, perr.WithEntry(err, src.ID))
			appLog.Error("plan load failed", err, "id", src.ID, "location", redact(src))
			continue
		}
		results = append(results, res)
	}
	return results, errs
}

// Load reads a single source.
func (l *Loader) Load(ctx context.Context, src Source) (Result, error) {
	if src.Location == "" {
		return Result{}, perr.New(perr.KindIO, "source location is empty")
	}
	if !src.Remote() {
		body, err := os.ReadFile(src.Location)
		if err != nil {
			return Result{}, perr.Wrapf(err, perr.KindIO, "read %s", src.Location)
		}
		appLog.Debug("plan read", "id", src.ID, "path", src.Location, "bytes", len(body))
		return Result{Source: src, Body: body}, nil
	}
	return l.fetch(ctx, src)
}

// fetch downloads a remote source, honoring ETag and Last-Modified.
func (l *Loader) fetch(ctx context.Context, src Source) (Result, error) {
	cachePath := l.cachePath(src.Location)
	if err := os.MkdirAll(cachePath, 0o700); err != nil {
		return Result{}, perr.Wrap(err, perr.KindIO, "create cache dir")
	}

	meta, _ := loadMeta(cachePath)
	cached, _ := os.ReadFile(filepath.Join(cachePath, "body.plan"))
	fallback := func(err error) (Result, error) {
		if len(cached) > 0 {
			appLog.Error("plan fetch failed, using cached body", err, "id", src.ID, "url", redact(src))
			return Result{Source: src, Body: cached, FromCache: true}, nil
		}
		return Result{}, perr.Wrapf(err, perr.KindIO, "fetch %s", redact(src))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.Location, nil)
	if err != nil {
		return Result{}, perr.Wrap(err, perr.KindIO, "build request")
	}
	if meta.ETag != "" {
		req.Header.Set("If-None-Match", meta.ETag)
	}
	if meta.LastModified != "" {
		req.Header.Set("If-Modified-Since", meta.LastModified)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return fallback(err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fallback(err)
		}
		next := cacheEntry{
			URL:          src.Location,
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
		}
		if err := saveCache(cachePath, next, body); err != nil {
			appLog.Error("plan cache save failed", err, "id", src.ID, "url", redact(src))
		}
		appLog.Info("plan fetched", "id", src.ID, "url", redact(src), "bytes", len(body))
		return Result{Source: src, Body: body}, nil

	case http.StatusNotModified:
		if len(cached) == 0 {
			return Result{}, perr.New(perr.KindIO, "304 Not Modified without a cached body")
		}
		appLog.Debug("plan not modified", "id", src.ID, "url", redact(src))
		return Result{Source: src, Body: cached, FromCache: true}, nil

	default:
		return fallback(errors.New(resp.Status))
	}
}

func (l *Loader) cachePath(url string) string {
	sum := sha256.Sum256([]byte(url))
	return filepath.Join(l.cacheDir, hex.EncodeToString(sum[:8]))
}

func loadMeta(cachePath string) (cacheEntry, error) {
	var meta cacheEntry
	data, err := os.ReadFile(filepath.Join(cachePath, "meta.json"))
	if err != nil {
		return meta, err
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return cacheEntry{}, err
	}
	return meta, nil
}

func saveCache(cachePath string, meta cacheEntry, body []byte) error {
	// Body first so meta never points at a missing body.
	if err := os.WriteFile(filepath.Join(cachePath, "body.plan"), body, 0o600); err != nil {
		return err
	}
	meta.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(&meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(cachePath, "meta.json"), data, 0o600)
}

// redact hides the path and query of a URL for logging.
func redact(src Source) string {
	if !src.Remote() {
		return src.Location
	}
	rest := src.Location[strings.Index(src.Location, "://")+3:]
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		return src.Location[:len(src.Location)-len(rest)+i] + "/...(redacted)"
	}
	return src.Location
}
