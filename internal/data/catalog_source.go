package data

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// DefaultCatalogPath is the well-known location of the catalog document.
const DefaultCatalogPath = "public/master-config.json"

// maxCatalogSize limits how much of a remote response is read.
const maxCatalogSize = 8 << 20

// Source fetches the raw catalog document.
type Source interface {
	Fetch(ctx context.Context) ([]byte, error)
	String() string
}

// FileSource reads the catalog from the local filesystem.
type FileSource struct {
	Path string
}

// Fetch reads the whole file.
func (s FileSource) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.Path, err)
	}
	return data, nil
}

func (s FileSource) String() string { return s.Path }

// HTTPSource fetches the catalog over HTTP(S).
type HTTPSource struct {
	URL    string
	Client *http.Client
}

// Fetch performs a GET request and returns the body of a 2xx response.
func (s HTTPSource) Fetch(ctx context.Context) ([]byte, error) {
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", s.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxCatalogSize))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	return body, nil
}

func (s HTTPSource) String() string { return s.URL }

// NewSource picks HTTPSource when url is set, FileSource otherwise.
// An empty path falls back to DefaultCatalogPath.
func NewSource(path, url string, timeout time.Duration) Source {
	if url != "" {
		return HTTPSource{URL: url, Client: &http.Client{Timeout: timeout}}
	}
	if path == "" {
		path = DefaultCatalogPath
	}
	return FileSource{Path: path}
}
