package status

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// Fetcher performs one blocking GET of the status endpoint and, on success,
// replaces the store's snapshot. Every failure path leaves the store
// untouched: the previous snapshot stays authoritative and the dashboard
// keeps showing last-known-good state.
//
// The fetcher is stateless apart from the store it writes; single-flight is
// enforced by the Gate around it, not by locking here.
type Fetcher struct {
	url    string
	client *http.Client
	store  *Store
}

func NewFetcher(url string, store *Store) *Fetcher {
	return &Fetcher{
		url:    url,
		client: &http.Client{},
		store:  store,
	}
}

// FetchOnce performs a single fetch attempt bounded by timeout. Errors are
// logged and absorbed; the caller only needs to know whether the store
// advanced.
func (f *Fetcher) FetchOnce(ctx context.Context, timeout time.Duration) bool {
	body, err := f.get(ctx, timeout)
	if err != nil {
		log.Printf("fetch: %s: %v", f.url, err)
		return false
	}
	snap, err := Decode(body)
	if err != nil {
		log.Printf("fetch: %s: %v", f.url, err)
		return false
	}
	f.store.Set(snap, time.Now())
	return true
}

func (f *Fetcher) get(ctx context.Context, timeout time.Duration) ([]byte, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
