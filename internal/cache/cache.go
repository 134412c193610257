// SignageFleet Kiosk Coordination Server
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cache models the device-local content cache (spec §9's Design
// Notes): an external capability the executor consults to decide whether
// to navigate to a cached local file instead of a remote URL. Backed by an
// embedded Badger store for cache metadata (path, fetched-at); the actual
// fetch of bytes to disk is left to a pluggable Fetcher, since downloading
// and storing content files is out of this core's scope (spec's Non-goals
// list "content file caching on the device").
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Fetcher downloads url to a local path, used only when a cache miss
// occurs and the executor is willing to wait (WaitForCache).
type Fetcher interface {
	Fetch(ctx context.Context, url string) (localPath string, err error)
}

// Store is the device-local content cache.
type Store struct {
	db      *badger.DB
	fetcher Fetcher
}

// Open opens (creating if needed) a Badger store at dir.
func Open(dir string, fetcher Fetcher) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("cache: open: %w", err)
	}
	return &Store{db: db, fetcher: fetcher}, nil
}

// Close releases the underlying Badger store.
func (s *Store) Close() error {
	return s.db.Close()
}

// IsCacheable reports whether url is a candidate for local caching at all
// (e.g. http(s) URLs that aren't already local file references).
func (s *Store) IsCacheable(url string) bool {
	return len(url) > 7 && (url[:7] == "http://" || url[:8] == "https://")
}

// GetLocalPath returns the cached local path for url if already fetched,
// or "" if not cached yet. Never blocks.
func (s *Store) GetLocalPath(url string) string {
	var path string
	_ = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(url))
		if err != nil {
			return nil
		}
		return item.Value(func(v []byte) error {
			path = string(v)
			return nil
		})
	})
	return path
}

// WaitForCache blocks (bounded by timeout) until url's content is fetched
// and cached, or returns "" on timeout — the executor then falls back to
// the remote URL directly (spec §5's timeout table: 5 minutes, fall back
// to remote URL).
func (s *Store) WaitForCache(ctx context.Context, url string, timeout time.Duration) string {
	if path := s.GetLocalPath(url); path != "" {
		return path
	}
	if s.fetcher == nil {
		return ""
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	path, err := s.fetcher.Fetch(ctx, url)
	if err != nil || path == "" {
		return ""
	}
	_ = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(url), []byte(path))
	})
	return path
}
