package ident

import "sync"

// Resolver memoizes extractor results per URL for the duration of one import
// operation. The same library link URLs are resolved once per operation
// instead of once per external candidate.
type Resolver struct {
	ex Extractor

	mu    sync.RWMutex
	cache map[string]string // url -> id, "" when the URL yields none
}

func NewResolver(ex Extractor) *Resolver {
	return &Resolver{
		ex:    ex,
		cache: make(map[string]string),
	}
}

// Resolve returns the provider identifier for url, or ok=false when the URL
// is empty or not recognized by the provider.
func (r *Resolver) Resolve(url string) (string, bool) {
	if url == "" {
		return "", false
	}

	r.mu.RLock()
	id, hit := r.cache[url]
	r.mu.RUnlock()
	if hit {
		return id, id != ""
	}

	id, ok := r.ex.Extract(url)
	if !ok {
		id = ""
	}

	// Concurrent first writes compute the same value, so last write wins
	// harmlessly.
	r.mu.Lock()
	r.cache[url] = id
	r.mu.Unlock()

	return id, ok
}
