// Package match pairs external catalog candidates with local library records:
// a parallel two-tier scan (provider identifier, then normalized name plus
// platform overlap) feeding a deduplicated claim set.
package match

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"proptag/internal/catalog"
	"proptag/internal/ident"
	"proptag/internal/library"
	"proptag/internal/platform"
)

// How a claim was decided.
const (
	ViaIdentifier = "identifier"
	ViaName       = "name"
)

// Claim pairs one library record with the external candidate that matched
// it. At most one claim exists per record id across a whole match run.
type Claim struct {
	Record    *library.Record
	Candidate catalog.Candidate
	Via       string
}

// DefaultWorkers is the default width of the candidate worker pool.
const DefaultWorkers = 8

// Engine runs the match scan.
type Engine struct {
	norm     *Normalizer
	resolver *ident.Resolver
	workers  int
	logger   *slog.Logger
}

// NewEngine creates an engine scoped to one import operation. The resolver's
// and normalizer's caches live as long as the engine.
func NewEngine(resolver *ident.Resolver, workers int, logger *slog.Logger) *Engine {
	if workers < 1 {
		workers = DefaultWorkers
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{
		norm:     NewNormalizer(),
		resolver: resolver,
		workers:  workers,
		logger:   logger,
	}
}

// Match scans the library once per candidate and collects at most one claim
// per record. Candidates are processed by a bounded worker pool; the inner
// scan per candidate is sequential. progress is called once per fully scanned
// candidate and must be safe for concurrent use.
//
// Returns completed=false when ctx is cancelled before the scan finishes; the
// caller must discard the (nil) result — no partial match set is surfaced.
func (e *Engine) Match(ctx context.Context, candidates []catalog.Candidate, records []*library.Record, progress func(done, total int)) ([]Claim, bool) {
	if len(candidates) == 0 {
		return nil, ctx.Err() == nil
	}

	set := newClaimSet()
	total := len(candidates)

	workers := e.workers
	if workers > total {
		workers = total
	}

	jobs := make(chan int)
	var done atomic.Int64
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				e.scanCandidate(ctx, candidates[i], records, set)
				if progress != nil {
					progress(int(done.Add(1)), total)
				}
			}
		}()
	}

feed:
	for i := range candidates {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if ctx.Err() != nil {
		e.logger.Info("match scan cancelled", "scanned", done.Load(), "total", total)
		return nil, false
	}

	claims := set.all()
	e.logger.Info("match scan complete", "candidates", total, "records", len(records), "claims", len(claims))
	return claims, true
}

// scanCandidate walks the whole library for one candidate, claiming records
// per the two-tier rule.
func (e *Engine) scanCandidate(ctx context.Context, cand catalog.Candidate, records []*library.Record, set *claimSet) {
	if len(cand.Names) == 0 {
		return
	}

	keys := make([]string, 0, len(cand.Names))
	for _, name := range cand.Names {
		if k := e.norm.Key(name); k != "" {
			keys = append(keys, k)
		}
	}
	candID, hasCandID := e.resolver.Resolve(cand.SourceURL)

	for _, rec := range records {
		if ctx.Err() != nil {
			return
		}
		if set.claimed(rec.ID) {
			continue
		}

		// Identifier tier: a record with any resolvable identifier is
		// decided on identifier equality alone. A mismatch does not fall
		// through to the name tier.
		if ids := e.recordIdentifiers(rec); len(ids) > 0 {
			if hasCandID && slices.Contains(ids, candID) {
				set.claim(Claim{Record: rec, Candidate: cand, Via: ViaIdentifier})
			}
			continue
		}

		// Name tier: exact normalized-key equality plus platform overlap.
		key := e.norm.Key(rec.Name)
		if key == "" || !slices.Contains(keys, key) {
			continue
		}
		if !platform.Overlap(rec.Platforms, cand.Platforms) {
			continue
		}
		set.claim(Claim{Record: rec, Candidate: cand, Via: ViaName})
	}
}

func (e *Engine) recordIdentifiers(rec *library.Record) []string {
	var ids []string
	for _, link := range rec.Links {
		if id, ok := e.resolver.Resolve(link.URL); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// claimSet is the shared dedup set: exclusive test-and-insert per record id,
// first writer wins.
type claimSet struct {
	mu     sync.Mutex
	ids    map[string]struct{}
	claims []Claim
}

func newClaimSet() *claimSet {
	return &claimSet{ids: make(map[string]struct{})}
}

// claimed is a cheap pre-check; claim re-checks under the same lock before
// inserting, so a racing read here cannot double-claim.
func (c *claimSet) claimed(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.ids[id]
	return ok
}

func (c *claimSet) claim(cl Claim) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.ids[cl.Record.ID]; ok {
		return false
	}
	c.ids[cl.Record.ID] = struct{}{}
	c.claims = append(c.claims, cl)
	return true
}

func (c *claimSet) all() []Claim {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.claims)
}
