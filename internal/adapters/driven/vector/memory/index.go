// Package memory provides an in-memory vector index with cosine
// similarity. It backs tests and offline development runs; production
// uses the Pinecone adapter.
package memory

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/verseline/verseline/internal/core/domain"
	"github.com/verseline/verseline/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Index stores vector records per user namespace in memory.
type Index struct {
	mu      sync.RWMutex
	records map[string]map[string]domain.VectorRecord // userID -> recordID -> record
}

// New creates an empty in-memory index.
func New() *Index {
	return &Index{records: make(map[string]map[string]domain.VectorRecord)}
}

// Upsert writes the given records, overwriting any with the same ID.
func (x *Index) Upsert(_ context.Context, records []domain.VectorRecord) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	for _, r := range records {
		ns, ok := x.records[r.OwnerUserID]
		if !ok {
			ns = make(map[string]domain.VectorRecord)
			x.records[r.OwnerUserID] = ns
		}
		ns[r.ID] = r
	}
	return nil
}

// DeleteByPrefix removes records in the user's namespace by ID prefix.
func (x *Index) DeleteByPrefix(_ context.Context, userID, prefix string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	ns, ok := x.records[userID]
	if !ok {
		return nil
	}
	for id := range ns {
		if strings.HasPrefix(id, prefix) {
			delete(ns, id)
		}
	}
	return nil
}

// Query returns the topK most similar records in the user's namespace.
func (x *Index) Query(
	_ context.Context, userID string, vector []float32, topK int,
) ([]domain.Candidate, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	ns, ok := x.records[userID]
	if !ok || len(ns) == 0 {
		return nil, nil
	}

	candidates := make([]domain.Candidate, 0, len(ns))
	for _, r := range ns {
		candidates = append(candidates, domain.Candidate{
			Record: r,
			Score:  cosine(vector, r.Embedding),
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		// Stable order for equal scores.
		return candidates[i].Record.ID < candidates[j].Record.ID
	})

	if topK > 0 && len(candidates) > topK {
		candidates = candidates[:topK]
	}
	return candidates, nil
}

// Len returns the number of records stored for a user.
func (x *Index) Len(userID string) int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.records[userID])
}

// cosine computes cosine similarity. Mismatched or zero-length vectors
// score zero.
func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
