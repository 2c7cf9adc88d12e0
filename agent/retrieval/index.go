package retrieval

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/dbchat/agent/contract"
	usersx "github.com/tanpawarit/dbchat/agent/users"
)

const defaultMaxResults = 2

// IndexOption customizes Index.
type IndexOption func(*Index)

func WithMaxResults(n int) IndexOption {
	return func(i *Index) {
		if n > 0 {
			i.maxResults = n
		}
	}
}

// Index is an in-memory vector index over serialized user records. It
// is rebuilt from the repository after every completed write so the
// retrieved context reflects the data the agent just changed.
type Index struct {
	embedder   Embedder
	repo       usersx.Repository
	maxResults int

	mu   sync.RWMutex
	docs []string
	vecs [][]float64
}

func NewIndex(embedder Embedder, repo usersx.Repository, opts ...IndexOption) (*Index, error) {
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}
	if repo == nil {
		return nil, errors.New("user repository is required")
	}
	idx := &Index{
		embedder:   embedder,
		repo:       repo,
		maxResults: defaultMaxResults,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(idx)
		}
	}
	return idx, nil
}

// Refresh reloads every record and re-embeds the corpus.
func (i *Index) Refresh(ctx context.Context) error {
	all, err := i.repo.List(ctx, nil)
	if err != nil {
		return fmt.Errorf("load records for index: %w", err)
	}

	docs := make([]string, 0, len(all))
	for _, u := range all {
		docs = append(docs, u.Document())
	}

	var vecs [][]float64
	if len(docs) > 0 {
		vecs, err = i.embedder.Embed(ctx, docs)
		if err != nil {
			return fmt.Errorf("embed corpus: %w", err)
		}
	}

	i.mu.Lock()
	i.docs = docs
	i.vecs = vecs
	i.mu.Unlock()

	log.Debug().
		Str("component", "retrieval").
		Int("documents", len(docs)).
		Msg("retrieval index refreshed")
	return nil
}

// Retrieve returns up to maxResults snippets ranked by cosine
// similarity, scores descending. History is accepted for interface
// parity; ranking here is purely query-driven.
func (i *Index) Retrieve(ctx context.Context, query string, history []contractx.HistoryTurn) ([]contractx.Snippet, error) {
	i.mu.RLock()
	docs := i.docs
	vecs := i.vecs
	i.mu.RUnlock()

	if len(docs) == 0 {
		return nil, nil
	}

	queryVecs, err := i.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(queryVecs) != 1 {
		return nil, fmt.Errorf("embed query: expected 1 vector, got %d", len(queryVecs))
	}

	scored := make([]contractx.Snippet, 0, len(docs))
	for n, doc := range docs {
		scored = append(scored, contractx.Snippet{
			Text:  doc,
			Score: cosine(queryVecs[0], vecs[n]),
		})
	}
	sort.SliceStable(scored, func(a, b int) bool { return scored[a].Score > scored[b].Score })

	if len(scored) > i.maxResults {
		scored = scored[:i.maxResults]
	}
	return scored, nil
}

func cosine(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for n := range a {
		dot += a[n] * b[n]
		na += a[n] * a[n]
		nb += b[n] * b[n]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
