// Package pinecone provides a vector index adapter backed by the
// Pinecone serverless REST API. Each user maps to a Pinecone namespace,
// which keeps libraries isolated without per-query metadata filters.
package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/verseline/verseline/internal/core/domain"
	"github.com/verseline/verseline/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Default configuration values.
const (
	DefaultTimeout = 30 * time.Second

	// listPageSize is the page size used when listing vector ids for
	// prefix deletion.
	listPageSize = 100
)

// Config holds configuration for the Pinecone index.
type Config struct {
	// Host is the index host URL, e.g.
	// https://verseline-abc123.svc.us-east-1.pinecone.io (required).
	Host string

	// APIKey is the Pinecone API key (required).
	APIKey string

	// Timeout is the per-request timeout (default: 30s).
	Timeout time.Duration
}

// Index stores and queries lyric chunk vectors in Pinecone.
type Index struct {
	client *http.Client
	host   string
	apiKey string
}

type upsertRequest struct {
	Vectors   []vectorPayload `json:"vectors"`
	Namespace string          `json:"namespace"`
}

type vectorPayload struct {
	ID       string         `json:"id"`
	Values   []float32      `json:"values"`
	Metadata map[string]any `json:"metadata"`
}

type queryRequest struct {
	Vector          []float32 `json:"vector"`
	TopK            int       `json:"topK"`
	Namespace       string    `json:"namespace"`
	IncludeMetadata bool      `json:"includeMetadata"`
}

type queryResponse struct {
	Matches []struct {
		ID       string         `json:"id"`
		Score    float64        `json:"score"`
		Metadata map[string]any `json:"metadata"`
	} `json:"matches"`
}

type listResponse struct {
	Vectors []struct {
		ID string `json:"id"`
	} `json:"vectors"`
	Pagination struct {
		Next string `json:"next"`
	} `json:"pagination"`
}

type deleteRequest struct {
	IDs       []string `json:"ids"`
	Namespace string   `json:"namespace"`
}

// NewIndex creates a new Pinecone vector index.
func NewIndex(cfg Config) (*Index, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("pinecone: host is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("pinecone: API key is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Index{
		client: &http.Client{Timeout: cfg.Timeout},
		host:   cfg.Host,
		apiKey: cfg.APIKey,
	}, nil
}

// Upsert writes the records into the owner's namespace. Records that
// already exist under the same id are overwritten.
func (x *Index) Upsert(ctx context.Context, records []domain.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	namespace := records[0].OwnerUserID
	vectors := make([]vectorPayload, len(records))
	for i, rec := range records {
		if rec.OwnerUserID != namespace {
			return fmt.Errorf("%w: mixed owners in one upsert batch", domain.ErrInvalidInput)
		}
		vectors[i] = vectorPayload{
			ID:     rec.ID,
			Values: rec.Embedding,
			Metadata: map[string]any{
				"trackId": rec.TrackID,
				"track":   rec.Track,
				"artist":  rec.Artist,
				"text":    rec.Text,
			},
		}
	}

	req := upsertRequest{Vectors: vectors, Namespace: namespace}
	if err := x.postJSON(ctx, "/vectors/upsert", req, nil); err != nil {
		return fmt.Errorf("upsert vectors: %w", err)
	}
	return nil
}

// DeleteByPrefix removes every vector in the user's namespace whose id
// starts with the given prefix. Listing is paginated, so large tracks
// are cleared across multiple round trips.
func (x *Index) DeleteByPrefix(ctx context.Context, userID, prefix string) error {
	if userID == "" || prefix == "" {
		return fmt.Errorf("%w: user id and prefix are required", domain.ErrInvalidInput)
	}

	next := ""
	for {
		ids, token, err := x.listIDs(ctx, userID, prefix, next)
		if err != nil {
			return fmt.Errorf("list vectors: %w", err)
		}
		if len(ids) > 0 {
			req := deleteRequest{IDs: ids, Namespace: userID}
			if err := x.postJSON(ctx, "/vectors/delete", req, nil); err != nil {
				return fmt.Errorf("delete vectors: %w", err)
			}
		}
		if token == "" {
			return nil
		}
		next = token
	}
}

// Query returns the topK nearest records in the user's namespace.
func (x *Index) Query(ctx context.Context, userID string, vector []float32, topK int) ([]domain.Candidate, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}
	if topK <= 0 {
		topK = 5
	}

	req := queryRequest{
		Vector:          vector,
		TopK:            topK,
		Namespace:       userID,
		IncludeMetadata: true,
	}
	var resp queryResponse
	if err := x.postJSON(ctx, "/query", req, &resp); err != nil {
		return nil, fmt.Errorf("query vectors: %w", err)
	}

	candidates := make([]domain.Candidate, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		rec := domain.VectorRecord{
			ID:          m.ID,
			OwnerUserID: userID,
		}
		if v, ok := m.Metadata["trackId"].(string); ok {
			rec.TrackID = v
		}
		if v, ok := m.Metadata["track"].(string); ok {
			rec.Track = v
		}
		if v, ok := m.Metadata["artist"].(string); ok {
			rec.Artist = v
		}
		if v, ok := m.Metadata["text"].(string); ok {
			rec.Text = v
		}
		candidates = append(candidates, domain.Candidate{Record: rec, Score: m.Score})
	}
	return candidates, nil
}

// listIDs fetches one page of vector ids matching the prefix.
func (x *Index) listIDs(ctx context.Context, namespace, prefix, paginationToken string) ([]string, string, error) {
	params := url.Values{}
	params.Set("namespace", namespace)
	params.Set("prefix", prefix)
	params.Set("limit", fmt.Sprintf("%d", listPageSize))
	if paginationToken != "" {
		params.Set("paginationToken", paginationToken)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, x.host+"/vectors/list?"+params.Encode(), http.NoBody,
	)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Api-Key", x.apiKey)

	resp, err := x.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, "", fmt.Errorf("pinecone returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed listResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, "", fmt.Errorf("decode response: %w", err)
	}

	ids := make([]string, 0, len(parsed.Vectors))
	for _, v := range parsed.Vectors {
		ids = append(ids, v.ID)
	}
	return ids, parsed.Pagination.Next, nil
}

// postJSON issues a POST with the API key header and decodes the
// response into out when non-nil.
func (x *Index) postJSON(ctx context.Context, path string, body, out any) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, x.host+path, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", x.apiKey)

	resp, err := x.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("pinecone returned status %d: %s", resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
