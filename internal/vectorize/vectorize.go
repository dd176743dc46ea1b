// Package vectorize upserts embedding vectors into a managed vector index.
// Unlike the relational bulk path this is a single-stage call: one POST per
// batch, no staging handshake and no polling.
package vectorize

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/darleison-rodrigues/route-quebec-worker/internal/cfapi"
)

// Metadata is the free-form metadata stored alongside a vector.
type Metadata map[string]any

// Vector is one entry of an upsert batch.
type Vector struct {
	ID       string    `json:"id"`
	Values   []float64 `json:"values"`
	Metadata Metadata  `json:"metadata,omitempty"`
}

// Client talks to the Vectorize API for one account.
type Client struct {
	api     *cfapi.Client
	account string
}

// NewClient builds a Client. api must carry credentials.
func NewClient(api *cfapi.Client, accountID string) *Client {
	return &Client{api: api, account: accountID}
}

// Upsert inserts or replaces vectors in the index, keyed by vector ID.
// Re-submitting the same vectors is safe.
func (c *Client) Upsert(ctx context.Context, indexID string, vectors []Vector) error {
	if len(vectors) == 0 {
		return nil
	}
	body, err := json.Marshal(map[string][]Vector{"vectors": vectors})
	if err != nil {
		return fmt.Errorf("vectorize: encode request: %w", err)
	}
	hdr := http.Header{}
	hdr.Set("Content-Type", "application/json")

	url := cfapi.AccountURL(c.account, "vectorize/indexes/"+indexID+"/upsert")
	resp, err := c.api.Post(ctx, url, body, hdr)
	if err != nil {
		return err
	}
	return cfapi.DecodeEnvelope("vectorize upsert", resp, nil)
}
