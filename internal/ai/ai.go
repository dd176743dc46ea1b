// Package ai invokes the hosted embedding models. It is the opaque "compute
// embedding" collaborator: bytes or text in, a float vector out.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/darleison-rodrigues/route-quebec-worker/internal/cfapi"
)

// Model identifiers on Workers AI.
const (
	ImageModel = "@cf/openai/clip-vit-base-patch32"
	TextModel  = "@cf/baai/bge-large-en-v1.5"
)

// Client runs embedding models for one account.
type Client struct {
	api     *cfapi.Client
	account string
}

// NewClient builds a Client. api must carry credentials.
func NewClient(api *cfapi.Client, accountID string) *Client {
	return &Client{api: api, account: accountID}
}

func (c *Client) runURL(model string) string {
	return cfapi.AccountURL(c.account, "ai/run/"+model)
}

// ImageEmbedding computes the embedding of raw image bytes.
func (c *Client) ImageEmbedding(ctx context.Context, image []byte) ([]float64, error) {
	hdr := http.Header{}
	hdr.Set("Content-Type", "application/octet-stream")
	resp, err := c.api.Post(ctx, c.runURL(ImageModel), image, hdr)
	if err != nil {
		return nil, err
	}
	return decodeEmbedding("ai image embedding", resp)
}

// TextEmbedding computes the embedding of a text.
func (c *Client) TextEmbedding(ctx context.Context, text string) ([]float64, error) {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, fmt.Errorf("ai: encode request: %w", err)
	}
	hdr := http.Header{}
	hdr.Set("Content-Type", "application/json")
	resp, err := c.api.Post(ctx, c.runURL(TextModel), body, hdr)
	if err != nil {
		return nil, err
	}
	return decodeEmbedding("ai text embedding", resp)
}

// decodeEmbedding handles both response shapes the models use: a flat vector
// ("data": [..floats..]) and a batch of vectors ("data": [[..floats..]]), of
// which the first entry is returned.
func decodeEmbedding(op string, resp *http.Response) ([]float64, error) {
	var out struct {
		Data json.RawMessage `json:"data"`
	}
	if err := cfapi.DecodeEnvelope(op, resp, &out); err != nil {
		return nil, err
	}

	var flat []float64
	if err := json.Unmarshal(out.Data, &flat); err == nil {
		return flat, nil
	}
	var nested [][]float64
	if err := json.Unmarshal(out.Data, &nested); err == nil && len(nested) > 0 {
		return nested[0], nil
	}
	return nil, &cfapi.DecodeError{Op: op, Err: fmt.Errorf("unexpected embedding shape")}
}
