// Package images uploads photographic evidence to the managed image store
// and returns a public delivery URL. It is the "store blob, get URL"
// collaborator of the ingestion pipelines; sign rows reference the returned
// URL, the bytes themselves never enter the database.
package images

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/darleison-rodrigues/route-quebec-worker/internal/cfapi"
)

// Client talks to the Cloudflare Images API for one account.
type Client struct {
	api     *cfapi.Client
	account string
}

// NewClient builds a Client. api must carry credentials.
func NewClient(api *cfapi.Client, accountID string) *Client {
	return &Client{api: api, account: accountID}
}

type uploadResult struct {
	ID       string   `json:"id"`
	Variants []string `json:"variants"`
}

// Upload stores data under filename and returns the default public variant
// URL.
func (c *Client) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("images: build form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("images: build form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("images: build form: %w", err)
	}

	hdr := http.Header{}
	hdr.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.api.Post(ctx, cfapi.AccountURL(c.account, "images/v1"), body.Bytes(), hdr)
	if err != nil {
		return "", err
	}

	var out uploadResult
	if err := cfapi.DecodeEnvelope("images upload", resp, &out); err != nil {
		return "", err
	}
	if len(out.Variants) == 0 {
		return "", &cfapi.DecodeError{Op: "images upload", Err: fmt.Errorf("no variants in response")}
	}
	return out.Variants[0], nil
}

// UploadFile reads path from disk and uploads it.
func (c *Client) UploadFile(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("images: read %s: %w", path, err)
	}
	return c.Upload(ctx, filepath.Base(path), data)
}
