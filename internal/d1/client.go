// Package d1 drives the remote database's staged bulk-load protocol. The
// database does not accept direct row inserts at bulk scale; every batch goes
// through a four-phase handshake: request a staging destination (init), write
// the payload to the one-time upload target, trigger ingestion, then poll an
// opaque bookmark until the load resolves.
package d1

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/darleison-rodrigues/route-quebec-worker/internal/cfapi"
)

// InitResult is the staging destination returned by the init action.
type InitResult struct {
	UploadURL string `json:"upload_url"`
	Filename  string `json:"filename"`
}

// IngestResult carries the starting bookmark returned by the ingest action.
type IngestResult struct {
	AtBookmark string `json:"at_bookmark"`
}

// PollResult is the inner status object of a poll response. Success and Error
// describe the load itself, independent of the HTTP envelope.
type PollResult struct {
	Success    bool   `json:"success"`
	Error      string `json:"error"`
	Status     string `json:"status"`
	AtBookmark string `json:"at_bookmark"`
}

// ControlPlane is the remote surface the Importer drives. It exists as an
// interface so the state machine can be tested against scripted responses.
type ControlPlane interface {
	Init(ctx context.Context, etag string) (InitResult, error)
	StagePut(ctx context.Context, uploadURL string, payload []byte) (echoTag string, err error)
	Ingest(ctx context.Context, etag, filename string) (IngestResult, error)
	Poll(ctx context.Context, bookmark string) (PollResult, error)
}

// Client implements ControlPlane against the Cloudflare D1 REST API.
type Client struct {
	api      *cfapi.Client // authorized; control-plane actions
	uploader *cfapi.Client // bare; staging PUT to the pre-signed target
	account  string
	database string
	base     string // API root; overridable in tests
}

// NewClient builds a Client for one database. api must carry credentials;
// uploader must not (the staging upload target is pre-signed and rejects
// extra authorization).
func NewClient(api, uploader *cfapi.Client, accountID, databaseID string) *Client {
	return &Client{
		api:      api,
		uploader: uploader,
		account:  accountID,
		database: databaseID,
		base:     cfapi.BaseURL,
	}
}

func (c *Client) importURL() string {
	return fmt.Sprintf("%s/accounts/%s/d1/database/%s/import", c.base, c.account, c.database)
}

func (c *Client) queryURL() string {
	return fmt.Sprintf("%s/accounts/%s/d1/database/%s/query", c.base, c.account, c.database)
}

// action posts one import action body and decodes the envelope result.
func (c *Client) action(ctx context.Context, op string, body any, out any) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("d1 %s: encode request: %w", op, err)
	}
	hdr := http.Header{}
	hdr.Set("Content-Type", "application/json")
	resp, err := c.api.Post(ctx, c.importURL(), buf, hdr)
	if err != nil {
		return err
	}
	return cfapi.DecodeEnvelope("d1 "+op, resp, out)
}

// Init requests a staging destination, passing the payload checksum as the
// correlation/integrity token.
func (c *Client) Init(ctx context.Context, etag string) (InitResult, error) {
	var out InitResult
	err := c.action(ctx, "init", map[string]string{
		"action": "init",
		"etag":   etag,
	}, &out)
	return out, err
}

// StagePut writes the payload to the one-time upload target and returns the
// integrity tag echoed by the staging storage.
func (c *Client) StagePut(ctx context.Context, uploadURL string, payload []byte) (string, error) {
	resp, err := c.uploader.Put(ctx, uploadURL, payload, nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &cfapi.RejectionError{Op: "d1 stage upload", Status: resp.StatusCode}
	}
	return strings.Trim(resp.Header.Get("ETag"), `"`), nil
}

// Ingest notifies the control plane that the staged file is ready to load.
func (c *Client) Ingest(ctx context.Context, etag, filename string) (IngestResult, error) {
	var out IngestResult
	err := c.action(ctx, "ingest", map[string]string{
		"action":   "ingest",
		"etag":     etag,
		"filename": filename,
	}, &out)
	return out, err
}

// Poll requests load status for the given bookmark.
func (c *Client) Poll(ctx context.Context, bookmark string) (PollResult, error) {
	var out PollResult
	err := c.action(ctx, "poll", map[string]string{
		"action":           "poll",
		"current_bookmark": bookmark,
	}, &out)
	return out, err
}

// Query runs a read-only SQL statement against the database and returns the
// result rows. Used by the embeddings pipeline to read back ingested rows;
// bulk writes never go through this path.
func (c *Client) Query(ctx context.Context, sql string) ([]map[string]any, error) {
	buf, err := json.Marshal(map[string]string{"sql": sql})
	if err != nil {
		return nil, fmt.Errorf("d1 query: encode request: %w", err)
	}
	hdr := http.Header{}
	hdr.Set("Content-Type", "application/json")
	resp, err := c.api.Post(ctx, c.queryURL(), buf, hdr)
	if err != nil {
		return nil, err
	}

	var out []struct {
		Results []map[string]any `json:"results"`
	}
	if err := cfapi.DecodeEnvelope("d1 query", resp, &out); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0].Results, nil
}
