package d1

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/darleison-rodrigues/route-quebec-worker/internal/cfapi"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	api := cfapi.NewClient(cfapi.Config{APIToken: "tok", MaxRetries: 0})
	uploader := cfapi.NewClient(cfapi.Config{MaxRetries: 0})
	c := NewClient(api, uploader, "acct", "db")
	c.base = srv.URL
	return c, srv
}

/*
TestClient_Actions exercises the three control-plane actions against a stub
server, asserting the exact JSON bodies on the wire (action discriminator
plus the per-action fields) and the decoding of each result.
*/
func TestClient_Actions(t *testing.T) {
	var bodies []map[string]string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/accounts/acct/d1/database/db/import" {
			t.Errorf("path=%s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("authorization=%q; want bearer token", got)
		}

		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		bodies = append(bodies, body)

		switch body["action"] {
		case "init":
			writeEnvelope(w, true, map[string]string{
				"upload_url": "https://staging.example/put",
				"filename":   "batch.sql",
			})
		case "ingest":
			writeEnvelope(w, true, map[string]string{"at_bookmark": "bm-7"})
		case "poll":
			writeEnvelope(w, true, map[string]any{
				"success": false, "error": "", "status": "active", "at_bookmark": "bm-8",
			})
		default:
			t.Errorf("unknown action %q", body["action"])
		}
	})

	ctx := context.Background()

	init, err := c.Init(ctx, "abc123")
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if init.UploadURL != "https://staging.example/put" || init.Filename != "batch.sql" {
		t.Fatalf("init=%+v", init)
	}

	ing, err := c.Ingest(ctx, "abc123", "batch.sql")
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if ing.AtBookmark != "bm-7" {
		t.Fatalf("ingest=%+v", ing)
	}

	st, err := c.Poll(ctx, "bm-7")
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if st.Success || st.Status != "active" || st.AtBookmark != "bm-8" {
		t.Fatalf("poll=%+v", st)
	}

	want := []map[string]string{
		{"action": "init", "etag": "abc123"},
		{"action": "ingest", "etag": "abc123", "filename": "batch.sql"},
		{"action": "poll", "current_bookmark": "bm-7"},
	}
	if len(bodies) != len(want) {
		t.Fatalf("requests=%d; want %d", len(bodies), len(want))
	}
	for i, b := range bodies {
		for k, v := range want[i] {
			if b[k] != v {
				t.Errorf("request %d: %s=%q; want %q", i, k, b[k], v)
			}
		}
	}
}

func TestClient_ActionRejected(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"success":false,"errors":[{"code":7500,"message":"no such table"}],"result":null}`))
	})

	_, err := c.Init(context.Background(), "abc")
	var re *cfapi.RejectionError
	if !errors.As(err, &re) {
		t.Fatalf("err=%v; want *cfapi.RejectionError", err)
	}
	if re.Status != http.StatusBadRequest || len(re.Messages) != 1 {
		t.Fatalf("rejection=%+v", re)
	}
}

/*
TestClient_StagePut verifies the staging upload: a bare PUT of the exact
payload to the given URL (no Authorization header, the target is pre-signed)
returning the ETag header with surrounding quotes stripped.
*/
func TestClient_StagePut(t *testing.T) {
	payload := []byte("S1;\nS2;")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method=%s; want PUT", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "" {
			t.Errorf("authorization=%q; staging upload must be unauthenticated", got)
		}
		w.Header().Set("ETag", `"`+Checksum(payload)+`"`)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	uploader := cfapi.NewClient(cfapi.Config{MaxRetries: 0})
	c := NewClient(cfapi.NewClient(cfapi.Config{APIToken: "tok"}), uploader, "acct", "db")

	echo, err := c.StagePut(context.Background(), srv.URL, payload)
	if err != nil {
		t.Fatalf("StagePut: %v", err)
	}
	if echo != Checksum(payload) {
		t.Fatalf("echo=%q; want unquoted checksum %q", echo, Checksum(payload))
	}
}

func TestClient_StagePutRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient(
		cfapi.NewClient(cfapi.Config{APIToken: "tok"}),
		cfapi.NewClient(cfapi.Config{MaxRetries: 0}),
		"acct", "db",
	)
	_, err := c.StagePut(context.Background(), srv.URL, []byte("x"))
	var re *cfapi.RejectionError
	if !errors.As(err, &re) || re.Status != http.StatusForbidden {
		t.Fatalf("err=%v; want rejection with status 403", err)
	}
}

func TestClient_Query(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/accounts/acct/d1/database/db/query" {
			t.Errorf("path=%s", r.URL.Path)
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["sql"] != "SELECT sign_code FROM sign_definitions;" {
			t.Errorf("sql=%q", body["sql"])
		}
		writeEnvelope(w, true, []map[string]any{
			{"results": []map[string]any{
				{"sign_code": "P-120"},
				{"sign_code": "P-130"},
			}},
		})
	})

	rows, err := c.Query(context.Background(), "SELECT sign_code FROM sign_definitions;")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(rows) != 2 || rows[0]["sign_code"] != "P-120" {
		t.Fatalf("rows=%v", rows)
	}
}

func writeEnvelope(w http.ResponseWriter, success bool, result any) {
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": success,
		"errors":  []any{},
		"result":  result,
	})
}
