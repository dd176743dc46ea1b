package cfapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
)

func respWith(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestDecodeEnvelope_Success(t *testing.T) {
	var out struct {
		UploadURL string `json:"upload_url"`
	}
	resp := respWith(200, `{"success":true,"errors":[],"result":{"upload_url":"https://x"}}`)
	if err := DecodeEnvelope("init", resp, &out); err != nil {
		t.Fatalf("DecodeEnvelope: %v", err)
	}
	if out.UploadURL != "https://x" {
		t.Fatalf("result=%+v", out)
	}
}

func TestDecodeEnvelope_NilOut(t *testing.T) {
	resp := respWith(200, `{"success":true,"errors":[],"result":{"mutationId":"m1"}}`)
	if err := DecodeEnvelope("upsert", resp, nil); err != nil {
		t.Fatalf("DecodeEnvelope with nil out: %v", err)
	}
}

/*
TestDecodeEnvelope_Rejections: an envelope with success=false, or a non-2xx
HTTP status, must produce a *RejectionError carrying the service's coded
messages. A body that is not JSON at all must produce a *DecodeError.
*/
func TestDecodeEnvelope_Rejections(t *testing.T) {
	resp := respWith(200, `{"success":false,"errors":[{"code":7003,"message":"no such database"}]}`)
	err := DecodeEnvelope("init", resp, nil)
	var re *RejectionError
	if !errors.As(err, &re) {
		t.Fatalf("err=%v; want *RejectionError", err)
	}
	if len(re.Messages) != 1 || !strings.Contains(re.Messages[0], "no such database") {
		t.Fatalf("messages=%v", re.Messages)
	}
	if !strings.Contains(re.Messages[0], "7003") {
		t.Fatalf("messages=%v; want error code included", re.Messages)
	}

	resp = respWith(500, `{"success":true,"errors":[],"result":null}`)
	if err := DecodeEnvelope("init", resp, nil); !errors.As(err, &re) {
		t.Fatalf("err=%v; want rejection on non-2xx despite success=true", err)
	}

	resp = respWith(200, `<html>gateway error</html>`)
	var de *DecodeError
	if err := DecodeEnvelope("init", resp, nil); !errors.As(err, &de) {
		t.Fatalf("err=%v; want *DecodeError for non-JSON body", err)
	}
}

func TestIsTransient(t *testing.T) {
	te := &TransientError{Op: "GET x", Err: errors.New("reset")}
	if !IsTransient(te) {
		t.Fatalf("direct TransientError not detected")
	}
	if !IsTransient(fmt.Errorf("init: %w", te)) {
		t.Fatalf("wrapped TransientError not detected")
	}
	if IsTransient(errors.New("plain")) || IsTransient(nil) {
		t.Fatalf("false positive")
	}
}
