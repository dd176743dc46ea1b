package cfapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Message is one entry of the envelope's errors array.
type Message struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Envelope is the standard Cloudflare REST response wrapper.
type Envelope struct {
	Success bool            `json:"success"`
	Errors  []Message       `json:"errors"`
	Result  json.RawMessage `json:"result"`
}

// DecodeEnvelope reads and closes resp.Body, decodes the response envelope,
// and unmarshals its result into out (when out is non-nil).
//
// A body that is not valid JSON yields a *DecodeError. An envelope with
// success=false, or a non-2xx status, yields a *RejectionError carrying the
// service's error messages.
func DecodeEnvelope(op string, resp *http.Response, out any) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return &TransientError{Op: op, Err: fmt.Errorf("read body: %w", err)}
	}

	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return &DecodeError{Op: op, Err: err}
	}

	if !env.Success || resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msgs := make([]string, 0, len(env.Errors))
		for _, m := range env.Errors {
			msgs = append(msgs, fmt.Sprintf("%d: %s", m.Code, m.Message))
		}
		return &RejectionError{Op: op, Status: resp.StatusCode, Messages: msgs}
	}

	if out != nil && len(env.Result) > 0 {
		if err := json.Unmarshal(env.Result, out); err != nil {
			return &DecodeError{Op: op, Err: err}
		}
	}
	return nil
}
