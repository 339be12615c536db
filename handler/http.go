package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/meshkit-io/chisel/iox"
)

// maxBodyBytes caps the request body. Inline base64 meshes are large;
// this bounds decode memory, not artifact size.
const maxBodyBytes = 512 << 20

// envelope is the job-queue delivery shape: the request object nested
// under an "input" key. Bare request objects are accepted too.
type envelope struct {
	Input json.RawMessage `json:"input"`
}

// ServeHTTP exposes the handler at POST <any path>. The response is
// always JSON; request-level failures are HTTP 200 with an error
// status, internal faults are HTTP 500.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, &Response{Status: "error", Message: "method not allowed"})
		return
	}
	defer iox.DiscardClose(r.Body)

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, &Response{Status: "error", Message: "read body: " + err.Error()})
		return
	}

	req, err := decodeRequest(body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, &Response{Status: "error", Message: err.Error()})
		return
	}

	resp, err := h.Handle(r.Context(), req)
	if err != nil {
		h.cfg.Logger.Error("request failed internally", map[string]any{"error": err.Error()})
		writeJSON(w, http.StatusInternalServerError, &Response{Status: "error", Message: "internal error: " + err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// decodeRequest parses either a bare request object or a job envelope.
func decodeRequest(body []byte) (*Request, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, errors.New("invalid request JSON: " + err.Error())
	}
	raw := env.Input
	if raw == nil {
		raw = body
	}

	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, errors.New("invalid request JSON: " + err.Error())
	}
	return &req, nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
