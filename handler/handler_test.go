package handler

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/meshkit-io/chisel/adapter"
	"github.com/meshkit-io/chisel/journal"
	"github.com/meshkit-io/chisel/pipeline"
	"github.com/meshkit-io/chisel/stage"
	"github.com/meshkit-io/chisel/store"
	"github.com/meshkit-io/chisel/types"
	"github.com/meshkit-io/chisel/workspace"
)

// fakeRunner succeeds every stage and writes the named artifacts into
// the invocation's --output_dir.
type fakeRunner struct {
	calls [][]string
	exit  int
	files []string
}

func (r *fakeRunner) Run(_ context.Context, argv []string, _ string) (*stage.Result, error) {
	r.calls = append(r.calls, argv)
	if r.exit != 0 {
		return &stage.Result{ExitCode: r.exit, Stderr: "traceback"}, nil
	}
	for i, a := range argv {
		if a == "--output_dir" && i+1 < len(argv) {
			for _, name := range r.files {
				_ = os.WriteFile(filepath.Join(argv[i+1], name), []byte("bytes of "+name), 0o644)
			}
		}
	}
	return &stage.Result{Stdout: "ok"}, nil
}

func newTestHandler(t *testing.T, runner stage.Runner, mutate func(*Config)) *Handler {
	t.Helper()
	cfg := Config{
		Orchestrator: pipeline.New(pipeline.Config{
			Allocator: workspace.NewAllocator(t.TempDir()),
			Edit:      stage.Command{Python: "python3", Script: "vecset_edit.py"},
			Repaint:   stage.Command{Python: "python3", Script: "preserving_texture_baking.py"},
			Runner:    runner,
		}),
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return New(cfg)
}

func validWireRequest() *Request {
	b64 := base64.StdEncoding.EncodeToString([]byte("bytes"))
	return &Request{
		MeshBase64:      b64,
		EditImageBase64: b64,
		MaskImageBase64: b64,
	}
}

func TestHandleDryRun(t *testing.T) {
	root := t.TempDir()
	h := New(Config{Orchestrator: pipeline.New(pipeline.Config{
		Allocator: workspace.NewAllocator(root),
		Runner:    &fakeRunner{},
	})})

	resp, err := h.Handle(context.Background(), &Request{DryRun: true})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if resp.Status != "ok" || resp.Message != "dry_run: handler is reachable" {
		t.Errorf("resp = %+v", resp)
	}

	entries, _ := os.ReadDir(root)
	if len(entries) != 0 {
		t.Error("dry_run allocated a workspace")
	}
}

func TestHandleSuccess(t *testing.T) {
	runner := &fakeRunner{files: []string{types.ArtifactEditedMesh}}
	h := newTestHandler(t, runner, nil)

	resp, err := h.Handle(context.Background(), validWireRequest())
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if resp.Status != "ok" {
		t.Fatalf("resp = %+v", resp)
	}
	if !slices.Equal(resp.Outputs, []string{types.ArtifactEditedMesh}) {
		t.Errorf("outputs = %v", resp.Outputs)
	}
	if resp.RunID == "" || resp.Log == "" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestHandleDefaultsApplied(t *testing.T) {
	runner := &fakeRunner{}
	h := newTestHandler(t, runner, nil)

	if _, err := h.Handle(context.Background(), validWireRequest()); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	argv := strings.Join(runner.calls[0], " ")
	for _, want := range []string{
		"--azimuth 0", "--scale 2", "--attentive_2d 8", "--guidance_scale 7.5",
	} {
		if !strings.Contains(argv, want) {
			t.Errorf("argv missing default %q: %s", want, argv)
		}
	}
}

func TestHandleOverridesApplied(t *testing.T) {
	runner := &fakeRunner{}
	h := newTestHandler(t, runner, nil)

	req := validWireRequest()
	scale := 3.5
	steps := 9
	req.Scale = &scale
	req.StepPruning = &steps

	if _, err := h.Handle(context.Background(), req); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	argv := strings.Join(runner.calls[0], " ")
	if !strings.Contains(argv, "--scale 3.5") || !strings.Contains(argv, "--step_pruning 9") {
		t.Errorf("argv missing overrides: %s", argv)
	}
}

func TestHandleMissingInputs(t *testing.T) {
	runner := &fakeRunner{}
	h := newTestHandler(t, runner, nil)

	resp, err := h.Handle(context.Background(), &Request{
		MeshBase64: base64.StdEncoding.EncodeToString([]byte("m")),
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if resp.Status != "error" {
		t.Error("status = ok with missing inputs")
	}
	if !strings.Contains(resp.Message, "edit_image, mask_image") {
		t.Errorf("message = %q", resp.Message)
	}
	if len(runner.calls) != 0 {
		t.Error("stage ran despite missing inputs")
	}
}

func TestHandlePackaging(t *testing.T) {
	runner := &fakeRunner{files: []string{types.ArtifactEditedMesh}}
	h := newTestHandler(t, runner, nil)

	req := validWireRequest()
	req.ReturnFiles = true
	req.ReturnZipBase64 = true

	resp, err := h.Handle(context.Background(), req)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	file, ok := resp.Files[types.ArtifactEditedMesh]
	if !ok {
		t.Fatalf("files = %v", resp.Files)
	}
	decoded, err := base64.StdEncoding.DecodeString(file.Base64)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(decoded) != "bytes of "+types.ArtifactEditedMesh {
		t.Error("inline payload not byte-identical")
	}

	if resp.Zip == nil || resp.Zip.Filename != "results.zip" || resp.Zip.SizeBytes == 0 {
		t.Errorf("zip = %+v", resp.Zip)
	}
}

func TestHandleSinksJournalAndStore(t *testing.T) {
	runner := &fakeRunner{files: []string{types.ArtifactEditedMesh}}

	journalPath := filepath.Join(t.TempDir(), "requests.journal")
	j, err := journal.Open(journalPath)
	if err != nil {
		t.Fatalf("journal.Open: %v", err)
	}
	defer func() { _ = j.Close() }()

	storeRoot := t.TempDir()
	fsStore, err := store.NewFSStore(storeRoot)
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}

	h := newTestHandler(t, runner, func(cfg *Config) {
		cfg.Journal = j
		cfg.Store = fsStore
	})

	req := validWireRequest()
	req.ReturnZipBase64 = true

	resp, err := h.Handle(context.Background(), req)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	recs, err := journal.ReadAll(journalPath)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(recs) != 1 || recs[0].RunID != resp.RunID || recs[0].Status != "ok" {
		t.Errorf("journal = %+v", recs)
	}

	stored, err := os.ReadFile(filepath.Join(storeRoot, resp.RunID, "results.zip"))
	if err != nil {
		t.Fatalf("archive not uploaded to store: %v", err)
	}
	wire, err := base64.StdEncoding.DecodeString(resp.Zip.Base64)
	if err != nil {
		t.Fatalf("decode response zip: %v", err)
	}
	if !bytes.Equal(stored, wire) {
		t.Error("stored archive differs from the response archive")
	}
}

// capturingAdapter records published events.
type capturingAdapter struct {
	events []*adapter.RunCompletedEvent
}

func (a *capturingAdapter) Publish(_ context.Context, e *adapter.RunCompletedEvent) error {
	a.events = append(a.events, e)
	return nil
}

func (a *capturingAdapter) Close() error { return nil }

func TestHandlePublishesCompletionEvent(t *testing.T) {
	runner := &fakeRunner{exit: 1}
	capture := &capturingAdapter{}
	h := newTestHandler(t, runner, func(cfg *Config) {
		cfg.Adapters = []adapter.Adapter{capture}
	})

	resp, err := h.Handle(context.Background(), validWireRequest())
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if resp.Status != "error" {
		t.Fatalf("resp = %+v", resp)
	}

	if len(capture.events) != 1 {
		t.Fatalf("events = %d, want 1", len(capture.events))
	}
	e := capture.events[0]
	if e.EventType != "run_completed" || e.Status != "error" || e.RunID != resp.RunID {
		t.Errorf("event = %+v", e)
	}
}

func TestServeHTTPBareAndEnveloped(t *testing.T) {
	runner := &fakeRunner{files: []string{types.ArtifactEditedMesh}}
	h := newTestHandler(t, runner, nil)

	bare, _ := json.Marshal(validWireRequest())
	enveloped, _ := json.Marshal(map[string]json.RawMessage{"input": bare})

	for name, body := range map[string][]byte{"bare": bare, "enveloped": enveloped} {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body)))

			if rec.Code != http.StatusOK {
				t.Fatalf("code = %d, body = %s", rec.Code, rec.Body.String())
			}
			var resp Response
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if resp.Status != "ok" {
				t.Errorf("resp = %+v", resp)
			}
		})
	}
}

func TestServeHTTPRejectsBadRequests(t *testing.T) {
	h := newTestHandler(t, &fakeRunner{}, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET code = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{not json")))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad JSON code = %d", rec.Code)
	}
}

func TestServeHTTPErrorReportIsHTTP200(t *testing.T) {
	h := newTestHandler(t, &fakeRunner{exit: 3}, nil)

	body, _ := json.Marshal(validWireRequest())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d, want 200 for request-level failure", rec.Code)
	}
	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Status != "error" || !strings.Contains(resp.Message, "exit code 3") {
		t.Errorf("resp = %+v", resp)
	}
}
