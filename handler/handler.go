// Package handler is the stateless job front-end.
//
// It decodes a flat wire request once at the boundary into the typed
// request record, drives the pipeline, and renders the terminal report
// back into the wire shape. Hosting runtimes deliver one job per call;
// concurrency policy is theirs.
package handler

import (
	"context"
	"time"

	"github.com/meshkit-io/chisel/adapter"
	"github.com/meshkit-io/chisel/journal"
	"github.com/meshkit-io/chisel/log"
	"github.com/meshkit-io/chisel/pipeline"
	"github.com/meshkit-io/chisel/store"
	"github.com/meshkit-io/chisel/types"
)

// publishTimeout bounds best-effort post-run deliveries (journal sync
// is local and not covered; adapters and store uploads are).
const publishTimeout = 30 * time.Second

// Request is the wire request object. Absent numeric fields take their
// documented defaults; pointers distinguish "absent" from zero.
type Request struct {
	DryRun bool   `json:"dry_run,omitempty"`
	RunID  string `json:"run_id,omitempty"`

	MeshURL      string `json:"mesh_url,omitempty"`
	MeshBase64   string `json:"mesh_base64,omitempty"`
	MeshFilename string `json:"mesh_filename,omitempty"`

	EditImageURL      string `json:"edit_image_url,omitempty"`
	EditImageBase64   string `json:"edit_image_base64,omitempty"`
	EditImageFilename string `json:"edit_image_filename,omitempty"`

	MaskImageURL      string `json:"mask_image_url,omitempty"`
	MaskImageBase64   string `json:"mask_image_base64,omitempty"`
	MaskImageFilename string `json:"mask_image_filename,omitempty"`

	RenderImageURL      string `json:"render_image_url,omitempty"`
	RenderImageBase64   string `json:"render_image_base64,omitempty"`
	RenderImageFilename string `json:"render_image_filename,omitempty"`

	Azimuth            *float64 `json:"azimuth,omitempty"`
	Elevation          *float64 `json:"elevation,omitempty"`
	Scale              *float64 `json:"scale,omitempty"`
	Attentive2D        *int     `json:"attentive_2d,omitempty"`
	CutOffP            *float64 `json:"cut_off_p,omitempty"`
	TopKPercent2D      *float64 `json:"topk_percent_2d,omitempty"`
	ThresholdPercent2D *float64 `json:"threshold_percent_2d,omitempty"`
	StepPruning        *int     `json:"step_pruning,omitempty"`
	EditStrength       *float64 `json:"edit_strength,omitempty"`
	GuidanceScale      *float64 `json:"guidance_scale,omitempty"`

	RunTextureRepaint bool   `json:"run_texture_repaint,omitempty"`
	Seed              *int   `json:"seed,omitempty"`
	RenderMethod      string `json:"render_method,omitempty"`

	ReturnFiles     bool `json:"return_files,omitempty"`
	ReturnZipBase64 bool `json:"return_zip_base64,omitempty"`
}

// FilePayload is the wire encoding of one returned file.
type FilePayload struct {
	Filename  string `json:"filename"`
	SizeBytes int64  `json:"size_bytes"`
	Base64    string `json:"base64"`
}

// Response is the wire response object.
type Response struct {
	Status  string                 `json:"status"`
	RunID   string                 `json:"run_id,omitempty"`
	Outputs []string               `json:"outputs,omitempty"`
	Log     string                 `json:"log,omitempty"`
	Files   map[string]FilePayload `json:"files,omitempty"`
	Zip     *FilePayload           `json:"zip,omitempty"`
	Message string                 `json:"message,omitempty"`
}

// EditRequest resolves the wire request into the typed record, applying
// defaults for absent fields. Raw wire fields are never re-interpreted
// after this point.
func (r *Request) EditRequest() *types.EditRequest {
	p := types.DefaultEditParams()
	if r.Azimuth != nil {
		p.Azimuth = *r.Azimuth
	}
	if r.Elevation != nil {
		p.Elevation = *r.Elevation
	}
	if r.Scale != nil {
		p.Scale = *r.Scale
	}
	if r.Attentive2D != nil {
		p.Attentive2D = *r.Attentive2D
	}
	if r.CutOffP != nil {
		p.CutOffP = *r.CutOffP
	}
	if r.TopKPercent2D != nil {
		p.TopKPercent2D = *r.TopKPercent2D
	}
	if r.ThresholdPercent2D != nil {
		p.ThresholdPercent2D = *r.ThresholdPercent2D
	}
	if r.StepPruning != nil {
		p.StepPruning = *r.StepPruning
	}
	if r.EditStrength != nil {
		p.EditStrength = *r.EditStrength
	}
	if r.GuidanceScale != nil {
		p.GuidanceScale = *r.GuidanceScale
	}

	rp := types.DefaultRepaintParams()
	if r.Seed != nil {
		rp.Seed = *r.Seed
	}
	if r.RenderMethod != "" {
		rp.RenderMethod = r.RenderMethod
	}

	return &types.EditRequest{
		RunID:             r.RunID,
		Mesh:              types.FileRef{URL: r.MeshURL, Base64: r.MeshBase64, Filename: r.MeshFilename},
		EditImage:         types.FileRef{URL: r.EditImageURL, Base64: r.EditImageBase64, Filename: r.EditImageFilename},
		MaskImage:         types.FileRef{URL: r.MaskImageURL, Base64: r.MaskImageBase64, Filename: r.MaskImageFilename},
		RenderImage:       types.FileRef{URL: r.RenderImageURL, Base64: r.RenderImageBase64, Filename: r.RenderImageFilename},
		Edit:              p,
		RunTextureRepaint: r.RunTextureRepaint,
		Repaint:           rp,
		ReturnFiles:       r.ReturnFiles,
		ReturnZip:         r.ReturnZipBase64,
	}
}

// Config configures a Handler. Orchestrator is required; Journal,
// Adapters and Store are optional post-run sinks.
type Config struct {
	Orchestrator *pipeline.Orchestrator
	// Journal receives one record per handled request.
	Journal *journal.Journal
	// Adapters receive best-effort run-completed events.
	Adapters []adapter.Adapter
	// Store receives the result archive when archive mode produced one.
	Store store.Store
	// Logger is the process logger. Nil uses log.L().
	Logger *log.Logger
}

// Handler drives requests through the pipeline and fans the outcome out
// to the configured sinks.
type Handler struct {
	cfg Config
}

// New creates a handler.
func New(cfg Config) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = log.L()
	}
	return &Handler{cfg: cfg}
}

// DryRunResponse is the fixed reachability payload. No workspace is
// allocated and no stage runs.
func DryRunResponse() *Response {
	return &Response{Status: "ok", Message: "dry_run: handler is reachable"}
}

// Handle processes one request to its terminal response.
//
// Request-level failures come back as an error-status Response with a
// nil error. The error return carries internal faults only; the host
// maps those to its own failure policy.
func (h *Handler) Handle(ctx context.Context, req *Request) (*Response, error) {
	if req.DryRun {
		return DryRunResponse(), nil
	}

	edit := req.EditRequest()
	report, err := h.cfg.Orchestrator.Execute(ctx, edit, nil)
	if err != nil {
		return nil, err
	}

	h.sink(report, edit)
	return fromReport(report), nil
}

// sink delivers the terminal report to the journal, store and adapters.
// Failures are logged and swallowed: sinks never change the response.
func (h *Handler) sink(report *types.RunReport, req *types.EditRequest) {
	logger := h.cfg.Logger.WithRun(report.RunID)

	if h.cfg.Journal != nil {
		if err := h.cfg.Journal.Append(journal.FromReport(report, req)); err != nil {
			logger.Warn("journal append failed", map[string]any{"error": err.Error()})
		}
	}

	if len(h.cfg.Adapters) == 0 && (h.cfg.Store == nil || report.Archive == nil) {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if h.cfg.Store != nil && report.Archive != nil {
		data, err := report.Archive.Bytes()
		if err == nil {
			err = h.cfg.Store.Put(ctx, report.RunID, report.Archive.Name, data)
		}
		if err != nil {
			logger.Warn("archive upload failed", map[string]any{"error": err.Error()})
		}
	}

	event := adapter.FromReport(report, req.RunTextureRepaint)
	for _, a := range h.cfg.Adapters {
		if err := a.Publish(ctx, event); err != nil {
			logger.Warn("run-completed publish failed", map[string]any{"error": err.Error()})
		}
	}
}

// fromReport renders a terminal report into the wire response.
func fromReport(report *types.RunReport) *Response {
	resp := &Response{
		Status:  string(report.Status),
		RunID:   report.RunID,
		Outputs: report.ArtifactNames,
		Log:     report.Log,
		Message: report.Message,
	}
	if report.Inline != nil {
		resp.Files = make(map[string]FilePayload, len(report.Inline))
		for _, p := range report.Inline {
			resp.Files[p.Name] = FilePayload{Filename: p.Name, SizeBytes: p.SizeBytes, Base64: p.Base64}
		}
	}
	if report.Archive != nil {
		resp.Zip = &FilePayload{
			Filename:  report.Archive.Name,
			SizeBytes: report.Archive.SizeBytes,
			Base64:    report.Archive.Base64,
		}
	}
	return resp
}
