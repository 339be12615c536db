// Package types defines core domain types for the chisel pipeline.
//
//nolint:revive // types is a common Go package naming convention
package types

// Default destination filenames per input slot. Stage processes locate
// inputs by name inside the run's input directory, so a resolved slot
// keeps its caller-supplied filename hint or falls back to these.
const (
	DefaultMeshName        = "model.glb"
	DefaultEditImageName   = "2d_edit.png"
	DefaultMaskImageName   = "2d_mask.png"
	DefaultRenderImageName = "2d_render.png"
)

// Mandatory slot names, in checked order. Missing-slot errors list
// exactly these names in this order.
const (
	SlotMesh      = "mesh"
	SlotEditImage = "edit_image"
	SlotMaskImage = "mask_image"
	SlotRender    = "render_image"
)

// FileRef describes one logical input slot. At most one of URL, Base64,
// or Path is consulted, in that precedence order. Filename overrides the
// slot's default destination name.
type FileRef struct {
	// URL is a remote reference fetched over HTTP.
	URL string
	// Base64 is inline standard-base64 encoded file content.
	Base64 string
	// Path is an already-local file (interactive front-end uploads).
	Path string
	// Filename is the destination name hint within the input directory.
	Filename string
}

// IsZero reports whether no source is present for the slot.
func (r FileRef) IsZero() bool {
	return r.URL == "" && r.Base64 == "" && r.Path == ""
}

// Recognized render methods for the repaint stage. Unrecognized values
// are passed through to the external process uninterpreted.
const (
	RenderMethodNvdiffrast = "nvdiffrast"
	RenderMethodBpy        = "bpy"
)

// EditParams are the geometry-edit stage parameters. The record is
// immutable after construction and passed by value into argument-vector
// construction. No bounds validation beyond type coercion.
type EditParams struct {
	Azimuth            float64
	Elevation          float64
	Scale              float64
	Attentive2D        int
	CutOffP            float64
	TopKPercent2D      float64
	ThresholdPercent2D float64
	StepPruning        int
	EditStrength       float64
	GuidanceScale      float64
}

// DefaultEditParams returns the documented stage-1 defaults.
func DefaultEditParams() EditParams {
	return EditParams{
		Azimuth:            0.0,
		Elevation:          0.0,
		Scale:              2.0,
		Attentive2D:        8,
		CutOffP:            0.5,
		TopKPercent2D:      0.2,
		ThresholdPercent2D: 0.1,
		StepPruning:        5,
		EditStrength:       0.7,
		GuidanceScale:      7.5,
	}
}

// RepaintParams are the texture-repaint stage parameters.
type RepaintParams struct {
	Seed         int
	RenderMethod string
}

// DefaultRepaintParams returns the documented stage-2 defaults.
func DefaultRepaintParams() RepaintParams {
	return RepaintParams{
		Seed:         99999,
		RenderMethod: RenderMethodNvdiffrast,
	}
}

// EditRequest is the validated request record handed to the pipeline.
// Defaults are resolved once at the front-end boundary; the core never
// re-interprets raw request fields.
type EditRequest struct {
	// RunID is an optional caller-supplied override of the generated id.
	RunID string

	Mesh        FileRef
	EditImage   FileRef
	MaskImage   FileRef
	RenderImage FileRef

	Edit EditParams

	// RunTextureRepaint gates the second stage.
	RunTextureRepaint bool
	Repaint           RepaintParams

	// ReturnFiles requests inline-mode packaging of cataloged artifacts.
	ReturnFiles bool
	// ReturnZip requests archive-mode packaging of the output directory.
	ReturnZip bool
}
