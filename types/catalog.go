//nolint:revive // types is a common Go package naming convention
package types

// Expected output artifact names, case-sensitive. Membership in a run's
// result is existence-on-disk after pipeline completion; content is
// never validated.
const (
	ArtifactEditedMesh     = "edited_mesh.glb"
	ArtifactEditedViews    = "edited_mesh_views.png"
	ArtifactSelectedTokens = "selected_fixed_tokens_views.png"
	ArtifactMaskedInput    = "2d_masked_input.png"
	ArtifactRepaintMesh    = "mv_repaint_model.glb"
	ArtifactRepaintViews   = "mv_adapter_repaint_6_views.png"
	ArtifactAdapterViews   = "mv_adapter_6_views.png"
)

// SourceMeshName is a stage-1 output consumed by the repaint stage as
// its reference mesh. Its production is owned by the external edit
// process; the orchestrator references it without checking existence.
const SourceMeshName = "source_model.glb"

// ArtifactCatalog returns the fixed, ordered set of expected output
// filenames. Callers must not mutate the returned slice.
func ArtifactCatalog() []string {
	return []string{
		ArtifactEditedMesh,
		ArtifactEditedViews,
		ArtifactSelectedTokens,
		ArtifactMaskedInput,
		ArtifactRepaintMesh,
		ArtifactRepaintViews,
		ArtifactAdapterViews,
	}
}
