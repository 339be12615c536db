package stage

import (
	"path/filepath"
	"strconv"

	"github.com/meshkit-io/chisel/types"
)

// Command identifies the executable and script for one stage. Stage
// processes run with Workdir as their working directory so they can
// resolve their own assets relatively.
type Command struct {
	// Python is the interpreter executable.
	Python string
	// Script is the stage script path.
	Script string
	// Workdir is the working directory for the child process.
	Workdir string
}

// Argv builds the full argument vector [python, script, args...].
func (c Command) Argv(args []string) []string {
	argv := make([]string, 0, 2+len(args))
	argv = append(argv, c.Python, c.Script)
	return append(argv, args...)
}

// EditArgs builds the geometry-edit stage flags in their fixed,
// documented order. Flag order does not affect the external process but
// must be stable for reproducibility. files maps slot names to the
// resolved filenames inside inputDir; the optional render image is
// appended last when present.
func EditArgs(inputDir, outputDir string, files map[string]string, p types.EditParams) []string {
	args := []string{
		"--input_dir", inputDir,
		"--output_dir", outputDir,
		"--mesh_file", files[types.SlotMesh],
		"--edit_image", files[types.SlotEditImage],
		"--mask_image", files[types.SlotMaskImage],
		"--azimuth", formatFloat(p.Azimuth),
		"--elevation", formatFloat(p.Elevation),
		"--scale", formatFloat(p.Scale),
		"--attentive_2d", strconv.Itoa(p.Attentive2D),
		"--cut_off_p", formatFloat(p.CutOffP),
		"--topk_percent_2d", formatFloat(p.TopKPercent2D),
		"--threshold_percent_2d", formatFloat(p.ThresholdPercent2D),
		"--step_pruning", strconv.Itoa(p.StepPruning),
		"--edit_strength", formatFloat(p.EditStrength),
		"--guidance_scale", formatFloat(p.GuidanceScale),
	}
	if name, ok := files[types.SlotRender]; ok {
		args = append(args, "--render_image", name)
	}
	return args
}

// RepaintArgs builds the texture-repaint stage flags. All mesh/image
// inputs are stage-1 outputs inside outputDir, not original request
// inputs. source_model.glb is a stage-1 postcondition and is referenced
// without an existence check.
func RepaintArgs(outputDir string, p types.RepaintParams) []string {
	return []string{
		"--input_mesh", filepath.Join(outputDir, types.ArtifactEditedMesh),
		"--ref_mesh", filepath.Join(outputDir, types.SourceMeshName),
		"--texture_image", filepath.Join(outputDir, types.DefaultEditImageName),
		"--output_dir", outputDir,
		"--seed", strconv.Itoa(p.Seed),
		"--render_method", p.RenderMethod,
	}
}

// formatFloat renders a numeric parameter in its shortest exact form
// ("7.5", "0", "2"). Stable across runs for identical inputs.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
