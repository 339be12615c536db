package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"

	"github.com/meshkit-io/chisel/inputs"
	"github.com/meshkit-io/chisel/types"
)

// Form field indices. File paths first, then stage-1 numerics in argv
// order, then stage-2 parameters.
const (
	fieldMesh = iota
	fieldEditImage
	fieldMaskImage
	fieldRenderImage
	fieldAzimuth
	fieldElevation
	fieldScale
	fieldAttentive2D
	fieldCutOffP
	fieldTopKPercent2D
	fieldThresholdPercent2D
	fieldStepPruning
	fieldEditStrength
	fieldGuidanceScale
	fieldSeed
	fieldRenderMethod
	fieldCount
)

type fieldSpec struct {
	label       string
	placeholder string
}

func fieldSpecs() [fieldCount]fieldSpec {
	d := types.DefaultEditParams()
	r := types.DefaultRepaintParams()
	return [fieldCount]fieldSpec{
		fieldMesh:               {"mesh (.glb)", "path/to/model.glb"},
		fieldEditImage:          {"edit image (.png)", "path/to/2d_edit.png"},
		fieldMaskImage:          {"mask image (.png)", "path/to/2d_mask.png"},
		fieldRenderImage:        {"render image (optional)", ""},
		fieldAzimuth:            {"azimuth", formatF(d.Azimuth)},
		fieldElevation:          {"elevation", formatF(d.Elevation)},
		fieldScale:              {"scale", formatF(d.Scale)},
		fieldAttentive2D:        {"attentive_2d", strconv.Itoa(d.Attentive2D)},
		fieldCutOffP:            {"cut_off_p", formatF(d.CutOffP)},
		fieldTopKPercent2D:      {"topk_percent_2d", formatF(d.TopKPercent2D)},
		fieldThresholdPercent2D: {"threshold_percent_2d", formatF(d.ThresholdPercent2D)},
		fieldStepPruning:        {"step_pruning", strconv.Itoa(d.StepPruning)},
		fieldEditStrength:       {"edit_strength", formatF(d.EditStrength)},
		fieldGuidanceScale:      {"guidance_scale", formatF(d.GuidanceScale)},
		fieldSeed:               {"seed", strconv.Itoa(r.Seed)},
		fieldRenderMethod:       {"render_method", r.RenderMethod},
	}
}

func formatF(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// newInputs builds one text input per form field. Placeholders show
// the documented defaults; an empty field means "use the default".
func newInputs() []textinput.Model {
	specs := fieldSpecs()
	ins := make([]textinput.Model, fieldCount)
	for i := range ins {
		ti := textinput.New()
		ti.Placeholder = specs[i].placeholder
		ti.CharLimit = 256
		ti.Width = 42
		ins[i] = ti
	}
	ins[0].Focus()
	return ins
}

// buildRequest validates the form values and resolves them into the
// typed request record. Empty numeric fields take their defaults.
func buildRequest(values []string, repaint bool) (*types.EditRequest, error) {
	get := func(i int) string { return strings.TrimSpace(values[i]) }

	var missing []string
	for _, slot := range []struct {
		idx  int
		name string
	}{
		{fieldMesh, types.SlotMesh},
		{fieldEditImage, types.SlotEditImage},
		{fieldMaskImage, types.SlotMaskImage},
	} {
		if get(slot.idx) == "" {
			missing = append(missing, slot.name)
		}
	}
	if len(missing) > 0 {
		return nil, &inputs.MissingSlotsError{Slots: missing}
	}

	p := types.DefaultEditParams()
	var err error
	if p.Azimuth, err = floatField(get(fieldAzimuth), p.Azimuth, "azimuth"); err != nil {
		return nil, err
	}
	if p.Elevation, err = floatField(get(fieldElevation), p.Elevation, "elevation"); err != nil {
		return nil, err
	}
	if p.Scale, err = floatField(get(fieldScale), p.Scale, "scale"); err != nil {
		return nil, err
	}
	if p.Attentive2D, err = intField(get(fieldAttentive2D), p.Attentive2D, "attentive_2d"); err != nil {
		return nil, err
	}
	if p.CutOffP, err = floatField(get(fieldCutOffP), p.CutOffP, "cut_off_p"); err != nil {
		return nil, err
	}
	if p.TopKPercent2D, err = floatField(get(fieldTopKPercent2D), p.TopKPercent2D, "topk_percent_2d"); err != nil {
		return nil, err
	}
	if p.ThresholdPercent2D, err = floatField(get(fieldThresholdPercent2D), p.ThresholdPercent2D, "threshold_percent_2d"); err != nil {
		return nil, err
	}
	if p.StepPruning, err = intField(get(fieldStepPruning), p.StepPruning, "step_pruning"); err != nil {
		return nil, err
	}
	if p.EditStrength, err = floatField(get(fieldEditStrength), p.EditStrength, "edit_strength"); err != nil {
		return nil, err
	}
	if p.GuidanceScale, err = floatField(get(fieldGuidanceScale), p.GuidanceScale, "guidance_scale"); err != nil {
		return nil, err
	}

	rp := types.DefaultRepaintParams()
	if rp.Seed, err = intField(get(fieldSeed), rp.Seed, "seed"); err != nil {
		return nil, err
	}
	if method := get(fieldRenderMethod); method != "" {
		rp.RenderMethod = method
	}

	return &types.EditRequest{
		Mesh:              types.FileRef{Path: get(fieldMesh)},
		EditImage:         types.FileRef{Path: get(fieldEditImage)},
		MaskImage:         types.FileRef{Path: get(fieldMaskImage)},
		RenderImage:       types.FileRef{Path: get(fieldRenderImage)},
		Edit:              p,
		RunTextureRepaint: repaint,
		Repaint:           rp,
	}, nil
}

func floatField(s string, def float64, name string) (float64, error) {
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a number", name, s)
	}
	return v, nil
}

func intField(s string, def int, name string) (int, error) {
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not an integer", name, s)
	}
	return v, nil
}
