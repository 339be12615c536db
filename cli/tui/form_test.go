package tui

import (
	"errors"
	"strings"
	"testing"

	"github.com/meshkit-io/chisel/inputs"
	"github.com/meshkit-io/chisel/types"
)

func filledValues() []string {
	values := make([]string, fieldCount)
	values[fieldMesh] = "/tmp/model.glb"
	values[fieldEditImage] = "/tmp/2d_edit.png"
	values[fieldMaskImage] = "/tmp/2d_mask.png"
	return values
}

func TestBuildRequestDefaults(t *testing.T) {
	req, err := buildRequest(filledValues(), false)
	if err != nil {
		t.Fatalf("buildRequest: %v", err)
	}

	if req.Mesh.Path != "/tmp/model.glb" || req.EditImage.Path != "/tmp/2d_edit.png" {
		t.Errorf("paths = %+v", req)
	}
	if req.Edit != types.DefaultEditParams() {
		t.Errorf("edit params = %+v, want defaults", req.Edit)
	}
	if req.Repaint != types.DefaultRepaintParams() {
		t.Errorf("repaint params = %+v, want defaults", req.Repaint)
	}
	if req.RunTextureRepaint {
		t.Error("repaint requested without toggle")
	}
}

func TestBuildRequestOverrides(t *testing.T) {
	values := filledValues()
	values[fieldScale] = "3.5"
	values[fieldStepPruning] = "9"
	values[fieldSeed] = "42"
	values[fieldRenderMethod] = "bpy"

	req, err := buildRequest(values, true)
	if err != nil {
		t.Fatalf("buildRequest: %v", err)
	}
	if req.Edit.Scale != 3.5 || req.Edit.StepPruning != 9 {
		t.Errorf("edit params = %+v", req.Edit)
	}
	if req.Repaint.Seed != 42 || req.Repaint.RenderMethod != "bpy" {
		t.Errorf("repaint params = %+v", req.Repaint)
	}
	if !req.RunTextureRepaint {
		t.Error("repaint toggle dropped")
	}
}

func TestBuildRequestMissingSlots(t *testing.T) {
	values := make([]string, fieldCount)
	values[fieldMaskImage] = "/tmp/2d_mask.png"

	_, err := buildRequest(values, false)
	var missing *inputs.MissingSlotsError
	if !errors.As(err, &missing) {
		t.Fatalf("err = %v, want MissingSlotsError", err)
	}
	if len(missing.Slots) != 2 || missing.Slots[0] != types.SlotMesh || missing.Slots[1] != types.SlotEditImage {
		t.Errorf("slots = %v, want checked order", missing.Slots)
	}
}

func TestBuildRequestBadNumber(t *testing.T) {
	values := filledValues()
	values[fieldGuidanceScale] = "very strong"

	_, err := buildRequest(values, false)
	if err == nil || !strings.Contains(err.Error(), "guidance_scale") {
		t.Errorf("err = %v, want guidance_scale parse error", err)
	}
}

func TestNewInputsFocusAndCount(t *testing.T) {
	ins := newInputs()
	if len(ins) != fieldCount {
		t.Fatalf("inputs = %d, want %d", len(ins), fieldCount)
	}
	if !ins[0].Focused() {
		t.Error("first field not focused")
	}
	if ins[fieldSeed].Placeholder != "99999" {
		t.Errorf("seed placeholder = %q", ins[fieldSeed].Placeholder)
	}
}
