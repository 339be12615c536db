package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/meshkit-io/chisel/types"
)

func TestAppendAndReadAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "requests.journal")

	j, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	recs := []Record{
		{RunID: "r1", Ts: time.Now().UTC(), Status: "ok", ArtifactCount: 3, DurationMs: 1200},
		{RunID: "r2", Ts: time.Now().UTC(), Status: "error", Message: "edit stage failed (exit code 1)"},
	}
	for _, rec := range recs {
		if err := j.Append(rec); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	if err := j.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got, err := ReadAll(path)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("records = %d, want 2", len(got))
	}
	if got[0].RunID != "r1" || got[0].ArtifactCount != 3 {
		t.Errorf("got[0] = %+v", got[0])
	}
	if got[1].Status != "error" || got[1].Message == "" {
		t.Errorf("got[1] = %+v", got[1])
	}
}

func TestReadAllMissingFile(t *testing.T) {
	recs, err := ReadAll(filepath.Join(t.TempDir(), "nope.journal"))
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("records = %d, want 0", len(recs))
	}
}

func TestAppendSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "requests.journal")

	for i, runID := range []string{"a", "b", "c"} {
		j, err := Open(path)
		if err != nil {
			t.Fatalf("Open %d: %v", i, err)
		}
		if err := j.Append(Record{RunID: runID, Status: "ok"}); err != nil {
			t.Fatalf("Append %d: %v", i, err)
		}
		if err := j.Close(); err != nil {
			t.Fatalf("Close %d: %v", i, err)
		}
	}

	recs, err := ReadAll(path)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(recs) != 3 || recs[2].RunID != "c" {
		t.Errorf("records = %+v, want 3 appended across reopens", recs)
	}
}

func TestFromReport(t *testing.T) {
	report := &types.RunReport{
		Status:        types.StatusOK,
		RunID:         "r9",
		ArtifactNames: []string{types.ArtifactEditedMesh},
		Duration:      1500 * time.Millisecond,
	}
	req := &types.EditRequest{
		RunTextureRepaint: true,
		Repaint:           types.RepaintParams{Seed: 1, RenderMethod: types.RenderMethodBpy},
	}

	rec := FromReport(report, req)
	if rec.RunID != "r9" || rec.Status != "ok" {
		t.Errorf("rec = %+v", rec)
	}
	if rec.DurationMs != 1500 || rec.ArtifactCount != 1 {
		t.Errorf("rec = %+v", rec)
	}
	if !rec.TextureRepaint || rec.RenderMethod != "bpy" {
		t.Errorf("repaint fields = %+v", rec)
	}
}
