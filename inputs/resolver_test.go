package inputs

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/meshkit-io/chisel/types"
)

func TestResolveBase64WritesDefaults(t *testing.T) {
	dir := t.TempDir()
	r := NewResolver(0)

	mesh := []byte("glTF fake mesh bytes")
	png := []byte("\x89PNG fake")

	req := &types.EditRequest{
		Mesh:      types.FileRef{Base64: base64.StdEncoding.EncodeToString(mesh)},
		EditImage: types.FileRef{Base64: base64.StdEncoding.EncodeToString(png)},
		MaskImage: types.FileRef{Base64: base64.StdEncoding.EncodeToString(png)},
	}

	resolved, err := r.Resolve(context.Background(), dir, RequestSlots(req))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	want := map[string]string{
		types.SlotMesh:      "model.glb",
		types.SlotEditImage: "2d_edit.png",
		types.SlotMaskImage: "2d_mask.png",
	}
	for slot, name := range want {
		if resolved[slot] != name {
			t.Errorf("resolved[%s] = %q, want %q", slot, resolved[slot], name)
		}
	}
	if _, ok := resolved[types.SlotRender]; ok {
		t.Error("render slot resolved without a source")
	}

	got, err := os.ReadFile(filepath.Join(dir, "model.glb"))
	if err != nil {
		t.Fatalf("read model.glb: %v", err)
	}
	if string(got) != string(mesh) {
		t.Error("mesh bytes round-trip mismatch")
	}
}

func TestResolveFilenameHintPreserved(t *testing.T) {
	dir := t.TempDir()
	r := NewResolver(0)

	slots := []Slot{{
		Name:        types.SlotMesh,
		DefaultName: types.DefaultMeshName,
		Ref:         types.FileRef{Base64: "aGVsbG8=", Filename: "dragon.glb"},
		Required:    true,
	}}

	resolved, err := r.Resolve(context.Background(), dir, slots)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved[types.SlotMesh] != "dragon.glb" {
		t.Errorf("resolved name = %q, want dragon.glb", resolved[types.SlotMesh])
	}
	if _, err := os.Stat(filepath.Join(dir, "dragon.glb")); err != nil {
		t.Errorf("hinted file missing: %v", err)
	}
}

func TestResolveMissingMandatoryAggregated(t *testing.T) {
	dir := t.TempDir()
	r := NewResolver(0)

	// Only the optional render slot present; all three mandatory slots
	// must be listed, in checked order.
	req := &types.EditRequest{
		RenderImage: types.FileRef{Base64: "aGVsbG8="},
	}

	_, err := r.Resolve(context.Background(), dir, RequestSlots(req))
	var missing *MissingSlotsError
	if !errors.As(err, &missing) {
		t.Fatalf("err = %v, want *MissingSlotsError", err)
	}

	want := []string{types.SlotMesh, types.SlotEditImage, types.SlotMaskImage}
	if len(missing.Slots) != len(want) {
		t.Fatalf("missing = %v, want %v", missing.Slots, want)
	}
	for i := range want {
		if missing.Slots[i] != want[i] {
			t.Errorf("missing[%d] = %q, want %q", i, missing.Slots[i], want[i])
		}
	}
}

func TestResolveFetchesURL(t *testing.T) {
	body := []byte("remote mesh")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	dir := t.TempDir()
	r := NewResolver(5 * time.Second)

	slots := []Slot{{
		Name:        types.SlotMesh,
		DefaultName: types.DefaultMeshName,
		Ref:         types.FileRef{URL: srv.URL},
		Required:    true,
	}}

	if _, err := r.Resolve(context.Background(), dir, slots); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(dir, "model.glb"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != string(body) {
		t.Error("fetched bytes mismatch")
	}
}

func TestResolveURLErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	r := NewResolver(5 * time.Second)
	slots := []Slot{{
		Name:        types.SlotMesh,
		DefaultName: types.DefaultMeshName,
		Ref:         types.FileRef{URL: srv.URL},
		Required:    true,
	}}

	if _, err := r.Resolve(context.Background(), t.TempDir(), slots); err == nil {
		t.Fatal("Resolve succeeded on 404, want error")
	}
}

func TestResolveURLPrecedenceOverBase64(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("from url"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	r := NewResolver(5 * time.Second)

	slots := []Slot{{
		Name:        types.SlotMesh,
		DefaultName: types.DefaultMeshName,
		Ref: types.FileRef{
			URL:    srv.URL,
			Base64: base64.StdEncoding.EncodeToString([]byte("from base64")),
		},
		Required: true,
	}}

	if _, err := r.Resolve(context.Background(), dir, slots); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	got, _ := os.ReadFile(filepath.Join(dir, "model.glb"))
	if string(got) != "from url" {
		t.Errorf("content = %q, want URL source to win", got)
	}
}

func TestResolveLocalPathCopies(t *testing.T) {
	src := filepath.Join(t.TempDir(), "upload.glb")
	if err := os.WriteFile(src, []byte("uploaded"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	dir := t.TempDir()
	r := NewResolver(0)

	slots := []Slot{{
		Name:        types.SlotMesh,
		DefaultName: types.DefaultMeshName,
		Ref:         types.FileRef{Path: src, Filename: "upload.glb"},
		Required:    true,
	}}

	resolved, err := r.Resolve(context.Background(), dir, slots)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved[types.SlotMesh] != "upload.glb" {
		t.Errorf("resolved name = %q, want upload.glb", resolved[types.SlotMesh])
	}
	got, _ := os.ReadFile(filepath.Join(dir, "upload.glb"))
	if string(got) != "uploaded" {
		t.Error("copied bytes mismatch")
	}
}

func TestResolveBadBase64(t *testing.T) {
	r := NewResolver(0)
	slots := []Slot{{
		Name:        types.SlotMesh,
		DefaultName: types.DefaultMeshName,
		Ref:         types.FileRef{Base64: "not-base64!!!"},
		Required:    true,
	}}

	if _, err := r.Resolve(context.Background(), t.TempDir(), slots); err == nil {
		t.Fatal("Resolve succeeded on invalid base64, want error")
	}
}
