package cmd

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/meshkit-io/chisel/cli/config"
	"github.com/meshkit-io/chisel/types"
)

// runFlags runs a throwaway command so flag parsing happens exactly the
// way the real commands see it.
func runFlags(t *testing.T, flags []cli.Flag, args []string, action cli.ActionFunc) {
	t.Helper()
	app := &cli.App{
		Commands: []*cli.Command{{Name: "scratch", Flags: flags, Action: action}},
	}
	if err := app.Run(append([]string{"chisel", "scratch"}, args...)); err != nil {
		t.Fatalf("scratch run: %v", err)
	}
}

func TestRequestFromFlagsDefaults(t *testing.T) {
	runFlags(t, RunCommand.Flags, []string{"--mesh", "/tmp/model.glb"}, func(c *cli.Context) error {
		req := requestFromFlags(c)
		if req.Mesh.Path != "/tmp/model.glb" {
			t.Errorf("mesh path = %q", req.Mesh.Path)
		}
		if req.Edit != types.DefaultEditParams() {
			t.Errorf("edit params = %+v, want defaults", req.Edit)
		}
		if req.Repaint != types.DefaultRepaintParams() {
			t.Errorf("repaint params = %+v, want defaults", req.Repaint)
		}
		if req.RunTextureRepaint {
			t.Error("repaint on without --repaint")
		}
		return nil
	})
}

func TestRequestFromFlagsOverrides(t *testing.T) {
	args := []string{
		"--mesh", "m.glb",
		"--scale", "3.5",
		"--step-pruning", "9",
		"--repaint",
		"--seed", "42",
		"--render-method", "bpy",
		"--run-id", "custom_run",
	}
	runFlags(t, RunCommand.Flags, args, func(c *cli.Context) error {
		req := requestFromFlags(c)
		if req.Edit.Scale != 3.5 || req.Edit.StepPruning != 9 {
			t.Errorf("edit params = %+v", req.Edit)
		}
		if !req.RunTextureRepaint || req.Repaint.Seed != 42 || req.Repaint.RenderMethod != "bpy" {
			t.Errorf("repaint = %v %+v", req.RunTextureRepaint, req.Repaint)
		}
		if req.RunID != "custom_run" {
			t.Errorf("run id = %q", req.RunID)
		}
		return nil
	})
}

func TestRunFlagsAngleHelpSaysRadians(t *testing.T) {
	// The stage scripts interpret camera angles as radians; the help
	// text must not suggest degrees.
	found := 0
	for _, f := range RunCommand.Flags {
		ff, ok := f.(*cli.Float64Flag)
		if !ok {
			continue
		}
		if ff.Name != "azimuth" && ff.Name != "elevation" {
			continue
		}
		found++
		if !strings.Contains(ff.Usage, "radians") {
			t.Errorf("--%s usage = %q, want radians", ff.Name, ff.Usage)
		}
	}
	if found != 2 {
		t.Fatalf("angle flags found = %d, want 2", found)
	}
}

func TestLoadConfigRunsRootOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chisel.yaml")
	if err := os.WriteFile(path, []byte("runs_root: /data/runs\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	runFlags(t, CommonFlags(), []string{"--config", path, "--runs-root", "/other/runs"}, func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			t.Fatalf("loadConfig: %v", err)
		}
		if cfg.RunsRoot != "/other/runs" {
			t.Errorf("runs root = %q, want flag override", cfg.RunsRoot)
		}
		if cfg.Python != config.DefaultPython {
			t.Errorf("python = %q, want default", cfg.Python)
		}
		return nil
	})
}

func TestLoadConfigExplicitMissingFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.yaml")
	app := &cli.App{
		Commands: []*cli.Command{{
			Name:  "scratch",
			Flags: CommonFlags(),
			Action: func(c *cli.Context) error {
				_, err := loadConfig(c)
				return err
			},
		}},
	}
	if err := app.Run([]string{"chisel", "scratch", "--config", path}); err == nil {
		t.Error("explicit missing config file accepted")
	}
}

func TestBuildStore(t *testing.T) {
	st, err := buildStore(context.Background(), &config.Config{})
	if err != nil || st != nil {
		t.Errorf("empty backend: store = %v, err = %v", st, err)
	}

	st, err = buildStore(context.Background(), &config.Config{
		Storage: config.StorageConfig{Backend: "fs", Path: t.TempDir()},
	})
	if err != nil {
		t.Fatalf("fs backend: %v", err)
	}
	if st == nil {
		t.Fatal("fs backend returned nil store")
	}
	defer st.Close()

	if _, err = buildStore(context.Background(), &config.Config{
		Storage: config.StorageConfig{Backend: "tape"},
	}); err == nil {
		t.Error("unknown backend accepted")
	}
}

func TestBuildAdapter(t *testing.T) {
	ad, err := buildAdapter(&config.Config{})
	if err != nil || ad != nil {
		t.Errorf("empty type: adapter = %v, err = %v", ad, err)
	}

	ad, err = buildAdapter(&config.Config{
		Adapter: config.AdapterConfig{Type: "webhook", URL: "http://hooks.local/done"},
	})
	if err != nil {
		t.Fatalf("webhook: %v", err)
	}
	if ad == nil {
		t.Fatal("webhook returned nil adapter")
	}
	_ = ad.Close()

	ad, err = buildAdapter(&config.Config{
		Adapter: config.AdapterConfig{Type: "redis", URL: "redis://127.0.0.1:6379/0"},
	})
	if err != nil {
		t.Fatalf("redis: %v", err)
	}
	_ = ad.Close()

	if _, err = buildAdapter(&config.Config{
		Adapter: config.AdapterConfig{Type: "carrier-pigeon", URL: "x"},
	}); err == nil {
		t.Error("unknown adapter type accepted")
	}
}

func TestListRuns(t *testing.T) {
	root := t.TempDir()

	older := filepath.Join(root, "20260101_080000_aaaa1111")
	newer := filepath.Join(root, "20260301_090000_bbbb2222")
	if err := os.MkdirAll(filepath.Join(older, "output"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(newer, "output"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(newer, "output", "edited_mesh.glb"), []byte("glb"), 0o644); err != nil {
		t.Fatal(err)
	}
	// Stray file at the root is not a run.
	if err := os.WriteFile(filepath.Join(root, "journal.msgpack"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	rows, err := listRuns(root, 0)
	if err != nil {
		t.Fatalf("listRuns: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0].RunID != "20260301_090000_bbbb2222" {
		t.Errorf("first row = %s, want newest", rows[0].RunID)
	}
	if len(rows[0].Artifacts) != 1 || rows[0].Artifacts[0] != "edited_mesh.glb" {
		t.Errorf("artifacts = %v", rows[0].Artifacts)
	}
	if len(rows[1].Artifacts) != 0 {
		t.Errorf("empty run artifacts = %v", rows[1].Artifacts)
	}

	limited, err := listRuns(root, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 {
		t.Errorf("limited rows = %d, want 1", len(limited))
	}
}

func TestListRunsMissingRoot(t *testing.T) {
	rows, err := listRuns(filepath.Join(t.TempDir(), "absent"), 0)
	if err != nil {
		t.Fatalf("listRuns: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("rows = %v, want none", rows)
	}
}
