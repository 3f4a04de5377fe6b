package main

import (
	"bufio"
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/df07/go-sphere-tracer/pkg/log"
	"github.com/df07/go-sphere-tracer/pkg/scene"
)

func TestCreateScene(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "three.json")
	if err := scene.Save(jsonPath, scene.NewThreeSpheresDescription()); err != nil {
		t.Fatalf("Failed to save scene: %v", err)
	}

	tests := []struct {
		name        string
		sceneName   string
		expectError bool
		primitives  int
	}{
		{"random spheres", "random-spheres", false, -1},
		{"three spheres", "three-spheres", false, 4},
		{"single sphere", "single-sphere", false, 1},
		{"empty", "empty", false, 0},
		{"json file", jsonPath, false, 4},
		{"unknown scene", "does-not-exist", true, 0},
		{"missing json file", filepath.Join(dir, "missing.json"), true, 0},
		{"empty name", "", true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := createScene(tt.sceneName, 42)
			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error for scene %q", tt.sceneName)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if tt.primitives >= 0 && s.GetPrimitiveCount() != tt.primitives {
				t.Errorf("Expected %d primitives, got %d", tt.primitives, s.GetPrimitiveCount())
			}
		})
	}
}

func TestCreateOutputPath(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC)

	path, err := createOutputPath(dir, "scenes/three.json", "png", now)
	if err != nil {
		t.Fatalf("createOutputPath failed: %v", err)
	}
	expected := filepath.Join(dir, "three", "render_20240305_140709.png")
	if path != expected {
		t.Errorf("Expected %s, got %s", expected, path)
	}
	if info, err := os.Stat(filepath.Dir(path)); err != nil || !info.IsDir() {
		t.Errorf("Expected output directory to exist: %v", err)
	}
}

func renderArgs(extra ...string) []string {
	args := []string{"sphere-tracer", "render",
		"--scene", "single-sphere",
		"--width", "8", "--height", "4",
		"--spp", "4", "--passes", "2", "--workers", "2", "--tile", "4",
	}
	return append(args, extra...)
}

func TestRenderToPPMFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.ppm")
	if err := newApp(&bytes.Buffer{}).Run(renderArgs("--out", out)); err != nil {
		t.Fatalf("render failed: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	if !strings.HasPrefix(string(data), "P3\n8 4\n255\n") {
		t.Errorf("Unexpected PPM header: %q", string(data[:min(len(data), 20)]))
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3+8*4 {
		t.Errorf("Expected %d lines, got %d", 3+8*4, len(lines))
	}
}

func TestRenderToStdout(t *testing.T) {
	var stdout bytes.Buffer
	if err := newApp(&stdout).Run(renderArgs("--out", "-")); err != nil {
		t.Fatalf("render failed: %v", err)
	}

	scanner := bufio.NewScanner(&stdout)
	count := 0
	for scanner.Scan() {
		count++
	}
	if count != 3+8*4 {
		t.Errorf("Expected %d lines on stdout, got %d", 3+8*4, count)
	}
}

func TestRenderToPNG(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.png")
	if err := newApp(&bytes.Buffer{}).Run(renderArgs("--format", "png", "--out", out)); err != nil {
		t.Fatalf("render failed: %v", err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("Failed to open output: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("Failed to decode png: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 8 || b.Dy() != 4 {
		t.Errorf("Expected 8x4 image, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestRenderRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown format", renderArgs("--format", "jpg", "--out", "-")},
		{"png to stdout", renderArgs("--format", "png", "--out", "-")},
		{"unknown scene", []string{"sphere-tracer", "render", "--scene", "nope", "--out", "-"}},
		{"zero passes", renderArgs("--passes", "0", "--out", "-")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout bytes.Buffer
			if err := newApp(&stdout).Run(tt.args); err == nil {
				t.Error("Expected render to fail")
			}
			if stdout.Len() != 0 {
				t.Errorf("Expected no image output, got %d bytes", stdout.Len())
			}
		})
	}
}

func TestListScenes(t *testing.T) {
	var stdout bytes.Buffer
	if err := newApp(&stdout).Run([]string{"sphere-tracer", "scenes"}); err != nil {
		t.Fatalf("scenes failed: %v", err)
	}

	for _, info := range scene.Builtins() {
		if !strings.Contains(stdout.String(), info.ID) {
			t.Errorf("Expected listing to contain %q", info.ID)
		}
	}
}

func TestExportScene(t *testing.T) {
	var stdout bytes.Buffer
	if err := newApp(&stdout).Run([]string{"sphere-tracer", "export", "three-spheres"}); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	d, err := scene.Decode(&stdout)
	if err != nil {
		t.Fatalf("Exported scene does not decode: %v", err)
	}
	if d.Name != "three-spheres" || len(d.Spheres) != 4 {
		t.Errorf("Unexpected exported scene %q with %d spheres", d.Name, len(d.Spheres))
	}

	out := filepath.Join(t.TempDir(), "random.json")
	if err := newApp(&bytes.Buffer{}).Run([]string{"sphere-tracer", "export", "--seed", "7", "--out", out, "random-spheres"}); err != nil {
		t.Fatalf("export to file failed: %v", err)
	}
	s, err := createScene(out, 0)
	if err != nil {
		t.Fatalf("Exported file does not load: %v", err)
	}
	expected, _ := scene.Create("random-spheres", 7)
	if s.GetPrimitiveCount() != expected.GetPrimitiveCount() {
		t.Errorf("Expected %d primitives, got %d", expected.GetPrimitiveCount(), s.GetPrimitiveCount())
	}

	if err := newApp(&bytes.Buffer{}).Run([]string{"sphere-tracer", "export"}); err == nil {
		t.Error("Expected export without a scene name to fail")
	}
}

func TestGlobalFlags(t *testing.T) {
	var stdout bytes.Buffer
	if err := newApp(&stdout).Run([]string{"sphere-tracer", "--version"}); err != nil {
		t.Fatalf("--version failed: %v", err)
	}
	if !strings.Contains(stdout.String(), "0.1.0") {
		t.Errorf("Expected the version in %q", stdout.String())
	}

	// -v raises verbosity; it must not collide with the version flag
	defer log.SetLevel(log.Notice)
	stdout.Reset()
	if err := newApp(&stdout).Run([]string{"sphere-tracer", "-v", "render",
		"--scene", "empty", "--width", "4", "--height", "2", "--spp", "1", "--out", "-"}); err != nil {
		t.Fatalf("render with -v failed: %v", err)
	}
	if !strings.HasPrefix(stdout.String(), "P3\n4 2\n255\n") {
		t.Errorf("Unexpected output %q", stdout.String())
	}
}
