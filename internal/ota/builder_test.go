package ota

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/muurk/bflb-flash/internal/toolchain"
)

type recordingRunner struct {
	calls []toolchain.Invocation
	err   error
}

func (r *recordingRunner) Run(_ context.Context, inv toolchain.Invocation) (*toolchain.Result, error) {
	r.calls = append(r.calls, inv)
	if r.err != nil {
		return nil, r.err
	}
	return &toolchain.Result{}, nil
}

func TestBuilderBuild(t *testing.T) {
	runner := &recordingRunner{}
	builder := NewBuilder(runner, "", "/matter")

	image := filepath.Join("/work", ImageDir, "FW.ota")
	out, err := builder.Build(context.Background(), image, validHeader())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if out != image+".matter" {
		t.Errorf("Build() = %q", out)
	}

	if len(runner.calls) != 1 {
		t.Fatalf("runner called %d times, want 1", len(runner.calls))
	}
	inv := runner.calls[0]
	if inv.Path != "python3" {
		t.Errorf("Path = %q, want python3", inv.Path)
	}
	want := []string{
		filepath.Join("/matter", "src", "app", "ota_image_tool.py"), "create",
		"-v", "65521", "-p", "32773", "-vn", "2", "-vs", "2.0", "-da", "sha256",
		image, image + ".matter",
	}
	if !reflect.DeepEqual(inv.Args, want) {
		t.Errorf("Args = %v\nwant %v", inv.Args, want)
	}
	if inv.Dir != filepath.Dir(image) {
		t.Errorf("Dir = %q", inv.Dir)
	}
}

func TestBuilderRejectsInvalidHeader(t *testing.T) {
	runner := &recordingRunner{}
	builder := NewBuilder(runner, "python3", "/matter")

	_, err := builder.Build(context.Background(), "/work/FW.ota", Header{})
	var headerErr *HeaderError
	if !errors.As(err, &headerErr) {
		t.Fatalf("Build() error = %v, want *HeaderError", err)
	}
	if len(runner.calls) != 0 {
		t.Errorf("tool ran despite invalid header")
	}
}

func TestBuilderWrapsToolFailure(t *testing.T) {
	toolErr := &toolchain.ToolExecutionError{Tool: "python3", ExitCode: 1}
	builder := NewBuilder(&recordingRunner{err: toolErr}, "python3", "/matter")

	_, err := builder.Build(context.Background(), "/work/FW.ota", validHeader())
	var execErr *toolchain.ToolExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("Build() error = %v, want wrapped *ToolExecutionError", err)
	}
}

func TestBuilderBuildAll(t *testing.T) {
	work := t.TempDir()
	writeFile(t, filepath.Join(work, ImageDir, "a.ota"))
	writeFile(t, filepath.Join(work, ImageDir, "b.ota"))

	runner := &recordingRunner{}
	outputs, err := NewBuilder(runner, "python3", "/matter").BuildAll(context.Background(), work, validHeader())
	if err != nil {
		t.Fatalf("BuildAll() error = %v", err)
	}
	want := []string{
		filepath.Join(work, ImageDir, "a.ota.matter"),
		filepath.Join(work, ImageDir, "b.ota.matter"),
	}
	if !reflect.DeepEqual(outputs, want) {
		t.Errorf("BuildAll() = %v, want %v", outputs, want)
	}
	if len(runner.calls) != 2 {
		t.Errorf("runner called %d times, want 2", len(runner.calls))
	}
}

func TestBuilderBuildAllNoImages(t *testing.T) {
	_, err := NewBuilder(&recordingRunner{}, "python3", "/matter").BuildAll(context.Background(), t.TempDir(), validHeader())
	if !errors.Is(err, ErrNoImages) {
		t.Errorf("BuildAll() error = %v, want ErrNoImages", err)
	}
}
