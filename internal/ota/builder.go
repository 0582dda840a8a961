package ota

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/muurk/bflb-flash/internal/toolchain"
)

// Builder wraps vendor OTA images into Matter OTA images.
type Builder struct {
	runner     toolchain.Runner
	python     string
	matterRoot string
}

// NewBuilder creates a Builder that runs ota_image_tool.py from matterRoot with python.
func NewBuilder(runner toolchain.Runner, python, matterRoot string) *Builder {
	if python == "" {
		python = "python3"
	}
	return &Builder{runner: runner, python: python, matterRoot: matterRoot}
}

// ScriptPath returns the location of ota_image_tool.py.
func (b *Builder) ScriptPath() string {
	return filepath.Join(b.matterRoot, "src", "app", "ota_image_tool.py")
}

// Invocation returns the tool run that builds image.
func (b *Builder) Invocation(image string, header Header) toolchain.Invocation {
	args := []string{b.ScriptPath(), "create"}
	args = append(args, header.Args()...)
	args = append(args, image, MatterPath(image))
	return toolchain.Invocation{
		Path: b.python,
		Args: args,
		Dir:  filepath.Dir(image),
	}
}

// Build validates header and creates <image>.matter. It returns the output path.
func (b *Builder) Build(ctx context.Context, image string, header Header) (string, error) {
	if err := header.Validate(); err != nil {
		return "", err
	}
	if _, err := b.runner.Run(ctx, b.Invocation(image, header)); err != nil {
		return "", fmt.Errorf("failed to build Matter OTA image from %s: %w", filepath.Base(image), err)
	}
	return MatterPath(image), nil
}

// BuildAll builds a Matter image for every vendor image in workDir.
func (b *Builder) BuildAll(ctx context.Context, workDir string, header Header) ([]string, error) {
	if err := header.Validate(); err != nil {
		return nil, err
	}
	images, err := FindImages(workDir)
	if err != nil {
		return nil, err
	}

	outputs := make([]string, 0, len(images))
	for _, img := range images {
		out, err := b.Build(ctx, img, header)
		if err != nil {
			return outputs, err
		}
		outputs = append(outputs, out)
	}
	return outputs, nil
}
