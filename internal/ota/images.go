package ota

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	// ImageDir is the directory under the firmware directory that collects vendor OTA images.
	ImageDir = "ota_images"

	imageExt  = ".ota"
	matterExt = ".matter"
)

// DefaultKeep lists the files Prune leaves in an OTA output folder.
var DefaultKeep = []string{"FW_OTA.bin.xz.hash"}

// ErrNoImages is returned by FindImages when the image directory holds no OTA image.
var ErrNoImages = errors.New("no bouffalo lab OTA image found")

// ImagePath returns the image directory for a firmware work directory.
func ImagePath(workDir string) string {
	return filepath.Join(workDir, ImageDir)
}

// MatterPath returns the Matter OTA output path for a vendor image.
func MatterPath(image string) string {
	return image + matterExt
}

// FindImages returns the vendor OTA images below <workDir>/ota_images, sorted.
func FindImages(workDir string) ([]string, error) {
	var images []string
	err := filepath.WalkDir(ImagePath(workDir), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && len(d.Name()) > len(imageExt) && strings.HasSuffix(d.Name(), imageExt) {
			images = append(images, path)
		}
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to search OTA images: %w", err)
	}
	if len(images) == 0 {
		return nil, ErrNoImages
	}
	sort.Strings(images)
	return images, nil
}

// ResetImageDir removes <workDir>/ota_images and everything in it.
func ResetImageDir(workDir string) error {
	if err := os.RemoveAll(ImagePath(workDir)); err != nil {
		return fmt.Errorf("failed to remove %s: %w", ImagePath(workDir), err)
	}
	return nil
}

// MoveImages moves <workDir>/*.ota into <workDir>/ota_images and returns the new paths.
func MoveImages(workDir string) ([]string, error) {
	dir := ImagePath(workDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", dir, err)
	}

	matches, err := filepath.Glob(filepath.Join(workDir, "*"+imageExt))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)

	moved := make([]string, 0, len(matches))
	for _, src := range matches {
		dst := filepath.Join(dir, filepath.Base(src))
		if err := os.Rename(src, dst); err != nil {
			return moved, fmt.Errorf("failed to move %s: %w", src, err)
		}
		moved = append(moved, dst)
	}
	return moved, nil
}

// ResetOutput empties an OTA output folder, creating it if needed.
func ResetOutput(folder string) error {
	if err := os.RemoveAll(folder); err != nil {
		return fmt.Errorf("failed to clear OTA output folder: %w", err)
	}
	if err := os.Mkdir(folder, 0755); err != nil {
		return fmt.Errorf("failed to create OTA output folder: %w", err)
	}
	return nil
}

// Prune removes every entry of folder whose name is not in keep.
// With no keep names DefaultKeep is used. It returns the removed names.
func Prune(folder string, keep ...string) ([]string, error) {
	if len(keep) == 0 {
		keep = DefaultKeep
	}
	keepSet := make(map[string]bool, len(keep))
	for _, name := range keep {
		keepSet[name] = true
	}

	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, fmt.Errorf("failed to read OTA output folder: %w", err)
	}

	var removed []string
	for _, entry := range entries {
		if keepSet[entry.Name()] {
			continue
		}
		if err := os.RemoveAll(filepath.Join(folder, entry.Name())); err != nil {
			return removed, fmt.Errorf("failed to prune %s: %w", entry.Name(), err)
		}
		removed = append(removed, entry.Name())
	}
	return removed, nil
}
