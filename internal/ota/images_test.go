package ota

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"testing"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func TestMoveAndFindImages(t *testing.T) {
	work := t.TempDir()
	writeFile(t, filepath.Join(work, "b.ota"))
	writeFile(t, filepath.Join(work, "a.ota"))
	writeFile(t, filepath.Join(work, "firmware.bin"))

	moved, err := MoveImages(work)
	if err != nil {
		t.Fatalf("MoveImages() error = %v", err)
	}
	want := []string{
		filepath.Join(work, ImageDir, "a.ota"),
		filepath.Join(work, ImageDir, "b.ota"),
	}
	if !reflect.DeepEqual(moved, want) {
		t.Errorf("MoveImages() = %v, want %v", moved, want)
	}
	if got := listDir(t, work); !reflect.DeepEqual(got, []string{"firmware.bin", ImageDir}) {
		t.Errorf("work dir = %v", got)
	}

	found, err := FindImages(work)
	if err != nil {
		t.Fatalf("FindImages() error = %v", err)
	}
	if !reflect.DeepEqual(found, want) {
		t.Errorf("FindImages() = %v, want %v", found, want)
	}
}

func TestFindImagesNone(t *testing.T) {
	work := t.TempDir()
	if _, err := FindImages(work); !errors.Is(err, ErrNoImages) {
		t.Errorf("FindImages() on missing dir error = %v, want ErrNoImages", err)
	}

	writeFile(t, filepath.Join(work, ImageDir, ".ota"))
	writeFile(t, filepath.Join(work, ImageDir, "notes.txt"))
	if _, err := FindImages(work); !errors.Is(err, ErrNoImages) {
		t.Errorf("FindImages() error = %v, want ErrNoImages", err)
	}
}

func TestResetImageDir(t *testing.T) {
	work := t.TempDir()
	writeFile(t, filepath.Join(work, ImageDir, "old.ota"))

	if err := ResetImageDir(work); err != nil {
		t.Fatalf("ResetImageDir() error = %v", err)
	}
	if _, err := os.Stat(ImagePath(work)); !os.IsNotExist(err) {
		t.Errorf("image dir still exists")
	}
	if err := ResetImageDir(work); err != nil {
		t.Errorf("ResetImageDir() on missing dir error = %v", err)
	}
}

func TestPrune(t *testing.T) {
	folder := t.TempDir()
	writeFile(t, filepath.Join(folder, "FW_OTA.bin"))
	writeFile(t, filepath.Join(folder, "FW_OTA.bin.xz"))
	writeFile(t, filepath.Join(folder, "FW_OTA.bin.xz.hash"))
	writeFile(t, filepath.Join(folder, "sub", "inner"))

	removed, err := Prune(folder)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if want := []string{"FW_OTA.bin", "FW_OTA.bin.xz", "sub"}; !reflect.DeepEqual(removed, want) {
		t.Errorf("Prune() removed %v, want %v", removed, want)
	}
	if got := listDir(t, folder); !reflect.DeepEqual(got, []string{"FW_OTA.bin.xz.hash"}) {
		t.Errorf("folder = %v", got)
	}
}

func TestPruneCustomKeep(t *testing.T) {
	folder := t.TempDir()
	writeFile(t, filepath.Join(folder, "keep.me"))
	writeFile(t, filepath.Join(folder, "FW_OTA.bin.xz.hash"))

	if _, err := Prune(folder, "keep.me"); err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if got := listDir(t, folder); !reflect.DeepEqual(got, []string{"keep.me"}) {
		t.Errorf("folder = %v", got)
	}
}

func TestResetOutput(t *testing.T) {
	folder := filepath.Join(t.TempDir(), "out")
	writeFile(t, filepath.Join(folder, "stale"))

	if err := ResetOutput(folder); err != nil {
		t.Fatalf("ResetOutput() error = %v", err)
	}
	if got := listDir(t, folder); len(got) != 0 {
		t.Errorf("folder = %v, want empty", got)
	}
}
