package flash

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/marcinbor85/gohex"
)

func TestFirmwarePath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"/w/app.elf", "/w/app.bin"},
		{"/w/app.bin", "/w/app.bin"},
		{"/w/app", "/w/app.bin"},
		{"/w/app.v1.hex", "/w/app.v1.bin"},
	}
	for _, tt := range tests {
		if got := FirmwarePath(tt.in); got != tt.want {
			t.Errorf("FirmwarePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStageApplication_Copy(t *testing.T) {
	dir := t.TempDir()
	app := filepath.Join(dir, "chip-bl602-lighting-example")
	if err := os.WriteFile(app, []byte("firmware"), 0644); err != nil {
		t.Fatal(err)
	}

	firmware, err := StageApplication(app)
	if err != nil {
		t.Fatalf("StageApplication() error = %v", err)
	}
	if firmware != app+".bin" {
		t.Errorf("firmware = %q", firmware)
	}
	data, err := os.ReadFile(firmware)
	if err != nil || string(data) != "firmware" {
		t.Errorf("staged content = %q, %v", data, err)
	}
}

func TestStageApplication_AlreadyBin(t *testing.T) {
	dir := t.TempDir()
	app := filepath.Join(dir, "app.bin")
	if err := os.WriteFile(app, []byte("firmware"), 0644); err != nil {
		t.Fatal(err)
	}

	firmware, err := StageApplication(app)
	if err != nil {
		t.Fatalf("StageApplication() error = %v", err)
	}
	if firmware != app {
		t.Errorf("firmware = %q, want %q", firmware, app)
	}
}

func TestStageApplication_Missing(t *testing.T) {
	dir := t.TempDir()
	if _, err := StageApplication(filepath.Join(dir, "app.elf")); err == nil {
		t.Error("StageApplication() expected error for missing application")
	}
	if _, err := StageApplication(filepath.Join(dir, "app.bin")); err == nil {
		t.Error("StageApplication() expected error for missing .bin application")
	}
}

func TestStageApplication_Hex(t *testing.T) {
	dir := t.TempDir()
	app := filepath.Join(dir, "app.hex")

	mem := gohex.NewMemory()
	if err := mem.AddBinary(0x23000004, []byte{0x03}); err != nil {
		t.Fatal(err)
	}
	if err := mem.AddBinary(0x23000000, []byte{0x01, 0x02}); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := mem.DumpIntelHex(&buf, 16); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(app, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}

	firmware, err := StageApplication(app)
	if err != nil {
		t.Fatalf("StageApplication() error = %v", err)
	}
	if firmware != filepath.Join(dir, "app.bin") {
		t.Errorf("firmware = %q", firmware)
	}
	data, err := os.ReadFile(firmware)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0x01, 0x02, 0xff, 0xff, 0x03}
	if !bytes.Equal(data, want) {
		t.Errorf("flattened = % x, want % x", data, want)
	}
}

func TestStageApplication_BadHex(t *testing.T) {
	dir := t.TempDir()
	app := filepath.Join(dir, "app.hex")
	if err := os.WriteFile(app, []byte("not a hex file\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := StageApplication(app); err == nil {
		t.Error("StageApplication() expected error for invalid Intel HEX")
	}
}
