package flash

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestProgConfig_Render(t *testing.T) {
	work := filepath.FromSlash("/w")
	cfg := &ProgConfig{
		WorkDir:   work,
		Firmware:  filepath.Join(work, "app.bin"),
		Partition: PartitionTable{Address0: 0xE000, Address1: 0xF000},
	}

	var sb strings.Builder
	if err := cfg.Render(&sb); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	want := "[cfg]\n" +
		"erase = 1\n" +
		"skip_mode = 0x0, 0x0\n" +
		"boot2_isp_mode = 0\n" +
		"\n" +
		"[boot2]\n" +
		"filedir = " + filepath.Join(work, "boot2*.bin") + "\n" +
		"address = 0x000000\n" +
		"\n" +
		"[partition]\n" +
		"filedir = " + filepath.Join(work, "partition*.bin") + "\n" +
		"address = 0xe000\n" +
		"\n" +
		"[partition1]\n" +
		"filedir = " + filepath.Join(work, "partition*.bin") + "\n" +
		"address = 0xf000\n" +
		"\n" +
		"[FW]\n" +
		"filedir = " + filepath.Join(work, "app.bin") + "\n" +
		"address = @partition\n" +
		"\n"
	if got := sb.String(); got != want {
		t.Errorf("Render() =\n%s\nwant\n%s", got, want)
	}
}

func TestProgConfig_RenderEraseAndMFD(t *testing.T) {
	cfg := &ProgConfig{
		WorkDir:  "/w",
		Firmware: "/w/app.bin",
		MFD:      "/w/mfd.bin",
		Erase:    true,
	}

	var sb strings.Builder
	if err := cfg.Render(&sb); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	got := sb.String()

	if !strings.Contains(got, "erase = 2\n") {
		t.Errorf("missing full erase:\n%s", got)
	}
	if !strings.HasSuffix(got, "[MFD]\nfiledir = /w/mfd.bin\naddress = @partition\n\n") {
		t.Errorf("missing MFD section:\n%s", got)
	}
}

func TestProgConfig_WriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ProgConfigName)
	cfg := &ProgConfig{WorkDir: "/w", Firmware: "/w/app.bin"}

	if err := cfg.WriteFile(path); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "[cfg]\n") {
		t.Errorf("written config = %q", data)
	}
}
