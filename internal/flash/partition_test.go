package flash

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const partitionTOML = `[pt_table]
address0 = 0xE000
address1 = 0xF000

[[pt_entry]]
type = 0
name = "FW"
address0 = 0x10000
size0 = 0x1E0000
`

func writePartition(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadPartitionTable(t *testing.T) {
	dir := t.TempDir()
	path := writePartition(t, dir, "partition_cfg_4M.toml", partitionTOML)

	pt, err := LoadPartitionTable(dir)
	if err != nil {
		t.Fatalf("LoadPartitionTable() error = %v", err)
	}
	if pt.Path != path || pt.Address0 != 0xE000 || pt.Address1 != 0xF000 {
		t.Errorf("LoadPartitionTable() = %+v", pt)
	}
}

func TestLoadPartitionTable_Count(t *testing.T) {
	dir := t.TempDir()

	var discErr *DiscoveryError
	if _, err := LoadPartitionTable(dir); !errors.As(err, &discErr) || discErr.Found != 0 {
		t.Errorf("LoadPartitionTable() empty dir error = %v", err)
	}

	writePartition(t, dir, "partition_a.toml", partitionTOML)
	writePartition(t, dir, "partition_b.toml", partitionTOML)
	if _, err := LoadPartitionTable(dir); !errors.As(err, &discErr) || discErr.Found != 2 {
		t.Errorf("LoadPartitionTable() two files error = %v", err)
	}
}

func TestDecodePartitionTable_Invalid(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"syntax", "[pt_table\naddress0 = 1", "failed to parse"},
		{"missing address1", "[pt_table]\naddress0 = 0xE000\n", "required"},
		{"missing table", "[other]\nx = 1\n", "required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writePartition(t, dir, tt.name+".toml", tt.content)
			_, err := DecodePartitionTable(path)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("DecodePartitionTable() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
