package flash

import (
	"fmt"
	"regexp"

	"github.com/BurntSushi/toml"
)

var partitionPattern = regexp.MustCompile(`^partition.+\.toml$`)

// PartitionTable holds the flash addresses of the two partition table copies.
type PartitionTable struct {
	Path     string
	Address0 uint64
	Address1 uint64
}

type partitionFile struct {
	PtTable struct {
		Address0 *uint64 `toml:"address0"`
		Address1 *uint64 `toml:"address1"`
	} `toml:"pt_table"`
}

// LoadPartitionTable decodes the single partition*.toml in configDir.
func LoadPartitionTable(configDir string) (*PartitionTable, error) {
	files, err := FindFiles(configDir, partitionPattern)
	if err != nil {
		return nil, fmt.Errorf("failed to search partition file: %w", err)
	}
	if len(files) != 1 {
		return nil, &DiscoveryError{What: "partition*.toml", Dir: configDir, Found: len(files)}
	}

	return DecodePartitionTable(files[0])
}

// DecodePartitionTable reads pt_table.address0 and pt_table.address1 from a TOML file.
func DecodePartitionTable(path string) (*PartitionTable, error) {
	var pf partitionFile
	if _, err := toml.DecodeFile(path, &pf); err != nil {
		return nil, fmt.Errorf("failed to parse partition file %s: %w", path, err)
	}
	if pf.PtTable.Address0 == nil || pf.PtTable.Address1 == nil {
		return nil, fmt.Errorf("partition file %s: pt_table.address0 and pt_table.address1 are required", path)
	}

	return &PartitionTable{
		Path:     path,
		Address0: *pf.PtTable.Address0,
		Address1: *pf.PtTable.Address1,
	}, nil
}
