package flash

import (
	"fmt"
	"math/bits"
	"path/filepath"
)

// EfuseDataName is the efuse image bflb_fw_post_proc writes into the work dir.
const EfuseDataName = "efusedata.bin"

var (
	// efuse read/write lock words applied alongside the MFD key
	efuseLock0 = (uint32(1) << 30) | (uint32(1) << 20)
	efuseLock1 = (uint32(1) << 25) | (uint32(1) << 15)
)

// LittleHex formats v byte-swapped as 8 lowercase hex digits.
func LittleHex(v uint32) string {
	return fmt.Sprintf("%08x", bits.ReverseBytes32(v))
}

// EData builds the --edata argument that writes key into the efuse and
// locks the key slots.
func EData(key string) string {
	return fmt.Sprintf("0x80,%s;0x7c,%s;0xfc,%s", key, LittleHex(efuseLock0), LittleHex(efuseLock1))
}

// EfuseDataPath returns the efuse image path in workDir.
func EfuseDataPath(workDir string) string {
	return filepath.Join(workDir, EfuseDataName)
}
