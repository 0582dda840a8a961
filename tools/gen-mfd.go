//go:build ignore

package main

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"hash/crc32"
	"os"
	"strconv"
	"strings"
)

// record is one raw-data entry, given on the command line as TYPE=HEX
// (e.g. 0x0001=4d4154).
type record struct {
	typ   uint16
	value []byte
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: gen-mfd <output> [--iv HEX|--no-iv] [TYPE=HEX ...]")
		fmt.Println("Example: go run tools/gen-mfd.go /tmp/mfd.bin 0x0001=53455249414c")
		fmt.Println()
		fmt.Println("Writes a factory data image with a random secured section and")
		fmt.Println("valid checksums, for trying 'bflb-flash mfd' and --mfd without")
		fmt.Println("real factory data. A random IV record (type 0x8001) is added")
		fmt.Println("first unless --iv or --no-iv is given.")
		os.Exit(1)
	}

	output := os.Args[1]
	var records []record
	iv := make([]byte, 16)
	if _, err := rand.Read(iv); err != nil {
		fmt.Printf("Error generating IV: %v\n", err)
		os.Exit(1)
	}
	withIV := true

	args := os.Args[2:]
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--no-iv":
			withIV = false
		case arg == "--iv":
			if i+1 >= len(args) {
				fmt.Println("Error: --iv needs a hex value")
				os.Exit(1)
			}
			i++
			v, err := hex.DecodeString(args[i])
			if err != nil {
				fmt.Printf("Error parsing --iv: %v\n", err)
				os.Exit(1)
			}
			iv = v
		default:
			r, err := parseRecord(arg)
			if err != nil {
				fmt.Printf("Error parsing %q: %v\n", arg, err)
				os.Exit(1)
			}
			records = append(records, r)
		}
	}
	if withIV {
		records = append([]record{{typ: 0x8001, value: iv}}, records...)
	}

	secured := make([]byte, 64)
	if _, err := rand.Read(secured); err != nil {
		fmt.Printf("Error generating secured data: %v\n", err)
		os.Exit(1)
	}

	var raw []byte
	for _, r := range records {
		raw = binary.LittleEndian.AppendUint16(raw, r.typ)
		raw = binary.LittleEndian.AppendUint16(raw, uint16(len(r.value)))
		raw = append(raw, r.value...)
	}

	var blob []byte
	blob = binary.LittleEndian.AppendUint32(blob, uint32(len(secured)))
	blob = append(blob, secured...)
	blob = binary.LittleEndian.AppendUint32(blob, crc32.ChecksumIEEE(secured))
	blob = binary.LittleEndian.AppendUint32(blob, uint32(len(raw)))
	blob = append(blob, raw...)
	blob = binary.LittleEndian.AppendUint32(blob, crc32.ChecksumIEEE(raw))

	if err := os.WriteFile(output, blob, 0644); err != nil {
		fmt.Printf("Error writing %s: %v\n", output, err)
		os.Exit(1)
	}

	fmt.Printf("Wrote %s (%d bytes, %d records)\n", output, len(blob), len(records))
	if withIV {
		fmt.Printf("IV: %s\n", hex.EncodeToString(iv))
	}
}

func parseRecord(arg string) (record, error) {
	typ, value, ok := strings.Cut(arg, "=")
	if !ok {
		return record{}, fmt.Errorf("expected TYPE=HEX")
	}
	t, err := strconv.ParseUint(typ, 0, 16)
	if err != nil {
		return record{}, fmt.Errorf("invalid record type: %w", err)
	}
	v, err := hex.DecodeString(value)
	if err != nil {
		return record{}, fmt.Errorf("invalid record value: %w", err)
	}
	if len(v) > 0xffff {
		return record{}, fmt.Errorf("record value longer than 65535 bytes")
	}
	return record{typ: uint16(t), value: v}, nil
}
