// Package mfd parses Matter factory data (MFD) partition images produced for
// Bouffalo Lab chips and recovers the AES initialization vector used to
// decrypt the secured section on the device.
//
// # Layout
//
// All integers are little-endian:
//
//	┌──────────┬──────────────────┬──────────┬──────────┬────────────────┬──────────┐
//	│ sec_len  │ secured payload  │ sec crc  │ raw_len  │ raw records    │ raw crc  │
//	│ uint32   │ sec_len bytes    │ uint32   │ uint32   │ raw_len bytes  │ uint32   │
//	└──────────┴──────────────────┴──────────┴──────────┴────────────────┴──────────┘
//
// The raw section is a run of type-length-value records, each with a uint16
// type and a uint16 length. Record type 0x8001 carries the AES IV.
//
// A blob with sec_len == 0 carries no secured section and therefore no IV.
//
// # Checksums
//
// Both checksums are CRC-32 (IEEE) over their payload and are verified. Older
// flashing scripts compared the stored values with themselves, so a blob that
// was accepted there can be rejected here with ErrMalformed.
//
// # Usage
//
//	data, err := os.ReadFile(path)
//	if err != nil {
//	    return err
//	}
//	iv, err := mfd.ExtractIV(data, key != "")
//	if err != nil {
//	    return err
//	}
//	if iv != nil {
//	    fmt.Println(mfd.IVHex(iv))
//	}
package mfd
