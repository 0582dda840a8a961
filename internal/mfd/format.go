package mfd

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
)

// RecordTypeIV is the raw-data record type holding the AES initialization vector.
const RecordTypeIV uint16 = 0x8001

const (
	lenFieldSize    = 4
	crcFieldSize    = 4
	recordHeaderLen = 4
)

// Record is one type-length-value entry of the raw-data section.
type Record struct {
	// Type is the record type identifier
	Type uint16
	// Offset is the position of the record header within the raw payload
	Offset int
	// Value is the record payload; it aliases the parsed blob
	Value []byte
}

// String returns a short description of the record.
func (r Record) String() string {
	return fmt.Sprintf("type=0x%04x len=%d offset=%d", r.Type, len(r.Value), r.Offset)
}

// Blob is a validated view over a factory data image.
type Blob struct {
	// Secured is the opaque secured payload (empty when the blob has none)
	Secured []byte
	// SecuredCRC is the stored checksum of the secured payload
	SecuredCRC uint32
	// Raw is the raw-data payload
	Raw []byte
	// RawCRC is the stored CRC-32 of the raw payload
	RawCRC uint32
	// Records are the decoded raw-data records in file order
	Records []Record
}

// HasSecured reports whether the blob carries a secured section.
func (b *Blob) HasSecured() bool {
	return len(b.Secured) > 0
}

// Find returns the first record with the given type.
func (b *Blob) Find(typ uint16) (Record, bool) {
	for _, r := range b.Records {
		if r.Type == typ {
			return r, true
		}
	}
	return Record{}, false
}

// Parse validates both checksums and decodes every raw-data record.
// A blob whose secured length is zero is returned empty without looking
// at the remaining bytes.
func Parse(data []byte) (*Blob, error) {
	l, err := readLayout(data)
	if err != nil {
		return nil, err
	}
	b := &Blob{}
	if l.secLen == 0 {
		return b, nil
	}
	b.Secured = l.secured
	b.SecuredCRC = l.securedCRC
	b.Raw = l.raw
	b.RawCRC = l.rawCRC

	err = walkRecords(l.raw, l.rawStart, func(r Record) bool {
		b.Records = append(b.Records, r)
		return true
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// layout holds the section boundaries of a checked blob.
type layout struct {
	secLen     uint32
	secured    []byte
	securedCRC uint32
	raw        []byte
	rawStart   int
	rawCRC     uint32
}

// readLayout splits the blob into sections and verifies both checksums.
func readLayout(data []byte) (layout, error) {
	var l layout

	secLen, err := readUint32(data, 0, "secured")
	if err != nil {
		return l, err
	}
	l.secLen = secLen
	if secLen == 0 {
		return l, nil
	}

	secStart := lenFieldSize
	secEnd := secStart + int(secLen)
	if secEnd < secStart || secEnd > len(data) {
		return l, malformed("secured", secStart, "secured length %d exceeds blob size %d", secLen, len(data))
	}
	l.secured = data[secStart:secEnd]

	l.securedCRC, err = readUint32(data, secEnd, "secured")
	if err != nil {
		return l, err
	}
	if crc32.ChecksumIEEE(l.secured) != l.securedCRC {
		return l, malformed("secured", secEnd, "invalid secured-data checksum")
	}

	rawLenOff := secEnd + crcFieldSize
	rawLen, err := readUint32(data, rawLenOff, "raw")
	if err != nil {
		return l, err
	}
	l.rawStart = rawLenOff + lenFieldSize
	rawEnd := l.rawStart + int(rawLen)
	if rawEnd < l.rawStart || rawEnd > len(data) {
		return l, malformed("raw", l.rawStart, "raw length %d exceeds blob size %d", rawLen, len(data))
	}
	l.raw = data[l.rawStart:rawEnd]

	l.rawCRC, err = readUint32(data, rawEnd, "raw")
	if err != nil {
		return l, err
	}
	if crc32.ChecksumIEEE(l.raw) != l.rawCRC {
		return l, malformed("raw", rawEnd, "invalid raw-data checksum")
	}

	return l, nil
}

// walkRecords calls fn for each record in raw until fn returns false.
// base is the offset of raw within the blob, used for error reporting.
func walkRecords(raw []byte, base int, fn func(Record) bool) error {
	offset := 0
	for offset < len(raw) {
		if offset+recordHeaderLen > len(raw) {
			return malformed("record", base+offset, "truncated record header")
		}
		typ := binary.LittleEndian.Uint16(raw[offset:])
		n := int(binary.LittleEndian.Uint16(raw[offset+2:]))

		start := offset + recordHeaderLen
		if start+n > len(raw) {
			return malformed("record", base+offset, "record 0x%04x length %d overruns raw data", typ, n)
		}

		if !fn(Record{Type: typ, Offset: offset, Value: raw[start : start+n]}) {
			return nil
		}
		offset = start + n
	}
	return nil
}

func readUint32(data []byte, offset int, section string) (uint32, error) {
	if offset < 0 || offset+4 > len(data) {
		return 0, malformed(section, offset, "unexpected end of data")
	}
	return binary.LittleEndian.Uint32(data[offset:]), nil
}
