package mfd

import "encoding/hex"

// ExtractIV returns the AES initialization vector stored in a factory data blob.
//
// It returns nil without error when the blob has no secured section, or when
// no IV record exists and keySupplied is false. When keySupplied is true a
// missing IV record is ErrMissingIV, since the secured data could not be
// decrypted on the device. Checksum and layout violations are ErrMalformed.
//
// Records after the IV are not inspected.
func ExtractIV(data []byte, keySupplied bool) ([]byte, error) {
	l, err := readLayout(data)
	if err != nil {
		return nil, err
	}
	if l.secLen == 0 {
		return nil, nil
	}

	var (
		iv    []byte
		found bool
	)
	err = walkRecords(l.raw, l.rawStart, func(r Record) bool {
		if r.Type == RecordTypeIV {
			iv = make([]byte, len(r.Value))
			copy(iv, r.Value)
			found = true
			return false
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	if found {
		return iv, nil
	}

	if keySupplied {
		return nil, ErrMissingIV
	}
	return nil, nil
}

// IVHex renders an IV the way the signing tools expect it: lowercase hex.
func IVHex(iv []byte) string {
	return hex.EncodeToString(iv)
}
