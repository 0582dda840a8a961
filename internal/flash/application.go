package flash

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/marcinbor85/gohex"
)

// hexPadding fills gaps between Intel HEX segments, matching erased flash.
const hexPadding = 0xff

// FirmwarePath returns the staged binary path for an application.
func FirmwarePath(application string) string {
	return strings.TrimSuffix(application, filepath.Ext(application)) + ".bin"
}

// StageApplication places the application next to itself as a raw .bin
// image and returns that path. Intel HEX input is flattened; anything
// else is copied byte for byte.
func StageApplication(application string) (string, error) {
	firmware := FirmwarePath(application)

	if strings.EqualFold(filepath.Ext(application), ".hex") {
		if err := flattenHex(application, firmware); err != nil {
			return "", err
		}
		return firmware, nil
	}

	if firmware == application {
		if _, err := os.Stat(application); err != nil {
			return "", fmt.Errorf("application not found: %w", err)
		}
		return firmware, nil
	}

	if err := copyFile(application, firmware); err != nil {
		return "", err
	}
	return firmware, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open application: %w", err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat application: %w", err)
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Base(dst), err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy application: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(dst), err)
	}

	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}

func flattenHex(src, dst string) error {
	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open application: %w", err)
	}
	defer f.Close()

	mem := gohex.NewMemory()
	if err := mem.ParseIntelHex(f); err != nil {
		return fmt.Errorf("failed to parse Intel HEX %s: %w", filepath.Base(src), err)
	}

	segments := mem.GetDataSegments()
	if len(segments) == 0 {
		return fmt.Errorf("Intel HEX %s contains no data", filepath.Base(src))
	}

	start := segments[0].Address
	end := start
	for _, s := range segments {
		if s.Address < start {
			start = s.Address
		}
		if e := s.Address + uint32(len(s.Data)); e > end {
			end = e
		}
	}

	data := mem.ToBinary(start, end-start, hexPadding)
	if err := os.WriteFile(dst, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(dst), err)
	}
	return nil
}
