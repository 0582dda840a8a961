package flash

import (
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/muurk/bflb-flash/internal/toolchain"
)

const defaultBoot2 = "boot2_isp_release.bin"

// FindFiles walks dir and returns the files whose base name matches pattern,
// in lexical order. A missing dir yields no files.
func FindFiles(dir string, pattern *regexp.Regexp) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && pattern.MatchString(d.Name()) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	return files, nil
}

// FindBootImage locates a boot2 image below dir.
//
// An existing path is returned unchanged. A bare name must exist somewhere
// below dir. Without a name, boot2_isp_release.bin is preferred over the
// first file with "release" in its name.
func FindBootImage(dir, name string) (string, error) {
	if name != "" && strings.ContainsAny(name, `/\`) {
		if _, err := os.Stat(name); err == nil {
			return name, nil
		}
		return "", &DiscoveryError{What: "boot2 image " + name, Dir: filepath.Dir(name)}
	}

	var guess string
	var found string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch {
		case name != "":
			if d.Name() == name {
				found = path
				return filepath.SkipAll
			}
		case d.Name() == defaultBoot2:
			found = path
			return filepath.SkipAll
		case guess == "" && strings.Contains(d.Name(), "release"):
			guess = path
		}
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return "", err
	}

	if found == "" {
		found = guess
	}
	if found == "" {
		what := "boot2 image"
		if name != "" {
			what += " " + name
		}
		return "", &DiscoveryError{What: what, Dir: dir}
	}
	return found, nil
}

// FindDeviceTree locates the device tree for chip below dir. Chips with a
// fixed board device tree use it; others match the crystal in the file name.
func FindDeviceTree(dir string, chip *toolchain.Chip, xtal string) (string, error) {
	want := chip.DeviceTree
	if want == "" {
		want = xtal
	}
	if want == "" {
		return "", &DiscoveryError{What: "device tree", Dir: dir}
	}

	files, err := FindFiles(dir, regexp.MustCompile(regexp.QuoteMeta(want)))
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", &DiscoveryError{What: "device tree matching " + want, Dir: dir}
	}
	return files[0], nil
}
