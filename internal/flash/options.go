package flash

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/muurk/bflb-flash/internal/ota"
)

// DefaultBaudrate is used by BLFlashCommand when no baudrate is set.
const DefaultBaudrate = 2000000

// Options configures a flashing run.
type Options struct {
	Application    string // firmware image produced by the build
	ChipName       string // bl602, bl702, bl702l or bl616
	PartitionTable string // iot_sdk partition table
	DeviceTree     string // iot_sdk device tree
	Xtal           string // crystal, used to pick a device tree
	Port           string // serial port; empty means process only
	Baudrate       int
	PrivateKey     string // signing key for firmware and OTA images
	MFD            string // Matter factory data partition image
	Key            string // security engine key for MFD decryption
	Boot2          string // boot2 image name or path
	Config         string // BLFlashCommand programming config

	BuildOTA          bool
	Erase             bool
	Reset             bool
	VerifyApplication bool

	OTA       ota.Header
	OTAOutput string // folder pruned after the run
}

// Normalize makes every path option absolute relative to cwd.
func (o *Options) Normalize(cwd string) {
	for _, p := range []*string{
		&o.Application, &o.PartitionTable, &o.DeviceTree, &o.PrivateKey,
		&o.MFD, &o.Config, &o.OTAOutput,
	} {
		*p = absPath(cwd, *p)
	}
	// A bare boot2 name is looked up in the chip's builtin images.
	if strings.ContainsAny(o.Boot2, `/\`) {
		o.Boot2 = absPath(cwd, o.Boot2)
	}
}

func absPath(cwd, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(cwd, p)
}

// Validate rejects incomplete or conflicting options.
func (o *Options) Validate() error {
	if o.Application == "" {
		return &OptionError{Option: "application", Reason: "is required"}
	}
	if o.ChipName == "" {
		return &OptionError{Option: "chipname", Reason: "is required"}
	}
	if o.Baudrate < 0 {
		return &OptionError{Option: "baudrate", Reason: "must be positive"}
	}
	if o.BuildOTA && o.Port != "" {
		return &OptionError{Reason: "do not generate OTA image with firmware programming"}
	}
	if o.Key != "" && o.MFD == "" {
		return &OptionError{Option: "key", Reason: "requires --mfd"}
	}
	if o.OTAOutput != "" {
		// The output folder is emptied, so it must not hold any input.
		for _, p := range []string{o.WorkDir(), o.Application, o.MFD, o.PrivateKey, o.Config} {
			if p != "" && contains(o.OTAOutput, p) {
				return &OptionError{Option: "ota-output", Reason: fmt.Sprintf("must not contain %s", p)}
			}
		}
	}
	if o.BuildOTA {
		if err := o.OTA.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// WorkDir is the directory the vendor tools run in.
func (o *Options) WorkDir() string {
	return filepath.Dir(o.Application)
}

// BaudrateOrDefault returns Baudrate, or DefaultBaudrate when unset.
func (o *Options) BaudrateOrDefault() int {
	if o.Baudrate > 0 {
		return o.Baudrate
	}
	return DefaultBaudrate
}

// contains reports whether path is dir or lies below it.
func contains(dir, path string) bool {
	rel, err := filepath.Rel(filepath.Clean(dir), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
