package flash

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/muurk/bflb-flash/internal/ota"
)

func u32(v uint32) *uint32 { return &v }

func TestOptions_Normalize(t *testing.T) {
	cwd := filepath.FromSlash("/work")
	abs := filepath.Join(cwd, "already", "abs.bin")

	opts := Options{
		Application: "out/app.elf",
		MFD:         "mfd.bin",
		Config:      abs,
		Boot2:       "boot2_isp_debug.bin",
	}
	opts.Normalize(cwd)

	if want := filepath.Join(cwd, "out", "app.elf"); opts.Application != want {
		t.Errorf("Application = %q, want %q", opts.Application, want)
	}
	if want := filepath.Join(cwd, "mfd.bin"); opts.MFD != want {
		t.Errorf("MFD = %q, want %q", opts.MFD, want)
	}
	if opts.Config != abs {
		t.Errorf("Config = %q, want unchanged %q", opts.Config, abs)
	}
	if opts.Boot2 != "boot2_isp_debug.bin" {
		t.Errorf("Boot2 = %q, bare names must stay unchanged", opts.Boot2)
	}
	if opts.PartitionTable != "" {
		t.Errorf("PartitionTable = %q, empty paths must stay empty", opts.PartitionTable)
	}

	opts.Boot2 = filepath.Join("imgs", "boot2.bin")
	opts.Normalize(cwd)
	if want := filepath.Join(cwd, "imgs", "boot2.bin"); opts.Boot2 != want {
		t.Errorf("Boot2 = %q, want %q", opts.Boot2, want)
	}
}

func TestOptions_Validate(t *testing.T) {
	base := func() Options {
		return Options{Application: "/work/app.bin", ChipName: "bl616"}
	}

	tests := []struct {
		name       string
		mutate     func(o *Options)
		wantOption string
		wantErr    bool
	}{
		{"valid", func(o *Options) {}, "", false},
		{"missing application", func(o *Options) { o.Application = "" }, "application", true},
		{"missing chip", func(o *Options) { o.ChipName = "" }, "chipname", true},
		{"negative baudrate", func(o *Options) { o.Baudrate = -1 }, "baudrate", true},
		{"ota with port", func(o *Options) {
			o.BuildOTA = true
			o.Port = "/dev/ttyUSB0"
		}, "", true},
		{"key without mfd", func(o *Options) { o.Key = "00112233" }, "key", true},
		{"key with mfd", func(o *Options) {
			o.Key = "00112233"
			o.MFD = "/work/mfd.bin"
		}, "", false},
		{"ota output is the work dir", func(o *Options) { o.OTAOutput = "/work" }, "ota-output", true},
		{"ota output is a parent of the work dir", func(o *Options) { o.OTAOutput = "/" }, "ota-output", true},
		{"ota output holds the mfd", func(o *Options) {
			o.MFD = "/factory/mfd.bin"
			o.OTAOutput = "/factory"
		}, "ota-output", true},
		{"ota output holds the signing key", func(o *Options) {
			o.PrivateKey = "/keys/sk.pem"
			o.OTAOutput = "/keys/"
		}, "ota-output", true},
		{"ota output below the work dir", func(o *Options) { o.OTAOutput = "/work/ota_out" }, "", false},
		{"ota output next to the work dir", func(o *Options) { o.OTAOutput = "/workspace" }, "", false},
		{"ota with valid header", func(o *Options) {
			o.BuildOTA = true
			o.OTA = ota.Header{VendorID: u32(1), ProductID: u32(2), Version: u32(3), VersionStr: "3"}
		}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := base()
			tt.mutate(&opts)
			err := opts.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr {
				return
			}
			var optErr *OptionError
			if !errors.As(err, &optErr) {
				t.Fatalf("Validate() error = %T, want *OptionError", err)
			}
			if optErr.Option != tt.wantOption {
				t.Errorf("Option = %q, want %q", optErr.Option, tt.wantOption)
			}
		})
	}
}

func TestOptions_ValidateOTAHeader(t *testing.T) {
	opts := Options{Application: "/work/app.bin", ChipName: "bl602", BuildOTA: true}
	var headerErr *ota.HeaderError
	if err := opts.Validate(); !errors.As(err, &headerErr) {
		t.Errorf("Validate() error = %v, want *ota.HeaderError", err)
	}
}

func TestOptions_WorkDirAndBaudrate(t *testing.T) {
	opts := Options{Application: filepath.Join("/work", "build", "app.elf")}
	if got, want := opts.WorkDir(), filepath.Join("/work", "build"); got != want {
		t.Errorf("WorkDir() = %q, want %q", got, want)
	}
	if opts.BaudrateOrDefault() != DefaultBaudrate {
		t.Errorf("BaudrateOrDefault() = %d", opts.BaudrateOrDefault())
	}
	opts.Baudrate = 115200
	if opts.BaudrateOrDefault() != 115200 {
		t.Errorf("BaudrateOrDefault() = %d", opts.BaudrateOrDefault())
	}
}

func TestErrors_Messages(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&OptionError{Option: "key", Reason: "requires --mfd"}, "invalid option --key: requires --mfd"},
		{&OptionError{Reason: "conflict"}, "invalid options: conflict"},
		{&DiscoveryError{What: "boot2 image", Dir: "/imgs"}, "no boot2 image found in /imgs"},
		{&DiscoveryError{What: "partition*.toml", Dir: "/cfg", Found: 2}, "found 2 partition*.toml files in /cfg, expected exactly one"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}
