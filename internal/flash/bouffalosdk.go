package flash

import (
	"path/filepath"
	"strconv"
)

// BoardConfigDir returns the board configuration directory bflb_fw_post_proc reads.
func BoardConfigDir(workDir string) string {
	return filepath.Join(workDir, "config")
}

// FwProcArgs builds the bflb_fw_post_proc command line.
func FwProcArgs(opts *Options, firmware string) []string {
	args := []string{
		"--chipname", opts.ChipName,
		"--brdcfgdir", BoardConfigDir(opts.WorkDir()),
		"--imgfile", firmware,
	}
	if opts.PrivateKey != "" {
		args = append(args, "--privatekey", opts.PrivateKey)
	}
	if opts.Key != "" {
		args = append(args, "--edata", EData(opts.Key))
	}
	return args
}

// ProgramsEfuse reports whether BLFlashCommand must write efuse data:
// firmware is signed, or an MFD key comes with a non-empty IV.
func ProgramsEfuse(opts *Options, iv []byte) bool {
	return opts.PrivateKey != "" || (opts.Key != "" && len(iv) > 0)
}

// FlashCommandArgs builds the BLFlashCommand command line using config.
func FlashCommandArgs(opts *Options, config string, iv []byte) []string {
	args := []string{
		"--chipname", opts.ChipName,
		"--baudrate", strconv.Itoa(opts.BaudrateOrDefault()),
		"--config", config,
	}
	if ProgramsEfuse(opts, iv) {
		args = append(args, "--efuse", EfuseDataPath(opts.WorkDir()))
	}
	return append(args, "--port", opts.Port)
}
