package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/bflb-flash/internal/config"
	"github.com/muurk/bflb-flash/internal/flash"
	"github.com/muurk/bflb-flash/internal/logging"
	"github.com/muurk/bflb-flash/internal/mfd"
	"github.com/muurk/bflb-flash/internal/ota"
	"github.com/muurk/bflb-flash/internal/serialport"
	"github.com/muurk/bflb-flash/internal/toolchain"
	"github.com/muurk/bflb-flash/internal/ui"
)

// Flash command flags
var (
	flashOpts flash.Options

	otaVendorID   string
	otaProductID  string
	otaVersion    string
	otaMinVersion string
	otaMaxVersion string

	sdkRoot     string
	matterRoot  string
	toolTimeout string
	verbose     bool
	assumeYes   bool
)

var flashCmd = &cobra.Command{
	Use:   "flash",
	Short: "Process firmware and program it to a device",
	Long: `Process an application image with the vendor toolchain and, when a
serial port is given, program it to the device.

This command will:
  1. Check the host, the options and the vendor tools
  2. Copy the application to <name>.bin next to it (.hex files are flattened)
  3. bl616: read the factory data IV, post-process and sign the firmware,
     then program firmware, partition table, boot2 and factory data
     other chips: run bflb_iot_tool with the translated options
  4. Move generated *.ota files to ota_images/
  5. With --build-ota, wrap every OTA image in a Matter OTA container

Programming a bl616 with --sk, or with --mfd and --key, writes efuse data.
Efuse bits are one-time programmable; you will be asked to confirm unless
--yes is given.`,
	Example: `  # Process only (no port): produces ota_images/
  bflb-flash flash --chipname bl616 --application out/app.bin

  # Program, picking the port from a list
  bflb-flash flash --chipname bl616 --application out/app.bin --port select

  # Program a bl702 with a 32M crystal and erase the flash first
  bflb-flash flash --chipname bl702 --application out/app.bin --xtal 32M --erase --port /dev/ttyUSB0

  # Matter OTA images with a minimum applicable version
  bflb-flash flash --chipname bl616 --application out/app.bin --build-ota \
      --vendor-id 0xfff1 --product-id 0x8005 --version 3 --version-str 3.0 --min-version 1`,
	Args: cobra.NoArgs,
	RunE: runFlash,
}

func init() {
	f := flashCmd.Flags()
	f.StringVar(&flashOpts.Application, "application", "", "Application image to process (.bin, .elf output or .hex)")
	f.StringVar(&flashOpts.ChipName, "chipname", "", "Target chip (bl602, bl702, bl702l, bl616)")
	f.StringVar(&flashOpts.PartitionTable, "pt", "", "Partition table (iot_sdk)")
	f.StringVar(&flashOpts.DeviceTree, "dts", "", "Device tree (iot_sdk)")
	f.StringVar(&flashOpts.Xtal, "xtal", "", "Crystal frequency, used to pick a device tree (e.g. 32M)")
	f.StringVar(&flashOpts.Port, "port", "", "Serial port; 'auto' for the configured or only connected port, 'select' to choose, empty to only process")
	f.IntVar(&flashOpts.Baudrate, "baudrate", config.DefaultBaudrate, "UART baudrate")
	f.StringVar(&flashOpts.PrivateKey, "sk", "", "Private key to sign firmware and OTA images")
	f.StringVar(&flashOpts.MFD, "mfd", "", "Matter factory data partition image")
	f.StringVar(&flashOpts.Key, "key", "", "Security engine key to decrypt factory data on the device")
	f.StringVar(&flashOpts.Boot2, "boot2", "", "Boot2 image name or path")
	f.StringVar(&flashOpts.Config, "config", "", "Programming config for BLFlashCommand (generated when empty)")
	f.BoolVar(&flashOpts.BuildOTA, "build-ota", false, "Build Matter OTA images (not allowed with --port)")
	f.BoolVar(&flashOpts.Erase, "erase", false, "Erase the whole flash before programming")
	f.BoolVar(&flashOpts.Reset, "reset", false, "Reset the device after programming")
	f.BoolVar(&flashOpts.VerifyApplication, "verify-application", false, "Verify the application after programming")
	f.StringVar(&flashOpts.OTAOutput, "ota-output", "", "OTA output folder to prune after the run")

	f.StringVar(&otaVendorID, "vendor-id", "", "OTA vendor ID (decimal, 0x, 0o or 0b)")
	f.StringVar(&otaProductID, "product-id", "", "OTA product ID")
	f.StringVar(&otaVersion, "version", "", "OTA software version")
	f.StringVar(&flashOpts.OTA.VersionStr, "version-str", "", "OTA software version string")
	f.StringVar(&flashOpts.OTA.DigestAlgorithm, "digest-algorithm", ota.DefaultDigestAlgorithm, "OTA digest algorithm")
	f.StringVar(&otaMinVersion, "min-version", "", "Minimum applicable software version")
	f.StringVar(&otaMaxVersion, "max-version", "", "Maximum applicable software version")
	f.StringVar(&flashOpts.OTA.ReleaseNotes, "release-notes", "", "Release notes URL")

	f.StringVar(&sdkRoot, "sdk-root", "", "IoT SDK root (default from config or $"+config.SDKRootEnvVar+")")
	f.StringVar(&matterRoot, "matter-root", "", "Matter checkout root (default from config or the working directory)")
	f.StringVar(&toolTimeout, "timeout", "", "Vendor tool timeout (e.g. 90s, 10m)")
	f.BoolVarP(&verbose, "verbose", "v", false, "Show vendor tool output")
	f.BoolVarP(&assumeYes, "yes", "y", false, "Do not ask before writing efuse data")

	rootCmd.AddCommand(flashCmd)
}

func runFlash(cmd *cobra.Command, args []string) error {
	// Suppress usage on execution errors (we're past argument parsing)
	cmd.SilenceUsage = true

	settings, err := config.Load()
	if err != nil {
		ui.PrintFailure("Flash failed", err, []string{
			"Fix or remove the config file: bflb-flash config path",
		})
		return err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	opts, err := flashOptions(cmd, settings)
	if err != nil {
		ui.PrintFailure("Invalid arguments", err, troubleshoot(err))
		return err
	}
	opts.Normalize(cwd)

	catalog, err := toolchain.LoadCatalog()
	if err != nil {
		return err
	}

	opts.Port, err = resolvePort(opts.Port)
	if err != nil {
		if errors.Is(err, ui.ErrPickerCancelled) {
			return nil
		}
		ui.PrintFailure("Serial port", err, troubleshoot(err))
		return err
	}

	if writesEfuse(opts, catalog) && !assumeYes {
		if !ui.IsInteractive() {
			err := &flash.OptionError{Option: "yes", Reason: "efuse data would be written; confirm with --yes when not running in a terminal"}
			ui.PrintFailure("Flash failed", err, nil)
			return err
		}
		if !ui.ConfirmEfuseWrite(os.Stdin, os.Stdout, opts.ChipName, opts.Port) {
			logging.Warn("Efuse write not confirmed", zap.String("port", opts.Port))
			return nil // User cancelled
		}
	}

	timeout := settings.ResolveTimeout()
	if toolTimeout != "" {
		timeout, err = time.ParseDuration(toolTimeout)
		if err != nil {
			return fmt.Errorf("invalid timeout value: %w", err)
		}
	}

	env := flash.Environment{
		SDKRoot:    firstNonEmpty(sdkRoot, settings.ResolveSDKRoot()),
		MatterRoot: firstNonEmpty(matterRoot, settings.ResolveMatterRoot(cwd)),
		Python:     settings.ResolvePython(),
		Host:       toolchain.CurrentHost(),
	}
	if env.SDKRoot != "" {
		env.SDKRoot, _ = filepath.Abs(env.SDKRoot)
	}
	env.MatterRoot, _ = filepath.Abs(env.MatterRoot)

	logger := logging.GetLogger()
	logger.Debug("Flash options",
		zap.String("chip", opts.ChipName),
		zap.String("application", opts.Application),
		zap.String("port", opts.Port),
		zap.String("sdk_root", env.SDKRoot),
		zap.String("matter_root", env.MatterRoot),
		zap.Duration("timeout", timeout))

	// The step list depends only on the options, so it is known before the
	// executor exists.
	steps := flash.NewFlasher(*opts, env, catalog, nil, nil).Plan()

	runner := ui.NewRunner(ui.RunnerConfig{
		Title:        flashTitle(opts),
		Command:      "bflb-flash flash",
		Params:       flashParams(opts),
		Steps:        steps,
		Verbose:      verbose,
		Troubleshoot: troubleshoot,
	})

	executor := toolchain.NewExecutor(toolchain.Config{
		Timeout: timeout,
		Output:  runner.ToolWriter(),
	}, logger)
	flasher := flash.NewFlasher(*opts, env, catalog, executor, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err = runner.Run(func(onStep ui.StepCallback) (map[string]string, []string, error) {
		flasher.OnStep(func(s flash.Step) {
			onStep(s.Number, s.Name, stepStatus(s.Status), s.Detail)
		})

		report, err := flasher.Run(ctx)
		if err != nil {
			return nil, nil, err
		}
		return reportDetails(report), report.Notes, nil
	})
	if err != nil {
		logging.Error("Flash failed", zap.String("chip", opts.ChipName), zap.Error(err))
		return fmt.Errorf("flash failed: %w", err)
	}
	logging.Info("Flash finished", zap.String("chip", opts.ChipName), zap.String("port", opts.Port))
	return nil
}

// flashOptions completes the flag values with parsed OTA numbers and
// configured defaults.
func flashOptions(cmd *cobra.Command, settings *config.Settings) (*flash.Options, error) {
	opts := flashOpts

	numbers := []struct {
		flag  string
		value string
		dst   **uint32
	}{
		{"vendor-id", otaVendorID, &opts.OTA.VendorID},
		{"product-id", otaProductID, &opts.OTA.ProductID},
		{"version", otaVersion, &opts.OTA.Version},
		{"min-version", otaMinVersion, &opts.OTA.MinVersion},
		{"max-version", otaMaxVersion, &opts.OTA.MaxVersion},
	}
	for _, n := range numbers {
		if n.value == "" {
			continue
		}
		v, err := ota.ParseNumber(n.value)
		if err != nil {
			return nil, &flash.OptionError{Option: n.flag, Reason: err.Error()}
		}
		*n.dst = &v
	}

	if !cmd.Flags().Changed("baudrate") {
		opts.Baudrate = settings.ResolveBaudrate()
	}
	if opts.Port == serialport.Auto && settings.Port != "" {
		opts.Port = settings.Port
	}

	chip := settings.Chip(opts.ChipName)
	if opts.Xtal == "" && opts.DeviceTree == "" {
		opts.Xtal = chip.Xtal
	}
	if opts.Boot2 == "" {
		opts.Boot2 = chip.Boot2
	}
	return &opts, nil
}

func resolvePort(port string) (string, error) {
	if port != serialport.Select {
		return serialport.Resolve(port, nil)
	}

	ports, err := serialport.List()
	if err != nil {
		return "", err
	}
	if len(ports) == 0 {
		return "", serialport.ErrNoPorts
	}
	choices := make([]ui.PortChoice, len(ports))
	for i, p := range ports {
		choices[i] = ui.PortChoice{Name: p.Name, Detail: p.Description()}
	}
	return ui.PickPort(os.Stdin, os.Stdout, choices)
}

// writesEfuse reports whether programming may write efuse data. The IV is
// not known yet, so a key with factory data counts.
func writesEfuse(opts *flash.Options, catalog *toolchain.Catalog) bool {
	if opts.Port == "" {
		return false
	}
	chip, err := catalog.Chip(opts.ChipName)
	if err != nil || chip.SDK != toolchain.BouffaloSDK {
		return false
	}
	return opts.PrivateKey != "" || (opts.Key != "" && opts.MFD != "")
}

func stepStatus(s flash.StepStatus) ui.StepStatus {
	switch s {
	case flash.StepStarted:
		return ui.StepRunning
	case flash.StepDone:
		return ui.StepComplete
	case flash.StepFailed:
		return ui.StepFailed
	default:
		return ui.StepPending
	}
}

func flashTitle(opts *flash.Options) string {
	if opts.Port != "" {
		return "Flash " + opts.ChipName
	}
	if opts.BuildOTA {
		return "Build OTA " + opts.ChipName
	}
	return "Process " + opts.ChipName
}

func flashParams(opts *flash.Options) map[string]string {
	params := map[string]string{
		"Chip":        opts.ChipName,
		"Application": opts.Application,
	}
	if opts.Port != "" {
		params["Port"] = fmt.Sprintf("%s @ %d", opts.Port, opts.BaudrateOrDefault())
	}
	if opts.MFD != "" {
		params["Factory data"] = opts.MFD
	}
	if opts.BuildOTA && opts.OTA.VersionStr != "" {
		params["OTA version"] = opts.OTA.VersionStr
	}
	return params
}

func reportDetails(r *flash.Report) map[string]string {
	details := map[string]string{
		"Chip":     fmt.Sprintf("%s (%s)", r.Chip, r.SDK),
		"Firmware": r.Firmware,
	}
	if r.IV != "" {
		details["AES IV"] = r.IV
	}
	if r.ProgConfig != "" {
		details["Config"] = r.ProgConfig
	}
	if r.Programmed {
		details["Device"] = "Programmed"
	}
	if len(r.OTAImages) > 0 {
		details["OTA images"] = baseNames(r.OTAImages)
	}
	if len(r.MatterImages) > 0 {
		details["Matter OTA"] = baseNames(r.MatterImages)
	}
	if len(r.Pruned) > 0 {
		details["Pruned"] = fmt.Sprintf("%d file(s)", len(r.Pruned))
	}
	return details
}

func baseNames(paths []string) string {
	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = filepath.Base(p)
	}
	return strings.Join(names, ", ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// troubleshoot returns hints for a flashing error.
func troubleshoot(err error) []string {
	var (
		optErr      *flash.OptionError
		discErr     *flash.DiscoveryError
		prereqErr   *toolchain.PrerequisiteError
		platformErr *toolchain.UnsupportedPlatformError
		chipErr     *toolchain.ChipUnsupportedError
		toolErr     *toolchain.ToolExecutionError
		timeoutErr  *toolchain.TimeoutError
		headerErr   *ota.HeaderError
	)

	switch {
	case errors.As(err, &optErr):
		return []string{"See the available options: bflb-flash flash --help"}
	case errors.As(err, &headerErr):
		return []string{
			"--vendor-id, --product-id, --version and --version-str are required with --build-ota",
			"--min-version and --max-version must be lower than --version",
		}
	case errors.As(err, &chipErr):
		return []string{"List supported chips: bflb-flash chips"}
	case errors.As(err, &platformErr):
		return []string{"The vendor tools are only built for x86_64 Linux, macOS and Windows"}
	case errors.As(err, &prereqErr):
		return []string{
			"Check the toolchain: bflb-flash verify-setup --chipname <chip>",
			"Set the IoT SDK root with --sdk-root or $" + config.SDKRootEnvVar,
			"Run from the Matter checkout or pass --matter-root",
		}
	case errors.As(err, &discErr):
		return []string{
			"Build the application first so its config/ and boot images exist",
			"Pass the file explicitly (--boot2, --dts, --config)",
		}
	case errors.Is(err, mfd.ErrMissingIV):
		return []string{
			"The factory data was generated without encryption",
			"Drop --key, or regenerate the factory data with an IV",
		}
	case errors.Is(err, mfd.ErrMalformed):
		return []string{"Inspect the file: bflb-flash mfd inspect <file>"}
	case errors.Is(err, serialport.ErrNoPorts):
		return []string{
			"Connect the board and put it in download mode",
			"List ports: bflb-flash ports",
		}
	case errors.As(err, &timeoutErr):
		return []string{
			"Check the board is in download mode",
			"Increase the timeout with --timeout",
		}
	case errors.As(err, &toolErr):
		return []string{
			"Run with --verbose to see the vendor tool output",
			"Check the serial port and that the board is in download mode",
			"Try a lower --baudrate",
		}
	case errors.Is(err, ota.ErrNoImages):
		return []string{"The firmware was processed without producing *.ota files; check the tool output with --verbose"}
	}
	return nil
}
