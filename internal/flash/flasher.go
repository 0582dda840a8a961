package flash

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/muurk/bflb-flash/internal/mfd"
	"github.com/muurk/bflb-flash/internal/ota"
	"github.com/muurk/bflb-flash/internal/toolchain"
)

// StepStatus is the state of a flashing step.
type StepStatus int

const (
	StepStarted StepStatus = iota
	StepDone
	StepFailed
)

// Step is a progress report for one step of a run.
type Step struct {
	Number int // 1-based
	Total  int
	Name   string
	Status StepStatus
	Detail string // short result, e.g. the image produced
	Err    error
}

// StepFunc receives step reports.
type StepFunc func(Step)

// Environment locates the vendor SDKs on the host.
type Environment struct {
	SDKRoot    string // iot_sdk install
	MatterRoot string // Matter checkout carrying bouffalo_sdk and ota_image_tool.py
	Python     string
	Host       toolchain.Host
}

// Report summarises a completed run.
type Report struct {
	Chip         string
	SDK          toolchain.SDKKind
	WorkDir      string
	Firmware     string
	IV           string // hex, empty when none
	ProgConfig   string
	Programmed   bool
	OTAImages    []string
	MatterImages []string
	Pruned       []string
	Notes        []string
}

// Flasher runs the vendor toolchain for one set of options.
type Flasher struct {
	opts    Options
	env     Environment
	catalog *toolchain.Catalog
	runner  toolchain.Runner
	logger  *zap.Logger
	onStep  StepFunc

	chip   *toolchain.Chip
	tools  *toolchain.Tools
	iv     []byte
	report *Report
}

type action struct {
	name string
	run  func(ctx context.Context) (string, error)
}

// NewFlasher creates a Flasher. opts should already be normalized.
func NewFlasher(opts Options, env Environment, catalog *toolchain.Catalog, runner toolchain.Runner, logger *zap.Logger) *Flasher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Flasher{
		opts:    opts,
		env:     env,
		catalog: catalog,
		runner:  runner,
		logger:  logger,
	}
}

// OnStep registers a progress callback.
func (f *Flasher) OnStep(fn StepFunc) {
	f.onStep = fn
}

// Plan returns the names of the steps Run will perform.
func (f *Flasher) Plan() []string {
	actions := f.actions()
	names := make([]string, len(actions))
	for i, a := range actions {
		names[i] = a.name
	}
	return names
}

// Run performs every step and returns what was produced.
// The first failing step aborts the run.
func (f *Flasher) Run(ctx context.Context) (*Report, error) {
	f.report = &Report{
		Chip:    f.opts.ChipName,
		WorkDir: f.opts.WorkDir(),
	}
	f.iv = nil

	actions := f.actions()
	for i, a := range actions {
		step := Step{Number: i + 1, Total: len(actions), Name: a.name, Status: StepStarted}
		f.emit(step)

		detail, err := a.run(ctx)
		if err != nil {
			step.Status, step.Err = StepFailed, err
			f.emit(step)
			return f.report, err
		}

		step.Status, step.Detail = StepDone, detail
		f.emit(step)
	}
	return f.report, nil
}

func (f *Flasher) emit(step Step) {
	if f.onStep != nil {
		f.onStep(step)
	}
}

func (f *Flasher) sdkKind() toolchain.SDKKind {
	if f.catalog != nil {
		if chip, err := f.catalog.Chip(f.opts.ChipName); err == nil {
			return chip.SDK
		}
	}
	return toolchain.IoTSDK
}

func (f *Flasher) actions() []action {
	actions := []action{
		{"Check host, options and tools", f.prepare},
		{"Stage application", f.stage},
	}

	if f.sdkKind() == toolchain.BouffaloSDK {
		if f.opts.MFD != "" {
			actions = append(actions, action{"Read manufacturing data IV", f.readIV})
		}
		actions = append(actions,
			action{"Post-process firmware", f.postProcess},
			action{"Collect OTA images", f.collectImages},
		)
		if f.opts.Port != "" {
			actions = append(actions, action{"Program device", f.program})
		}
	} else {
		name := "Process firmware"
		if f.opts.Port != "" {
			name = "Program device"
		}
		actions = append(actions,
			action{name, f.runIoTTool},
			action{"Collect OTA images", f.collectImages},
		)
	}

	if f.opts.BuildOTA {
		actions = append(actions, action{"Build Matter OTA images", f.buildOTA})
	}
	if f.opts.OTAOutput != "" {
		actions = append(actions, action{"Prune OTA output", f.prune})
	}
	return actions
}

func (f *Flasher) prepare(ctx context.Context) (string, error) {
	if err := toolchain.CheckHost(f.env.Host); err != nil {
		return "", err
	}
	if err := f.opts.Validate(); err != nil {
		return "", err
	}

	chip, err := f.catalog.Chip(f.opts.ChipName)
	if err != nil {
		return "", err
	}
	f.chip = chip
	f.report.SDK = chip.SDK

	root := f.env.SDKRoot
	if chip.SDK == toolchain.BouffaloSDK {
		root = f.env.MatterRoot
	}
	tools, err := f.catalog.ResolveTools(chip.SDK, root, f.env.Host.GOOS)
	if err != nil {
		return "", err
	}
	if err := toolchain.ValidateTools(tools); err != nil {
		return "", err
	}
	f.tools = tools

	if f.opts.Reset {
		f.note("Reset is triggered automatically after image flashed.")
	}
	if f.opts.VerifyApplication {
		f.note("Verification is done after image flashed.")
	}
	if chip.SDK == toolchain.IoTSDK && f.opts.MFD != "" {
		f.note("Manufacturing data is only programmed for bouffalo_sdk chips; --mfd ignored.")
	}

	return fmt.Sprintf("%s via %s", chip.Name, chip.SDK), nil
}

func (f *Flasher) note(msg string) {
	f.logger.Info(msg)
	f.report.Notes = append(f.report.Notes, msg)
}

func (f *Flasher) stage(ctx context.Context) (string, error) {
	firmware, err := StageApplication(f.opts.Application)
	if err != nil {
		return "", err
	}
	f.report.Firmware = firmware
	f.logger.Debug("Staged application", zap.String("firmware", firmware))

	if f.opts.OTAOutput != "" {
		if err := ota.ResetOutput(f.opts.OTAOutput); err != nil {
			return "", err
		}
	}
	return filepath.Base(firmware), nil
}

func (f *Flasher) readIV(ctx context.Context) (string, error) {
	data, err := os.ReadFile(f.opts.MFD)
	if err != nil {
		return "", fmt.Errorf("failed to read manufacturing data: %w", err)
	}

	iv, err := mfd.ExtractIV(data, f.opts.Key != "")
	if err != nil {
		return "", fmt.Errorf("%s: %w", filepath.Base(f.opts.MFD), err)
	}
	if len(iv) == 0 {
		f.logger.Info("Manufacturing data has no AES IV")
		return "no IV", nil
	}

	f.iv = iv
	f.report.IV = mfd.IVHex(iv)
	f.logger.Info("Manufacturing data AES IV", zap.String("iv", f.report.IV))
	return "IV " + f.report.IV, nil
}

func (f *Flasher) postProcess(ctx context.Context) (string, error) {
	workDir := f.opts.WorkDir()
	if err := ota.ResetImageDir(workDir); err != nil {
		return "", err
	}

	_, err := f.runner.Run(ctx, toolchain.Invocation{
		Path: f.tools.FwProc,
		Args: FwProcArgs(&f.opts, f.report.Firmware),
		Dir:  workDir,
	})
	if err != nil {
		return "", err
	}
	return filepath.Base(f.tools.FwProc), nil
}

func (f *Flasher) collectImages(ctx context.Context) (string, error) {
	images, err := ota.MoveImages(f.opts.WorkDir())
	if err != nil {
		return "", err
	}
	f.report.OTAImages = images
	return fmt.Sprintf("%d image(s)", len(images)), nil
}

func (f *Flasher) program(ctx context.Context) (string, error) {
	workDir := f.opts.WorkDir()

	config := f.opts.Config
	if config == "" {
		pt, err := LoadPartitionTable(BoardConfigDir(workDir))
		if err != nil {
			return "", err
		}
		cfg := &ProgConfig{
			WorkDir:   workDir,
			Firmware:  f.report.Firmware,
			MFD:       f.opts.MFD,
			Erase:     f.opts.Erase,
			Partition: *pt,
		}
		config = filepath.Join(workDir, ProgConfigName)
		if err := cfg.WriteFile(config); err != nil {
			return "", err
		}
		f.logger.Debug("Wrote programming config", zap.String("path", config))
	} else if f.opts.Erase {
		f.note("--erase has no effect with a custom --config; set erase in the config file.")
	}
	f.report.ProgConfig = config

	_, err := f.runner.Run(ctx, toolchain.Invocation{
		Path: f.tools.FlashTool,
		Args: FlashCommandArgs(&f.opts, config, f.iv),
		Dir:  workDir,
	})
	if err != nil {
		return "", err
	}
	f.report.Programmed = true
	return f.opts.Port, nil
}

func (f *Flasher) runIoTTool(ctx context.Context) (string, error) {
	workDir := f.opts.WorkDir()
	if err := ota.ResetImageDir(workDir); err != nil {
		return "", err
	}

	args, err := IoTSDKArgs(&f.opts, f.report.Firmware, f.tools, f.chip)
	if err != nil {
		return "", err
	}

	_, err = f.runner.Run(ctx, toolchain.Invocation{
		Path: f.tools.FlashTool,
		Args: args,
		Dir:  workDir,
	})
	if err != nil {
		return "", err
	}
	if f.opts.Port != "" {
		f.report.Programmed = true
		return f.opts.Port, nil
	}
	return filepath.Base(f.tools.FlashTool), nil
}

func (f *Flasher) buildOTA(ctx context.Context) (string, error) {
	builder := ota.NewBuilder(f.runner, f.env.Python, f.env.MatterRoot)
	outputs, err := builder.BuildAll(ctx, f.opts.WorkDir(), f.opts.OTA)
	f.report.MatterImages = outputs
	if err != nil {
		return "", err
	}
	for _, out := range outputs {
		f.logger.Info("Matter OTA image generated", zap.String("path", out))
	}
	return fmt.Sprintf("%d image(s)", len(outputs)), nil
}

func (f *Flasher) prune(ctx context.Context) (string, error) {
	removed, err := ota.Prune(f.opts.OTAOutput)
	if err != nil {
		return "", err
	}
	f.report.Pruned = removed
	return fmt.Sprintf("%d removed", len(removed)), nil
}
