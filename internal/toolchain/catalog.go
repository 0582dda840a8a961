package toolchain

import (
	_ "embed"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// SDKKind identifies a vendor toolchain family.
type SDKKind string

const (
	// IoTSDK is the legacy Bouffalo Lab IoT SDK driven by bflb_iot_tool.
	IoTSDK SDKKind = "iot_sdk"
	// BouffaloSDK is the newer SDK with separate post-processing and flashing tools.
	BouffaloSDK SDKKind = "bouffalo_sdk"
)

// SDK describes where a toolchain keeps its executables.
type SDK struct {
	// Kind is the toolchain identifier
	Kind SDKKind `yaml:"kind"`

	// Name is the human-readable toolchain name
	Name string `yaml:"name"`

	// RootEnv names the environment variable pointing at the SDK install, if any
	RootEnv string `yaml:"root_env,omitempty"`

	// ToolDir is the tool directory relative to the SDK root
	ToolDir string `yaml:"tool_dir"`

	// Tools maps GOOS to executable paths relative to ToolDir
	Tools map[string]ToolPaths `yaml:"tools"`
}

// ToolPaths holds the executables for one host OS.
type ToolPaths struct {
	FlashTool string `yaml:"flash_tool"`
	FwProc    string `yaml:"fw_proc,omitempty"`
}

// Chip is a supported target chip.
type Chip struct {
	// Name is the chip name passed to the vendor tools (e.g. "bl616")
	Name string `yaml:"name"`

	Description string `yaml:"description"`

	// SDK selects the toolchain that programs this chip
	SDK SDKKind `yaml:"sdk"`

	// DeviceTree is the board device tree file name; empty means it is
	// chosen by crystal frequency
	DeviceTree string `yaml:"device_tree,omitempty"`

	// DefaultBoot2 marks chips that need a boot2 image even if none was requested
	DefaultBoot2 bool `yaml:"default_boot2"`
}

// Tools are the resolved absolute executable paths for one SDK on one host.
type Tools struct {
	Kind SDKKind
	// Dir is the absolute tool directory; chip resources live under Dir/chips
	Dir       string
	FlashTool string
	FwProc    string
}

// Paths returns the executables keyed by role.
func (t *Tools) Paths() map[string]string {
	paths := map[string]string{"flash_tool": t.FlashTool}
	if t.FwProc != "" {
		paths["fw_proc"] = t.FwProc
	}
	return paths
}

// ChipDir returns a per-chip resource directory such as "device_tree" or "builtin_imgs".
func (t *Tools) ChipDir(chip, sub string) string {
	return filepath.Join(t.Dir, "chips", chip, sub)
}

// Catalog holds the known toolchains and chips.
type Catalog struct {
	SDKs  []*SDK  `yaml:"sdks"`
	Chips []*Chip `yaml:"chips"`

	sdkIndex  map[SDKKind]*SDK
	chipIndex map[string]*Chip
}

var (
	globalCatalog     *Catalog
	globalCatalogOnce sync.Once
	globalCatalogErr  error
)

// LoadCatalog loads the embedded toolchain catalog.
// This function is safe to call multiple times; the catalog is parsed only once.
func LoadCatalog() (*Catalog, error) {
	globalCatalogOnce.Do(func() {
		globalCatalog, globalCatalogErr = ParseCatalog(catalogYAML)
	})
	return globalCatalog, globalCatalogErr
}

// ParseCatalog parses and indexes a catalog document.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse toolchain catalog: %w", err)
	}

	c.sdkIndex = make(map[SDKKind]*SDK, len(c.SDKs))
	for _, sdk := range c.SDKs {
		c.sdkIndex[sdk.Kind] = sdk
	}

	c.chipIndex = make(map[string]*Chip, len(c.Chips))
	for _, chip := range c.Chips {
		if _, ok := c.sdkIndex[chip.SDK]; !ok {
			return nil, fmt.Errorf("chip %s references unknown sdk %q", chip.Name, chip.SDK)
		}
		c.chipIndex[chip.Name] = chip
	}

	return &c, nil
}

// Chip looks up a chip by name.
func (c *Catalog) Chip(name string) (*Chip, error) {
	chip, ok := c.chipIndex[name]
	if !ok {
		return nil, &ChipUnsupportedError{Chip: name, Available: c.ChipNames()}
	}
	return chip, nil
}

// SDK looks up a toolchain by kind.
func (c *Catalog) SDK(kind SDKKind) (*SDK, bool) {
	sdk, ok := c.sdkIndex[kind]
	return sdk, ok
}

// ChipNames returns all chip names, sorted.
func (c *Catalog) ChipNames() []string {
	names := make([]string, 0, len(c.chipIndex))
	for name := range c.chipIndex {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResolveTools returns absolute tool paths for kind below root on the given host OS.
// It does not check that the files exist; see ValidateTools.
func (c *Catalog) ResolveTools(kind SDKKind, root, goos string) (*Tools, error) {
	sdk, ok := c.sdkIndex[kind]
	if !ok {
		return nil, fmt.Errorf("unknown toolchain %q", kind)
	}
	if root == "" {
		details := "SDK root directory is not set"
		if sdk.RootEnv != "" {
			details += fmt.Sprintf("; export %s or pass --sdk-root", sdk.RootEnv)
		}
		return nil, &PrerequisiteError{Prerequisite: sdk.Name, Details: details}
	}

	paths, ok := sdk.Tools[goos]
	if !ok {
		return nil, &UnsupportedPlatformError{
			Platform: goos,
			Reason:   fmt.Sprintf("%s has no tools for this operating system", sdk.Name),
		}
	}

	dir := filepath.Join(root, filepath.FromSlash(sdk.ToolDir))
	tools := &Tools{
		Kind:      kind,
		Dir:       dir,
		FlashTool: filepath.Join(dir, filepath.FromSlash(paths.FlashTool)),
	}
	if paths.FwProc != "" {
		tools.FwProc = filepath.Join(dir, filepath.FromSlash(paths.FwProc))
	}
	return tools, nil
}
