package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/bflb-flash/internal/config"
	"github.com/muurk/bflb-flash/internal/logging"
	"github.com/muurk/bflb-flash/internal/mfd"
	"github.com/muurk/bflb-flash/internal/serialport"
	"github.com/muurk/bflb-flash/internal/toolchain"
	"github.com/muurk/bflb-flash/internal/ui"
)

// Command flags
var (
	mfdKey       string
	setupChip    string
	setupSDKRoot string
	setupMatter  string
)

func init() {
	mfdCmd.AddCommand(mfdIVCmd)
	mfdCmd.AddCommand(mfdInspectCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configSetCmd)

	rootCmd.AddCommand(mfdCmd)
	rootCmd.AddCommand(verifySetupCmd)
	rootCmd.AddCommand(portsCmd)
	rootCmd.AddCommand(chipsCmd)
	rootCmd.AddCommand(configCmd)
}

var mfdCmd = &cobra.Command{
	Use:   "mfd",
	Short: "Inspect Matter factory data images",
}

// mfdIVCmd implements the 'mfd iv' command
var mfdIVCmd = &cobra.Command{
	Use:   "iv FILE",
	Short: "Print the AES IV stored in factory data",
	Long: `Read the AES initialization vector from a Matter factory data image.

Both checksums are verified first. An image without a secured section, or
without an IV record, has no IV. With --key a missing IV is an error, since
the device could not decrypt the secured data.`,
	Example: `  bflb-flash mfd iv out/mfd.bin
  bflb-flash mfd iv out/mfd.bin --key 12345678901234567890123456789012`,
	Args: cobra.ExactArgs(1),
	RunE: runMFDIV,
}

func init() {
	mfdIVCmd.Flags().StringVar(&mfdKey, "key", "", "Security engine key; makes a missing IV an error")
}

func runMFDIV(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read factory data: %w", err)
	}

	iv, err := mfd.ExtractIV(data, mfdKey != "")
	if err != nil {
		ui.PrintFailure("Reading IV failed", err, troubleshoot(err))
		return err
	}
	if iv == nil {
		fmt.Println("no IV")
		return nil
	}
	fmt.Println(mfd.IVHex(iv))
	return nil
}

// mfdInspectCmd implements the 'mfd inspect' command
var mfdInspectCmd = &cobra.Command{
	Use:   "inspect FILE",
	Short: "Show the sections and records of factory data",
	Args:  cobra.ExactArgs(1),
	RunE:  runMFDInspect,
}

func runMFDInspect(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read factory data: %w", err)
	}

	blob, err := mfd.Parse(data)
	if err != nil {
		ui.PrintFailure("Factory data invalid", err, []string{
			"The image may be truncated or not a factory data partition",
			"Regenerate it with the Matter factory data tools",
		})
		return err
	}

	p := ui.NewPrinter(nil)
	if !blob.HasSecured() {
		p.PrintWarning("No secured section", map[string]string{
			"File": filepath.Base(args[0]),
			"Size": fmt.Sprintf("%d bytes", len(data)),
		})
		return nil
	}

	logging.LogRawBytes("secured", blob.Secured)
	logging.LogRawBytes("raw", blob.Raw)

	p.PrintSuccess("Factory data", map[string]string{
		"File":         filepath.Base(args[0]),
		"Secured":      fmt.Sprintf("%d bytes, crc 0x%08x", len(blob.Secured), blob.SecuredCRC),
		"Raw":          fmt.Sprintf("%d bytes, crc 0x%08x", len(blob.Raw), blob.RawCRC),
		"Record count": strconv.Itoa(len(blob.Records)),
	})
	p.Newline()

	rows := [][]string{{"TYPE", "LENGTH", "OFFSET", "VALUE"}}
	for _, r := range blob.Records {
		value := ""
		if r.Type == mfd.RecordTypeIV {
			value = mfd.IVHex(r.Value)
		}
		rows = append(rows, []string{
			fmt.Sprintf("0x%04x", r.Type),
			strconv.Itoa(len(r.Value)),
			strconv.Itoa(r.Offset),
			value,
		})
	}
	p.PrintTable(rows)
	return nil
}

// verifySetupCmd implements the 'verify-setup' command
var verifySetupCmd = &cobra.Command{
	Use:   "verify-setup",
	Short: "Check the vendor toolchain for a chip",
	Long: `Check that this host can run the vendor tools for a chip and that
every tool executable exists.

bl616 uses the bouffalo sdk inside the Matter checkout (--matter-root);
the other chips use the IoT SDK (--sdk-root or $BOUFFALOLAB_SDK_ROOT).`,
	Example: `  bflb-flash verify-setup --chipname bl616
  bflb-flash verify-setup --chipname bl702 --sdk-root ~/bl_iot_sdk`,
	RunE: runVerifySetup,
}

func init() {
	verifySetupCmd.Flags().StringVar(&setupChip, "chipname", "", "Chip to check")
	verifySetupCmd.Flags().StringVar(&setupSDKRoot, "sdk-root", "", "IoT SDK root")
	verifySetupCmd.Flags().StringVar(&setupMatter, "matter-root", "", "Matter checkout root")
	_ = verifySetupCmd.MarkFlagRequired("chipname")
}

func runVerifySetup(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	settings, err := config.Load()
	if err != nil {
		return err
	}
	catalog, err := toolchain.LoadCatalog()
	if err != nil {
		return err
	}
	chip, err := catalog.Chip(setupChip)
	if err != nil {
		ui.PrintFailure("Setup check failed", err, troubleshoot(err))
		return err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}
	root := firstNonEmpty(setupSDKRoot, settings.ResolveSDKRoot())
	if chip.SDK == toolchain.BouffaloSDK {
		root = firstNonEmpty(setupMatter, settings.ResolveMatterRoot(cwd))
	}

	p := ui.NewPrinter(nil)
	p.PrintHeader("Setup check", "bflb-flash verify-setup", map[string]string{
		"Chip": chip.Name,
		"SDK":  string(chip.SDK),
		"Root": root,
	})

	host := toolchain.CurrentHost()
	tools, err := catalog.ResolveTools(chip.SDK, root, host.GOOS)
	if err != nil {
		p.PrintFailure("Setup check failed", err, troubleshoot(err))
		return err
	}

	result := toolchain.ValidatePrerequisites(host, tools)
	p.Println(toolchain.FormatPrerequisiteReport(result))
	if !result.AllAvailable {
		logging.Warn("Prerequisites missing", zap.String("chip", chip.Name), zap.String("root", root))
		return errors.New("prerequisites missing")
	}
	return nil
}

// portsCmd implements the 'ports' command
var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List serial ports",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		ports, err := serialport.List()
		if err != nil {
			return err
		}
		if len(ports) == 0 {
			fmt.Println("No serial ports found.")
			fmt.Println("\nTroubleshooting:")
			fmt.Println("  - Check the USB cable carries data")
			fmt.Println("  - Check the USB serial driver is installed (CH340, CP210x)")
			return nil
		}

		rows := [][]string{{"PORT", "DETAILS"}}
		for _, port := range ports {
			rows = append(rows, []string{port.Name, port.Description()})
		}
		ui.NewPrinter(nil).PrintTable(rows)
		return nil
	},
}

// chipsCmd implements the 'chips' command
var chipsCmd = &cobra.Command{
	Use:   "chips",
	Short: "List supported chips",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		catalog, err := toolchain.LoadCatalog()
		if err != nil {
			return err
		}

		rows := [][]string{{"CHIP", "SDK", "BOOT2", "DESCRIPTION"}}
		for _, name := range catalog.ChipNames() {
			chip, _ := catalog.Chip(name)
			boot2 := "optional"
			if chip.DefaultBoot2 {
				boot2 = "default"
			}
			rows = append(rows, []string{chip.Name, string(chip.SDK), boot2, chip.Description})
		}
		ui.NewPrinter(nil).PrintTable(rows)
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change user defaults",
	Long: `User defaults live in a YAML file in the OS config directory.
Command-line flags always take precedence.

Keys: ` + strings.Join(config.Keys(), ", "),
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		settings, err := config.Load()
		if err != nil {
			return err
		}
		path, err := config.GetConfigPath()
		if err != nil {
			return err
		}

		p := ui.NewPrinter(nil)
		p.PrintHeader("Settings", path, nil)
		describe := settings.Describe()
		rows := [][]string{{"KEY", "VALUE"}}
		for _, key := range sortedKeys(describe) {
			rows = append(rows, []string{key, describe[key]})
		}
		p.PrintTable(rows)
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.GetConfigPath()
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:     "set KEY VALUE",
	Short:   "Set a default",
	Example: "  bflb-flash config set sdk_root ~/bl_iot_sdk\n  bflb-flash config set chips.bl702.xtal 32M",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		settings, err := config.Load()
		if err != nil {
			return err
		}
		if err := settings.Set(args[0], args[1]); err != nil {
			return err
		}
		if err := settings.Save(); err != nil {
			return err
		}
		logging.Info("Setting updated", zap.String("key", args[0]))
		fmt.Printf("%s = %s\n", args[0], args[1])
		return nil
	},
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
