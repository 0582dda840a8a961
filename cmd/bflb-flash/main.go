// Bflb-flash builds and programs firmware for Bouffalo Lab Matter devices.
//
// It drives the vendor toolchains rather than speaking the UART protocol
// itself:
//
//   - bl602, bl702 and bl702l through bflb_iot_tool from the IoT SDK
//   - bl616 through bflb_fw_post_proc and BLFlashCommand from the bouffalo sdk
//
// Besides programming it post-processes and signs firmware, reads the AES
// IV out of Matter factory data, and wraps OTA images in the Matter OTA
// container with ota_image_tool.py.
//
// Prerequisites:
//
//   - an x86_64 host
//   - BOUFFALOLAB_SDK_ROOT pointing at the IoT SDK, or a Matter checkout
//     carrying third_party/bouffalolab/bouffalo_sdk
//
// See 'bflb-flash --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/bflb-flash/internal/logging"
	"github.com/muurk/bflb-flash/internal/version"
)

func main() {
	err := rootCmd.Execute()
	logging.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "bflb-flash",
	Short: "Bouffalo Lab firmware flashing utility",
	Long: `Build, sign and program firmware for Bouffalo Lab Matter devices.

The vendor tools do the actual work:
  - bl602, bl702, bl702l: bflb_iot_tool ($BOUFFALOLAB_SDK_ROOT)
  - bl616: bflb_fw_post_proc and BLFlashCommand (bouffalo_sdk in the Matter tree)

Without --port the firmware is only processed, which is how OTA images are
produced. Use 'bflb-flash verify-setup --chipname <chip>' to check the tools.`,
	Version: version.Version,
	Example: `  # Program a bl616 board
  bflb-flash flash --chipname bl616 --application out/chip-bl616-lighting.bin --port /dev/ttyACM0

  # Program with factory data, letting the tool pick the only connected port
  bflb-flash flash --chipname bl616 --application out/app.bin --mfd mfd.bin --key <key> --port auto

  # Build Matter OTA images
  bflb-flash flash --chipname bl702 --application out/app.bin --build-ota \
      --vendor-id 0xfff1 --product-id 0x8005 --version 2 --version-str 2.0

  # Print the IV stored in factory data
  bflb-flash mfd iv mfd.bin`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Silent unless --log-level or BFLB_LOG_LEVEL is set
		return logging.Initialize(logLevel)
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); default from "+logging.LogLevelEnvVar)

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("bflb-flash %s (commit: %s)\n", version.Version, version.Commit)
	},
}
