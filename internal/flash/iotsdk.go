package flash

import (
	"fmt"
	"strconv"

	"github.com/muurk/bflb-flash/internal/toolchain"
)

// IoTSDKArgs builds the bflb_iot_tool command line for firmware.
//
// Configuration options are forwarded as --key=value in a fixed order.
// boot2, mfd, key and the OTA header are handled here or elsewhere and
// never forwarded.
func IoTSDKArgs(opts *Options, firmware string, tools *toolchain.Tools, chip *toolchain.Chip) ([]string, error) {
	var args []string
	add := func(key, value string) {
		if value != "" {
			args = append(args, fmt.Sprintf("--%s=%s", key, value))
		}
	}

	add("chipname", chip.Name)
	add("pt", opts.PartitionTable)
	add("dts", opts.DeviceTree)
	add("xtal", opts.Xtal)
	add("port", opts.Port)
	if opts.Baudrate > 0 {
		add("baudrate", strconv.Itoa(opts.Baudrate))
	}
	add("sk", opts.PrivateKey)
	add("config", opts.Config)
	add("firmware", firmware)
	if opts.BuildOTA {
		args = append(args, "--build")
	}

	if opts.DeviceTree == "" && opts.Xtal != "" {
		dts, err := FindDeviceTree(tools.ChipDir(chip.Name, "device_tree"), chip, opts.Xtal)
		if err != nil {
			return nil, err
		}
		args = append(args, "--dts", dts)
	}

	builtin := tools.ChipDir(chip.Name, "builtin_imgs")
	switch {
	case opts.Boot2 != "":
		boot2, err := FindBootImage(builtin, opts.Boot2)
		if err != nil {
			return nil, err
		}
		args = append(args, "--boot2", boot2)
	default:
		if opts.Erase {
			args = append(args, "--erase")
		}
		if chip.DefaultBoot2 {
			boot2, err := FindBootImage(builtin, "")
			if err != nil {
				return nil, err
			}
			args = append(args, "--boot2", boot2)
		}
	}

	return args, nil
}
