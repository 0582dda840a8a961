// Package flash prepares firmware for Bouffalo Lab chips and drives the
// vendor tools that program it.
//
// A Flasher turns a set of Options into a sequence of steps:
//
//  1. check the host, the options and the vendor tools
//  2. stage the application as <name>.bin next to the input
//  3. run the toolchain for the chip:
//     - iot_sdk chips (bl602, bl702, bl702l): one bflb_iot_tool run with
//     forwarded options, a device tree chosen by crystal and a boot2 image
//     - bouffalo_sdk chips (bl616): bflb_fw_post_proc, then BLFlashCommand
//     with a generated flash_prog_cfg.ini when a port is given
//  4. optionally wrap the vendor OTA images into Matter OTA images
//  5. optionally prune an OTA output folder
//
// Manufacturing data (MFD) is only inspected to recover the AES IV that
// decides whether efuse data is programmed; see package mfd.
//
//	flasher := flash.NewFlasher(opts, env, catalog, executor, logger)
//	flasher.OnStep(func(s flash.Step) { ... })
//	report, err := flasher.Run(ctx)
//
// Files the vendor tools need are located by naming convention with
// FindFiles, FindBootImage and FindDeviceTree. A failed lookup is a
// *DiscoveryError; conflicting or missing options are an *OptionError.
package flash
