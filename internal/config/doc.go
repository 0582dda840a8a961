// Package config manages user defaults for bflb-flash.
//
// Settings live in a YAML file so that SDK locations, the serial port and
// per-chip choices do not have to be repeated on every invocation. Command
// line flags always take precedence over the file, and the file takes
// precedence over environment fallbacks such as BOUFFALOLAB_SDK_ROOT.
//
// # Configuration File Location
//
//   - Linux: $XDG_CONFIG_HOME/bflb-flash/config.yaml or $HOME/.config/bflb-flash/config.yaml
//   - macOS: $HOME/.config/bflb-flash/config.yaml
//   - Windows: %LOCALAPPDATA%\bflb-flash\config.yaml
//
// # Example
//
//	version: 1
//	sdk_root: /opt/bouffalolab_sdk
//	matter_root: /home/dev/connectedhomeip
//	port: /dev/ttyUSB0
//	baudrate: 2000000
//	timeout: 10m
//	chips:
//	  bl602:
//	    xtal: 40M
//
// # Thread Safety
//
// The global settings are loaded once via sync.Once. Writes go through a
// temporary file and a rename, guarded by a mutex.
package config
