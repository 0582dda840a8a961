//go:build windows

package toolchain

import "os/exec"

// setProcessGroup keeps the default cancellation, which kills the tool
// process; WaitDelay bounds waiting for any children.
func setProcessGroup(cmd *exec.Cmd) {}

func killProcessGroup(cmd *exec.Cmd) {}
