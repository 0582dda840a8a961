// Package toolchain locates and runs the Bouffalo Lab vendor executables.
//
// Two toolchain families exist:
//
//   - iot_sdk: bflb_iot_tool, a single binary that signs and programs
//     BL602 / BL702 / BL702L images.
//   - bouffalo_sdk: bflb_fw_post_proc, which packages and signs firmware,
//     and BLFlashCommand, which programs it (BL616).
//
// The chips and per-OS tool paths are described by an embedded YAML catalog:
//
//	catalog, err := toolchain.LoadCatalog()
//	chip, err := catalog.Chip("bl616")
//	tools, err := catalog.ResolveTools(chip.SDK, matterRoot, runtime.GOOS)
//
// Tools are run through an Executor, which relays their output line by line
// to the logger, enforces a timeout and turns failures into typed errors:
//
//	executor := toolchain.NewExecutor(toolchain.DefaultConfig(), logger)
//	result, err := executor.Run(ctx, toolchain.Invocation{
//	    Path: tools.FlashTool,
//	    Args: []string{"--chipname", "bl616", "--port", "/dev/ttyUSB0"},
//	    Dir:  workDir,
//	})
//
// # Errors
//
//   - ToolExecutionError: the tool exited non-zero or could not start
//   - TimeoutError: the run exceeded Config.Timeout
//   - PrerequisiteError: the SDK root or a tool is missing
//   - UnsupportedPlatformError: host OS or CPU the vendor ships no tools for
//   - ChipUnsupportedError: chip name not in the catalog
package toolchain
