// Package ota builds Matter OTA images from Bouffalo Lab firmware.
//
// The vendor post-processing tools leave one or more ".ota" images in the
// firmware directory. MoveImages collects them under ota_images/, and a
// Builder wraps each one into a Matter OTA file by running the Matter
// repository's ota_image_tool.py:
//
//	header := ota.Header{VendorID: &vid, ProductID: &pid, Version: &ver, VersionStr: "1.0"}
//	builder := ota.NewBuilder(runner, "python3", matterRoot)
//	images, err := ota.FindImages(workDir)
//	for _, img := range images {
//	    out, err := builder.Build(ctx, img, header)
//	}
//
// Header fields are validated here with the same rules the Matter tool
// applies so that mistakes are reported before any tool runs.
package ota
