package flash

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/template"
)

// ProgConfigName is the generated BLFlashCommand config file name.
const ProgConfigName = "flash_prog_cfg.ini"

//go:embed templates/flash_prog_cfg.ini.tmpl
var progConfigTemplate string

var progConfigTmpl = template.Must(template.New("flash_prog_cfg").Funcs(template.FuncMap{
	"hex": func(v uint64) string { return fmt.Sprintf("0x%x", v) },
}).Parse(progConfigTemplate))

// ProgConfig describes the images BLFlashCommand programs.
type ProgConfig struct {
	WorkDir   string
	Firmware  string
	MFD       string
	Erase     bool
	Partition PartitionTable
}

// Boot2Glob is the boot2 image pattern inside the work dir.
func (c *ProgConfig) Boot2Glob() string {
	return filepath.Join(c.WorkDir, "boot2*.bin")
}

// PartitionGlob is the partition image pattern inside the work dir.
func (c *ProgConfig) PartitionGlob() string {
	return filepath.Join(c.WorkDir, "partition*.bin")
}

// Render writes the ini document.
func (c *ProgConfig) Render(w io.Writer) error {
	return progConfigTmpl.Execute(w, c)
}

// WriteFile renders the config to path.
func (c *ProgConfig) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Base(path), err)
	}
	if err := c.Render(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to render %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}
