// Package config loads lumen's optional lumen.toml project file, the
// runtime equivalent of the C-heritage interpreter's build-time GC and
// tracing toggles. It follows this codebase's manifest package almost
// exactly: same library, same "look for a TOML file, defaults if
// absent" shape, different schema.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// GC holds the garbage collector's runtime toggles.
type GC struct {
	Stress             bool `toml:"stress"`
	Log                bool `toml:"log"`
	InitialThresholdMB int  `toml:"initial-threshold-mb"`
}

// VM holds the virtual machine's runtime toggles.
type VM struct {
	Trace     bool `toml:"trace"`
	FramesMax int  `toml:"frames-max"`
}

// Config is the full contents of a lumen.toml file.
type Config struct {
	GC GC `toml:"gc"`
	VM VM `toml:"vm"`
}

// Default returns the configuration lumen runs with when no lumen.toml
// is present: no stress GC, no GC logging, no execution tracing, a
// 1 MiB initial GC threshold and 256 call frames.
func Default() Config {
	return Config{
		GC: GC{InitialThresholdMB: 1},
		VM: VM{FramesMax: 256},
	}
}

// Load looks for lumen.toml in dir and merges it over Default(). A
// missing file is not an error; a malformed one is.
func Load(dir string) (Config, error) {
	cfg := Default()
	path := filepath.Join(dir, "lumen.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if cfg.GC.InitialThresholdMB == 0 {
		cfg.GC.InitialThresholdMB = 1
	}
	if cfg.VM.FramesMax == 0 {
		cfg.VM.FramesMax = 256
	}
	return cfg, nil
}
