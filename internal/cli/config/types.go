// Package config loads CLI configuration from file, environment, and
// flags.
package config

// Defaults applied before any config source is consulted.
const (
	DefaultStateFile = ".spmbatch/state.db"
	DefaultOutput    = "auto"
	DefaultSaveDir   = "."
	DefaultPalette   = "Gwyddion.net"
)

// Config holds the resolved CLI configuration.
type Config struct {
	// StatePath is the replay history database. Empty disables recording.
	StatePath string `koanf:"state_path"`
	// SaveDir is the default output directory for saved containers.
	SaveDir string `koanf:"save_dir"`
	// PaletteDefault is the gradient assigned when none is named.
	PaletteDefault string `koanf:"palette_default"`
	// OutputFormat is auto, text, or json.
	OutputFormat string `koanf:"output"`
	Verbose      bool   `koanf:"verbose"`
}
