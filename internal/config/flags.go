package config

import "flag"

var (
	flagConfig    = flag.String("config", "", "Path to config file")
	flagDebug     = flag.Bool("debug", false, "Enable debug logging")
	flagMesh      = flag.String("mesh", "", "Mesh file to open at startup")
	flagWidth     = flag.Int("width", 0, "Window width")
	flagHeight    = flag.Int("height", 0, "Window height")
	flagWireframe = flag.Bool("wireframe", false, "Enable wireframe overlay")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// MeshPath returns the mesh file passed via --mesh, if any.
func MeshPath() string {
	return *flagMesh
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagWidth > 0 {
		cfg.Graphics.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Graphics.Height = *flagHeight
	}
	if *flagWireframe {
		cfg.Viewer.Wireframe = true
	}
}
