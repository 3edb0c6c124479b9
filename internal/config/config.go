// Package config handles application configuration loading and management.
package config

// Config holds all application settings.
type Config struct {
	Graphics GraphicsConfig `yaml:"graphics"`
	Viewer   ViewerConfig   `yaml:"viewer"`
	Simplify SimplifyConfig `yaml:"simplify"`
	Remesh   RemeshConfig   `yaml:"remesh"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// GraphicsConfig holds display settings.
type GraphicsConfig struct {
	Width  int  `yaml:"width"`
	Height int  `yaml:"height"`
	VSync  bool `yaml:"vsync"`
}

// ViewerConfig holds model viewport settings.
type ViewerConfig struct {
	Background [3]float32 `yaml:"background"` // RGB, 0..1
	MeshColor  [3]float32 `yaml:"mesh_color"` // RGB, 0..1
	Wireframe  bool       `yaml:"wireframe"`
}

// SimplifyConfig holds default decimation parameters.
type SimplifyConfig struct {
	TargetRatio    float32 `yaml:"target_ratio"` // fraction of triangles kept
	Aggressiveness float64 `yaml:"aggressiveness"`
}

// RemeshConfig holds default subdivision parameters.
type RemeshConfig struct {
	Iterations int `yaml:"iterations"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Graphics: GraphicsConfig{
			Width:  1280,
			Height: 720,
			VSync:  true,
		},
		Viewer: ViewerConfig{
			Background: [3]float32{0.12, 0.12, 0.14},
			MeshColor:  [3]float32{0.75, 0.75, 0.78},
			Wireframe:  true,
		},
		Simplify: SimplifyConfig{
			TargetRatio:    0.5,
			Aggressiveness: 7,
		},
		Remesh: RemeshConfig{
			Iterations: 1,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
