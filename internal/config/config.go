package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultWidth        = 1280
	DefaultHeight       = 720
	DefaultZoomFactor   = 1.1
	DefaultSensitivity  = 0.01
	DefaultBondDiameter = 0.2
	DefaultSize         = 1.0
)

type Config struct {
	Window   WindowConfig   `yaml:"window"`
	Camera   CameraConfig   `yaml:"camera"`
	Bond     BondConfig     `yaml:"bond"`
	Playback PlaybackConfig `yaml:"playback"`
	// Per-request deadline in seconds. 0 leaves requests without a
	// timeout: a host that never answers stalls the load.
	RequestTimeout float64 `yaml:"request_timeout"`
}

type WindowConfig struct {
	Width      int        `yaml:"width"`
	Height     int        `yaml:"height"`
	Title      string     `yaml:"title"`
	Background [3]float32 `yaml:"background"`
}

type CameraConfig struct {
	ZoomFactor      float32 `yaml:"zoom_factor"`
	DragSensitivity float32 `yaml:"drag_sensitivity"`
}

type BondConfig struct {
	Segments int     `yaml:"segments"`
	Diameter float32 `yaml:"diameter"`
}

type PlaybackConfig struct {
	Autoplay bool `yaml:"autoplay"`
}

func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Width:      DefaultWidth,
			Height:     DefaultHeight,
			Title:      "trajview",
			Background: [3]float32{0.04, 0.04, 0.04},
		},
		Camera: CameraConfig{
			ZoomFactor:      DefaultZoomFactor,
			DragSensitivity: DefaultSensitivity,
		},
		Bond: BondConfig{
			Segments: 3,
			Diameter: DefaultBondDiameter,
		},
		Playback: PlaybackConfig{Autoplay: true},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
