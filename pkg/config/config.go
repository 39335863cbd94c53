// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"image/color"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/user/bgswap/pkg/orchestrator"
	"github.com/user/bgswap/pkg/pipeline"
)

// Camera kinds.
const (
	CameraGocv  = "gocv"
	CameraFiles = "files"
)

// Segmenter kinds.
const (
	SegmenterONNX      = "onnx"
	SegmenterChromaKey = "chromakey"
)

// Config represents the full configuration for bgswap.
type Config struct {
	// Session geometry
	Width       int     `yaml:"width"`
	Height      int     `yaml:"height"`
	FPS         float64 `yaml:"fps"`
	RefreshRate float64 `yaml:"refresh_rate"`

	// Compositor
	SubmitTimeoutMs int `yaml:"submit_timeout_ms"`

	Camera    CameraConfig    `yaml:"camera"`
	Segmenter SegmenterConfig `yaml:"segmenter"`

	// Startup choices
	Device     string `yaml:"device"`
	Background string `yaml:"background"`

	// Output consumers
	Record  string `yaml:"record"`
	Preview string `yaml:"preview"`

	// Debug
	Debug    bool   `yaml:"debug"`
	DebugDir string `yaml:"debug_dir"`

	LogLevel string `yaml:"log_level"`
}

// CameraConfig selects how cameras are found.
type CameraConfig struct {
	Kind     string         `yaml:"kind"`
	MaxProbe int            `yaml:"max_probe"` // gocv: highest index probed
	Devices  []DeviceConfig `yaml:"devices"`   // files: declared devices
}

// DeviceConfig declares a file-backed device.
type DeviceConfig struct {
	ID    string  `yaml:"id"`
	Label string  `yaml:"label"`
	Kind  string  `yaml:"kind"` // videoinput (default) or audioinput
	Path  string  `yaml:"path"` // directory of frames
	FPS   float64 `yaml:"fps"`
}

// SegmenterConfig selects and tunes the segmentation model.
type SegmenterConfig struct {
	Kind           string  `yaml:"kind"`
	ModelDir       string  `yaml:"model_dir"`
	ModelSelection int     `yaml:"model_selection"`
	InputLayout    string  `yaml:"input_layout"`
	Threshold      float64 `yaml:"threshold"`
	KeyColor       string  `yaml:"key_color"`
	Tolerance      float64 `yaml:"tolerance"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		Width:       pipeline.DefaultWidth,
		Height:      pipeline.DefaultHeight,
		FPS:         pipeline.DefaultFPS,
		RefreshRate: pipeline.DefaultRefreshRate,

		SubmitTimeoutMs: 2000,

		Camera: CameraConfig{
			Kind:     CameraGocv,
			MaxProbe: 4,
		},
		Segmenter: SegmenterConfig{
			Kind:           SegmenterONNX,
			ModelDir:       "./models",
			ModelSelection: pipeline.DefaultModelSelection,
			InputLayout:    "nhwc",
			Threshold:      0.5,
			KeyColor:       "#00b140",
			Tolerance:      0.25,
		},

		DebugDir: "./debug",
		LogLevel: "info",
	}
}

// LoadFromFile loads configuration from a YAML file over the defaults.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks the configuration and fills derived defaults.
func Validate(cfg *Config) error {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("width and height must be > 0")
	}
	if cfg.FPS <= 0 {
		return fmt.Errorf("fps must be > 0")
	}
	if cfg.RefreshRate <= 0 {
		return fmt.Errorf("refresh_rate must be > 0")
	}
	if cfg.SubmitTimeoutMs <= 0 {
		cfg.SubmitTimeoutMs = 2000
	}

	switch cfg.Camera.Kind {
	case CameraGocv:
		if cfg.Camera.MaxProbe <= 0 {
			cfg.Camera.MaxProbe = 4
		}
	case CameraFiles:
		if len(cfg.Camera.Devices) == 0 {
			return fmt.Errorf("camera.devices is required for camera.kind %q", CameraFiles)
		}
		seen := make(map[string]bool)
		for i := range cfg.Camera.Devices {
			d := &cfg.Camera.Devices[i]
			if d.ID == "" {
				return fmt.Errorf("camera.devices[%d].id is required", i)
			}
			if d.ID == pipeline.NoneDeviceID {
				return fmt.Errorf("camera.devices[%d].id %q is reserved", i, d.ID)
			}
			if seen[d.ID] {
				return fmt.Errorf("camera.devices[%d].id %q is duplicated", i, d.ID)
			}
			seen[d.ID] = true
			if d.Kind == "" {
				d.Kind = "videoinput"
			}
			if d.Kind != "videoinput" && d.Kind != "audioinput" {
				return fmt.Errorf("camera.devices[%d].kind must be videoinput or audioinput", i)
			}
			if d.Kind == "videoinput" && d.Path == "" {
				return fmt.Errorf("camera.devices[%d].path is required", i)
			}
			if d.FPS <= 0 {
				d.FPS = cfg.FPS
			}
			if d.Label == "" {
				d.Label = d.ID
			}
		}
	default:
		return fmt.Errorf("camera.kind must be %q or %q", CameraGocv, CameraFiles)
	}

	switch cfg.Segmenter.Kind {
	case SegmenterONNX:
		if cfg.Segmenter.ModelSelection != 0 && cfg.Segmenter.ModelSelection != 1 {
			return fmt.Errorf("segmenter.model_selection must be 0 or 1")
		}
		if l := cfg.Segmenter.InputLayout; l != "" && l != "nhwc" && l != "nchw" {
			return fmt.Errorf("segmenter.input_layout must be \"nhwc\" or \"nchw\"")
		}
		if cfg.Segmenter.Threshold <= 0 || cfg.Segmenter.Threshold >= 1 {
			return fmt.Errorf("segmenter.threshold must be between 0 and 1")
		}
	case SegmenterChromaKey:
		if _, err := ParseColor(cfg.Segmenter.KeyColor); err != nil {
			return fmt.Errorf("segmenter.key_color: %w", err)
		}
		if cfg.Segmenter.Tolerance <= 0 || cfg.Segmenter.Tolerance > 1 {
			return fmt.Errorf("segmenter.tolerance must be in (0, 1]")
		}
	default:
		return fmt.Errorf("segmenter.kind must be %q or %q", SegmenterONNX, SegmenterChromaKey)
	}

	if cfg.Debug && cfg.DebugDir == "" {
		cfg.DebugDir = "./debug"
	}
	return nil
}

// Size returns the session resolution.
func (c Config) Size() pipeline.Dimension {
	return pipeline.Dimension{Width: c.Width, Height: c.Height}
}

// SubmitTimeout returns the submit timeout as a duration.
func (c Config) SubmitTimeout() time.Duration {
	return time.Duration(c.SubmitTimeoutMs) * time.Millisecond
}

// ToOrchestratorConfig converts Config to orchestrator.Config.
func (c Config) ToOrchestratorConfig() orchestrator.Config {
	return orchestrator.Config{
		Size: c.Size(),
		FPS:  c.FPS,
	}
}

// ParseColor parses a "#rrggbb" or "#rgb" hex colour.
func ParseColor(hex string) (color.RGBA, error) {
	s := hex
	if len(s) > 0 && s[0] == '#' {
		s = s[1:]
	}
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid color %q", hex)
	}

	var rgb [3]uint8
	for i := range rgb {
		hi, ok1 := hexValue(s[2*i])
		lo, ok2 := hexValue(s[2*i+1])
		if !ok1 || !ok2 {
			return color.RGBA{}, fmt.Errorf("invalid color %q", hex)
		}
		rgb[i] = hi<<4 | lo
	}
	return color.RGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: 255}, nil
}

func hexValue(c byte) (uint8, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	default:
		return 0, false
	}
}
