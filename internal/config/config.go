// Package config reads the service settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ironsheep/nid-extract/internal/detection"
	"github.com/ironsheep/nid-extract/internal/face"
	"github.com/ironsheep/nid-extract/internal/imaging"
	"github.com/ironsheep/nid-extract/internal/ocr"
)

// Config is the complete set of service settings. Every field maps to one
// NID_* environment variable.
type Config struct {
	// LogLevel is "debug" or "info".
	LogLevel string

	OCRLanguage    string
	TessdataPrefix string

	// FaceCascade is the cascade file path. Empty lets the face backend pick
	// its default model.
	FaceCascade      string
	FaceScale        float64
	FaceMinNeighbors int
	FaceMinSize      int

	SaveDir     string
	JPEGQuality int

	RegionOrder detection.Order
	KernelSize  int
	BoxColor    string
}

// Load reads the settings from the environment, applies defaults for unset
// variables and validates the result.
//
// Returns:
//   - *Config: The effective settings.
//   - error: Non-nil if a value cannot be parsed or fails Validate.
func Load() (*Config, error) {
	order, err := detection.ParseOrder(getEnv("NID_REGION_ORDER", string(detection.OrderReading)))
	if err != nil {
		return nil, err
	}

	defaults := face.DefaultParams()
	cfg := &Config{
		LogLevel:       strings.ToLower(getEnv("NID_LOG_LEVEL", "info")),
		OCRLanguage:    getEnv("NID_OCR_LANGUAGE", ocr.DefaultLanguage),
		TessdataPrefix: getEnv("NID_TESSDATA_PREFIX", ""),
		FaceCascade:    getEnv("NID_FACE_CASCADE", ""),
		SaveDir:        getEnv("NID_SAVE_DIR", ""),
		RegionOrder:    order,
		BoxColor:       getEnv("NID_BOX_COLOR", imaging.DefaultBoxColor),
	}

	if cfg.KernelSize, err = getEnvInt("NID_KERNEL_SIZE", detection.DefaultKernelSize); err != nil {
		return nil, err
	}
	if cfg.FaceScale, err = getEnvFloat("NID_FACE_SCALE", defaults.ScaleFactor); err != nil {
		return nil, err
	}
	if cfg.FaceMinNeighbors, err = getEnvInt("NID_FACE_MIN_NEIGHBORS", defaults.MinNeighbors); err != nil {
		return nil, err
	}
	if cfg.FaceMinSize, err = getEnvInt("NID_FACE_MIN_SIZE", defaults.MinSize); err != nil {
		return nil, err
	}
	if cfg.JPEGQuality, err = getEnvInt("NID_JPEG_QUALITY", imaging.DefaultJPEGQuality); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings no component could run with.
func (c *Config) Validate() error {
	if c.KernelSize < 1 {
		return fmt.Errorf("NID_KERNEL_SIZE must be >= 1, got %d", c.KernelSize)
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("NID_JPEG_QUALITY must be in 1..100, got %d", c.JPEGQuality)
	}
	if _, err := imaging.ParseColor(c.BoxColor); err != nil {
		return fmt.Errorf("NID_BOX_COLOR: %w", err)
	}
	if err := c.FaceParams().Validate(); err != nil {
		return fmt.Errorf("face parameters: %w", err)
	}
	return nil
}

// Debug reports whether debug logging is enabled.
func (c *Config) Debug() bool {
	return c.LogLevel == "debug"
}

// FaceParams returns the cascade parameters.
func (c *Config) FaceParams() face.Params {
	return face.Params{
		ScaleFactor:  c.FaceScale,
		MinNeighbors: c.FaceMinNeighbors,
		MinSize:      c.FaceMinSize,
	}
}

// OCRConfig returns the Tesseract settings.
func (c *Config) OCRConfig() ocr.Config {
	return ocr.Config{
		Language:       c.OCRLanguage,
		TessdataPrefix: c.TessdataPrefix,
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getEnvFloat(key string, defaultVal float64) (float64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}
