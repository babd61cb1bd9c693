package mot

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config holds tracker parameters. Zero values are not defaults: start from DefaultConfig().
type Config struct {
	// Minimum IoU between predicted track box and detection for a valid match
	IoUThreshold float64 `json:"iou_threshold" yaml:"iou_threshold"`
	// Frames a track may go unmatched before deletion
	MaxAge int `json:"max_age" yaml:"max_age"`
	// Consecutive matches required before a tentative track is reported. 0 and 1 both mean immediate confirmation.
	// A missed frame restarts the streak, so a tentative track needs min_hits matches in a row again.
	MinHits int `json:"min_hits" yaml:"min_hits"`
	// Detections below this confidence are skipped before association
	ConfidenceThreshold float64 `json:"confidence_threshold" yaml:"confidence_threshold"`
	// Identifier given to the very first track
	FirstID uint64 `json:"first_id" yaml:"first_id"`
	// Per-track motion model
	MotionModel MotionModel `json:"motion_model" yaml:"motion_model"`
	// Assignment solver
	Solver MatchingAlgorithm `json:"solver" yaml:"solver"`
	// Noise parameters of the SORT motion model
	Kalman KalmanParams `json:"kalman" yaml:"kalman"`
}

// DefaultConfig returns defaults: iou_threshold=0.3, max_age=1, min_hits=3, no confidence filtering,
// ids starting from 1, SORT motion model, JV solver.
func DefaultConfig() Config {
	return Config{
		IoUThreshold:        0.3,
		MaxAge:              1,
		MinHits:             3,
		ConfidenceThreshold: 0.0,
		FirstID:             1,
		MotionModel:         MotionModelSORT,
		Solver:              MatchingAlgorithmJV,
		Kalman:              DefaultKalmanParams(),
	}
}

// Validate checks that every parameter is in range
func (cfg Config) Validate() error {
	if cfg.IoUThreshold < 0 || cfg.IoUThreshold > 1 {
		return errors.Wrapf(ErrInvalidConfig, "iou_threshold must be in [0, 1], got %v", cfg.IoUThreshold)
	}
	if cfg.MaxAge < 0 {
		return errors.Wrapf(ErrInvalidConfig, "max_age must be non-negative, got %d", cfg.MaxAge)
	}
	if cfg.MinHits < 0 {
		return errors.Wrapf(ErrInvalidConfig, "min_hits must be non-negative, got %d", cfg.MinHits)
	}
	if cfg.ConfidenceThreshold < 0 || cfg.ConfidenceThreshold > 1 {
		return errors.Wrapf(ErrInvalidConfig, "confidence_threshold must be in [0, 1], got %v", cfg.ConfidenceThreshold)
	}
	switch cfg.MotionModel {
	case MotionModelSORT, MotionModelBBox:
	default:
		return errors.Wrapf(ErrInvalidConfig, "unknown motion_model %q", cfg.MotionModel)
	}
	switch cfg.Solver {
	case MatchingAlgorithmJV, MatchingAlgorithmMunkres:
	default:
		return errors.Wrapf(ErrInvalidConfig, "unknown solver %q", cfg.Solver)
	}
	for i, v := range cfg.Kalman.InitialCovariance {
		if v <= 0 {
			return errors.Wrapf(ErrInvalidConfig, "kalman.initial_covariance[%d] must be positive, got %v", i, v)
		}
	}
	for i, v := range cfg.Kalman.ProcessNoise {
		if v < 0 {
			return errors.Wrapf(ErrInvalidConfig, "kalman.process_noise[%d] must be non-negative, got %v", i, v)
		}
	}
	for i, v := range cfg.Kalman.MeasurementNoise {
		if v < 0 {
			return errors.Wrapf(ErrInvalidConfig, "kalman.measurement_noise[%d] must be non-negative, got %v", i, v)
		}
	}
	return nil
}

const maxConfigFileSize = 1 * 1024 * 1024 // 1MB

// LoadConfig reads Config from .yaml, .yml or .json file.
// Fields omitted from the file keep their default values, so partial configs are safe.
func LoadConfig(path string) (Config, error) {
	cleanPath := filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(cleanPath))
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return Config{}, errors.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return Config{}, errors.Wrap(err, "Can't stat config file")
	}
	if fileInfo.Size() > maxConfigFileSize {
		return Config{}, errors.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxConfigFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return Config{}, errors.Wrap(err, "Can't read config file")
	}

	cfg := DefaultConfig()
	if ext == ".json" {
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()
		err = decoder.Decode(&cfg)
	} else {
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		err = decoder.Decode(&cfg)
	}
	// Empty file means all defaults
	if err != nil && !errors.Is(err, io.EOF) {
		return Config{}, errors.Wrapf(err, "Can't parse config file %s", cleanPath)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
