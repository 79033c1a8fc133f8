// Package pipeline sequences calibration, filtering, deduplication, label
// resolution, aggregation, and quality assessment into one request-scoped run
// over an image's raw segments.
package pipeline

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/pkg/errors"
	"go.viam.com/utils"

	"go.viam.com/detect/labelmap"
)

// Config contains the parameters of a post-processing pipeline.
type Config struct {
	// ConfidenceThreshold drops detections below this calibrated confidence.
	ConfidenceThreshold float64 `json:"confidence_threshold"`
	// MinArea and MaxArea bound accepted segment areas in square pixels.
	// MaxArea 0 means unbounded.
	MinArea float64 `json:"min_area"`
	MaxArea float64 `json:"max_area"`
	// IoUThreshold is the overlap above which NMS suppresses a detection.
	IoUThreshold float64 `json:"iou_threshold"`
	// MappingThreshold is the minimum zero-shot score to consider a mapping.
	MappingThreshold float64 `json:"mapping_threshold"`
	// CandidateLabels are the target labels for direct-match and zero-shot
	// resolution. When empty, CandidateSet names a predefined set; both
	// empty means no candidates.
	CandidateLabels []string `json:"candidate_labels"`
	CandidateSet    string   `json:"candidate_set"`
	// Synonyms overlays the built-in synonym table.
	Synonyms map[string][]string `json:"synonyms"`
	// BoostClasses optionally multiplies the confidence of named raw labels
	// by BoostFactor after calibration.
	BoostClasses []string `json:"boost_classes"`
	BoostFactor  float64  `json:"boost_factor"`
	// Workers bounds the per-segment calibration pool; 0 means NumCPU.
	Workers int `json:"workers"`
	// ClassifierTimeoutMS bounds one zero-shot call, CacheTTLMS the memo
	// cache entries, CacheSize the cache entry count. Zero values take
	// defaults.
	ClassifierTimeoutMS int `json:"classifier_timeout_ms"`
	CacheTTLMS          int `json:"cache_ttl_ms"`
	CacheSize           int `json:"cache_size"`
}

// Pipeline defaults.
const (
	DefaultConfidenceThreshold = 0.7
	DefaultMinArea             = 500.
	DefaultIoUThreshold        = 0.3
	DefaultBoostFactor         = 1.2
)

// DefaultConfig returns the default pipeline parameters.
func DefaultConfig() Config {
	return Config{
		ConfidenceThreshold: DefaultConfidenceThreshold,
		MinArea:             DefaultMinArea,
		IoUThreshold:        DefaultIoUThreshold,
		MappingThreshold:    0.5,
		BoostFactor:         DefaultBoostFactor,
	}
}

// LoadConfig loads a pipeline configuration from a json file. Fields left
// out of the file keep their defaults.
func LoadConfig(file string) (*Config, error) {
	config := DefaultConfig()
	filePath := filepath.Clean(file)
	//nolint:gosec
	configFile, err := os.Open(filePath)
	defer utils.UncheckedErrorFunc(configFile.Close)
	if err != nil {
		return nil, err
	}
	jsonParser := json.NewDecoder(configFile)
	if err := jsonParser.Decode(&config); err != nil {
		return nil, err
	}
	if err := config.Validate(file); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate ensures all parts of the config are valid.
func (config *Config) Validate(path string) error {
	if config.ConfidenceThreshold < 0 || config.ConfidenceThreshold > 1 {
		return errors.Errorf("confidence_threshold must be in [0, 1] (%s)", path)
	}
	if config.MinArea < 0 {
		return errors.Errorf("min_area cannot be negative (%s)", path)
	}
	if config.MaxArea != 0 && config.MaxArea < config.MinArea {
		return errors.Errorf("max_area cannot be below min_area (%s)", path)
	}
	if config.IoUThreshold < 0 || config.IoUThreshold > 1 {
		return errors.Errorf("iou_threshold must be in [0, 1] (%s)", path)
	}
	if config.MappingThreshold < 0 || config.MappingThreshold > 1 {
		return errors.Errorf("mapping_threshold must be in [0, 1] (%s)", path)
	}
	if config.Workers < 0 {
		return errors.Errorf("workers cannot be negative (%s)", path)
	}
	if config.BoostFactor < 0 {
		return errors.Errorf("boost_factor cannot be negative (%s)", path)
	}
	if config.ClassifierTimeoutMS < 0 || config.CacheTTLMS < 0 || config.CacheSize < 0 {
		return errors.Errorf("timeouts and cache bounds cannot be negative (%s)", path)
	}
	return nil
}

func (config *Config) workerCount() int {
	if config.Workers > 0 {
		return config.Workers
	}
	return runtime.NumCPU()
}

// ClassifierTimeout returns the configured zero-shot call timeout, or zero
// when unset.
func (config *Config) ClassifierTimeout() time.Duration {
	return time.Duration(config.ClassifierTimeoutMS) * time.Millisecond
}

func (config *Config) cacheTTL() time.Duration {
	return time.Duration(config.CacheTTLMS) * time.Millisecond
}

func (config *Config) candidates() []string {
	if len(config.CandidateLabels) > 0 {
		return config.CandidateLabels
	}
	if config.CandidateSet != "" {
		return labelmap.CandidateSet(config.CandidateSet)
	}
	return nil
}
