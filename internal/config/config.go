// Package config provides configuration management for the cognitive
// mapping pipeline, layering environment variables over documented
// defaults the way the teacher's internal/config/config.go layers env vars
// over its Config struct.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// PipelineConfig holds the tunables named in spec.md §6. All fields have
// documented defaults and may be overridden via a JSON file; FromEnv
// overrides only knn_k, strong_threshold, region_max_size,
// softmax_temperature, stage_timeout_ms and regenerate_persist.
type PipelineConfig struct {
	KNNK                       int     `json:"knn_k"`
	StrongThreshold            float64 `json:"strong_threshold"`
	RegionMaxSize              int     `json:"region_max_size"`
	SoftmaxTemperature         float64 `json:"softmax_temperature"`
	AssignmentMinWeight        float64 `json:"assignment_min_weight"`
	TierPercentileLow          float64 `json:"tier_percentile_low"`
	TierPercentileHigh         float64 `json:"tier_percentile_high"`
	BlastRadiusSuppressionBulk float64 `json:"blast_radius_suppression_bulk"`
	QuestionCeilingCap         int     `json:"question_ceiling_cap"`
	EmbedderTimeoutMs          int     `json:"embedder_timeout_ms"`
	MapperTimeoutMs            int     `json:"mapper_timeout_ms"`
	StageTimeoutMs             int     `json:"stage_timeout_ms"`
	RegeneratePersist          bool    `json:"regenerate_persist"`
}

// DefaultPipelineConfig returns the defaults documented in spec.md §6.
func DefaultPipelineConfig() *PipelineConfig {
	return &PipelineConfig{
		KNNK:                       8,
		StrongThreshold:            0.75,
		RegionMaxSize:              40,
		SoftmaxTemperature:         0.08,
		AssignmentMinWeight:        0.25,
		TierPercentileLow:          25,
		TierPercentileHigh:         75,
		BlastRadiusSuppressionBulk: 0.5,
		QuestionCeilingCap:         5,
		EmbedderTimeoutMs:          60000,
		MapperTimeoutMs:            60000,
		StageTimeoutMs:             120000,
		RegeneratePersist:          false,
	}
}

// Merge applies non-zero-value overrides from o onto a copy of the
// receiver and returns it.
func (c *PipelineConfig) Merge(o *PipelineConfig) *PipelineConfig {
	merged := *c
	if o == nil {
		return &merged
	}
	if o.KNNK != 0 {
		merged.KNNK = o.KNNK
	}
	if o.StrongThreshold != 0 {
		merged.StrongThreshold = o.StrongThreshold
	}
	if o.RegionMaxSize != 0 {
		merged.RegionMaxSize = o.RegionMaxSize
	}
	if o.SoftmaxTemperature != 0 {
		merged.SoftmaxTemperature = o.SoftmaxTemperature
	}
	if o.AssignmentMinWeight != 0 {
		merged.AssignmentMinWeight = o.AssignmentMinWeight
	}
	if o.TierPercentileLow != 0 {
		merged.TierPercentileLow = o.TierPercentileLow
	}
	if o.TierPercentileHigh != 0 {
		merged.TierPercentileHigh = o.TierPercentileHigh
	}
	if o.BlastRadiusSuppressionBulk != 0 {
		merged.BlastRadiusSuppressionBulk = o.BlastRadiusSuppressionBulk
	}
	if o.QuestionCeilingCap != 0 {
		merged.QuestionCeilingCap = o.QuestionCeilingCap
	}
	if o.EmbedderTimeoutMs != 0 {
		merged.EmbedderTimeoutMs = o.EmbedderTimeoutMs
	}
	if o.MapperTimeoutMs != 0 {
		merged.MapperTimeoutMs = o.MapperTimeoutMs
	}
	if o.StageTimeoutMs != 0 {
		merged.StageTimeoutMs = o.StageTimeoutMs
	}
	merged.RegeneratePersist = o.RegeneratePersist || merged.RegeneratePersist
	return &merged
}

// FromEnv overlays environment-variable overrides onto the defaults,
// mirroring the teacher's config.ConfigFromEnv pattern.
func FromEnv() *PipelineConfig {
	cfg := DefaultPipelineConfig()

	if v := os.Getenv("COGMAP_KNN_K"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.KNNK = n
		}
	}
	if v := os.Getenv("COGMAP_STRONG_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.StrongThreshold = f
		}
	}
	if v := os.Getenv("COGMAP_REGION_MAX_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RegionMaxSize = n
		}
	}
	if v := os.Getenv("COGMAP_SOFTMAX_TEMPERATURE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.SoftmaxTemperature = f
		}
	}
	if v := os.Getenv("COGMAP_STAGE_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.StageTimeoutMs = n
		}
	}
	if os.Getenv("COGMAP_REGENERATE_PERSIST") == "true" {
		cfg.RegeneratePersist = true
	}

	return cfg
}

// LoadFile reads a JSON config file and merges it onto the defaults.
func LoadFile(path string) (*PipelineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	var fileCfg PipelineConfig
	if err := json.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return DefaultPipelineConfig().Merge(&fileCfg), nil
}

// RuntimeConfig holds operational settings that are not part of the
// scoring model itself: worker pool sizing and optional persistence DSNs.
type RuntimeConfig struct {
	MaxWorkers  int    `json:"max_workers"`
	Neo4jURI    string `json:"neo4j_uri,omitempty"`
	RunStoreDSN string `json:"run_store_dsn,omitempty"`
}

// DefaultRuntimeConfig returns sane defaults for local/single-process runs.
func DefaultRuntimeConfig() *RuntimeConfig {
	return &RuntimeConfig{
		MaxWorkers: 4,
	}
}
