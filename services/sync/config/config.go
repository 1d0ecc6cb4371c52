// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads the sync service configuration: candidate file
// extensions, exclusions, the enumeration cap, and the heuristic windows
// the scan package runs with.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// Embedded Defaults
// =============================================================================

//go:embed defaults.yaml
var defaultConfigYAML []byte

// ConfigPathEnv names the environment variable that overrides the
// configuration file path. When unset, the embedded defaults are used.
const ConfigPathEnv = "ALEUTIAN_SYNC_CONFIG"

// MaxYAMLFileSize caps accepted configuration files at 1MB.
const MaxYAMLFileSize = 1 << 20

// =============================================================================
// Configuration Types
// =============================================================================

// Heuristics holds the scan package's tested-against windows.
//
// Thread Safety: Immutable after loading; safe for concurrent use.
type Heuristics struct {
	// MaxStatementLines is the prototype extractor's statement buffer cap.
	MaxStatementLines int `yaml:"max_statement_lines"`

	// BraceSearchWindow is the locator's opening-brace forward-search window.
	BraceSearchWindow int `yaml:"brace_search_window"`
}

// Config is the sync service configuration.
//
// Thread Safety: Immutable after loading; safe for concurrent use.
type Config struct {
	// CandidateExtensions are implementation file extensions, with dot.
	CandidateExtensions []string `yaml:"candidate_extensions"`

	// HeaderExtensions identify files accepted as headers by ScanHeader.
	HeaderExtensions []string `yaml:"header_extensions"`

	// ExcludeGlobs are path-segment patterns the enumerator skips.
	ExcludeGlobs []string `yaml:"exclude_globs"`

	// FileLimit caps candidate-file enumeration. Default: 200.
	FileLimit int `yaml:"file_limit"`

	// Heuristics are the scan windows.
	Heuristics Heuristics `yaml:"heuristics"`
}

// Default configuration values, applied for fields missing from YAML.
const (
	// DefaultFileLimit is the default enumeration cap.
	DefaultFileLimit = 200

	// DefaultMaxStatementLines mirrors scan.DefaultMaxStatementLines.
	DefaultMaxStatementLines = 20

	// DefaultBraceSearchWindow mirrors scan.DefaultBraceSearchWindow.
	DefaultBraceSearchWindow = 30
)

// IsHeaderPath reports whether path carries one of the configured header
// extensions (case-insensitive).
func (c *Config) IsHeaderPath(path string) bool {
	lower := strings.ToLower(path)
	for _, ext := range c.HeaderExtensions {
		if strings.HasSuffix(lower, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}

// =============================================================================
// Singleton Config
// =============================================================================

var (
	configMu      sync.RWMutex
	configOnce    sync.Once
	cachedConfig  *Config
	configLoadErr error
)

// Get returns the cached service configuration.
//
// Description:
//
//	Loads on first call and caches for subsequent calls. The file named
//	by ALEUTIAN_SYNC_CONFIG is used when set; otherwise the embedded
//	defaults.
//
// Thread Safety: Safe for concurrent use via sync.Once.
func Get() (*Config, error) {
	configMu.RLock()
	if cachedConfig != nil || configLoadErr != nil {
		cfg, err := cachedConfig, configLoadErr
		configMu.RUnlock()
		return cfg, err
	}
	configMu.RUnlock()

	configMu.Lock()
	defer configMu.Unlock()

	configOnce.Do(func() {
		data := defaultConfigYAML
		if path := os.Getenv(ConfigPathEnv); path != "" {
			fileData, err := os.ReadFile(path)
			if err != nil {
				configLoadErr = fmt.Errorf("config: read %q: %w", path, err)
				return
			}
			data = fileData
		}
		cachedConfig, configLoadErr = Load(data)
	})

	return cachedConfig, configLoadErr
}

// Reset resets the cached config for testing.
//
// Thread Safety: Safe for concurrent use.
func Reset() {
	configMu.Lock()
	defer configMu.Unlock()
	cachedConfig = nil
	configLoadErr = nil
	configOnce = sync.Once{}
}

// Load parses and validates a Config from YAML bytes, applying defaults
// for missing fields.
//
// Outputs:
//
//	*Config - The validated configuration.
//	error - Non-nil if parsing or validation fails.
func Load(data []byte) (*Config, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("config: empty YAML data")
	}
	if len(data) > MaxYAMLFileSize {
		return nil, fmt.Errorf("config: YAML data exceeds maximum size (%d > %d)", len(data), MaxYAMLFileSize)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parsing YAML: %w", err)
	}

	if len(cfg.CandidateExtensions) == 0 {
		return nil, fmt.Errorf("config: candidate_extensions must not be empty")
	}
	if len(cfg.HeaderExtensions) == 0 {
		return nil, fmt.Errorf("config: header_extensions must not be empty")
	}
	for _, ext := range append(append([]string{}, cfg.CandidateExtensions...), cfg.HeaderExtensions...) {
		if !strings.HasPrefix(ext, ".") {
			return nil, fmt.Errorf("config: extension %q must start with a dot", ext)
		}
	}

	if cfg.FileLimit <= 0 {
		cfg.FileLimit = DefaultFileLimit
	}
	if cfg.Heuristics.MaxStatementLines <= 0 {
		cfg.Heuristics.MaxStatementLines = DefaultMaxStatementLines
	}
	if cfg.Heuristics.BraceSearchWindow <= 0 {
		cfg.Heuristics.BraceSearchWindow = DefaultBraceSearchWindow
	}

	return &cfg, nil
}
