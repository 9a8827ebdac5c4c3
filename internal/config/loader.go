package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// envPrefix namespaces adaptd environment variables.
const envPrefix = "ADAPTD_"

// maxConfigFileSize caps config files at 1MB.
const maxConfigFileSize = 1024 * 1024

// Load reads configuration from an optional YAML file and then applies
// environment overrides.
//
// Precedence (highest to lowest):
//  1. Environment variables (ADAPTD_SERVER_PORT, ADAPTD_LOOP_INTERVAL, ...)
//  2. YAML config file (path argument; missing file is not an error)
//  3. Built-in defaults
//
// Environment variables map to config keys by stripping the prefix,
// lowercasing and splitting the first underscore into a section:
//
//	ADAPTD_SERVER_PORT            -> server.port
//	ADAPTD_LOOP_MIN_FEEDBACK      -> loop.min_feedback
//	ADAPTD_GOVERNANCE_VERIFIER_URL -> governance.verifier_url
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		content, err := readConfigFile(configPath)
		if err != nil {
			return nil, err
		}
		if content != nil {
			if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
			}
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", transformEnv), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// readConfigFile returns the file content, nil if the file does not
// exist, or an error for unreadable or oversized files.
func readConfigFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file %s exceeds %d bytes", path, maxConfigFileSize)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return content, nil
}

// transformEnv maps ADAPTD_SECTION_FIELD_NAME to section.field_name.
func transformEnv(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
	parts := strings.SplitN(s, "_", 2)
	if len(parts) != 2 {
		return s
	}
	return parts[0] + "." + parts[1]
}
