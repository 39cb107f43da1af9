// Package koanf loads cpbrules configuration and batch manifests from YAML
// files and the environment.
package koanf

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/fwojciec/cpbrules"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment variable read by LoadConfig.
const EnvPrefix = "CPBRULES_"

const maxFileSize = 1024 * 1024 // 1MB

// LoadConfig returns cpbrules.DefaultConfig overridden by the YAML file at
// path, if path is not empty, and then by CPBRULES_* environment variables.
//
// Environment variables map to config keys by dropping the prefix and
// lowercasing; a double underscore descends into a nested key:
//
//	CPBRULES_PROVIDER              -> provider
//	CPBRULES_FETCH_TIMEOUT         -> fetch_timeout
//	CPBRULES_SECTION__HEADING_TEXT -> section.heading_text
//
// When no API key is configured, the provider's conventional variable
// (OPENAI_API_KEY or GEMINI_API_KEY) is used. The result is not validated,
// since command-line flags may still override it.
func LoadConfig(path string) (*cpbrules.Config, error) {
	k := koanf.New(".")

	if path != "" {
		content, err := readFile(path)
		if err != nil {
			return nil, err
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, cpbrules.Errorf(cpbrules.EINVALID, "failed to parse config file %s: %v", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := cpbrules.DefaultConfig()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, cpbrules.Errorf(cpbrules.EINVALID, "invalid configuration: %v", err)
	}

	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv(cfg.APIKeyEnv())
	}
	return &cfg, nil
}

// envKey maps CPBRULES_SECTION__HEADING_TEXT to section.heading_text.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

// readFile reads a configuration file of at most maxFileSize bytes.
func readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, cpbrules.Errorf(cpbrules.ENOTFOUND, "file not found: %s", path)
	} else if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, cpbrules.Errorf(cpbrules.EINVALID, "%s is a directory", path)
	}
	if info.Size() > maxFileSize {
		return nil, cpbrules.Errorf(cpbrules.EINVALID, "%s is too large (%d bytes, max %d)", path, info.Size(), maxFileSize)
	}

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return content, nil
}
