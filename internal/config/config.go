// Package config resolves runloop settings from layered sources: built-in
// defaults, an optional YAML file, a .env file, and AGT_* environment
// variables. Later layers win.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/petasbytes/runloop/run"
)

// DefaultYAMLPath is consulted when no explicit config path is given.
const DefaultYAMLPath = "runloop.yaml"

// Settings is everything the runloop binary needs to wire a run: the model
// to call, the loop bounds, and the observability toggles. Timeouts are
// plain milliseconds so YAML and env share one format.
type Settings struct {
	Model              string `yaml:"model"`
	MaxTokens          int    `yaml:"max_tokens"`
	Stream             bool   `yaml:"stream"`
	MaxSteps           int    `yaml:"max_steps"`
	MaxToolCalls       int    `yaml:"max_tool_calls"`
	ModelCallTimeoutMS int    `yaml:"model_call_timeout_ms"`
	ToolCallTimeoutMS  int    `yaml:"tool_call_timeout_ms"`
	ObserveJSON        bool   `yaml:"observe_json"`
	ObserveDir         string `yaml:"observe_dir"`
}

func Defaults() Settings {
	return Settings{
		MaxSteps:   8,
		ObserveDir: ".runloop",
	}
}

// Load resolves settings. An empty yamlPath means "use runloop.yaml when
// present"; an explicit path must exist. The resulting loop bounds are
// validated here so a bad file or env fails before any run starts.
func Load(yamlPath string) (Settings, error) {
	s := Defaults()

	explicit := yamlPath != ""
	if yamlPath == "" {
		yamlPath = DefaultYAMLPath
	}
	b, err := os.ReadFile(yamlPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &s); err != nil {
			return Settings{}, fmt.Errorf("config: parse %s: %w", yamlPath, err)
		}
	case explicit:
		return Settings{}, fmt.Errorf("config: read %s: %w", yamlPath, err)
	}

	// A .env file may hold AGT_* values and API keys. Missing files are
	// fine, and variables already set in the environment keep their values.
	_ = godotenv.Load()

	if err := s.applyEnv(); err != nil {
		return Settings{}, err
	}
	if err := s.RunConfig().Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func (s *Settings) applyEnv() error {
	if v := os.Getenv("AGT_MODEL"); v != "" {
		s.Model = v
	}
	if v := os.Getenv("AGT_OBSERVE_DIR"); v != "" {
		s.ObserveDir = v
	}
	var err error
	if s.MaxSteps, err = intEnv("AGT_MAX_STEPS", s.MaxSteps); err != nil {
		return err
	}
	if s.MaxToolCalls, err = intEnv("AGT_MAX_TOOL_CALLS", s.MaxToolCalls); err != nil {
		return err
	}
	if s.MaxTokens, err = intEnv("AGT_MAX_TOKENS", s.MaxTokens); err != nil {
		return err
	}
	if s.ModelCallTimeoutMS, err = intEnv("AGT_MODEL_TIMEOUT_MS", s.ModelCallTimeoutMS); err != nil {
		return err
	}
	if s.ToolCallTimeoutMS, err = intEnv("AGT_TOOL_TIMEOUT_MS", s.ToolCallTimeoutMS); err != nil {
		return err
	}
	if s.Stream, err = boolEnv("AGT_STREAM", s.Stream); err != nil {
		return err
	}
	if s.ObserveJSON, err = boolEnv("AGT_OBSERVE_JSON", s.ObserveJSON); err != nil {
		return err
	}
	return nil
}

// RunConfig projects the settings into the immutable per-run config.
func (s Settings) RunConfig() run.Config {
	return run.Config{
		MaxSteps:         s.MaxSteps,
		MaxToolCalls:     s.MaxToolCalls,
		ModelCallTimeout: time.Duration(s.ModelCallTimeoutMS) * time.Millisecond,
		ToolCallTimeout:  time.Duration(s.ToolCallTimeoutMS) * time.Millisecond,
	}
}

func intEnv(key string, cur int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return cur, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func boolEnv(key string, cur bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return cur, nil
	}
	switch v {
	case "1", "true":
		return true, nil
	case "0", "false":
		return false, nil
	}
	return false, fmt.Errorf("config: invalid %s %q: want 0/1/true/false", key, v)
}
