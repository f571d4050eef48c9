package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/petasbytes/runloop/internal/config"
)

// chdir stands in for testing.T.Chdir, which needs Go 1.24: it enters dir,
// updates PWD the same way, and restores the original directory on cleanup.
func chdir(t *testing.T, dir string) {
	t.Helper()
	oldwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	if !filepath.IsAbs(dir) {
		if dir, err = os.Getwd(); err != nil {
			t.Fatal(err)
		}
	}
	t.Setenv("PWD", dir)
	t.Cleanup(func() {
		if err := os.Chdir(oldwd); err != nil {
			panic("chdir cleanup: " + err.Error())
		}
	})
}

// clearAgtEnv blanks every override this package reads so ambient shell
// state cannot leak into assertions.
func clearAgtEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"AGT_MODEL", "AGT_MAX_STEPS", "AGT_MAX_TOOL_CALLS", "AGT_MAX_TOKENS",
		"AGT_MODEL_TIMEOUT_MS", "AGT_TOOL_TIMEOUT_MS", "AGT_STREAM",
		"AGT_OBSERVE_JSON", "AGT_OBSERVE_DIR",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_DefaultsWhenNothingConfigured(t *testing.T) {
	clearAgtEnv(t)
	chdir(t, t.TempDir())

	s, err := config.Load("")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if s.MaxSteps != 8 || s.ObserveDir != ".runloop" {
		t.Fatalf("unexpected defaults: %+v", s)
	}
	if s.Model != "" || s.Stream || s.ObserveJSON || s.MaxToolCalls != 0 {
		t.Fatalf("defaults should leave optional knobs zero: %+v", s)
	}
}

func TestLoad_ReadsYAMLFile(t *testing.T) {
	clearAgtEnv(t)
	dir := t.TempDir()
	chdir(t, dir)
	path := filepath.Join(dir, "runloop.yaml")
	yaml := "model: gpt-4.1\nmax_steps: 3\nmax_tool_calls: 5\nstream: true\nmodel_call_timeout_ms: 2500\nobserve_json: true\nobserve_dir: out\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := config.Load(path)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if s.Model != "gpt-4.1" || s.MaxSteps != 3 || s.MaxToolCalls != 5 || !s.Stream {
		t.Fatalf("yaml values not applied: %+v", s)
	}
	if !s.ObserveJSON || s.ObserveDir != "out" {
		t.Fatalf("observe values not applied: %+v", s)
	}
	rc := s.RunConfig()
	if rc.ModelCallTimeout != 2500*time.Millisecond || rc.ToolCallTimeout != 0 {
		t.Fatalf("timeout projection wrong: %+v", rc)
	}
	if rc.MaxSteps != 3 || rc.MaxToolCalls != 5 {
		t.Fatalf("bound projection wrong: %+v", rc)
	}
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	clearAgtEnv(t)
	dir := t.TempDir()
	chdir(t, dir)
	path := filepath.Join(dir, "runloop.yaml")
	if err := os.WriteFile(path, []byte("model: gpt-4.1\nmax_steps: 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("AGT_MODEL", "claude-3-7-sonnet-latest")
	t.Setenv("AGT_MAX_STEPS", "6")
	t.Setenv("AGT_STREAM", "true")

	s, err := config.Load(path)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if s.Model != "claude-3-7-sonnet-latest" || s.MaxSteps != 6 || !s.Stream {
		t.Fatalf("env overrides not applied: %+v", s)
	}
}

func TestLoad_ExplicitMissingPath_ReturnsError(t *testing.T) {
	clearAgtEnv(t)
	chdir(t, t.TempDir())
	_, err := config.Load("nope.yaml")
	if err == nil || !strings.Contains(err.Error(), "config: read nope.yaml") {
		t.Fatalf("expected read error, got %v", err)
	}
}

func TestLoad_BadYAML_ReturnsError(t *testing.T) {
	clearAgtEnv(t)
	dir := t.TempDir()
	chdir(t, dir)
	path := filepath.Join(dir, "runloop.yaml")
	if err := os.WriteFile(path, []byte("max_steps: [nope"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), "config: parse") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestLoad_InvalidEnvValues_ReturnError(t *testing.T) {
	clearAgtEnv(t)
	chdir(t, t.TempDir())

	t.Setenv("AGT_MAX_STEPS", "many")
	if _, err := config.Load(""); err == nil || !strings.Contains(err.Error(), "AGT_MAX_STEPS") {
		t.Fatalf("expected int parse error, got %v", err)
	}
	t.Setenv("AGT_MAX_STEPS", "4")

	t.Setenv("AGT_STREAM", "yes")
	if _, err := config.Load(""); err == nil || !strings.Contains(err.Error(), "AGT_STREAM") {
		t.Fatalf("expected bool parse error, got %v", err)
	}
}

func TestLoad_RejectsInvalidBounds(t *testing.T) {
	clearAgtEnv(t)
	chdir(t, t.TempDir())
	t.Setenv("AGT_MAX_STEPS", "0")
	if _, err := config.Load(""); err == nil || !strings.Contains(err.Error(), "max_steps") {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLoad_DotEnvFile(t *testing.T) {
	clearAgtEnv(t)
	dir := t.TempDir()
	chdir(t, dir)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("AGT_MODEL=gpt-4.1\nAGT_MAX_TOOL_CALLS=7\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	// godotenv never overrides variables already set; blank counts as set,
	// so unset the two keys this test relies on.
	os.Unsetenv("AGT_MODEL")
	os.Unsetenv("AGT_MAX_TOOL_CALLS")
	t.Cleanup(func() {
		os.Unsetenv("AGT_MODEL")
		os.Unsetenv("AGT_MAX_TOOL_CALLS")
	})

	s, err := config.Load("")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if s.Model != "gpt-4.1" || s.MaxToolCalls != 7 {
		t.Fatalf(".env values not applied: %+v", s)
	}
}
