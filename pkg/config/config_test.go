package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type testConfig struct {
	Name    string        `envconfig:"NAME" split_words:"true" default:"fallback"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"5s"`
}

func TestNewReadsEnvironment(t *testing.T) {
	t.Setenv("APP_NAME", "from-env")
	t.Setenv("APP_TIMEOUT", "12s")

	conf, err := New[testConfig]("APP")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if conf.Name != "from-env" {
		t.Fatalf("Name = %q, want from-env", conf.Name)
	}
	if conf.Timeout != 12*time.Second {
		t.Fatalf("Timeout = %v, want 12s", conf.Timeout)
	}
}

func TestNewAppliesDefaults(t *testing.T) {
	t.Setenv("APP_NAME", "")
	os.Unsetenv("APP_NAME")
	os.Unsetenv("APP_TIMEOUT")

	conf, err := New[testConfig]("APP")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if conf.Name != "fallback" {
		t.Fatalf("Name = %q, want fallback", conf.Name)
	}
}

func TestNewExportsEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("APP_NAME=from-file\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	os.Unsetenv("APP_NAME")
	t.Setenv(envFileVar, path)

	conf, err := New[testConfig]("APP")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if conf.Name != "from-file" {
		t.Fatalf("Name = %q, want from-file", conf.Name)
	}
}
