package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sdmflash.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Backend != "ioctl" {
		t.Errorf("expected backend=ioctl, got %s", cfg.Backend)
	}
	if cfg.Device != "/dev/fcs" {
		t.Errorf("expected device=/dev/fcs, got %s", cfg.Device)
	}
	if cfg.EraseDelayDuration() != 500*time.Millisecond {
		t.Errorf("expected erase_delay=500ms, got %s", cfg.EraseDelay)
	}
	if cfg.ChunkWords != 0x200 {
		t.Errorf("expected chunk_words=512, got %d", cfg.ChunkWords)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config does not validate: %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	t.Setenv("SDMFLASH_TEST_DIR", "/tmp/flash")
	path := writeConfig(t, `
backend: simulator
image: ${SDMFLASH_TEST_DIR}/qspi.img
chip_select:
  id: 2
  continuous_address: true
erase_delay: 1s
chunk_words: 256
layout:
  mbr_sector: 0
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() failed: %v", err)
	}

	want := Default()
	want.Backend = "simulator"
	want.Image = "/tmp/flash/qspi.img"
	want.ChipSelect = ChipSelectConfig{ID: 2, ContinuousAddress: true}
	want.EraseDelay = "1s"
	want.ChunkWords = 256
	want.Layout.MBRSector = 0
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}

	opts := cfg.FlashOptions()
	if len(opts) != 3 {
		t.Errorf("FlashOptions() returned %d options, want 3", len(opts))
	}
}

func TestLoad(t *testing.T) {
	t.Setenv(EnvVar, "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() without %s: %v", EnvVar, err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("expected defaults (-want +got):\n%s", diff)
	}

	t.Setenv(EnvVar, writeConfig(t, "device: /dev/fcs1\n"))
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Device != "/dev/fcs1" {
		t.Errorf("expected device=/dev/fcs1, got %s", cfg.Device)
	}

	t.Setenv(EnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := Load(); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoadFileInvalidYAML(t *testing.T) {
	path := writeConfig(t, "chunk_words: [1, 2\n")
	if _, err := LoadFile(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		errMsg string
	}{
		{"unknown backend", func(c *Config) { c.Backend = "jtag" }, "unknown backend"},
		{"simulator without image", func(c *Config) { c.Backend = "simulator" }, "image is required"},
		{"chip select", func(c *Config) { c.ChipSelect.ID = 16 }, "chip_select.id"},
		{"zero chunk", func(c *Config) { c.ChunkWords = 0 }, "chunk_words"},
		{"large chunk", func(c *Config) { c.ChunkWords = 0x201 }, "chunk_words"},
		{"bad delay", func(c *Config) { c.EraseDelay = "soon" }, "erase_delay"},
		{"negative delay", func(c *Config) { c.EraseDelay = "-1s" }, "erase_delay"},
		{"image size", func(c *Config) { c.ImageSize = 0x1800 }, "image_size"},
		{"puf offset", func(c *Config) { c.Layout.PUFOffset = 0x800 }, "puf_offset"},
		{"directory words", func(c *Config) { c.Layout.DirectoryWords = 0 }, "directory_words"},
		{"directory address", func(c *Config) { c.Layout.DirectoryAddress = 0x200100 }, "directory_address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.errMsg)
			}
			if !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("error = %v, want substring %q", err, tt.errMsg)
			}
		})
	}
}
