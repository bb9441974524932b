//go:build darwin || linux

package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/moffa90/go-sdmflash/config"
	"github.com/moffa90/go-sdmflash/protocol"
	"github.com/moffa90/go-sdmflash/puf"
)

// execute runs the CLI with args and returns its standard output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv(config.EnvVar, "")
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestProvisionImage(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "sdmflash.yaml", []byte("erase_delay: 0s\n"))
	img := filepath.Join(dir, "qspi.img")

	out, err := execute(t, "--config", cfg, "init-image", "--size", "4m", img)
	if err != nil {
		t.Fatalf("init-image: %v", err)
	}
	if !strings.Contains(out, "0x00020000, 0x00028000") {
		t.Errorf("init-image output missing block pair:\n%s", out)
	}
	if !strings.Contains(out, "0x00200000, 0x00204000") {
		t.Errorf("init-image output missing directory:\n%s", out)
	}

	key := make([]byte, 64)
	binary.LittleEndian.PutUint32(key, puf.MagicWrappedKey)
	keyPath := writeFile(t, dir, "key.bin", key)
	if _, err := execute(t, "--config", cfg, "--image", img, "write-key", "--puf-type", "USER_IID", keyPath); err != nil {
		t.Fatalf("write-key: %v", err)
	}

	helperPath := writeFile(t, dir, "helper.hex", []byte("# UDS_INTEL helper data\n0102030405060708\n"))
	if _, err := execute(t, "--config", cfg, "--image", img, "write-helper", "--puf-type", "uds-intel", helperPath); err != nil {
		t.Fatalf("write-helper: %v", err)
	}

	out, err = execute(t, "--config", cfg, "--image", img, "show")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	for _, want := range []string{"(1 sections)", "present", "UDS_INTEL_PUF", "0x00020000"} {
		if !strings.Contains(out, want) {
			t.Errorf("show output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteKeyUnsupportedType(t *testing.T) {
	dir := t.TempDir()
	keyPath := writeFile(t, dir, "key.bin", []byte{1, 2, 3, 4})

	_, err := execute(t, "--image", filepath.Join(dir, "missing.img"), "write-key", "--puf-type", "UDS_EFUSE", keyPath)
	if protocol.ClassOf(err) != protocol.ClassPrecondition {
		t.Errorf("expected precondition error, got %v", err)
	}
}

func TestWriteKeyRequiresType(t *testing.T) {
	if _, err := execute(t, "write-key", "key.bin"); err == nil {
		t.Error("expected error without --puf-type")
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"4m", 4 << 20, false},
		{"64k", 64 << 10, false},
		{"0x400000", 0x400000, false},
		{"8192", 8192, false},
		{"0", 0, true},
		{"big", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseSize(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseSize(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseSize(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}
