// Package config loads sdmflash configuration.
//
// Configuration is read from a single YAML file named by the --config flag
// or the SDMFLASH_CONFIG environment variable. Without either, Default is
// used. Command-line flags override file values.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/moffa90/go-sdmflash/objdir"
	"github.com/moffa90/go-sdmflash/protocol"
	"github.com/moffa90/go-sdmflash/qspi"
	"github.com/moffa90/go-sdmflash/sdm"
)

// EnvVar names the environment variable holding the config file path.
const EnvVar = "SDMFLASH_CONFIG"

// Config is the sdmflash configuration.
type Config struct {
	// Backend is "ioctl" for real hardware or "simulator" for an image file.
	Backend string `yaml:"backend"`

	// Device is the FCS driver device used by the ioctl backend.
	// Default: /dev/fcs
	Device string `yaml:"device"`

	// Image is the flash image file used by the simulator backend.
	Image string `yaml:"image"`

	// ImageSize is the size in bytes of images created by init-image.
	// Default: 4 MiB
	ImageSize int64 `yaml:"image_size"`

	// ChipSelect is selected at the start of every flash session.
	ChipSelect ChipSelectConfig `yaml:"chip_select"`

	// EraseDelay is the settle time before each erase, as a Go duration.
	// Default: 500ms
	EraseDelay string `yaml:"erase_delay"`

	// ChunkWords is the maximum number of words per mailbox transfer.
	// Default: 512
	ChunkWords uint32 `yaml:"chunk_words"`

	// Layout places the structures written by init-image.
	Layout LayoutConfig `yaml:"layout"`
}

// ChipSelectConfig selects the flash chip line.
type ChipSelectConfig struct {
	ID                uint8 `yaml:"id"`
	Mode              bool  `yaml:"mode"`
	ContinuousAddress bool  `yaml:"continuous_address"`
}

// LayoutConfig describes where init-image puts the provisioning structures.
type LayoutConfig struct {
	// MBRSector is the start sector of the configuration data partition.
	// Zero writes no partition table.
	MBRSector uint32 `yaml:"mbr_sector"`

	// PUFOffset is the block0 offset from the configuration data base.
	PUFOffset uint32 `yaml:"puf_offset"`

	// DirectoryAddress is where the first object directory copy starts.
	DirectoryAddress uint32 `yaml:"directory_address"`

	// DirectoryWords is the size of one object directory copy in words.
	DirectoryWords uint32 `yaml:"directory_words"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Backend:    string(sdm.BackendIoctl),
		Device:     sdm.DefaultDevicePath,
		ImageSize:  4 << 20,
		EraseDelay: qspi.DefaultEraseDelay.String(),
		ChunkWords: protocol.MaxTransferWords,
		Layout: LayoutConfig{
			MBRSector:        0x80,
			PUFOffset:        0x10000,
			DirectoryAddress: objdir.BaseAddress,
			DirectoryWords:   0x1000,
		},
	}
}

// Load loads the file named by SDMFLASH_CONFIG, or returns Default when the
// variable is not set.
func Load() (*Config, error) {
	path := os.Getenv(EnvVar)
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile loads configuration from path on top of Default.
// ${VAR} references in paths are expanded from the environment.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	cfg.Device = os.ExpandEnv(cfg.Device)
	cfg.Image = os.ExpandEnv(cfg.Image)
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	backend, err := sdm.ParseBackend(c.Backend)
	if err != nil {
		errs = append(errs, err)
	}
	if backend == sdm.BackendSimulator && c.Image == "" {
		errs = append(errs, errors.New("image is required for the simulator backend"))
	}
	if c.ChipSelect.ID > protocol.MaxChipSelect {
		errs = append(errs, fmt.Errorf("chip_select.id %d exceeds %d", c.ChipSelect.ID, protocol.MaxChipSelect))
	}
	if c.ChunkWords == 0 || c.ChunkWords > protocol.MaxTransferWords {
		errs = append(errs, fmt.Errorf("chunk_words must be between 1 and %d, got %d", protocol.MaxTransferWords, c.ChunkWords))
	}
	if d, err := time.ParseDuration(c.EraseDelay); err != nil {
		errs = append(errs, fmt.Errorf("invalid erase_delay: %w", err))
	} else if d < 0 {
		errs = append(errs, fmt.Errorf("erase_delay must not be negative, got %s", d))
	}
	if c.ImageSize <= 0 || c.ImageSize%protocol.EraseAlignment != 0 {
		errs = append(errs, fmt.Errorf("image_size must be a positive multiple of 0x%X, got %d", protocol.EraseAlignment, c.ImageSize))
	}
	if c.Layout.PUFOffset == 0 || c.Layout.PUFOffset%protocol.EraseAlignment != 0 {
		errs = append(errs, fmt.Errorf("layout.puf_offset must be a non-zero multiple of 0x%X", protocol.EraseAlignment))
	}
	if c.Layout.DirectoryWords == 0 || c.Layout.DirectoryWords%protocol.EraseAlignment != 0 {
		errs = append(errs, fmt.Errorf("layout.directory_words must be a non-zero multiple of 0x%X", protocol.EraseAlignment))
	}
	if c.Layout.DirectoryAddress%protocol.EraseAlignment != 0 {
		errs = append(errs, fmt.Errorf("layout.directory_address 0x%X is not erase aligned", c.Layout.DirectoryAddress))
	}

	return errors.Join(errs...)
}

// EraseDelayDuration returns EraseDelay parsed, or the default delay when
// it does not parse.
func (c *Config) EraseDelayDuration() time.Duration {
	d, err := time.ParseDuration(c.EraseDelay)
	if err != nil {
		return qspi.DefaultEraseDelay
	}
	return d
}

// FlashOptions returns the qspi options for this configuration.
func (c *Config) FlashOptions() []qspi.Option {
	return []qspi.Option{
		qspi.WithChunkWords(c.ChunkWords),
		qspi.WithEraseDelay(c.EraseDelayDuration()),
		qspi.WithChipSelect(protocol.ChipSelect{
			ID:                c.ChipSelect.ID,
			Mode:              c.ChipSelect.Mode,
			ContinuousAddress: c.ChipSelect.ContinuousAddress,
		}),
	}
}
