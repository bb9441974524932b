package main

import (
	goflag "flag"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"k8s.io/klog/v2"

	"github.com/moffa90/go-sdmflash/config"
	"github.com/moffa90/go-sdmflash/qspi"
	"github.com/moffa90/go-sdmflash/sdm"
)

// globalOptions holds the flags shared by every command.
type globalOptions struct {
	configPath string
	backend    string
	device     string
	image      string
	progress   bool

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "sdmflash",
		Short: "Write PUF activation data to SDM-attached QSPI flash",
		Long: "Write PUF wrapped keys and helper data to the QSPI flash behind an FPGA secure device manager.\n" +
			"Every record is kept in two redundant copies.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.load(cmd.Flags())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default $"+config.EnvVar+")")
	flags.StringVar(&opts.backend, "backend", "", "mailbox backend: ioctl or simulator")
	flags.StringVar(&opts.device, "device", "", "FCS driver device for the ioctl backend")
	flags.StringVar(&opts.image, "image", "", "flash image file for the simulator backend")
	flags.BoolVar(&opts.progress, "progress", false, "show transfer progress bars")

	klogFlags := goflag.NewFlagSet("klog", goflag.ContinueOnError)
	klog.InitFlags(klogFlags)
	flags.AddGoFlagSet(klogFlags)

	root.AddCommand(
		newWriteKeyCmd(opts),
		newWriteHelperCmd(opts),
		newShowCmd(opts),
		newInitImageCmd(opts),
	)
	return root
}

// load reads the config file and applies flag overrides.
func (o *globalOptions) load(flags *pflag.FlagSet) error {
	var err error
	if o.configPath != "" {
		o.cfg, err = config.LoadFile(o.configPath)
	} else {
		o.cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if flags.Changed("backend") {
		o.cfg.Backend = o.backend
	}
	if flags.Changed("device") {
		o.cfg.Device = o.device
	}
	if flags.Changed("image") {
		o.cfg.Image = o.image
		if !flags.Changed("backend") {
			o.cfg.Backend = string(sdm.BackendSimulator)
		}
	}

	klog.V(2).InfoS("Configuration loaded", "backend", o.cfg.Backend, "device", o.cfg.Device, "image", o.cfg.Image)
	return nil
}

// openFlash opens the configured mailbox and returns the flash transport on
// top of it. The returned function releases the mailbox.
func (o *globalOptions) openFlash(cmd *cobra.Command) (*qspi.Flash, func(), error) {
	if err := o.cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	backend, err := sdm.ParseBackend(o.cfg.Backend)
	if err != nil {
		return nil, nil, err
	}

	path := o.cfg.Device
	if backend == sdm.BackendSimulator {
		path = o.cfg.Image
	}
	mb, err := sdm.Open(backend, path)
	if err != nil {
		return nil, nil, err
	}

	return qspi.New(mb, o.flashOptions(cmd)...), func() {
		if err := mb.Close(); err != nil {
			klog.ErrorS(err, "Failed to close mailbox")
		}
	}, nil
}

func (o *globalOptions) flashOptions(cmd *cobra.Command) []qspi.Option {
	opts := o.cfg.FlashOptions()
	if o.progress {
		opts = append(opts, qspi.WithProgressCallback(newProgressBars(cmd.ErrOrStderr()).update))
	}
	return opts
}
