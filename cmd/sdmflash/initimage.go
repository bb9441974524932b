package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/moffa90/go-sdmflash/objdir"
	"github.com/moffa90/go-sdmflash/puf"
	"github.com/moffa90/go-sdmflash/qspi"
	"github.com/moffa90/go-sdmflash/sdm"
)

type initImageOptions struct {
	size        string
	mbrSector   uint32
	pufOffset   uint32
	objdirWords uint32
}

func newInitImageCmd(global *globalOptions) *cobra.Command {
	opts := &initImageOptions{}

	cmd := &cobra.Command{
		Use:   "init-image FILE",
		Short: "Create a flash image with empty PUF data blocks and object directory",
		Long: "Create an erased flash image for the simulator backend, then lay out an empty\n" +
			"PUF data block pair and an empty object directory in it.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			layout := global.cfg.Layout
			size := global.cfg.ImageSize
			if cmd.Flags().Changed("size") {
				n, err := parseSize(opts.size)
				if err != nil {
					return fmt.Errorf("invalid --size: %w", err)
				}
				size = n
			}
			if cmd.Flags().Changed("mbr-sector") {
				layout.MBRSector = opts.mbrSector
			}
			if cmd.Flags().Changed("puf-offset") {
				layout.PUFOffset = opts.pufOffset
			}
			if cmd.Flags().Changed("objdir-words") {
				layout.DirectoryWords = opts.objdirWords
			}

			sim, err := sdm.CreateImage(args[0], size)
			if err != nil {
				return err
			}
			defer func() {
				if err := sim.Close(); err != nil {
					klog.ErrorS(err, "Failed to close flash image")
				}
			}()

			flash := qspi.New(sim, global.flashOptions(cmd)...)
			var (
				pair      puf.BlockPair
				partition objdir.Partition
			)
			err = flash.Session(cmd.Context(), func(ctx context.Context) error {
				var err error
				if pair, err = puf.NewManager(flash).Initialize(ctx, layout.MBRSector, layout.PUFOffset); err != nil {
					return err
				}
				partition, err = objdir.NewManager(flash).Initialize(ctx, layout.DirectoryAddress, layout.DirectoryWords)
				return err
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created %s (%d bytes)\n", args[0], size)
			fmt.Fprintf(out, "  PUF data blocks:   0x%08X, 0x%08X\n", pair.Block0, pair.Block1)
			fmt.Fprintf(out, "  Object directory:  0x%08X, 0x%08X (%d words)\n",
				partition.Block0, partition.Block1, partition.SizeInWords)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.size, "size", "", "image size, e.g. 4m or 0x400000 (default from config)")
	cmd.Flags().Uint32Var(&opts.mbrSector, "mbr-sector", 0, "configuration data partition start sector, 0 for no partition table")
	cmd.Flags().Uint32Var(&opts.pufOffset, "puf-offset", 0, "PUF data block0 offset from the configuration data base")
	cmd.Flags().Uint32Var(&opts.objdirWords, "objdir-words", 0, "size of one object directory copy in words")
	return cmd
}

// parseSize accepts a byte count with an optional k or m suffix, in decimal
// or with a 0x prefix.
func parseSize(s string) (int64, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	mult := int64(1)
	switch {
	case strings.HasPrefix(s, "0x"):
	case strings.HasSuffix(s, "k"):
		mult = 1 << 10
		s = strings.TrimSuffix(s, "k")
	case strings.HasSuffix(s, "m"):
		mult = 1 << 20
		s = strings.TrimSuffix(s, "m")
	}
	v, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		return 0, err
	}
	if v <= 0 {
		return 0, fmt.Errorf("size must be positive, got %d", v)
	}
	return v * mult, nil
}
