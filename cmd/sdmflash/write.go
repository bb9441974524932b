package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/moffa90/go-sdmflash/payload"
	"github.com/moffa90/go-sdmflash/provision"
)

// writeOptions holds the flags shared by write-key and write-helper.
type writeOptions struct {
	pufType string
	format  string
}

// writeFunc stores data of the given PUF type.
type writeFunc func(w *provision.Writer, ctx context.Context, data []byte, t provision.PufType) error

// checkFunc validates data of the given PUF type before the flash is opened.
type checkFunc func(data []byte, t provision.PufType) error

func newWriteKeyCmd(global *globalOptions) *cobra.Command {
	return newWriteCmd(global, "write-key FILE",
		"Write a wrapped key to both PUF data block copies",
		"USER_IID|UDS_IID",
		provision.CheckWrappedKey,
		(*provision.Writer).WriteWrappedKey)
}

func newWriteHelperCmd(global *globalOptions) *cobra.Command {
	return newWriteCmd(global, "write-helper FILE",
		"Write PUF helper data (UDS_IID to the PUF data block, UDS_INTEL to the object directory)",
		"UDS_IID|UDS_INTEL",
		provision.CheckHelperData,
		(*provision.Writer).WriteHelperData)
}

func newWriteCmd(global *globalOptions, use, short, types string, check checkFunc, write writeFunc) *cobra.Command {
	opts := &writeOptions{}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := provision.ParsePufType(opts.pufType)
			if err != nil {
				return err
			}
			format, err := payload.ParseFormat(opts.format)
			if err != nil {
				return err
			}
			p, err := payload.Parse(args[0], format)
			if err != nil {
				return fmt.Errorf("load %s: %w", args[0], err)
			}
			if err := check(p.Data, t); err != nil {
				return err
			}

			flash, release, err := global.openFlash(cmd)
			if err != nil {
				return err
			}
			defer release()

			if err := write(provision.NewWriter(flash), cmd.Context(), p.Data, t); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d bytes (%s, magic 0x%08X) for %s\n",
				len(p.Data), p.Format, p.Magic(), t)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.pufType, "puf-type", "", "PUF type: "+types)
	cmd.Flags().StringVar(&opts.format, "format", "auto", "payload file format: auto, binary or hex")
	_ = cmd.MarkFlagRequired("puf-type")
	return cmd
}
