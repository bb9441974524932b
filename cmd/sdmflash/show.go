package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/moffa90/go-sdmflash/provision"
	"github.com/moffa90/go-sdmflash/puf"
)

func newShowCmd(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the PUF data blocks and the object directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flash, release, err := global.openFlash(cmd)
			if err != nil {
				return err
			}
			defer release()

			r, err := provision.NewWriter(flash).Inspect(cmd.Context())
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), r)
			return nil
		},
	}
}

func printReport(out io.Writer, r *provision.Report) {
	fmt.Fprintln(out, "PUF data blocks")
	if r.BlocksErr != nil {
		fmt.Fprintf(out, "  unavailable: %v\n", r.BlocksErr)
	} else {
		fmt.Fprintf(out, "  Base:    0x%08X\n", r.Blocks.Base)
		fmt.Fprintf(out, "  Block0:  0x%08X (%d sections)\n", r.Blocks.Block0, r.Count0)
		fmt.Fprintf(out, "  Block1:  0x%08X (%d sections)\n", r.Blocks.Block1, r.Count1)
		printSections(out, r.Block0, r.Block1)
	}

	fmt.Fprintln(out, "Object directory")
	if r.DirectoryErr != nil {
		fmt.Fprintf(out, "  unavailable: %v\n", r.DirectoryErr)
		return
	}
	fmt.Fprintf(out, "  Block0:  0x%08X\n", r.Directory.Block0)
	fmt.Fprintf(out, "  Block1:  0x%08X\n", r.Directory.Block1)
	fmt.Fprintf(out, "  Size:    %d words\n", r.Directory.SizeInWords)
	if len(r.Objects) == 0 {
		fmt.Fprintln(out, "  no objects")
		return
	}

	tw := tabwriter.NewWriter(out, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  TYPE\tBLOCK\tSIZE\tCRC")
	for _, o := range r.Objects {
		fmt.Fprintf(tw, "  %s\t%d\t%d\t0x%08X\n", o.Type, o.StartBlock, o.Size, o.CRC)
	}
	_ = tw.Flush()
}

func printSections(out io.Writer, block0, block1 []puf.SectionSummary) {
	tw := tabwriter.NewWriter(out, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  SECTION\tSLOT\tMAGIC\tBLOCK0\tBLOCK1")
	for i, s := range block0 {
		copy1 := "-"
		if i < len(block1) && block1[i].Present {
			copy1 = "present"
		}
		copy0 := "-"
		if s.Present {
			copy0 = "present"
		}
		fmt.Fprintf(tw, "  %s\t0x%X\t0x%08X\t%s\t%s\n", s.Section, s.Slot, s.Magic, copy0, copy1)
	}
	_ = tw.Flush()
}
