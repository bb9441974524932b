package main

import (
	"io"

	"github.com/cheggaaa/pb/v3"

	"github.com/moffa90/go-sdmflash/protocol"
	"github.com/moffa90/go-sdmflash/qspi"
)

// progressBars draws one bar per flash transfer.
type progressBars struct {
	out     io.Writer
	bar     *pb.ProgressBar
	phase   string
	address uint32
}

func newProgressBars(out io.Writer) *progressBars {
	return &progressBars{out: out}
}

func (p *progressBars) update(progress qspi.Progress) {
	if p.bar == nil || progress.Phase != p.phase || progress.Address != p.address {
		p.finish()
		p.phase, p.address = progress.Phase, progress.Address
		p.bar = pb.New64(int64(progress.TotalWords) * protocol.WordSize).
			SetTemplate(pb.Full).
			SetWriter(p.out).
			Set(pb.Bytes, true).
			Set("prefix", progress.Phase+" ").
			Start()
	}

	p.bar.SetCurrent(int64(progress.DoneWords) * protocol.WordSize)
	if progress.DoneWords >= progress.TotalWords {
		p.finish()
	}
}

func (p *progressBars) finish() {
	if p.bar != nil {
		p.bar.Finish()
		p.bar = nil
	}
}
