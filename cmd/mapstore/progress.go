package main

import (
	"io"

	"github.com/vbauerster/mpb/v6"
	"github.com/vbauerster/mpb/v6/decor"
)

// barProgress renders save progress as a terminal bar.
type barProgress struct {
	p   *mpb.Progress
	bar *mpb.Bar
}

func newBarProgress(w io.Writer, name string) *barProgress {
	p := mpb.New(mpb.WithOutput(w), mpb.WithWidth(48))
	bar := p.AddBar(0,
		mpb.PrependDecorators(decor.Name(name, decor.WCSyncSpaceR)),
		mpb.AppendDecorators(decor.CountersNoUnit("%d / %d")),
	)
	return &barProgress{p: p, bar: bar}
}

func (b *barProgress) Report(done, total int) {
	b.bar.SetTotal(int64(total), false)
	b.bar.SetCurrent(int64(done))
	if total > 0 && done >= total {
		b.bar.SetTotal(int64(total), true)
	}
}

// Wait flushes the bar. It must be called once the save returned.
func (b *barProgress) Wait() {
	if !b.bar.Completed() {
		b.bar.Abort(false)
	}
	b.p.Wait()
}
