// Package file replays per-channel stream captures from disk, standing in for
// the headset during development and tests.
package file

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/hesamdc/mindease/pkg/tgam"
)

type FileDevice struct {
	files    [tgam.NumChannels]*os.File
	readSize int
	interval time.Duration
}

// NewFileDevice opens one capture file per channel. readSize bytes are read
// from each file every interval, roughly matching the chunk sizes a live
// transport delivers.
func NewFileDevice(leftPath, rightPath string, readSize int, interval time.Duration) (*FileDevice, error) {
	left, err := os.Open(leftPath)
	if err != nil {
		return nil, err
	}
	right, err := os.Open(rightPath)
	if err != nil {
		left.Close()
		return nil, err
	}

	d := &FileDevice{
		readSize: readSize,
		interval: interval,
	}
	d.files[tgam.ChannelLeft] = left
	d.files[tgam.ChannelRight] = right
	return d, nil
}

func (d *FileDevice) Start(ctx context.Context, chunks chan<- tgam.Chunk) error {
	tick := time.NewTicker(d.interval)
	defer tick.Stop()

	done := [tgam.NumChannels]bool{}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
		}

		finished := true
		for ch := tgam.Channel(0); ch < tgam.NumChannels; ch++ {
			if done[ch] {
				continue
			}
			finished = false

			buf := make([]byte, d.readSize)
			n, err := d.files[ch].Read(buf)
			if n > 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case chunks <- tgam.Chunk{Channel: ch, Data: buf[:n]}:
				}
			}
			if err == io.EOF {
				done[ch] = true
				continue
			}
			if err != nil {
				return err
			}
		}

		if finished {
			return nil
		}
	}
}

func (d *FileDevice) Stop() error {
	var firstErr error
	for _, f := range d.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
