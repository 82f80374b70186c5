// Package serialport reads the headset's two channels from a pair of serial
// ports, one per ear.
package serialport

import (
	"context"
	"sync"

	"github.com/hesamdc/mindease/pkg/tgam"
	"go.bug.st/serial"
	"golang.org/x/sync/errgroup"
)

const readBufferSize = 64

type SerialDevice struct {
	names [tgam.NumChannels]string
	mode  *serial.Mode

	mu    sync.Mutex
	ports [tgam.NumChannels]serial.Port
}

func NewSerialDevice(leftPort, rightPort string, baudRate int) *SerialDevice {
	d := &SerialDevice{
		mode: &serial.Mode{
			BaudRate: baudRate,
			DataBits: 8,
			Parity:   serial.NoParity,
			StopBits: serial.OneStopBit,
		},
	}
	d.names[tgam.ChannelLeft] = leftPort
	d.names[tgam.ChannelRight] = rightPort
	return d
}

// Start opens both ports and pumps chunks until the context closes or either
// port fails. Ports are reopened on every Start so the caller's retry loop
// gets a fresh connection.
func (d *SerialDevice) Start(ctx context.Context, chunks chan<- tgam.Chunk) error {
	d.mu.Lock()
	for ch := tgam.Channel(0); ch < tgam.NumChannels; ch++ {
		port, err := serial.Open(d.names[ch], d.mode)
		if err != nil {
			d.closePortsLocked()
			d.mu.Unlock()
			return err
		}
		d.ports[ch] = port
	}
	d.mu.Unlock()
	defer d.closePorts()

	eg, ctx := errgroup.WithContext(ctx)

	for ch := tgam.Channel(0); ch < tgam.NumChannels; ch++ {
		thisCh := ch
		port := d.ports[thisCh]
		eg.Go(func() error {
			for {
				buf := make([]byte, readBufferSize)
				n, err := port.Read(buf)
				if err != nil {
					if ctx.Err() != nil {
						return ctx.Err()
					}
					return err
				}
				if n == 0 {
					continue
				}

				select {
				case <-ctx.Done():
					return ctx.Err()
				case chunks <- tgam.Chunk{Channel: thisCh, Data: buf[:n]}:
				}
			}
		})
	}

	// Port reads have no context support; closing the ports on cancellation
	// unblocks them.
	eg.Go(func() error {
		<-ctx.Done()
		d.closePorts()
		return ctx.Err()
	})

	return eg.Wait()
}

func (d *SerialDevice) Stop() error {
	d.closePorts()
	return nil
}

func (d *SerialDevice) closePorts() {
	d.mu.Lock()
	d.closePortsLocked()
	d.mu.Unlock()
}

func (d *SerialDevice) closePortsLocked() {
	for ch, port := range d.ports {
		if port != nil {
			port.Close()
			d.ports[ch] = nil
		}
	}
}
