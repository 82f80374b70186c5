// Package mindease wires the headset transport, frame demuxing, rate
// accounting, and dual-channel synchronization into one engine.
package mindease

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go"
	"github.com/influxdata/influxdb-client-go/api"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/hesamdc/mindease/pkg/mindease/device"
	"github.com/hesamdc/mindease/pkg/mindease/output"
	"github.com/hesamdc/mindease/pkg/mindease/status"
	"github.com/hesamdc/mindease/pkg/tgam"
	"github.com/hesamdc/mindease/pkg/tgam/frame"
	"github.com/hesamdc/mindease/pkg/util"
)

const (
	defaultRetryAttempts = 5
	defaultRetryBackoff  = 5 * time.Second

	chunkChanDepth = 32
)

type Options struct {
	// RetryAttempts bounds how many times the transport is (re)started before
	// the failure is treated as fatal. Zero means the default of 5.
	RetryAttempts int
	// RetryBackoff is the fixed wait between transport attempts. Zero means
	// the default of 5s.
	RetryBackoff time.Duration
	// StatusPort, when non-zero, serves the status endpoint on that port.
	StatusPort int
}

type Engine struct {
	device   device.Device
	sink     output.Sink
	opts     Options
	writeAPI api.WriteAPI
	logger   zerolog.Logger

	chunkChan chan tgam.Chunk
	demuxers  [tgam.NumChannels]*frame.Demuxer
	monitor   *tgam.RateMonitor
	sync      *Synchronizer

	ctx    context.Context
	cancel context.CancelFunc
}

type EngineOption func(e *Engine) error

func WithInfluxDB(writeAPI api.WriteAPI) EngineOption {
	return func(e *Engine) error {
		e.writeAPI = writeAPI
		return nil
	}
}

func WithLogger(logger zerolog.Logger) EngineOption {
	return func(e *Engine) error {
		e.logger = logger
		return nil
	}
}

func New(dev device.Device, sink output.Sink, options Options, opts ...EngineOption) (*Engine, error) {
	if dev == nil || sink == nil {
		return nil, fmt.Errorf("must provide a device and a sink")
	}

	e := &Engine{
		device:    dev,
		sink:      sink,
		opts:      options,
		writeAPI:  &util.MockWriteAPI{},
		logger:    log.Logger,
		chunkChan: make(chan tgam.Chunk, chunkChanDepth),
	}

	if e.opts.RetryAttempts == 0 {
		e.opts.RetryAttempts = defaultRetryAttempts
	}
	if e.opts.RetryBackoff == 0 {
		e.opts.RetryBackoff = defaultRetryBackoff
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	e.monitor = tgam.NewRateMonitor(e.writeAPI, e.logger)
	e.sync = NewSynchronizer(sink, e.logger)

	for ch := tgam.Channel(0); ch < tgam.NumChannels; ch++ {
		e.demuxers[ch] = frame.NewDemuxer(ch,
			func(s tgam.Sample) {
				e.sync.Push(s)
				e.monitor.Count(s.Channel, s.Microvolts)
			},
			func(r tgam.Reading) {
				e.monitor.Observe(r)
				e.logger.Debug().
					Str("channel", r.Channel.String()).
					Uint8("signal_quality", r.SignalQuality).
					Msg("headset reading")
			},
			e.logger)
	}

	return e, nil
}

// Monitor exposes the rate monitor, e.g. for status reporting.
func (e *Engine) Monitor() *tgam.RateMonitor {
	return e.monitor
}

// Stop cancels a running engine. Start still drains and flushes before
// returning, so stopping never loses queued samples.
func (e *Engine) Stop() error {
	if e.cancel != nil {
		e.cancel()
	}
	return e.device.Stop()
}

// Start runs the transport, demux, and synchronizer tasks until the stream
// ends, the transport permanently fails, or Stop is called. Whatever the exit
// cause, all queued samples are paired or written one-sided and the sink is
// flushed before Start returns. A cancellation exit returns nil.
func (e *Engine) Start(ctx context.Context) error {
	eg, ctx := errgroup.WithContext(ctx)
	e.ctx, e.cancel = context.WithCancel(ctx)

	eg.Go(e.runTransport)
	eg.Go(e.processChunks)
	eg.Go(func() error {
		return e.sync.Run(e.ctx)
	})

	if e.opts.StatusPort != 0 {
		srv := status.NewServer(e.opts.StatusPort, e.monitor, e.logger)
		eg.Go(func() error {
			return srv.Run(e.ctx)
		})
	}

	e.logger.Info().
		Int("retry_attempts", e.opts.RetryAttempts).
		Msg("starting")

	err := eg.Wait()

	// All tasks have stopped. Demux whatever the transport delivered before it
	// went down, then write out everything still queued.
	e.drainChunks()
	if flushErr := e.sync.Flush(); flushErr != nil {
		return flushErr
	}

	if err == context.Canceled {
		return nil
	}
	return err
}

// runTransport keeps the device running, restarting it after transient
// failures with fixed backoff. A clean device exit ends the whole run;
// exhausting the attempt budget is fatal and propagates.
func (e *Engine) runTransport() error {
	attempts := e.opts.RetryAttempts

	for {
		err := e.device.Start(e.ctx, e.chunkChan)
		if e.ctx.Err() != nil {
			return e.ctx.Err()
		}
		if err == nil {
			e.logger.Info().Msg("transport finished")
			e.cancel()
			return nil
		}

		attempts--
		if attempts <= 0 {
			return fmt.Errorf("transport failed permanently: %v", err)
		}

		e.logger.Error().
			Err(err).
			Int("attempts_left", attempts).
			Msg("transport error, retrying")

		select {
		case <-e.ctx.Done():
			return e.ctx.Err()
		case <-time.After(e.opts.RetryBackoff):
		}
	}
}

// drainChunks empties the transport inbox after the task group has exited.
// Only called once no other goroutine touches the demuxers.
func (e *Engine) drainChunks() {
	for {
		select {
		case chunk := <-e.chunkChan:
			e.demuxers[chunk.Channel].Append(chunk.Data)
		default:
			return
		}
	}
}

// processChunks is the single consumer of the transport inbox. Each chunk is
// demuxed synchronously so only one goroutine ever touches a channel buffer.
func (e *Engine) processChunks() error {
	for {
		select {
		case <-e.ctx.Done():
			return e.ctx.Err()
		case chunk := <-e.chunkChan:
			d := e.demuxers[chunk.Channel]

			elapsed := util.TimeOperationMicroseconds(func() {
				d.Append(chunk.Data)
			})
			e.monitor.Tick(chunk.Channel)

			go e.writeAPI.WritePoint(influxdb2.NewPoint("eeg.demux.pass",
				map[string]string{
					"channel": chunk.Channel.String(),
				},
				map[string]interface{}{
					"duration_us": elapsed,
					"chunk_bytes": len(chunk.Data),
					"buffered":    d.Buffered(),
				}, time.Now()))
		}
	}
}
