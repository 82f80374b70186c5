package mindease

import (
	"context"
	"sync"
	"time"

	"github.com/hesamdc/mindease/pkg/mindease/output"
	"github.com/hesamdc/mindease/pkg/tgam"
	"github.com/rs/zerolog"
)

// passInterval is how long the synchronizer waits between drain passes. It is
// well below the inter-sample interval of either channel, so pairing latency
// stays bounded without spinning a core.
const passInterval = time.Millisecond

type sampleQueue struct {
	mu    sync.Mutex
	items []tgam.Sample
}

func (q *sampleQueue) push(s tgam.Sample) {
	q.mu.Lock()
	q.items = append(q.items, s)
	q.mu.Unlock()
}

// drain removes and returns everything currently queued. Never blocks.
func (q *sampleQueue) drain() []tgam.Sample {
	q.mu.Lock()
	items := q.items
	q.items = nil
	q.mu.Unlock()
	return items
}

// Synchronizer pairs the two channels' sample streams into output records.
// Pairing is strictly by arrival order: the oldest unmatched left sample is
// paired with the oldest unmatched right sample, regardless of timestamps. If
// one channel drops a frame the pairing drifts by one position until the
// stream restarts; this mirrors the headset's documented behavior and keeps
// output deterministic, so it must not be upgraded to timestamp matching.
//
// Samples are never dropped: an unmatched surplus stays buffered until the
// counterpart arrives or Flush writes it out one-sided at shutdown.
type Synchronizer struct {
	queues  [tgam.NumChannels]sampleQueue
	pending [tgam.NumChannels][]tgam.Sample
	sink    output.Sink
	logger  zerolog.Logger
	written int
	lastLog time.Time
}

func NewSynchronizer(sink output.Sink, logger zerolog.Logger) *Synchronizer {
	return &Synchronizer{
		sink:    sink,
		logger:  logger,
		lastLog: time.Now(),
	}
}

// Push enqueues a decoded sample for its channel. Safe to call concurrently
// with Run.
func (s *Synchronizer) Push(smp tgam.Sample) {
	s.queues[smp.Channel].push(smp)
}

// Run drains and pairs until the context closes. It does not flush leftovers;
// the engine calls Flush once every producer has stopped.
func (s *Synchronizer) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(passInterval):
		}

		if err := s.pass(); err != nil {
			return err
		}

		if time.Since(s.lastLog) >= time.Second {
			s.logger.Info().Int("rows", s.written).Msg("rows written")
			s.lastLog = time.Now()
		}
	}
}

// pass performs one non-blocking drain-and-pair cycle and flushes the sink so
// paired data is durable within one pass.
func (s *Synchronizer) pass() error {
	for ch := range s.queues {
		s.pending[ch] = append(s.pending[ch], s.queues[ch].drain()...)
	}

	for len(s.pending[tgam.ChannelLeft]) > 0 && len(s.pending[tgam.ChannelRight]) > 0 {
		left := s.popPending(tgam.ChannelLeft)
		right := s.popPending(tgam.ChannelRight)
		if err := s.sink.WriteRecord(output.Record{Left: &left, Right: &right}); err != nil {
			return err
		}
		s.written++
	}

	return s.sink.Flush()
}

func (s *Synchronizer) popPending(ch tgam.Channel) tgam.Sample {
	smp := s.pending[ch][0]
	s.pending[ch] = s.pending[ch][1:]
	return smp
}

// Flush emits everything still buffered: matched pairs first, in order, then
// one-sided records for whichever channel has a surplus. After Flush the total
// row count equals the larger of the two channels' sample counts.
func (s *Synchronizer) Flush() error {
	if err := s.pass(); err != nil {
		return err
	}

	for len(s.pending[tgam.ChannelLeft]) > 0 {
		left := s.popPending(tgam.ChannelLeft)
		if err := s.sink.WriteRecord(output.Record{Left: &left}); err != nil {
			return err
		}
		s.written++
	}
	for len(s.pending[tgam.ChannelRight]) > 0 {
		right := s.popPending(tgam.ChannelRight)
		if err := s.sink.WriteRecord(output.Record{Right: &right}); err != nil {
			return err
		}
		s.written++
	}

	s.logger.Info().Int("rows", s.written).Msg("synchronizer flushed")
	return s.sink.Flush()
}

// Written reports the number of rows emitted so far.
func (s *Synchronizer) Written() int {
	return s.written
}
