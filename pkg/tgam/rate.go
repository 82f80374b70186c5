package tgam

import (
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go"
	"github.com/influxdata/influxdb-client-go/api"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"
)

type channelState struct {
	windowCount int
	totalCount  int
	windowStart time.Time
	warmedUp    bool
	hasReading  bool
	reading     Reading
	windowVals  []float64
}

// ChannelStatus is one channel's view in a rate monitor snapshot.
type ChannelStatus struct {
	Channel       string  `json:"channel"`
	RateHz        float64 `json:"rate_hz"`
	TotalFrames   int     `json:"total_frames"`
	SignalQuality *uint8  `json:"signal_quality,omitempty"`
	Meditation    *uint8  `json:"meditation,omitempty"`
	Attention     *uint8  `json:"attention,omitempty"`
}

// RateMonitor tracks per-channel frame throughput over rolling one-second
// windows. The very first completed window per channel is swallowed: its
// elapsed time starts at process start rather than first frame, so the rate it
// would report is misleading.
type RateMonitor struct {
	mu       sync.Mutex
	states   [NumChannels]channelState
	lastRate [NumChannels]float64
	writeAPI api.WriteAPI
	logger   zerolog.Logger
	now      func() time.Time
}

func NewRateMonitor(writeAPI api.WriteAPI, logger zerolog.Logger) *RateMonitor {
	m := &RateMonitor{
		writeAPI: writeAPI,
		logger:   logger,
		now:      time.Now,
	}
	start := m.now()
	for i := range m.states {
		m.states[i].windowStart = start
	}
	return m
}

// Count records one decoded sample for the channel.
func (m *RateMonitor) Count(ch Channel, microvolts float64) {
	m.mu.Lock()
	st := &m.states[ch]
	st.windowCount++
	st.totalCount++
	st.windowVals = append(st.windowVals, microvolts)
	m.mu.Unlock()
}

// Observe records the latest state summary for the channel, replacing any
// previous one.
func (m *RateMonitor) Observe(r Reading) {
	m.mu.Lock()
	m.states[r.Channel].reading = r
	m.states[r.Channel].hasReading = true
	m.mu.Unlock()
}

// Tick closes out the channel's window if at least one second has elapsed,
// emitting a status line and a metric point for every window after the first.
func (m *RateMonitor) Tick(ch Channel) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := &m.states[ch]
	elapsed := m.now().Sub(st.windowStart).Seconds()
	if elapsed < 1.0 {
		return
	}

	rate := float64(st.windowCount) / elapsed
	m.lastRate[ch] = rate

	if st.warmedUp {
		mean, std := stat.MeanStdDev(st.windowVals, nil)

		ev := m.logger.Info().
			Str("channel", ch.String()).
			Float64("rate_hz", rate).
			Int("total", st.totalCount)
		if len(st.windowVals) > 1 {
			ev = ev.Float64("mean_uv", mean).Float64("stddev_uv", std)
		}
		if st.hasReading {
			ev = ev.
				Uint8("signal_quality", st.reading.SignalQuality).
				Uint8("meditation", st.reading.Meditation).
				Uint8("attention", st.reading.Attention)
		}
		ev.Msg("sampling rate")

		fields := map[string]interface{}{
			"rate_hz":      rate,
			"total_frames": st.totalCount,
			"window_count": st.windowCount,
		}
		if len(st.windowVals) > 1 {
			fields["mean_uv"] = mean
			fields["stddev_uv"] = std
		}
		go m.writeAPI.WritePoint(influxdb2.NewPoint("eeg.channel.rate",
			map[string]string{
				"channel": ch.String(),
			},
			fields, m.now()))
	} else {
		st.warmedUp = true
	}

	st.windowCount = 0
	st.windowVals = st.windowVals[:0]
	st.windowStart = m.now()
}

// Snapshot reports the most recent per-channel rates, totals, and readings.
func (m *RateMonitor) Snapshot() []ChannelStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]ChannelStatus, 0, NumChannels)
	for ch := ChannelLeft; ch < NumChannels; ch++ {
		st := &m.states[ch]
		cs := ChannelStatus{
			Channel:     ch.String(),
			RateHz:      m.lastRate[ch],
			TotalFrames: st.totalCount,
		}
		if st.hasReading {
			q, med, att := st.reading.SignalQuality, st.reading.Meditation, st.reading.Attention
			cs.SignalQuality = &q
			cs.Meditation = &med
			cs.Attention = &att
		}
		out = append(out, cs)
	}
	return out
}
