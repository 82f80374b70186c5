// Package tgam implements the ThinkGear-style wire protocol spoken by the
// MindEase dual-ear EEG headset: marker-delimited frames carrying either a
// single raw amplitude sample or a quality/meditation/attention summary.
package tgam

import "time"

// Channel identifies one of the two independent sensor streams.
type Channel int

const (
	ChannelLeft Channel = iota
	ChannelRight

	NumChannels = 2
)

func (c Channel) String() string {
	switch c {
	case ChannelLeft:
		return "Left Ear"
	case ChannelRight:
		return "Right Ear"
	}
	return "Unknown"
}

// Chunk is one raw delivery from the transport: a slice of stream bytes tagged
// with the channel it arrived on. Chunk boundaries carry no meaning; frames may
// span any number of chunks.
type Chunk struct {
	Channel Channel
	Data    []byte
}

// Sample is one decoded raw amplitude reading.
type Sample struct {
	Channel    Channel
	Timestamp  time.Time
	Microvolts float64
}

// Reading is the periodic headset state summary decoded from a long frame.
// Only the most recent Reading per channel is meaningful.
type Reading struct {
	Channel       Channel
	SignalQuality uint8
	Meditation    uint8
	Attention     uint8
}
