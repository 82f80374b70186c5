package frame

import (
	"fmt"

	"github.com/hesamdc/mindease/pkg/tgam"
)

const (
	// MarkerByte repeated twice marks the start of a candidate frame.
	MarkerByte byte = 0xAA

	FrameTypeShort byte = 0x04
	FrameTypeLong  byte = 0x20

	ShortFrameLength = 8
	LongFrameLength  = 36

	shortQualityOffset  = 5
	shortHighByteOffset = 6
	shortLowByteOffset  = 7

	longQualityOffset    = 4
	longMeditationOffset = 32
	longAttentionOffset  = 34
)

// microvoltsPerCount converts a raw ADC count to microvolts: 1.8V reference
// over a 12-bit range, through a gain-2000 amplifier, volts to microvolts.
const microvoltsPerCount = (1.8 / 4096) / 2000 * 1000

// DecodeShort extracts the raw amplitude sample from an 8-byte short frame.
// The frame slice must start at the marker. Returns the value in microvolts
// and the per-sample signal quality byte.
func DecodeShort(buf []byte) (float64, uint8, error) {
	if len(buf) < ShortFrameLength {
		return 0, 0, fmt.Errorf("short frame truncated: %d bytes", len(buf))
	}

	quality := buf[shortQualityOffset]

	raw := int(buf[shortHighByteOffset])<<8 | int(buf[shortLowByteOffset])
	if raw >= 32768 {
		raw -= 65536
	}

	return float64(raw) * microvoltsPerCount, quality, nil
}

// DecodeLong extracts the state summary from a 36-byte long frame. The frame
// slice must start at the marker.
func DecodeLong(ch tgam.Channel, buf []byte) (tgam.Reading, error) {
	if len(buf) < LongFrameLength {
		return tgam.Reading{}, fmt.Errorf("long frame truncated: %d bytes", len(buf))
	}

	return tgam.Reading{
		Channel:       ch,
		SignalQuality: buf[longQualityOffset],
		Meditation:    buf[longMeditationOffset],
		Attention:     buf[longAttentionOffset],
	}, nil
}
