package frame

import (
	"math"
	"testing"

	"github.com/hesamdc/mindease/pkg/tgam"
)

func TestDecodeShort(t *testing.T) {
	type want struct {
		microvolts float64
		quality    uint8
		err        bool
	}
	tests := []struct {
		name string
		buf  []byte
		want want
	}{{
		"positive raw value",
		[]byte{0xAA, 0xAA, 0x04, 0x00, 0x00, 0x00, 0x10, 0x20},
		want{4128 * (1.8 / 4096) / 2000 * 1000, 0x00, false},
	}, {
		"sign extension at 0x8000",
		[]byte{0xAA, 0xAA, 0x04, 0x00, 0x00, 0x00, 0x80, 0x00},
		want{-32768 * (1.8 / 4096) / 2000 * 1000, 0x00, false},
	}, {
		"max negative magnitude is -7.2",
		[]byte{0xAA, 0xAA, 0x04, 0x00, 0x00, 0x00, 0x80, 0x00},
		want{-7.2, 0x00, false},
	}, {
		"just below sign boundary stays positive",
		[]byte{0xAA, 0xAA, 0x04, 0x00, 0x00, 0x00, 0x7F, 0xFF},
		want{32767 * (1.8 / 4096) / 2000 * 1000, 0x00, false},
	}, {
		"zero",
		[]byte{0xAA, 0xAA, 0x04, 0x00, 0x00, 0x1A, 0x00, 0x00},
		want{0, 0x1A, false},
	}, {
		"quality byte at offset 5",
		[]byte{0xAA, 0xAA, 0x04, 0xFF, 0xFF, 0xC8, 0x00, 0x01},
		want{1 * (1.8 / 4096) / 2000 * 1000, 0xC8, false},
	}, {
		"truncated",
		[]byte{0xAA, 0xAA, 0x04, 0x00, 0x00},
		want{0, 0, true},
	},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, quality, err := DecodeShort(tt.buf)
			if (err != nil) != tt.want.err {
				t.Fatalf("DecodeShort() error = %v, want error %v", err, tt.want.err)
			}
			if err != nil {
				return
			}
			if math.Abs(got-tt.want.microvolts) > 1e-9 {
				t.Errorf("DecodeShort() microvolts = %v, want %v", got, tt.want.microvolts)
			}
			if quality != tt.want.quality {
				t.Errorf("DecodeShort() quality = %v, want %v", quality, tt.want.quality)
			}
		})
	}
}

func TestDecodeLong(t *testing.T) {
	buf := make([]byte, LongFrameLength)
	for i := range buf {
		buf[i] = byte(i * 7) // arbitrary filler, must not affect decoding
	}
	buf[0], buf[1], buf[2] = 0xAA, 0xAA, 0x20
	buf[longQualityOffset] = 0x1A
	buf[longMeditationOffset] = 0x37
	buf[longAttentionOffset] = 0x5E

	got, err := DecodeLong(tgam.ChannelRight, buf)
	if err != nil {
		t.Fatalf("DecodeLong() error = %v", err)
	}

	want := tgam.Reading{
		Channel:       tgam.ChannelRight,
		SignalQuality: 0x1A,
		Meditation:    0x37,
		Attention:     0x5E,
	}
	if got != want {
		t.Errorf("DecodeLong() = %+v, want %+v", got, want)
	}
}

func TestDecodeLongTruncated(t *testing.T) {
	if _, err := DecodeLong(tgam.ChannelLeft, make([]byte, LongFrameLength-1)); err == nil {
		t.Error("DecodeLong() expected error for truncated frame")
	}
}
