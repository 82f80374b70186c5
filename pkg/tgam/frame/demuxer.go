package frame

import (
	"bytes"
	"time"

	"github.com/hesamdc/mindease/pkg/tgam"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var marker = []byte{MarkerByte, MarkerByte}

// Demuxer reconstructs frames for a single channel from an arbitrary byte
// stream. It owns the channel's buffer exclusively: callers append raw chunks
// and the demuxer slices complete frames off the front, resynchronizing one
// byte at a time past corrupted type tags. It is not safe for concurrent use;
// a single goroutine must own all appends for a channel.
type Demuxer struct {
	channel   tgam.Channel
	buf       []byte
	onSample  func(tgam.Sample)
	onReading func(tgam.Reading)
	logger    zerolog.Logger
	now       func() time.Time
}

func NewDemuxer(channel tgam.Channel, onSample func(tgam.Sample), onReading func(tgam.Reading), logger zerolog.Logger) *Demuxer {
	return &Demuxer{
		channel:   channel,
		onSample:  onSample,
		onReading: onReading,
		logger:    logger,
		now:       time.Now,
	}
}

// Append adds raw stream bytes to the channel buffer and extracts every
// complete frame now available. Partial trailing data is retained for the next
// append; a frame is never decoded until all of its bytes are present.
func (d *Demuxer) Append(data []byte) {
	d.buf = append(d.buf, data...)

	for {
		start := bytes.Index(d.buf, marker)
		if start < 0 {
			return
		}

		// Bytes ahead of the marker can never begin a frame; dropping them
		// here keeps them from being re-scanned on the next append.
		if start > 0 {
			d.buf = d.buf[start:]
		}

		if len(d.buf) < len(marker)+1 {
			return
		}

		switch frameType := d.buf[len(marker)]; frameType {
		case FrameTypeShort:
			if len(d.buf) < ShortFrameLength {
				return
			}
			d.decodeShort(d.buf[:ShortFrameLength])
			d.buf = d.buf[ShortFrameLength:]

		case FrameTypeLong:
			if len(d.buf) < LongFrameLength {
				return
			}
			d.decodeLong(d.buf[:LongFrameLength])
			d.buf = d.buf[LongFrameLength:]

		default:
			// Unknown type tag after a marker means we are mid-frame or the
			// stream is corrupted. Skip a single byte and rescan so at most
			// one byte is lost per corruption event.
			d.logger.Debug().
				Str("channel", d.channel.String()).
				Uint8("frame_type", frameType).
				Msg("unknown frame type, resyncing")
			d.buf = d.buf[1:]
		}
	}
}

// Buffered returns how many bytes are waiting for more data before they can be
// framed.
func (d *Demuxer) Buffered() int {
	return len(d.buf)
}

func (d *Demuxer) decodeShort(buf []byte) {
	microvolts, _, err := DecodeShort(buf)
	if err != nil {
		log.Warn().
			Err(err).
			Str("channel", d.channel.String()).
			Msg("dropping short frame")
		return
	}

	d.onSample(tgam.Sample{
		Channel:    d.channel,
		Timestamp:  d.now(),
		Microvolts: microvolts,
	})
}

func (d *Demuxer) decodeLong(buf []byte) {
	reading, err := DecodeLong(d.channel, buf)
	if err != nil {
		d.logger.Error().
			Err(err).
			Str("channel", d.channel.String()).
			Msg("dropping long frame")
		return
	}

	d.onReading(reading)
}
