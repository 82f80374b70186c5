package device

import (
	"context"

	"github.com/hesamdc/mindease/pkg/tgam"
)

// Device is a dual-channel byte transport. Start delivers raw chunks into the
// provided channel until the context closes, the stream ends (nil), or the
// transport fails (error, retryable by the caller).
type Device interface {
	Start(ctx context.Context, chunks chan<- tgam.Chunk) error
	Stop() error
}
