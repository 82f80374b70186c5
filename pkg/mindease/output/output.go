package output

import "github.com/hesamdc/mindease/pkg/tgam"

// Record is one synchronized output row: the next available sample from each
// channel, paired by arrival order. A side is nil only during the final
// shutdown flush when the two queues held unequal counts.
type Record struct {
	Left  *tgam.Sample
	Right *tgam.Sample
}

// Sink persists synchronized records in emission order.
type Sink interface {
	// WriteRecord accepts one record. Implementations may buffer; a record is
	// only guaranteed durable after Flush.
	WriteRecord(Record) error
	// Flush writes out any buffered records.
	Flush() error
}
