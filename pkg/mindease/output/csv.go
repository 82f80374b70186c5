package output

import (
	"fmt"
	"io"
	"os"

	"github.com/hesamdc/mindease/pkg/tgam"
)

const csvBatchSize = 100

// CSVSink appends synchronized records to a two-column text destination:
//
//	Left Ear,Right Ear
//	-0.123456,0.654321
//
// Values are microvolts with six decimal places; an absent side renders as an
// empty field with the comma retained. Rows are batched up to 100 before being
// written so the hot path stays cheap, and Flush drains the batch so data is
// durable within one synchronizer pass.
type CSVSink struct {
	w     io.Writer
	f     *os.File
	batch []string
}

// NewCSVSink writes the header immediately and returns a sink over w.
func NewCSVSink(w io.Writer) (*CSVSink, error) {
	header := fmt.Sprintf("%s,%s\n", tgam.ChannelLeft, tgam.ChannelRight)
	if _, err := io.WriteString(w, header); err != nil {
		return nil, err
	}
	return &CSVSink{w: w, batch: make([]string, 0, csvBatchSize)}, nil
}

// OpenCSVFile opens path for appending, creating it if needed, and writes the
// header for this run.
func OpenCSVFile(path string) (*CSVSink, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}

	s, err := NewCSVSink(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	s.f = f
	return s, nil
}

func formatSide(s *tgam.Sample) string {
	if s == nil {
		return ""
	}
	return fmt.Sprintf("%.6f", s.Microvolts)
}

func (s *CSVSink) WriteRecord(r Record) error {
	s.batch = append(s.batch, fmt.Sprintf("%s,%s\n", formatSide(r.Left), formatSide(r.Right)))
	if len(s.batch) >= csvBatchSize {
		return s.Flush()
	}
	return nil
}

func (s *CSVSink) Flush() error {
	for _, line := range s.batch {
		if _, err := io.WriteString(s.w, line); err != nil {
			return err
		}
	}
	s.batch = s.batch[:0]
	return nil
}

// Close flushes any buffered rows and closes the underlying file, if the sink
// owns one.
func (s *CSVSink) Close() error {
	if err := s.Flush(); err != nil {
		return err
	}
	if s.f != nil {
		return s.f.Close()
	}
	return nil
}
