package util

import "github.com/influxdata/influxdb-client-go/api/write"

// MockWriteAPI discards all metric writes. It is the default metrics sink so
// components never have to nil-check before emitting points.
type MockWriteAPI struct{}

func (m *MockWriteAPI) WriteRecord(line string) {}

func (m *MockWriteAPI) WritePoint(point *write.Point) {}

// Flush forces all pending writes from the buffer to be sent.
func (m *MockWriteAPI) Flush() {}

// Close flushes all pending writes and stops async processes.
func (m *MockWriteAPI) Close() {}

// Errors returns a channel for reading errors which occur during async writes.
func (m *MockWriteAPI) Errors() <-chan error { return nil }
