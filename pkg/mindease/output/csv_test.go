package output

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/hesamdc/mindease/pkg/tgam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func leftRight(l, r float64) Record {
	return Record{
		Left:  &tgam.Sample{Channel: tgam.ChannelLeft, Microvolts: l},
		Right: &tgam.Sample{Channel: tgam.ChannelRight, Microvolts: r},
	}
}

func TestCSVSinkHeader(t *testing.T) {
	var buf bytes.Buffer
	_, err := NewCSVSink(&buf)
	require.NoError(t, err)

	assert.Equal(t, "Left Ear,Right Ear\n", buf.String())
}

func TestCSVSinkRowFormat(t *testing.T) {
	var buf bytes.Buffer
	s, err := NewCSVSink(&buf)
	require.NoError(t, err)

	require.NoError(t, s.WriteRecord(leftRight(0.9070312499999999, -7.2)))
	require.NoError(t, s.WriteRecord(Record{Left: &tgam.Sample{Microvolts: 1.5}}))
	require.NoError(t, s.WriteRecord(Record{Right: &tgam.Sample{Microvolts: -0.25}}))
	require.NoError(t, s.Flush())

	lines := strings.Split(buf.String(), "\n")
	require.Len(t, lines, 5) // header + 3 rows + trailing empty
	assert.Equal(t, "0.907031,-7.200000", lines[1])
	assert.Equal(t, "1.500000,", lines[2])
	assert.Equal(t, ",-0.250000", lines[3])
}

func TestCSVSinkBatchingDefersWrites(t *testing.T) {
	var buf bytes.Buffer
	s, err := NewCSVSink(&buf)
	require.NoError(t, err)
	headerLen := buf.Len()

	for i := 0; i < csvBatchSize-1; i++ {
		require.NoError(t, s.WriteRecord(leftRight(1, 2)))
	}
	assert.Equal(t, headerLen, buf.Len(), "rows below the cap stay buffered")

	require.NoError(t, s.WriteRecord(leftRight(1, 2)))
	assert.Greater(t, buf.Len(), headerLen, "hitting the cap writes the batch out")
}

func TestCSVSinkBatchEquivalence(t *testing.T) {
	const rows = 250

	var batched, single bytes.Buffer

	bs, err := NewCSVSink(&batched)
	require.NoError(t, err)
	ss, err := NewCSVSink(&single)
	require.NoError(t, err)

	for i := 0; i < rows; i++ {
		rec := leftRight(float64(i)*0.001, float64(-i)*0.001)
		require.NoError(t, bs.WriteRecord(rec))

		require.NoError(t, ss.WriteRecord(rec))
		require.NoError(t, ss.Flush())
	}
	require.NoError(t, bs.Flush())

	assert.Equal(t, single.Bytes(), batched.Bytes())
}

func TestCSVSinkFileRoundTrip(t *testing.T) {
	path := t.TempDir() + "/eeg_data.txt"

	s, err := OpenCSVFile(path)
	require.NoError(t, err)
	require.NoError(t, s.WriteRecord(leftRight(1, 2)))
	require.NoError(t, s.Close())

	// A second run appends rows under a fresh header, never truncates.
	s, err = OpenCSVFile(path)
	require.NoError(t, err)
	require.NoError(t, s.WriteRecord(leftRight(3, 4)))
	require.NoError(t, s.Close())

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"Left Ear,Right Ear\n1.000000,2.000000\nLeft Ear,Right Ear\n3.000000,4.000000\n",
		string(contents))
}
