package usb

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartdevice-controller/internal/protocol"
)

type fakeWriter struct {
	writes  [][]byte
	failAt  int // index of the write that fails, -1 for none
	written int
}

func (f *fakeWriter) Write(p []byte) (int, error) {
	if f.failAt >= 0 && f.written == f.failAt {
		f.written++
		return 0, errors.New("pipe broken")
	}
	f.written++
	buf := make([]byte, len(p))
	copy(buf, p)
	f.writes = append(f.writes, buf)
	return len(p), nil
}

func TestSendPairWritesFramesInOrder(t *testing.T) {
	w := &fakeWriter{failAt: -1}
	pair := protocol.OffFrames()

	require.NoError(t, sendPair(w, 0, pair))
	require.Len(t, w.writes, 2)
	assert.Equal(t, pair.First, w.writes[0])
	assert.Equal(t, pair.Second, w.writes[1])
}

func TestSendPairAbortsOnFirstFrameError(t *testing.T) {
	w := &fakeWriter{failAt: 0}
	err := sendPair(w, 0, protocol.OffFrames())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "frame 1")
	assert.Empty(t, w.writes)
}

func TestSendPairReportsSecondFrameError(t *testing.T) {
	w := &fakeWriter{failAt: 1}
	err := sendPair(w, 0, protocol.OffFrames())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "frame 2")
	require.Len(t, w.writes, 1)
}
