// Copyright 2026 The Serlink Project Contributors.
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

//go:build linux

package uart

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/SerialLinkProject/go-serlink/internal/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// frameCollector records emitted frames as independent copies, the way the
// peer channel would receive them as separate datagrams.
type frameCollector struct {
	frames [][]byte
	err    error
}

func (c *frameCollector) emit(frm []byte) error {
	if c.err != nil {
		return c.err
	}
	c.frames = append(c.frames, append([]byte(nil), frm...))
	return nil
}

func newTestReceiver(t *testing.T) (*receiver, *frameCollector) {
	t.Helper()
	c := &frameCollector{}
	return newReceiver(bufferSize, c.emit), c
}

// garbage returns n bytes that contain no flag byte, so no window inside a
// garbage run can ever validate as a header.
func garbage(n int) []byte {
	g := make([]byte, n)
	for i := range g {
		if i%2 == 0 {
			g[i] = 0xAA
		} else {
			g[i] = 0x55
		}
	}
	return g
}

func testFrame(t *testing.T, payload []byte) []byte {
	t.Helper()
	frm, err := frame.Build(0x03, 0x00, payload)
	require.NoError(t, err)
	return frm
}

func feed(t *testing.T, r *receiver, data []byte) {
	t.Helper()
	n := copy(r.buf.writable(), data)
	require.Equal(t, len(data), n, "test data must fit the ingest buffer")
	r.buf.advance(n)
	require.NoError(t, r.process())
}

func TestReceiveWaitsBelowHeaderSize(t *testing.T) {
	t.Parallel()

	r, c := newTestReceiver(t)
	feed(t, r, garbage(frame.HeaderSize-1))

	// Not enough bytes for a header: nothing is discarded, nothing emitted.
	assert.Empty(t, c.frames)
	assert.Equal(t, frame.HeaderSize-1, r.buf.len())
	assert.Equal(t, expectingHeader, r.state)
}

func TestResyncConvergesOnHeaderlessGarbage(t *testing.T) {
	t.Parallel()

	r, c := newTestReceiver(t)

	// No matter how much headerless garbage arrives, at most HeaderSize-1
	// bytes survive each pass: a possible header prefix at the tail.
	for i := 0; i < 5; i++ {
		feed(t, r, garbage(257))
		assert.Empty(t, c.frames)
		assert.Equal(t, frame.HeaderSize-1, r.buf.len(),
			"pass %d retained more than a header prefix", i)
	}
}

func TestResyncAlignedHeaderNoMutation(t *testing.T) {
	t.Parallel()

	r, _ := newTestReceiver(t)
	frm := testFrame(t, []byte{1, 2, 3})
	n := copy(r.buf.writable(), frm[:frame.HeaderSize])
	r.buf.advance(n)

	require.True(t, r.resync())
	assert.Equal(t, frame.HeaderSize, r.buf.len(), "aligned header must not be mutated")
}

func TestReceiveSingleFrame(t *testing.T) {
	t.Parallel()

	r, c := newTestReceiver(t)
	frm := testFrame(t, []byte{0xDE, 0xAD, 0xBE, 0xEF})
	feed(t, r, frm)

	require.Len(t, c.frames, 1)
	assert.Equal(t, frm, c.frames[0])
	assert.Equal(t, 0, r.buf.len())
	assert.Equal(t, expectingHeader, r.state)
}

func TestReceiveSplitDeliveryWithLeadingGarbage(t *testing.T) {
	t.Parallel()

	r, c := newTestReceiver(t)
	frm := testFrame(t, []byte{0x10, 0x20, 0x30, 0x40})
	stream := append(garbage(3), frm...)

	// First delivery: the 5 leading bytes (3 garbage + 2 header bytes).
	feed(t, r, stream[:5])
	assert.Empty(t, c.frames, "insufficient data must not emit")

	// Second delivery: the rest. The garbage is discarded and the frame
	// emitted within the same processing pass, no extra wakeup needed.
	feed(t, r, stream[5:])
	require.Len(t, c.frames, 1)
	assert.Equal(t, frm, c.frames[0])
	assert.Equal(t, 0, r.buf.len())
}

func TestReceiveBackToBackFramesSinglePass(t *testing.T) {
	t.Parallel()

	r, c := newTestReceiver(t)
	first := testFrame(t, []byte{0x01, 0x02})
	second := testFrame(t, bytes.Repeat([]byte{0x77}, 32))

	// One burst, one process call, two emissions.
	feed(t, r, append(append([]byte(nil), first...), second...))

	require.Len(t, c.frames, 2)
	assert.Equal(t, first, c.frames[0])
	assert.Equal(t, second, c.frames[1])
	assert.Equal(t, 0, r.buf.len())
}

func TestReceiveArbitraryChunking(t *testing.T) {
	t.Parallel()

	first := testFrame(t, []byte{0xA1, 0xA2, 0xA3})
	second := testFrame(t, bytes.Repeat([]byte{0x42}, 100))

	var stream []byte
	stream = append(stream, garbage(11)...)
	stream = append(stream, first...)
	stream = append(stream, garbage(4)...)
	stream = append(stream, second...)

	for _, chunkSize := range []int{1, 2, 3, 7, 13, len(stream)} {
		chunkSize := chunkSize
		t.Run(fmt.Sprintf("chunk-%d", chunkSize), func(t *testing.T) {
			t.Parallel()

			r, c := newTestReceiver(t)
			for off := 0; off < len(stream); off += chunkSize {
				end := off + chunkSize
				if end > len(stream) {
					end = len(stream)
				}
				feed(t, r, stream[off:end])
			}

			require.Len(t, c.frames, 2, "exactly the two original frames")
			assert.Equal(t, first, c.frames[0])
			assert.Equal(t, second, c.frames[1])
		})
	}
}

func TestReceiveHeaderPrefixSurvivesResync(t *testing.T) {
	t.Parallel()

	r, c := newTestReceiver(t)
	frm := testFrame(t, []byte{0x55, 0x66})

	// Garbage followed by a header fragment: the fragment sits inside the
	// retained tail and must be completed by the next delivery.
	feed(t, r, append(garbage(10), frm[:4]...))
	assert.Empty(t, c.frames)
	assert.Equal(t, frame.HeaderSize-1, r.buf.len())

	feed(t, r, frm[4:])
	require.Len(t, c.frames, 1)
	assert.Equal(t, frm, c.frames[0])
}

func TestReceiveIncompleteFrameLeavesBufferUntouched(t *testing.T) {
	t.Parallel()

	r, c := newTestReceiver(t)
	frm := testFrame(t, bytes.Repeat([]byte{0x11}, 64))
	partial := frm[:len(frm)-10]

	feed(t, r, partial)
	assert.Empty(t, c.frames)
	assert.Equal(t, len(partial), r.buf.len())
	assert.Equal(t, expectingPayload, r.state, "validated header must persist across wakeups")

	feed(t, r, frm[len(frm)-10:])
	require.Len(t, c.frames, 1)
	assert.Equal(t, frm, c.frames[0])
}

func TestReceiveCorruptedChecksumNeverAccepted(t *testing.T) {
	t.Parallel()

	r, c := newTestReceiver(t)
	frm := testFrame(t, []byte{1, 2, 3, 4})

	// Correct flag byte, corrupted checksum: the candidate must be skipped
	// and eventually discarded like any other garbage.
	corrupted := append([]byte(nil), frm...)
	corrupted[frame.HcsOffset] ^= 0xFF
	feed(t, r, corrupted)
	assert.Empty(t, c.frames)

	// A subsequent intact frame still gets through.
	feed(t, r, frm)
	require.Len(t, c.frames, 1)
	assert.Equal(t, frm, c.frames[0])
}

func TestReceiveEmitErrorPropagates(t *testing.T) {
	t.Parallel()

	c := &frameCollector{err: errors.New("peer gone")}
	r := newReceiver(bufferSize, c.emit)

	frm := testFrame(t, []byte{1})
	n := copy(r.buf.writable(), frm)
	r.buf.advance(n)

	err := r.process()
	require.Error(t, err)
	assert.ErrorContains(t, err, "peer gone")
	// The frame was not consumed; a retry after a fatal is not expected,
	// but the buffer must stay consistent.
	assert.Equal(t, len(frm), r.buf.len())
}

func TestReceiveImpossibleStateIsFatal(t *testing.T) {
	t.Parallel()

	r, _ := newTestReceiver(t)
	r.state = rxState(99)
	err := r.process()
	require.Error(t, err)
	assert.ErrorContains(t, err, "impossible receiver state")
}
