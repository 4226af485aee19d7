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

package frame

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateHeader(t *testing.T) {
	t.Parallel()

	valid := EncodeHeader(0x03, 0x42, 16)

	tests := []struct {
		name   string
		window func() []byte
		want   bool
	}{
		{
			name:   "valid header",
			window: func() []byte { return valid },
			want:   true,
		},
		{
			name: "valid header with trailing payload bytes",
			window: func() []byte {
				return append(append([]byte(nil), valid...), 0xDE, 0xAD, 0xBE, 0xEF)
			},
			want: true,
		},
		{
			name:   "window shorter than a header",
			window: func() []byte { return valid[:HeaderSize-1] },
			want:   false,
		},
		{
			name:   "empty window",
			window: func() []byte { return nil },
			want:   false,
		},
		{
			name: "wrong flag byte",
			window: func() []byte {
				w := append([]byte(nil), valid...)
				w[FlagOffset] = 0x7E
				return w
			},
			want: false,
		},
		{
			name: "correct flag but corrupted checksum",
			window: func() []byte {
				w := append([]byte(nil), valid...)
				w[HcsOffset] ^= 0x01
				return w
			},
			want: false,
		},
		{
			name: "correct flag but corrupted length field",
			window: func() []byte {
				w := append([]byte(nil), valid...)
				w[LengthOffset] ^= 0x01
				return w
			},
			want: false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ValidateHeader(tt.window()))
		})
	}
}

func TestPayloadLength(t *testing.T) {
	t.Parallel()

	hdr := EncodeHeader(0x00, 0x00, 0x1234)
	assert.Equal(t, 0x1234, PayloadLength(hdr))
	assert.Equal(t, HeaderSize+0x1234, TotalSize(hdr))

	// Length is little-endian on the wire.
	assert.Equal(t, uint16(0x1234),
		binary.LittleEndian.Uint16(hdr[LengthOffset:LengthOffset+2]))
}

func TestEncodeHeaderRoundTrip(t *testing.T) {
	t.Parallel()

	hdr := EncodeHeader(0x05, 0xC1, 300)
	require.Len(t, hdr, HeaderSize)
	assert.True(t, ValidateHeader(hdr))
	assert.Equal(t, byte(FlagValue), hdr[FlagOffset])
	assert.Equal(t, byte(0x05), hdr[AddressOffset])
	assert.Equal(t, byte(0xC1), hdr[ControlOffset])
	assert.Equal(t, 300, PayloadLength(hdr))
}

func TestBuild(t *testing.T) {
	t.Parallel()

	payload := []byte{0x01, 0x02, 0x03, 0x04}
	frm, err := Build(0x01, 0x00, payload)
	require.NoError(t, err)
	require.Len(t, frm, HeaderSize+len(payload))
	assert.True(t, ValidateHeader(frm))
	assert.Equal(t, len(payload), PayloadLength(frm))
	assert.Equal(t, payload, frm[HeaderSize:])
}

func TestBuildRejectsOversizedPayload(t *testing.T) {
	t.Parallel()

	_, err := Build(0x01, 0x00, make([]byte, MaxPayloadLength+1))
	require.ErrorIs(t, err, ErrPayloadTooLarge)
}
