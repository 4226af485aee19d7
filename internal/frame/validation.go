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

import "encoding/binary"

// ValidateHeader reports whether the window starts with a valid raw header:
// the flag byte matches the sentinel and the stored checksum matches the
// checksum computed over the non-checksum header bytes. A window shorter
// than HeaderSize never validates.
func ValidateHeader(window []byte) bool {
	if len(window) < HeaderSize {
		return false
	}
	if window[FlagOffset] != FlagValue {
		return false
	}
	stored := binary.LittleEndian.Uint16(window[HcsOffset : HcsOffset+2])
	return stored == HeaderChecksum(window)
}

// PayloadLength extracts the payload length field from a validated header.
// The value includes any trailing payload checksum; this layer treats the
// payload as opaque bytes.
func PayloadLength(hdr []byte) int {
	return int(binary.LittleEndian.Uint16(hdr[LengthOffset : LengthOffset+2]))
}

// TotalSize returns the full frame size announced by a validated header.
func TotalSize(hdr []byte) int {
	return HeaderSize + PayloadLength(hdr)
}
