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

import "github.com/sigurn/crc16"

// The header checksum is CRC-16/XMODEM over the non-checksum header bytes.
var hcsTable = crc16.MakeTable(crc16.CRC16_XMODEM)

// HeaderChecksum computes the checksum of the header window, excluding the
// checksum field itself. The window must be at least HcsOffset bytes.
func HeaderChecksum(hdr []byte) uint16 {
	return crc16.Checksum(hdr[:HcsOffset], hcsTable)
}
