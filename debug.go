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

package serlink

import (
	"encoding/hex"
	"fmt"
	"os"
)

// debugEnabled controls whether debug logging is active.
var debugEnabled = false

func init() {
	// Enable debug logging if the DEBUG environment variable is set
	if os.Getenv("SERLINK_DEBUG") != "" || os.Getenv("DEBUG") != "" {
		debugEnabled = true
	}
}

// SetDebugEnabled allows programmatic control of debug logging.
// Useful for testing or application-controlled debug modes.
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// DebugEnabled reports whether debug logging is currently active.
func DebugEnabled() bool {
	return debugEnabled
}

// Debugf prints debug information when debug mode is enabled.
func Debugf(format string, args ...any) {
	if !debugEnabled {
		return
	}
	_, _ = fmt.Fprintf(os.Stderr, "DEBUG: "+format+"\n", args...)
}

// Tracef dumps a frame or buffer as hex when debug mode is enabled. The
// receive and transmit hot paths call this on every frame, so it must be
// cheap when disabled.
func Tracef(prefix string, data []byte) {
	if !debugEnabled {
		return
	}
	_, _ = fmt.Fprintf(os.Stderr, "TRACE: %s (%d bytes): %s\n",
		prefix, len(data), hex.EncodeToString(data))
}
