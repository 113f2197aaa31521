// Copyright (c) 2026 The eredis-go Authors
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

package resp

import (
	"errors"
	"io"
	"net"
)

// ErrCommand is returned when a command could not be formatted into a
// wire frame: an empty command or argv, or unbalanced quotes in a
// printf-style command. Mismatched printf verbs and arguments are not
// detected; fmt renders them inline (e.g. "%!s(MISSING)"). It maps to
// the original library's EREDIS_ERRCMD (-2).
var ErrCommand = errors.New("resp: command formatting error")

// ErrProtocol is returned when the server sends a malformed reply line.
var ErrProtocol = errors.New("resp: protocol error")

// IsEOF reports whether err represents a clean peer hang-up.
func IsEOF(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}

// IsIOError reports whether err is a transport-level failure (timeout,
// reset, closed connection, ...) as opposed to a protocol or application
// error. Only IsIOError/IsEOF failures are eligible for the reader's
// one-shot reconnect-and-retry policy (spec.md §7).
func IsIOError(err error) bool {
	if err == nil {
		return false
	}
	if IsEOF(err) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
