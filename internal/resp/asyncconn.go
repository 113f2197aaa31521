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
	"bufio"
	"net"
	"sync"
)

// AsyncConn is the writer loop's one persistent connection per host. It
// replaces the original library's libev-driven redisAsyncContext: writes
// are fire-and-forget (SendAsync), and a background goroutine drains and
// discards replies so the mirrored server's output buffer never backs up
// the connection. Dialing is left to the caller (the writer loop's
// dialHost in writer.go runs it on its own goroutine) so that AsyncConn
// itself never blocks.
type AsyncConn struct {
	nc net.Conn
	bw *bufio.Writer

	mu     sync.Mutex
	closed bool

	onDisconnect func()
	closeOnce    sync.Once
}

// NewAsyncConn wraps an already-dialed net.Conn and starts the
// background reply-draining reader. onDisconnect fires exactly once,
// either when the background reader observes an I/O error/EOF, or never
// if Close is called first.
func NewAsyncConn(nc net.Conn, onDisconnect func()) *AsyncConn {
	a := &AsyncConn{
		nc:           nc,
		bw:           bufio.NewWriterSize(nc, DefaultMaxBuf),
		onDisconnect: onDisconnect,
	}
	go a.drainReplies()
	return a
}

func (a *AsyncConn) drainReplies() {
	br := bufio.NewReaderSize(a.nc, DefaultMaxBuf)
	for {
		if _, err := readReply(br); err != nil {
			a.mu.Lock()
			closedByUs := a.closed
			a.mu.Unlock()
			if !closedByUs && a.onDisconnect != nil {
				a.closeOnce.Do(a.onDisconnect)
			}
			return
		}
	}
}

// SendAsync writes and flushes a preformatted command without waiting
// for (or caring about) its reply.
func (a *AsyncConn) SendAsync(cmd []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return net.ErrClosed
	}
	if _, err := a.bw.Write(cmd); err != nil {
		return err
	}
	return a.bw.Flush()
}

// Close disconnects without invoking onDisconnect: the caller already
// knows it is tearing the connection down.
func (a *AsyncConn) Close() error {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()
	return a.nc.Close()
}
