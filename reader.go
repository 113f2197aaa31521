// Copyright (c) 2022 The rcproxy Authors
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

package eredis

import (
	"fmt"

	"github.com/EulerianTechnologies/eredis-go/internal/logging"
	"github.com/EulerianTechnologies/eredis-go/internal/resp"
	"github.com/EulerianTechnologies/eredis-go/internal/ring"
)

// Reader is a synchronous, pipelining RESP client handle leased from an
// Engine's pool. It is not safe for concurrent use by more than one
// goroutine at a time — the pool's acquire/release protocol is what
// enforces that, not the type itself.
type Reader struct {
	engine *Engine
	node   *ring.Node[*Reader]

	conn *resp.Conn
	host *Host

	pipeline  []Command
	requested int
	replied   int
	retry     int

	lastReply *resp.Reply
	free      bool
}

func newReader(e *Engine) *Reader {
	return &Reader{engine: e}
}

// Append buffers a printf-style command without performing any I/O.
func (r *Reader) Append(format string, args ...interface{}) error {
	c, err := NewCommand(format, args...)
	if err != nil {
		return err
	}
	r.pipeline = append(r.pipeline, c)
	return nil
}

// AppendArgv buffers an argv-style command without performing any I/O.
func (r *Reader) AppendArgv(argv []string) error {
	c, err := NewCommandArgv(argv)
	if err != nil {
		return err
	}
	r.pipeline = append(r.pipeline, c)
	return nil
}

// AppendFormattedCmd buffers an already-formatted RESP wire frame.
func (r *Reader) AppendFormattedCmd(b []byte) error {
	r.pipeline = append(r.pipeline, Command{bytes: b})
	return nil
}

// Cmd appends a printf-style command and returns its reply in one call.
func (r *Reader) Cmd(format string, args ...interface{}) (*resp.Reply, error) {
	if err := r.Append(format, args...); err != nil {
		return nil, err
	}
	return r.Reply()
}

// CmdArgv appends an argv-style command and returns its reply in one call.
func (r *Reader) CmdArgv(argv []string) (*resp.Reply, error) {
	if err := r.AppendArgv(argv); err != nil {
		return nil, err
	}
	return r.Reply()
}

// Reply returns the next not-yet-consumed reply in the pipeline,
// flushing any unsent commands first. On a transport failure (I/O error
// or EOF) it transparently reconnects to a freshly selected host and
// retries, up to the engine's reader-retry budget (once by default), as
// long as the handle already had a connection when the call started.
func (r *Reader) Reply() (*resp.Reply, error) {
	if r.replied >= len(r.pipeline) {
		logging.Warnf("eredis: Reply() called with no command pending")
		return nil, ErrNoCommand
	}
	r.retry = r.engine.readerRetry
	return r.replyAttempt(true)
}

// ReplyBlocking reads one reply without touching the pipelining cursors
// and without a retry budget: used by Subscribe to wait indefinitely for
// a server-pushed message on an already-established connection.
func (r *Reader) ReplyBlocking() (*resp.Reply, error) {
	if err := r.connect(); err != nil {
		return nil, err
	}
	reply, err := r.conn.ReadReply()
	if err != nil {
		r.dropConn()
		return nil, err
	}
	r.lastReply = reply
	return reply, nil
}

func (r *Reader) replyAttempt(trackCursors bool) (*resp.Reply, error) {
	hadConn := r.conn != nil
	if err := r.connect(); err != nil {
		return nil, err
	}
	if trackCursors && r.requested < len(r.pipeline) {
		if err := r.flushPending(); err != nil {
			return r.retryOrFail(err, hadConn, trackCursors)
		}
	}
	reply, err := r.conn.ReadReply()
	if err != nil {
		return r.retryOrFail(err, hadConn, trackCursors)
	}
	if trackCursors {
		r.requested = len(r.pipeline)
		r.replied++
	}
	r.lastReply = reply
	return reply, nil
}

func (r *Reader) retryOrFail(err error, hadConn, trackCursors bool) (*resp.Reply, error) {
	r.dropConn()
	if hadConn && r.retry > 0 && resp.IsIOError(err) {
		r.retry--
		return r.replyAttempt(trackCursors)
	}
	return nil, err
}

func (r *Reader) flushPending() error {
	for i := r.requested; i < len(r.pipeline); i++ {
		if err := r.conn.Append(r.pipeline[i].Bytes()); err != nil {
			return err
		}
	}
	return r.conn.Flush()
}

// Subscribe requires at least one buffered subscribe-family command. It
// drains any outstanding acknowledgement replies, then waits
// indefinitely for pushed messages. If the connection is lost while
// waiting, it reconnects and re-sends the subscribe commands (resetting
// the pipelining cursors) before resuming the wait.
func (r *Reader) Subscribe() (*resp.Reply, error) {
	if len(r.pipeline) == 0 {
		logging.Warnf("eredis: Subscribe() called with no appended command")
		return nil, ErrNoCommand
	}
	for {
		for r.replied < len(r.pipeline) {
			if _, err := r.Reply(); err != nil {
				return nil, err
			}
		}
		reply, err := r.ReplyBlocking()
		if err == nil {
			return reply, nil
		}
		if !resp.IsIOError(err) && !resp.IsEOF(err) {
			return nil, err
		}
		r.requested = 0
		r.replied = 0
	}
}

// ReplyDetach transfers ownership of the last stored reply to the
// caller; the handle no longer holds a reference to it.
func (r *Reader) ReplyDetach() *resp.Reply {
	rep := r.lastReply
	r.lastReply = nil
	return rep
}

// Clear drains any replies not yet consumed, discards the buffered
// commands, and resets the pipelining cursors. Callers rely on this
// guarantee before Release returns the handle to the pool.
func (r *Reader) Clear() {
	for r.replied < len(r.pipeline) {
		if _, err := r.Reply(); err != nil {
			break
		}
	}
	r.pipeline = nil
	r.requested = 0
	r.replied = 0
	r.lastReply = nil
}

// Release clears the handle and returns it to the pool. If it is bound
// to a non-preferred host while the preferred host is connected, the
// connection is dropped first so the next acquisition rebinds to the
// preferred host.
func (r *Reader) Release() {
	r.Clear()
	if r.host != nil && !r.host.Preferred() {
		if preferred := r.engine.hosts[0]; preferred.Connected() {
			r.dropConn()
		}
	}
	r.engine.pool.release(r)
}

// connect ensures the handle has a live connection, reusing one in
// place, otherwise biasing toward hosts the writer loop currently
// reports as Connected and falling back to every host if the engine
// isn't Ready yet or none of the biased candidates answered.
func (r *Reader) connect() error {
	if r.conn != nil {
		return nil
	}

	candidates := r.connectedCandidates()
	if len(candidates) == 0 {
		candidates = r.engine.hosts
	}

	postConnectFailed := false
	for _, h := range candidates {
		c, err := resp.Dial(h.Target(), h.Port(), r.engine.timeout)
		if err != nil {
			continue
		}
		if h.Port() != 0 {
			_ = c.SetKeepAlive(0)
			c.SetTimeout(r.engine.timeout)
		}
		c.SetMaxBuf(2 * resp.DefaultMaxBuf)
		if err := r.replayPostConnect(c); err != nil {
			c.Close()
			if err == ErrPostConnectFailed {
				postConnectFailed = true
			}
			continue
		}
		r.conn = c
		r.host = h
		return nil
	}
	if postConnectFailed {
		return fmt.Errorf("%w: %w", ErrNoHostAvailable, ErrPostConnectFailed)
	}
	return ErrNoHostAvailable
}

func (r *Reader) connectedCandidates() []*Host {
	if !r.engine.Ready() {
		return nil
	}
	var out []*Host
	for _, h := range r.engine.hosts {
		if h.Connected() {
			out = append(out, h)
		}
	}
	return out
}

func (r *Reader) replayPostConnect(c *resp.Conn) error {
	for _, cmd := range r.engine.postConnect {
		reply, err := c.Do(cmd.Bytes())
		if err != nil {
			return err
		}
		if !reply.IsOK() {
			return ErrPostConnectFailed
		}
	}
	return nil
}

func (r *Reader) dropConn() {
	if r.conn != nil {
		r.conn.Close()
		r.conn = nil
		r.host = nil
	}
}

func (r *Reader) closeConn() {
	r.dropConn()
	r.lastReply = nil
}
