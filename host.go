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
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/EulerianTechnologies/eredis-go/internal/resp"
)

// hostState is the primary connection state of a Host. Kept as its own
// small enum rather than packed into a bit field alongside hostFlags, so
// that the two orthogonal axes (connection state vs. transition flags)
// can't be confused at a call site — see DESIGN.md.
type hostState int

const (
	hostDisconnected hostState = iota
	hostConnected
	hostFailed
)

func (s hostState) String() string {
	switch s {
	case hostDisconnected:
		return "disconnected"
	case hostConnected:
		return "connected"
	case hostFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// hostFlags holds the two orthogonal transition flags. Independent of
// hostState: a host can be Disconnected and Connecting at once.
type hostFlags uint8

const (
	// hostInit is set the first time a host's connect attempt concludes,
	// win or lose. It gates the engine's Ready latch.
	hostInit hostFlags = 1 << iota
	// hostConnecting marks a dial in flight, so the periodic tick never
	// starts a second one on top of it.
	hostConnecting
)

const (
	// DisconnectedRetries is how many consecutive failed connect
	// attempts from Disconnected are tolerated before a host is marked
	// Failed.
	DisconnectedRetries = 10
	// FailedRetryAfter is how many timer ticks a Failed host waits
	// before the next reconnect attempt.
	FailedRetryAfter = 20
)

// Host is one configured mirror/read backend. Its state is mutated
// exclusively by the writer loop goroutine (host.tick,
// host.connectSucceeded, host.connectFailed, host.peerDisconnected);
// every other goroutine — readers biasing their host pick, callers
// inspecting State — only ever takes the read lock.
type Host struct {
	mu        sync.RWMutex
	target    string
	port      int
	preferred bool

	state    hostState
	flags    hostFlags
	failures int

	async *resp.AsyncConn
}

func newHost(target string, port int, preferred bool) *Host {
	return &Host{target: target, port: port, preferred: preferred}
}

// Target is the configured address or unix socket path.
func (h *Host) Target() string { return h.target }

// Port is the configured TCP port, or 0 for a unix socket.
func (h *Host) Port() int { return h.port }

// Preferred reports whether this is the first configured host.
func (h *Host) Preferred() bool { return h.preferred }

// Connected reports the current connection state under a read lock.
func (h *Host) Connected() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state == hostConnected
}

// State returns the current state, for diagnostics and tests.
func (h *Host) State() hostState {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state
}

func (h *Host) initialized() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.flags&hostInit != 0
}

func (h *Host) String() string {
	if h.port == 0 {
		return h.target
	}
	return fmt.Sprintf("%s:%d", h.target, h.port)
}

// tick runs the per-host slice of the 1 Hz connect timer (spec.md §4.2).
// It reports whether the writer loop should kick off a dial attempt this
// tick; the caller is expected to dial asynchronously and report the
// outcome back through connectSucceeded or connectFailed.
func (h *Host) tick() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.flags&hostConnecting != 0 {
		return false
	}
	switch h.state {
	case hostConnected:
		return false
	case hostDisconnected:
		h.flags |= hostConnecting
		return true
	case hostFailed:
		h.failures++
		if h.failures < FailedRetryAfter {
			return false
		}
		h.failures %= FailedRetryAfter
		h.flags |= hostConnecting
		return true
	default:
		return false
	}
}

// connectSucceeded applies the connect callback's success outcome: the
// writer loop calls this once the dial it kicked off on tick's signal
// completes, and then bumps its own hosts-connected counter.
func (h *Host) connectSucceeded(conn *resp.AsyncConn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.flags &^= hostConnecting
	h.flags |= hostInit
	h.state = hostConnected
	h.failures = 0
	h.async = conn
}

func (h *Host) connectFailed() {
	h.mu.Lock()
	defer h.mu.Unlock()

	wasDisconnected := h.state == hostDisconnected
	h.flags &^= hostConnecting
	h.flags |= hostInit
	h.async = nil

	if wasDisconnected {
		h.failures++
		if h.failures > DisconnectedRetries {
			h.state = hostFailed
			h.failures = 0
		}
		return
	}
	// Attempt was made from Failed's throttled retry: reset the
	// conclusion counter independently of tick's throttle counter.
	h.failures = 0
}

// peerDisconnected applies the disconnect callback fired by a connection
// that was Connected. Reports whether the host had in fact been counted
// as connected, so the caller can decrement hosts_connected exactly once.
func (h *Host) peerDisconnected() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	wasConnected := h.state == hostConnected
	h.state = hostDisconnected
	h.async = nil
	return wasConnected
}

// sendAsync hands a preformatted command to the host's live async
// connection, fire-and-forget. Returns false if the host has no live
// connection right now (the caller treats that as "host did not accept
// the mirror").
func (h *Host) sendAsync(cmd []byte) bool {
	h.mu.RLock()
	conn := h.async
	connected := h.state == hostConnected
	h.mu.RUnlock()

	if !connected || conn == nil {
		return false
	}
	return conn.SendAsync(cmd) == nil
}

// beginShutdownDisconnect requests the async connection close and clears
// it, returning whether the host had been Connected (so the writer loop
// can update the hosts-connected count during shutdown drain).
func (h *Host) beginShutdownDisconnect() bool {
	h.mu.Lock()
	conn := h.async
	wasConnected := h.state == hostConnected
	h.async = nil
	h.state = hostDisconnected
	h.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	return wasConnected
}

// hostSpec is one parsed line of a §6.3 host file, prior to being turned
// into a Host by the Engine (which also assigns "preferred").
type hostSpec struct {
	target string
	port   int
}

// parseHostFile reads a plain-text host list: UTF-8, at most 64 KiB, one
// "target[:port]" per line, "#"-prefixed comment lines, blank and
// malformed lines silently skipped. Grounded on the original eredis CLI
// tools' host-file convention (see original_source/), not present in the
// teacher, which takes its server list from a single comma-joined string.
func parseHostFile(path string) ([]hostSpec, error) {
	const maxHostFile = 64 * 1024

	fi, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrapf(err, "stat host file %s", path)
	}
	if fi.Size() > maxHostFile {
		return nil, errors.Errorf("host file %s exceeds %d bytes", path, maxHostFile)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open host file %s", path)
	}
	defer f.Close()

	var specs []hostSpec
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if !utf8.ValidString(line) {
			continue
		}
		line = strings.TrimRight(strings.TrimLeft(line, " \t"), " \t\r")
		if line == "" || line[0] == '#' {
			continue
		}
		spec, ok := parseHostLine(line)
		if !ok {
			continue
		}
		specs = append(specs, spec)
	}
	if err := sc.Err(); err != nil && err != io.EOF {
		return nil, errors.Wrapf(err, "read host file %s", path)
	}
	return specs, nil
}

func parseHostLine(line string) (hostSpec, bool) {
	target := line
	port := 0
	if i := strings.LastIndexByte(line, ':'); i >= 0 {
		target = line[:i]
		p, err := strconv.Atoi(line[i+1:])
		if err != nil || p <= 0 || p > 65535 {
			return hostSpec{}, false
		}
		port = p
	}
	if target == "" {
		return hostSpec{}, false
	}
	return hostSpec{target: target, port: port}, true
}
