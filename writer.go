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
	"net"
	"time"

	"github.com/EulerianTechnologies/eredis-go/internal/logging"
	"github.com/EulerianTechnologies/eredis-go/internal/resp"
)

// dialResult is how a bounded dial goroutine reports an async connect
// attempt's outcome back to the single writer-loop goroutine, which is
// the only goroutine allowed to mutate Host state.
type dialResult struct {
	host *Host
	conn *resp.AsyncConn
	err  error
}

// loop is the single writer goroutine: it owns the 1 Hz host-state
// timer and the wake-up channel that triggers a write-queue drain. It
// runs until Shutdown has been requested and every host has been
// disconnected.
func (e *Engine) loop() {
	bufSize := len(e.hosts)
	if bufSize == 0 {
		bufSize = 1
	}
	e.dialResults = make(chan dialResult, bufSize)
	e.disconnected = make(chan *Host, bufSize)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	close(e.readyCh)

	shutdownPass := false
	for {
		select {
		case <-ticker.C:
			if e.shutdownFlag.Load() {
				if !shutdownPass {
					e.disconnectAllConnected()
					shutdownPass = true
				}
				if e.hostsConnected.Load() == 0 {
					return
				}
				continue
			}
			e.tickHosts()

		case r := <-e.dialResults:
			e.handleDialResult(r)

		case h := <-e.disconnected:
			if h.peerDisconnected() {
				e.hostsConnected.Add(-1)
				e.Metrics.HostsConnected.Set(float64(e.hostsConnected.Load()))
			}

		case <-e.wake:
			e.sendAsyncPending.Store(false)
			if e.shutdownFlag.Load() {
				continue
			}
			e.drain()
		}
	}
}

func (e *Engine) tickHosts() {
	for _, h := range e.hosts {
		if h.tick() {
			go e.dialHost(h)
		}
	}
}

// dialHost runs on its own goroutine so a slow or hanging backend never
// stalls the writer loop; internal/resp dials on this bounded worker
// rather than through a true async I/O reactor (see Design Notes).
func (e *Engine) dialHost(h *Host) {
	e.Metrics.DialAttempts.WithLabelValues(h.String()).Inc()

	nc, err := resp.DialNet(h.Target(), h.Port(), e.timeout)
	if err != nil {
		e.Metrics.DialFailures.WithLabelValues(h.String()).Inc()
		logging.Debugf("eredis: dial %s failed: %v", h, err)
		e.sendDialResult(dialResult{host: h, err: err})
		return
	}
	if tc, ok := nc.(*net.TCPConn); ok {
		_ = tc.SetKeepAlive(true)
	}
	conn := resp.NewAsyncConn(nc, func() {
		select {
		case e.disconnected <- h:
		default:
		}
	})
	e.sendDialResult(dialResult{host: h, conn: conn})
}

func (e *Engine) sendDialResult(r dialResult) {
	select {
	case e.dialResults <- r:
	default:
		logging.Warnf("eredis: dial result for %s dropped, loop not draining", r.host)
	}
}

func (e *Engine) handleDialResult(r dialResult) {
	if r.err != nil {
		r.host.connectFailed()
		e.maybeBecomeReady()
		return
	}
	r.host.connectSucceeded(r.conn)
	e.hostsConnected.Add(1)
	e.Metrics.HostsConnected.Set(float64(e.hostsConnected.Load()))
	e.maybeBecomeReady()
	if len(e.postConnect) > 0 {
		e.queue.unshiftReplayCommands(e.postConnect)
		e.Metrics.QueueDepth.Set(float64(e.queue.Len()))
		e.wakeIfNeeded()
	}
}

// maybeBecomeReady flips the Ready latch once every host has concluded
// at least one connect attempt, win or lose, and fires the one-time
// wake-up that lets anything queued before Ready drain.
func (e *Engine) maybeBecomeReady() {
	if e.ready.Load() {
		return
	}
	for _, h := range e.hosts {
		if !h.initialized() {
			return
		}
	}
	e.ready.Store(true)
	e.wakeIfNeeded()
}

func (e *Engine) disconnectAllConnected() {
	for _, h := range e.hosts {
		if h.beginShutdownDisconnect() {
			e.hostsConnected.Add(-1)
			e.Metrics.HostsConnected.Set(float64(e.hostsConnected.Load()))
		}
	}
}

// drain empties the write queue one command at a time, mirroring each to
// every currently Connected host. A command that no host accepts is
// pushed back to the queue head and draining stops (back-pressure)
// unless the queue is already at QueueMaxUnshift, in which case it is
// dropped.
func (e *Engine) drain() {
	for {
		cmd, ok := e.queue.ShiftHead()
		if !ok {
			e.Metrics.QueueDepth.Set(0)
			return
		}

		accepted := 0
		for _, h := range e.hosts {
			if h.sendAsync(cmd.Bytes()) {
				accepted++
			}
		}

		if accepted == 0 {
			if e.queue.Len() < QueueMaxUnshift {
				e.queue.UnshiftHead(cmd)
				e.Metrics.QueueDepth.Set(float64(e.queue.Len()))
				return
			}
			e.Metrics.CommandsDropped.Inc()
		}
		e.Metrics.QueueDepth.Set(float64(e.queue.Len()))
	}
}

func (e *Engine) teardown() {
	e.disconnectAllConnected()
	e.pool.closeAll()

	dropped := 0
	for {
		if _, ok := e.queue.ShiftHead(); !ok {
			break
		}
		dropped++
	}
	if dropped > 0 {
		e.Metrics.CommandsDropped.Add(float64(dropped))
	}
	e.Metrics.QueueDepth.Set(0)
	e.Metrics.HostsConnected.Set(0)
}
