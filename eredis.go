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

// Package eredis is a client for RESP/Redis-compatible servers built
// around two complementary paths: a single-goroutine asynchronous
// writer that mirrors every submitted command to a set of backend
// hosts on a best-effort basis, and a pool of synchronous reader
// handles for pipelined reads with per-call host failover.
package eredis

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/EulerianTechnologies/eredis-go/internal/logging"
	"github.com/EulerianTechnologies/eredis-go/metrics"
)

const (
	defaultTimeout     = time.Second
	defaultReaderMax   = 10
	defaultReaderRetry = 1
	tickInterval       = time.Second
)

// ErrNoHostAvailable is returned when every configured host failed a
// synchronous connect attempt.
var ErrNoHostAvailable = errors.New("eredis: no host available")

// ErrPostConnectFailed is reported when a post-connect command (e.g.
// AUTH, SELECT) did not reply OK during a synchronous connect and no
// other host could be connected; it is then joined with
// ErrNoHostAvailable, so test for it with errors.Is.
var ErrPostConnectFailed = errors.New("eredis: post-connect command failed")

// ErrNoCommand is returned by API-misuse paths: Reply() with nothing
// left to read, Subscribe() with no buffered subscribe command.
var ErrNoCommand = errors.New("eredis: no command pending")

// ErrAlreadyRunning is returned by Run/RunThr when called more than once.
var ErrAlreadyRunning = errors.New("eredis: engine already running")

// Engine is the process-wide context: the configured host list, the
// mirrored write queue, the reader pool, and the writer-loop goroutine.
// Hosts and post-connect commands may only be added before Run/RunThr
// is called.
type Engine struct {
	hosts []*Host

	queue writeQueue
	pool  pool

	postConnect []Command

	timeout     time.Duration
	readerMax   int
	readerRetry int

	Metrics *metrics.Set

	ready            atomic.Bool
	shutdownFlag     atomic.Bool
	sendAsyncPending atomic.Bool
	started          atomic.Bool
	hostsConnected   atomic.Int32

	wake         chan struct{}
	readyCh      chan struct{}
	done         chan struct{}
	dialResults  chan dialResult
	disconnected chan *Host
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithTimeout sets the synchronous read/write timeout applied to reader
// connections (TCP only).
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

// WithReaderMax caps how many reader handles the pool will ever create.
func WithReaderMax(n int) Option {
	return func(e *Engine) { e.readerMax = n }
}

// WithReaderRetry sets how many times Reply() retries against a
// different host after a transport failure.
func WithReaderRetry(n int) Option {
	return func(e *Engine) { e.readerRetry = n }
}

// WithPostConnectCmd appends a printf-style post-connect command (e.g.
// AUTH, SELECT), replayed after every successful (re)connect. A
// formatting error is logged and the command is skipped, since New
// does not return an error.
func WithPostConnectCmd(format string, args ...interface{}) Option {
	return func(e *Engine) {
		if err := e.PostConnectCmd(format, args...); err != nil {
			logging.Errorf("eredis: discarding post-connect command %q: %v", format, err)
		}
	}
}

// New builds an Engine with no hosts configured; add hosts with HostAdd
// or HostFile before calling Run/RunThr.
func New(opts ...Option) *Engine {
	e := &Engine{
		timeout:     defaultTimeout,
		readerMax:   defaultReaderMax,
		readerRetry: defaultReaderRetry,
		Metrics:     metrics.NewSet("eredis"),
		wake:    make(chan struct{}, 1),
		readyCh: make(chan struct{}),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.pool.maxSize = e.readerMax
	e.pool.engine = e
	e.pool.cond = sync.NewCond(&e.pool.mu)
	return e
}

// HostAdd configures one backend host. port == 0 dials a unix socket at
// target. The first host ever added is the preferred host. Must be
// called before Run/RunThr.
func (e *Engine) HostAdd(target string, port int) error {
	if e.started.Load() {
		return errors.New("eredis: cannot add hosts after the engine has started")
	}
	h := newHost(target, port, len(e.hosts) == 0)
	e.hosts = append(e.hosts, h)
	return nil
}

// HostFile loads hosts from a §6.3 plain-text host file, returning how
// many were added. Must be called before Run/RunThr.
func (e *Engine) HostFile(path string) (int, error) {
	specs, err := parseHostFile(path)
	if err != nil {
		return 0, err
	}
	for _, s := range specs {
		if err := e.HostAdd(s.target, s.port); err != nil {
			return 0, err
		}
	}
	return len(specs), nil
}

// SetTimeout is the post-construction counterpart of WithTimeout.
func (e *Engine) SetTimeout(d time.Duration) { e.timeout = d }

// SetReaderMax is the post-construction counterpart of WithReaderMax.
func (e *Engine) SetReaderMax(n int) { e.readerMax = n; e.pool.maxSize = n }

// SetReaderRetry is the post-construction counterpart of WithReaderRetry.
func (e *Engine) SetReaderRetry(n int) { e.readerRetry = n }

// PostConnectCmd appends a printf-style post-connect command.
func (e *Engine) PostConnectCmd(format string, args ...interface{}) error {
	c, err := NewCommand(format, args...)
	if err != nil {
		return err
	}
	e.postConnect = append(e.postConnect, c)
	return nil
}

// PostConnectCmdArgv appends an argv-style post-connect command.
func (e *Engine) PostConnectCmdArgv(argv []string) error {
	c, err := NewCommandArgv(argv)
	if err != nil {
		return err
	}
	e.postConnect = append(e.postConnect, c)
	return nil
}

// Ready reports whether every configured host has concluded at least
// one connect attempt.
func (e *Engine) Ready() bool { return e.ready.Load() }

// WPending reports how many commands are waiting in the write queue.
func (e *Engine) WPending() int { return e.queue.Len() }

// Reader acquires a reader handle from the pool, blocking if the pool is
// at capacity and every handle is in use. The caller must call
// Release() when done.
func (e *Engine) Reader() *Reader {
	return e.pool.acquire()
}

// WFormattedCmd mirrors a pre-formatted RESP wire frame to every
// currently connected host.
func (e *Engine) WFormattedCmd(b []byte) error {
	return e.submit(Command{bytes: b})
}

// WCmd formats and mirrors a printf-style command.
func (e *Engine) WCmd(format string, args ...interface{}) error {
	c, err := NewCommand(format, args...)
	if err != nil {
		return err
	}
	return e.submit(c)
}

// WCmdArgv formats and mirrors an argv-style command.
func (e *Engine) WCmdArgv(argv []string) error {
	c, err := NewCommandArgv(argv)
	if err != nil {
		return err
	}
	return e.submit(c)
}

func (e *Engine) submit(c Command) error {
	e.queue.PushTail(c)
	e.Metrics.QueueDepth.Set(float64(e.queue.Len()))
	e.wakeIfNeeded()
	return nil
}

// wakeIfNeeded sends on wake, non-blocking, exactly once per drain need:
// the Go equivalent of the original's ev_async_send behind a
// sendAsyncPending guard.
func (e *Engine) wakeIfNeeded() {
	if !e.ready.Load() || e.shutdownFlag.Load() {
		return
	}
	if !e.sendAsyncPending.CompareAndSwap(false, true) {
		return
	}
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// Run starts the writer loop and blocks until ctx is done or Shutdown is
// called, then tears the Engine down completely.
func (e *Engine) Run(ctx context.Context) error {
	if !e.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	go e.watchContext(ctx)
	e.loop()
	e.teardown()
	close(e.done)
	return nil
}

// RunThr starts the writer loop on its own goroutine and returns once it
// is running (ticker armed, ready to drain), rather than blocking for
// the lifetime of the engine.
func (e *Engine) RunThr(ctx context.Context) error {
	if !e.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	go e.watchContext(ctx)
	go func() {
		e.loop()
		e.teardown()
		close(e.done)
	}()
	<-e.readyCh
	return nil
}

func (e *Engine) watchContext(ctx context.Context) {
	select {
	case <-ctx.Done():
		e.Shutdown()
	case <-e.done:
	}
}

// Shutdown requests an orderly teardown: every connected host is
// disconnected and any further submissions stop waking the loop. It
// does not block; Close waits for completion.
func (e *Engine) Shutdown() {
	e.shutdownFlag.Store(true)
}

// Close requests shutdown (if not already) and waits for the writer
// loop to fully exit. Idempotent.
func (e *Engine) Close() {
	if e.started.Load() {
		e.Shutdown()
		<-e.done
		return
	}
	// Never started: nothing to tear down but the pool/hosts are empty
	// anyway.
}
