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
	"sync"

	"github.com/EulerianTechnologies/eredis-go/internal/ring"
)

// pool is the bounded, LIFO-biased cache of reader handles, grounded on
// the teacher's redis_pool.go activeList/freeList pair but unified into
// a single ring (a handle's "free" bit distinguishes the two states
// instead of two separate lists).
type pool struct {
	mu      sync.Mutex
	cond    *sync.Cond
	r       ring.Ring[*Reader]
	size    int
	maxSize int
	engine  *Engine
}

// acquire returns a free handle, reusing the most recently released one
// if available, creating a new one under maxSize, or blocking until a
// handle is released.
func (p *pool) acquire() *Reader {
	p.mu.Lock()
	defer p.mu.Unlock()

	for {
		if front := p.r.Front(); front != nil && front.Value().free {
			r := front.Value()
			r.free = false
			p.r.RotateFront()
			p.engine.Metrics.ReaderPoolInUse.Inc()
			return r
		}
		if p.size < p.maxSize {
			r := newReader(p.engine)
			r.node = ring.NewNode(r)
			p.r.PushTail(r.node)
			p.size++
			p.engine.Metrics.ReaderPoolSize.Set(float64(p.size))
			p.engine.Metrics.ReaderPoolInUse.Inc()
			return r
		}
		p.cond.Wait()
	}
}

// release returns r to the head of the ring and wakes one waiter.
func (p *pool) release(r *Reader) {
	p.mu.Lock()
	p.r.TouchFront(r.node)
	r.free = true
	p.engine.Metrics.ReaderPoolInUse.Dec()
	p.cond.Signal()
	p.mu.Unlock()
}

// closeAll closes every handle's connection at engine teardown. The pool
// itself is never shrunk; only its connections are released.
func (p *pool) closeAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.r.Each(func(n *ring.Node[*Reader]) {
		n.Value().closeConn()
	})
}
