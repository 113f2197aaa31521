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

// QueueMaxUnshift is the back-pressure threshold: below this many queued
// commands, a failed fan-out is pushed back to the head and retried on
// the next drain pass; at or above it, the command is dropped.
const QueueMaxUnshift = 10000

// writeQueue is the mirrored-write pending list: a ring of Command
// nodes guarded by its own mutex, shared between every submitting
// goroutine and the writer loop.
type writeQueue struct {
	mu sync.Mutex
	r  ring.Ring[Command]
}

// PushTail enqueues a command for mirroring, in submission order.
func (q *writeQueue) PushTail(c Command) {
	q.mu.Lock()
	q.r.PushTail(ring.NewNode(c))
	q.mu.Unlock()
}

// UnshiftHead pushes a command back to the head, used both for
// back-pressure retry and for post-connect replay ordering.
func (q *writeQueue) UnshiftHead(c Command) {
	q.mu.Lock()
	q.r.UnshiftHead(ring.NewNode(c))
	q.mu.Unlock()
}

// ShiftHead pops the head command, reporting ok=false on an empty queue.
func (q *writeQueue) ShiftHead() (c Command, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := q.r.ShiftHead()
	if n == nil {
		return Command{}, false
	}
	return n.Value(), true
}

// Len reports the number of pending commands.
func (q *writeQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.r.Len()
}

// unshiftReplayCommands re-queues post-connect commands ahead of
// whatever is already pending, in their configured order: each is
// individually unshifted in reverse, so repeated UnshiftHead calls read
// back out in forward order.
func (q *writeQueue) unshiftReplayCommands(cmds []Command) {
	for i := len(cmds) - 1; i >= 0; i-- {
		q.UnshiftHead(cmds[i])
	}
}
