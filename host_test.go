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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestHostFSMElevenFailuresThenFailed exercises scenario S2: a host that
// refuses to connect eleven times in a row ends up Failed with failures
// reset to 0, and then sits quiet for 19 ticks before trying again on
// tick 20.
func TestHostFSMElevenFailuresThenFailed(t *testing.T) {
	h := newHost("127.0.0.1", 6379, true)

	for i := 0; i < DisconnectedRetries; i++ {
		require.True(t, h.tick())
		h.connectFailed()
		assert.Equal(t, hostDisconnected, h.State())
	}
	assert.Equal(t, DisconnectedRetries, h.failures)

	require.True(t, h.tick())
	h.connectFailed()
	assert.Equal(t, hostFailed, h.State())
	assert.Equal(t, 0, h.failures)
	assert.True(t, h.initialized())

	for i := 0; i < FailedRetryAfter-1; i++ {
		assert.False(t, h.tick(), "tick %d should stay throttled", i)
	}
	assert.True(t, h.tick(), "tick 20 should fire a reconnect attempt")
}

func TestHostFSMConnectSuccessResetsFailures(t *testing.T) {
	h := newHost("127.0.0.1", 6379, true)
	require.True(t, h.tick())
	h.connectFailed()
	require.Equal(t, 1, h.failures)

	require.True(t, h.tick())
	h.connectSucceeded(nil)
	assert.Equal(t, hostConnected, h.State())
	assert.Equal(t, 0, h.failures)
	assert.True(t, h.initialized())
	assert.True(t, h.Connected())

	assert.False(t, h.tick(), "a Connected host never starts a new dial")
}

func TestHostFSMPeerDisconnect(t *testing.T) {
	h := newHost("127.0.0.1", 6379, true)
	require.True(t, h.tick())
	h.connectSucceeded(nil)
	require.True(t, h.Connected())

	assert.True(t, h.peerDisconnected())
	assert.Equal(t, hostDisconnected, h.State())
	assert.False(t, h.peerDisconnected(), "second call has nothing to report")
}

func TestHostFSMConnectingSuppressesDoubleTick(t *testing.T) {
	h := newHost("127.0.0.1", 6379, true)
	require.True(t, h.tick())
	assert.False(t, h.tick(), "a dial already in flight blocks a second one")
}

func TestParseHostFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hosts.txt")
	content := "  10.0.0.1:6379  \n" +
		"# a comment\n" +
		"\n" +
		"/var/run/redis.sock\n" +
		"not a valid host: indeed\n" +
		"10.0.0.2:notaport\n" +
		"10.0.0.3:6380\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	specs, err := parseHostFile(path)
	require.NoError(t, err)
	require.Len(t, specs, 3)
	assert.Equal(t, hostSpec{target: "10.0.0.1", port: 6379}, specs[0])
	assert.Equal(t, hostSpec{target: "/var/run/redis.sock", port: 0}, specs[1])
	assert.Equal(t, hostSpec{target: "10.0.0.3", port: 6380}, specs[2])
}

func TestParseHostFileTooLarge(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hosts.txt")
	big := make([]byte, 64*1024+1)
	for i := range big {
		big[i] = 'a'
	}
	require.NoError(t, os.WriteFile(path, big, 0o644))

	_, err := parseHostFile(path)
	assert.Error(t, err)
}
