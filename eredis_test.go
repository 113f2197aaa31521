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
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngineOptionsApply(t *testing.T) {
	e := New(WithReaderMax(3), WithReaderRetry(2))
	assert.Equal(t, 3, e.readerMax)
	assert.Equal(t, 2, e.readerRetry)
}

func TestEngineHostAddSetsPreferred(t *testing.T) {
	e := New()
	require.NoError(t, e.HostAdd("10.0.0.1", 6379))
	require.NoError(t, e.HostAdd("10.0.0.2", 6379))
	assert.True(t, e.hosts[0].Preferred())
	assert.False(t, e.hosts[1].Preferred())
}

func TestEngineHostFileAddsHostsInOrder(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hosts.txt")
	require.NoError(t, os.WriteFile(path, []byte("10.0.0.1:6379\n10.0.0.2:6380\n"), 0o644))

	e := New()
	n, err := e.HostFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "10.0.0.1", e.hosts[0].Target())
	assert.Equal(t, "10.0.0.2", e.hosts[1].Target())
}

func TestEngineHostAddRejectedAfterStart(t *testing.T) {
	e := New()
	require.NoError(t, e.HostAdd("10.0.0.1", 6379))

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, e.RunThr(ctx))
	defer func() {
		cancel()
		e.Close()
	}()

	assert.Error(t, e.HostAdd("10.0.0.2", 6379))
}

func TestEngineRunThrTwiceFails(t *testing.T) {
	e := New()
	require.NoError(t, e.HostAdd("10.0.0.1", 6379))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, e.RunThr(ctx))
	defer e.Close()

	assert.ErrorIs(t, e.RunThr(ctx), ErrAlreadyRunning)
}

func TestWithPostConnectCmdOptionDiscardsBadFormat(t *testing.T) {
	e := New(WithPostConnectCmd("   "))
	assert.Empty(t, e.postConnect)
}

func TestPostConnectCmdArgvAppends(t *testing.T) {
	e := New()
	require.NoError(t, e.PostConnectCmdArgv([]string{"AUTH", "secret"}))
	require.Len(t, e.postConnect, 1)
	assert.Equal(t, "AUTH secret", e.postConnect[0].String())
}
