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
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/EulerianTechnologies/eredis-go/internal/resp/resptest"
)

func TestConnDoRoundTrip(t *testing.T) {
	srv, err := resptest.Start(func(argv []string) string {
		if argv[0] == "GET" {
			return "$5\r\nhello\r\n"
		}
		return "+OK\r\n"
	})
	require.NoError(t, err)
	defer srv.Close()

	c, err := Dial(srv.Addr(), srv.Port(), 2*time.Second)
	require.NoError(t, err)
	defer c.Close()

	cmd, err := FormatCommandArgv([]string{"GET", "x"})
	require.NoError(t, err)

	reply, err := c.Do(cmd)
	require.NoError(t, err)
	require.Equal(t, TypeString, reply.Type)
	require.Equal(t, "hello", string(reply.Str))
}

func TestConnPipelining(t *testing.T) {
	srv, err := resptest.Start(nil)
	require.NoError(t, err)
	defer srv.Close()

	c, err := Dial(srv.Addr(), srv.Port(), 2*time.Second)
	require.NoError(t, err)
	defer c.Close()

	cmd, err := FormatCommandArgv([]string{"SET", "a", "1"})
	require.NoError(t, err)

	require.NoError(t, c.Append(cmd))
	require.NoError(t, c.Append(cmd))
	require.NoError(t, c.Flush())

	r1, err := c.ReadReply()
	require.NoError(t, err)
	require.True(t, r1.IsOK())

	r2, err := c.ReadReply()
	require.NoError(t, err)
	require.True(t, r2.IsOK())
}
