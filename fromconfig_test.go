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
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EulerianTechnologies/eredis-go/config"
)

func TestNewFromConfigBuildsEngine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "eredis.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
redis:
  servers: "10.0.0.1:6379,10.0.0.2:6380"
  conn_timeout_ms: 123
  reader_max: 4
  post_connect_cmds:
    - ["AUTH", "secret"]
`), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	e, err := NewFromConfig(cfg)
	require.NoError(t, err)

	require.Len(t, e.hosts, 2)
	assert.Equal(t, "10.0.0.1", e.hosts[0].Target())
	assert.Equal(t, "10.0.0.2", e.hosts[1].Target())
	assert.Equal(t, 123*time.Millisecond, e.timeout)
	assert.Equal(t, 4, e.readerMax)
	require.Len(t, e.postConnect, 1)
	assert.Equal(t, "AUTH secret", e.postConnect[0].String())
}
