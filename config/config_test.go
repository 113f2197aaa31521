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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "eredis.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadValidConfig(t *testing.T) {
	path := writeConfig(t, `
log_level: DEBUG
redis:
  servers: "10.0.0.1:6379,10.0.0.2:6380"
  conn_timeout_ms: 250
  reader_max: 5
  post_connect_cmds:
    - ["AUTH", "secret"]
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "DEBUG", cfg.LogLevel)
	assert.Equal(t, 250*time.Millisecond, cfg.Timeout(time.Second))

	hosts, err := cfg.Hosts()
	require.NoError(t, err)
	require.Len(t, hosts, 2)
	assert.Equal(t, HostSpec{Target: "10.0.0.1", Port: 6379}, hosts[0])
	assert.Equal(t, HostSpec{Target: "10.0.0.2", Port: 6380}, hosts[1])
}

func TestLoadRejectsUnknownLogLevel(t *testing.T) {
	path := writeConfig(t, `
log_level: VERBOSE
redis:
  servers: "10.0.0.1:6379"
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsEmptyServers(t *testing.T) {
	path := writeConfig(t, `
redis:
  servers: ""
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestTimeoutFallsBackToDefault(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, 500*time.Millisecond, cfg.Timeout(500*time.Millisecond))
}
