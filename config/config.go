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

// Package config is an optional declarative way to build an Engine from
// a YAML file, additive to the plain-text host file Engine.HostFile
// reads directly.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config mirrors the teacher's top-level Config/redisConfig split, with
// the proxy-only fields (port, web_port) dropped and the reader/engine
// knobs this library actually has added in their place.
type Config struct {
	LogPath      string      `yaml:"log_path"`
	LogLevel     string      `yaml:"log_level"`
	LogExpireDay int         `yaml:"log_expire_day"`
	Redis        redisConfig `yaml:"redis"`
}

type redisConfig struct {
	// Servers is a comma-separated "host[:port]" list, same convention
	// as the teacher's redisConfig.Servers.
	Servers string `yaml:"servers"`

	ConnTimeoutMS int `yaml:"conn_timeout_ms"`
	ReaderMax     int `yaml:"reader_max"`
	ReaderRetry   int `yaml:"reader_retry"`

	// PostConnectCmds are argv-style commands replayed after every
	// (re)connect, e.g. [["AUTH", "secret"], ["SELECT", "1"]].
	PostConnectCmds [][]string `yaml:"post_connect_cmds"`
}

var levelMapper = map[string]bool{"ERROR": true, "WARN": true, "DEBUG": true}

// Load reads and validates a YAML Engine configuration file.
func Load(fileName string) (*Config, error) {
	file, err := os.ReadFile(fileName)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read file from %s", fileName)
	}
	var cfg Config
	if err = yaml.Unmarshal(file, &cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal config from %s", fileName)
	}
	if err = cfg.validate(); err != nil {
		return nil, errors.Wrapf(err, "config validate failed")
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.LogLevel != "" && !levelMapper[c.LogLevel] {
		return errors.Errorf("unknown log level %s", c.LogLevel)
	}
	if len(c.Redis.Servers) < 1 {
		return errors.Errorf("unknown redis addrs")
	}
	return nil
}

// Timeout is the configured connect/read/write timeout, falling back to
// def when unset.
func (c *Config) Timeout(def time.Duration) time.Duration {
	if c.Redis.ConnTimeoutMS <= 0 {
		return def
	}
	return time.Duration(c.Redis.ConnTimeoutMS) * time.Millisecond
}

// HostSpec is one parsed "target[:port]" entry of Redis.Servers.
type HostSpec struct {
	Target string
	Port   int
}

// Hosts parses the comma-separated Redis.Servers list in order.
func (c *Config) Hosts() ([]HostSpec, error) {
	var out []HostSpec
	for _, raw := range strings.Split(c.Redis.Servers, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		target := raw
		port := 0
		if i := strings.LastIndexByte(raw, ':'); i >= 0 {
			target = raw[:i]
			p, err := strconv.Atoi(raw[i+1:])
			if err != nil {
				return nil, errors.Errorf("invalid server entry %q", raw)
			}
			port = p
		}
		out = append(out, HostSpec{Target: target, Port: port})
	}
	if len(out) == 0 {
		return nil, errors.Errorf("no servers configured")
	}
	return out, nil
}
