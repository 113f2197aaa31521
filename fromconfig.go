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
	"github.com/EulerianTechnologies/eredis-go/config"
)

// NewFromConfig builds an Engine from a declarative YAML config (§10.3),
// additive to the plain-text host file HostFile reads directly.
func NewFromConfig(cfg *config.Config, opts ...Option) (*Engine, error) {
	hosts, err := cfg.Hosts()
	if err != nil {
		return nil, err
	}

	allOpts := make([]Option, 0, len(opts)+3)
	allOpts = append(allOpts, WithTimeout(cfg.Timeout(defaultTimeout)))
	if cfg.Redis.ReaderMax > 0 {
		allOpts = append(allOpts, WithReaderMax(cfg.Redis.ReaderMax))
	}
	if cfg.Redis.ReaderRetry > 0 {
		allOpts = append(allOpts, WithReaderRetry(cfg.Redis.ReaderRetry))
	}
	allOpts = append(allOpts, opts...)

	e := New(allOpts...)
	for _, h := range hosts {
		if err := e.HostAdd(h.Target, h.Port); err != nil {
			return nil, err
		}
	}
	for _, argv := range cfg.Redis.PostConnectCmds {
		if err := e.PostConnectCmdArgv(argv); err != nil {
			return nil, err
		}
	}
	return e, nil
}
