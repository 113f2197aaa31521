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

// Package metrics is the Prometheus instrumentation for an Engine,
// grounded on the teacher's core/stats.go (ProxyStats/GlobalStats). Unlike
// the teacher, which registers one process-wide ProxyStats against the
// default registry in init(), a Set here carries its own *prometheus.Registry
// so that a process can run (and test) more than one Engine without
// duplicate-registration panics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Set is the metrics surface for a single Engine.
type Set struct {
	Registry *prometheus.Registry

	HostsConnected  prometheus.Gauge
	QueueDepth      prometheus.Gauge
	CommandsDropped prometheus.Counter
	ReaderPoolInUse prometheus.Gauge
	ReaderPoolSize  prometheus.Gauge
	DialAttempts    *prometheus.CounterVec
	DialFailures    *prometheus.CounterVec
}

// NewSet builds a Set with its own registry and the given metric
// namespace (e.g. "eredis").
func NewSet(namespace string) *Set {
	reg := prometheus.NewRegistry()
	s := &Set{
		Registry: reg,
		HostsConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "hosts_connected",
			Help:      "number of configured hosts currently connected",
		}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "write_queue_depth",
			Help:      "number of commands pending in the mirrored write queue",
		}),
		CommandsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_dropped_total",
			Help:      "commands dropped due to queue overflow or forced teardown",
		}),
		ReaderPoolInUse: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reader_pool_in_use",
			Help:      "number of reader handles currently checked out",
		}),
		ReaderPoolSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reader_pool_size",
			Help:      "total number of reader handles ever allocated",
		}),
		DialAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dial_attempts_total",
			Help:      "connect attempts per host",
		}, []string{"host"}),
		DialFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dial_failures_total",
			Help:      "failed connect attempts per host",
		}, []string{"host"}),
	}
	reg.MustRegister(
		s.HostsConnected, s.QueueDepth, s.CommandsDropped,
		s.ReaderPoolInUse, s.ReaderPoolSize, s.DialAttempts, s.DialFailures,
	)
	return s
}
