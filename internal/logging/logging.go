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

// Package logging is the structured logging façade for eredis-go. It
// replaces the original C library's three verbosity macros (_P_ERR,
// _P_WARN, _P_LOG) with three ordered logrus severities: Error, Warn and
// Debug. Nothing is logged above Error; there is no Info level, matching
// the original's three-tier verbosity model.
package logging

import (
	"strings"

	"github.com/sirupsen/logrus"
)

var log = newDefault()

func newDefault() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.DebugLevel)
	return l
}

// SetLogger replaces the package-level logger, e.g. with one configured
// by InitFileLogging.
func SetLogger(l *logrus.Logger) {
	log = l
}

// SetLevel adjusts the minimum severity emitted. Accepts "ERROR", "WARN"
// or "DEBUG" (case-insensitive); unknown values are ignored.
func SetLevel(level string) {
	if lv, ok := levelMapper[strings.ToUpper(level)]; ok {
		log.SetLevel(lv)
	}
}

var levelMapper = map[string]logrus.Level{
	"ERROR": logrus.ErrorLevel,
	"WARN":  logrus.WarnLevel,
	"DEBUG": logrus.DebugLevel,
}

func Errorf(format string, args ...interface{}) {
	log.Errorf(format, args...)
}

func Warnf(format string, args ...interface{}) {
	if log.IsLevelEnabled(logrus.WarnLevel) {
		log.Warnf(format, args...)
	}
}

func Debugf(format string, args ...interface{}) {
	if log.IsLevelEnabled(logrus.DebugLevel) {
		log.Debugf(format, args...)
	}
}
