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

package logging

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/sirupsen/logrus"
)

// InitFileLogging points the package logger at an hourly-rotated file
// under dir, pruning files older than expireDays. It mirrors the
// teacher's pkg/logging/logrus_wrapper.go writer setup; callers that
// never invoke this keep logging to stderr.
func InitFileLogging(dir, fileName string, expireDays int) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("logging: mkdir %s: %w", dir, err)
	}

	full := path.Join(dir, fileName)
	if !strings.HasPrefix(dir, "/") {
		pwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("logging: getwd: %w", err)
		}
		full = path.Join(pwd, dir, fileName)
	}

	writer, err := rotatelogs.New(
		full+".%Y%m%d%H",
		rotatelogs.WithLinkName(full),
		rotatelogs.WithMaxAge(time.Duration(expireDays)*24*time.Hour),
		rotatelogs.WithRotationTime(time.Hour),
	)
	if err != nil {
		return fmt.Errorf("logging: rotatelogs: %w", err)
	}

	l := logrus.New()
	l.SetOutput(writer)
	l.SetFormatter(&lineFormatter{})
	l.SetLevel(log.Level)
	SetLogger(l)
	return nil
}

// lineFormatter renders a single compact line per entry: LEVEL time
// caller message. It is a trimmed-down version of the teacher's
// textFormatter, without the slow-log shortcut that only applies to the
// proxy's request path.
type lineFormatter struct{}

func (f *lineFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var out strings.Builder
	out.WriteString(strings.ToUpper(entry.Level.String()))
	out.WriteByte(' ')
	out.WriteString(entry.Time.Format("06-01-02 15:04:05.999"))
	out.WriteByte(' ')
	if entry.Caller != nil {
		out.WriteString(filepath.Base(entry.Caller.File))
		out.WriteByte(':')
		fmt.Fprintf(&out, "%d ", entry.Caller.Line)
	}
	out.WriteString(entry.Message)
	out.WriteByte('\n')
	return []byte(out.String()), nil
}
