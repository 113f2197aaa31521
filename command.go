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

import "github.com/EulerianTechnologies/eredis-go/internal/resp"

// Command is a pre-formatted RESP wire frame plus enough of the original
// request to re-render it in logs and errors. It is what travels through
// both the write queue (A) and a Reader's pipeline buffer.
type Command struct {
	bytes []byte
	argv  []string
}

// NewCommand formats a command using printf-style hiredis semantics
// ("SET %s %s", k, v), or a quote-aware single string ("SET k v").
func NewCommand(format string, args ...interface{}) (Command, error) {
	b, err := resp.FormatCommand(format, args...)
	if err != nil {
		return Command{}, err
	}
	return Command{bytes: b}, nil
}

// NewCommandArgv formats a command from an explicit argument vector,
// bypassing printf/quote parsing entirely.
func NewCommandArgv(argv []string) (Command, error) {
	b, err := resp.FormatCommandArgv(argv)
	if err != nil {
		return Command{}, err
	}
	return Command{bytes: b, argv: argv}, nil
}

// Bytes returns the formatted RESP wire frame.
func (c Command) Bytes() []byte { return c.bytes }

func (c Command) String() string {
	if c.argv != nil {
		s := ""
		for i, a := range c.argv {
			if i > 0 {
				s += " "
			}
			s += a
		}
		return s
	}
	return string(c.bytes)
}
