// Copyright (c) 2012 Gary Burd
// Copyright (c) 2022 The rcproxy Authors
// Copyright (c) 2026 The eredis-go Authors
//
// Licensed under the Apache License, Version 2.0 (the "License"): you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS, WITHOUT
// WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the
// License for the specific language governing permissions and limitations
// under the License.

package resp

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/valyala/bytebufferpool"
)

var bufPool bytebufferpool.Pool

// FormatCommand builds a RESP wire frame from a printf-style command,
// e.g. FormatCommand("SET %s %s", key, val). The expanded string is then
// split into whitespace-separated tokens (quoted segments and backslash
// escapes are honored, matching the original library's reliance on
// hiredis' sds-based argument splitter) before being RESP-encoded.
func FormatCommand(format string, args ...interface{}) ([]byte, error) {
	expanded := fmt.Sprintf(format, args...)
	argv, err := splitArgs(expanded)
	if err != nil {
		return nil, ErrCommand
	}
	if len(argv) == 0 {
		return nil, ErrCommand
	}
	return FormatCommandArgv(argv)
}

// FormatCommandArgv RESP-encodes an already-tokenized command, e.g. the
// argv/argvlen pair of spec.md's w_cmdargv.
func FormatCommandArgv(argv []string) ([]byte, error) {
	if len(argv) == 0 {
		return nil, ErrCommand
	}
	bb := bufPool.Get()
	defer bufPool.Put(bb)
	bb.Reset()

	writeLen(bb, '*', len(argv))
	for _, a := range argv {
		writeBulkString(bb, a)
	}

	out := make([]byte, bb.Len())
	copy(out, bb.B)
	return out, nil
}

func writeLen(bb *bytebufferpool.ByteBuffer, prefix byte, n int) {
	bb.WriteByte(prefix)
	bb.WriteString(strconv.Itoa(n))
	bb.WriteString("\r\n")
}

func writeBulkString(bb *bytebufferpool.ByteBuffer, s string) {
	writeLen(bb, '$', len(s))
	bb.WriteString(s)
	bb.WriteString("\r\n")
}

// splitArgs tokenizes a command line the way hiredis' sdssplitargs does:
// whitespace-separated, with single/double quoting and backslash escapes
// inside double quotes, so printf-formatted values containing spaces
// (wrapped in quotes by the caller) survive the split intact.
func splitArgs(line string) ([]string, error) {
	var argv []string
	var cur strings.Builder
	i := 0
	n := len(line)

	for i < n {
		for i < n && isSpace(line[i]) {
			i++
		}
		if i >= n {
			break
		}

		inQuotes := false
		inSingle := false
		cur.Reset()
		for i < n {
			c := line[i]
			switch {
			case inQuotes:
				if c == '\\' && i+1 < n {
					i++
					switch line[i] {
					case 'n':
						cur.WriteByte('\n')
					case 'r':
						cur.WriteByte('\r')
					case 't':
						cur.WriteByte('\t')
					default:
						cur.WriteByte(line[i])
					}
				} else if c == '"' {
					inQuotes = false
					i++
					if i < n && !isSpace(line[i]) {
						return nil, fmt.Errorf("resp: unbalanced quotes in %q", line)
					}
					goto doneToken
				} else {
					cur.WriteByte(c)
				}
			case inSingle:
				if c == '\'' {
					inSingle = false
					i++
					if i < n && !isSpace(line[i]) {
						return nil, fmt.Errorf("resp: unbalanced quotes in %q", line)
					}
					goto doneToken
				}
				cur.WriteByte(c)
			case c == '"':
				inQuotes = true
			case c == '\'':
				inSingle = true
			case isSpace(c):
				goto doneToken
			default:
				cur.WriteByte(c)
			}
			i++
		}
	doneToken:
		if inQuotes || inSingle {
			return nil, fmt.Errorf("resp: unbalanced quotes in %q", line)
		}
		argv = append(argv, cur.String())
	}
	return argv, nil
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
