// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sqp

import (
	"fmt"
	"io"
	"strings"

	"github.com/curioloop/sqpkit/nlp"
)

// Statistics accumulates the counters and the per-iteration table of
// a solve. It is threaded explicitly through the call stack; there is
// no global state.
type Statistics struct {
	Evals              nlp.EvalCounts
	SubproblemSolves   int
	HessianEvaluations int

	out     io.Writer
	columns []statColumn
	row     map[string]string
	rows    int
}

type statColumn struct {
	name  string
	width int
}

// NewStatistics creates a statistics sink. A nil writer disables the
// iteration table.
func NewStatistics(out io.Writer) *Statistics {
	return &Statistics{out: out, row: make(map[string]string)}
}

// AddColumn registers a column of the iteration table. Components
// register their columns during initialization, in invocation order.
func (s *Statistics) AddColumn(name string, width int) {
	for _, c := range s.columns {
		if c.name == name {
			return
		}
	}
	if width < len(name)+2 {
		width = len(name) + 2
	}
	s.columns = append(s.columns, statColumn{name, width})
}

// Set records a value for the current row.
func (s *Statistics) Set(name string, value any) {
	switch v := value.(type) {
	case float64:
		s.row[name] = fmt.Sprintf("%.4e", v)
	default:
		s.row[name] = fmt.Sprint(v)
	}
}

// Flush prints the current row and starts a new one. The header is
// repeated every 25 rows.
func (s *Statistics) Flush() {
	if s.out != nil {
		if s.rows%25 == 0 {
			var header strings.Builder
			for _, c := range s.columns {
				fmt.Fprintf(&header, "%*s", c.width, c.name)
			}
			fmt.Fprintln(s.out, header.String())
		}
		var line strings.Builder
		for _, c := range s.columns {
			fmt.Fprintf(&line, "%*s", c.width, s.row[c.name])
		}
		fmt.Fprintln(s.out, line.String())
	}
	s.rows++
	clear(s.row)
}
