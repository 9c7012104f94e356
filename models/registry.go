// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package models is the built-in problem library of the solver front
// end: small nonlinear programs with hand-coded derivatives, plus a
// finite-difference fallback for problems registered without them.
package models

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/curioloop/sqpkit/nlp"
)

var registry = map[string]func() *nlp.Problem{}

// Register adds a problem constructor under a name. Registering the
// same name twice panics: it indicates a programming error.
func Register(name string, build func() *nlp.Problem) {
	if _, exists := registry[name]; exists {
		panic("models: duplicate problem " + name)
	}
	registry[name] = build
}

// Get builds the named problem.
func Get(name string) (*nlp.Problem, error) {
	build, ok := registry[name]
	if !ok {
		return nil, errors.Errorf("unknown problem %q", name)
	}
	return build(), nil
}

// Names lists the registered problems in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
