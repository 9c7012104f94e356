// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sqp

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Options is the keyed configuration of a solve. All values are
// strings; numeric values are validated up front so that later
// accesses cannot fail.
type Options map[string]string

// DefaultOptions returns the full option set with default values.
func DefaultOptions() Options {
	return Options{
		"mechanism":             "TR",
		"strategy":              "filter",
		"constraint-relaxation": "feasibility-restoration",
		"subproblem":            "QP",
		"hessian_model":         "convexified",
		"QP_solver":             "active-set",

		"tolerance":      "1e-8",
		"max_iterations": "300",
		"residual_norm":  "L1",

		"TR_radius":             "10",
		"TR_increase_factor":    "2",
		"TR_decrease_factor":    "2",
		"TR_min_radius":         "1e-16",
		"TR_activity_tolerance": "1e-6",

		"LS_backtracking_ratio": "0.5",
		"LS_max_iterations":     "30",
		"LS_min_step_length":    "1e-6",

		"l1_relaxation_initial_parameter": "1",
		"l1_relaxation_decrease_factor":   "10",
		"l1_relaxation_epsilon1":          "0.1",
		"l1_relaxation_epsilon2":          "0.1",
		"l1_relaxation_penalty_threshold": "1e-10",

		"filter_beta":        "0.999",
		"filter_gamma":       "0.001",
		"nonmonotone_memory": "3",

		"armijo_decrease_fraction": "1e-8",

		"use_proximal_term":           "no",
		"proximal_coefficient":        "1e-3",
		"use_second_order_correction": "no",

		"scale_functions":            "no",
		"scaling_threshold":          "100",
		"enforce_linear_constraints": "no",
		"print_solution":             "no",
	}
}

var optionEnums = map[string][]string{
	"mechanism":                   {"TR", "LS"},
	"strategy":                    {"penalty", "filter", "nonmonotone-filter"},
	"constraint-relaxation":       {"feasibility-restoration", "l1-relaxation"},
	"subproblem":                  {"QP", "LP", "barrier"},
	"hessian_model":               {"exact", "convexified", "BFGS"},
	"QP_solver":                   {"active-set"},
	"residual_norm":               {"L1", "L2", "L2_squared", "Inf"},
	"scale_functions":             {"yes", "no"},
	"enforce_linear_constraints":  {"yes", "no"},
	"print_solution":              {"yes", "no"},
	"use_proximal_term":           {"yes", "no"},
	"use_second_order_correction": {"yes", "no"},
}

var optionFloats = []string{
	"tolerance", "TR_radius", "TR_increase_factor", "TR_decrease_factor",
	"TR_min_radius", "TR_activity_tolerance", "LS_backtracking_ratio",
	"LS_min_step_length", "l1_relaxation_initial_parameter",
	"l1_relaxation_decrease_factor", "l1_relaxation_epsilon1",
	"l1_relaxation_epsilon2", "l1_relaxation_penalty_threshold",
	"filter_beta", "filter_gamma", "armijo_decrease_fraction",
	"proximal_coefficient", "scaling_threshold",
}

var optionInts = []string{
	"max_iterations", "LS_max_iterations", "nonmonotone_memory",
}

// Validate checks that every key is known and every value parses.
// Failures are configuration errors, reported before any iteration.
func (o Options) Validate() error {
	defaults := DefaultOptions()
	for key := range o {
		if _, known := defaults[key]; !known {
			return errors.Errorf("unknown option %q", key)
		}
	}
	for key, allowed := range optionEnums {
		value := o[key]
		ok := false
		for _, a := range allowed {
			if value == a {
				ok = true
				break
			}
		}
		if !ok {
			return errors.Errorf("option %s has invalid value %q (allowed: %s)",
				key, value, strings.Join(allowed, ", "))
		}
	}
	for _, key := range optionFloats {
		v, err := strconv.ParseFloat(o[key], 64)
		if err != nil {
			return errors.Errorf("option %s is not a number: %q", key, o[key])
		}
		if v < 0 {
			return errors.Errorf("option %s must not be negative", key)
		}
	}
	for _, key := range optionInts {
		if _, err := strconv.Atoi(o[key]); err != nil {
			return errors.Errorf("option %s is not an integer: %q", key, o[key])
		}
	}
	if o.Float("TR_radius") <= 0 {
		return errors.New("option TR_radius must be positive")
	}
	if r := o.Float("LS_backtracking_ratio"); r <= 0 || r >= 1 {
		return errors.New("option LS_backtracking_ratio must lie in (0, 1)")
	}
	return nil
}

// Float returns a numeric option. The key must have been validated.
func (o Options) Float(key string) float64 {
	v, err := strconv.ParseFloat(o[key], 64)
	if err != nil {
		panic("unvalidated option " + key)
	}
	return v
}

// Int returns an integer option. The key must have been validated.
func (o Options) Int(key string) int {
	v, err := strconv.Atoi(o[key])
	if err != nil {
		panic("unvalidated option " + key)
	}
	return v
}

// Bool returns a yes/no option.
func (o Options) Bool(key string) bool {
	return o[key] == "yes"
}

// ApplyPreset installs a coherent option bundle. The barrier
// subproblem is not built into this release, so the ipopt preset
// approximates the line-search filter method with QP steps.
func (o Options) ApplyPreset(name string) error {
	switch name {
	case "byrd":
		o["mechanism"] = "LS"
		o["strategy"] = "penalty"
		o["constraint-relaxation"] = "l1-relaxation"
		o["subproblem"] = "QP"
	case "filtersqp":
		o["mechanism"] = "TR"
		o["strategy"] = "filter"
		o["constraint-relaxation"] = "feasibility-restoration"
		o["subproblem"] = "QP"
	case "ipopt":
		o["mechanism"] = "LS"
		o["strategy"] = "filter"
		o["constraint-relaxation"] = "feasibility-restoration"
		o["subproblem"] = "QP"
	default:
		return errors.Errorf("unknown preset %q", name)
	}
	return nil
}

// ReadOptionsFile merges a "key value" per line file into o.
// Empty lines and # comments are skipped.
func (o Options) ReadOptionsFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "cannot open options file")
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 2 {
			return errors.Errorf("%s:%d: expected \"key value\"", path, line)
		}
		o[fields[0]] = fields[1]
	}
	return errors.Wrap(scanner.Err(), "error reading options file")
}
