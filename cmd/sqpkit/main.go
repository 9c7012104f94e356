// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command sqpkit solves a problem from the built-in model library.
//
//	sqpkit [-options file] [-preset name] [-mechanism LS|TR] ... problem
//
// Options come from the defaults, then the options file, then the
// preset, then the individual flags; later sources win.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/curioloop/sqpkit/models"
	"github.com/curioloop/sqpkit/sqp"
)

const defaultOptionsFile = "sqpkit.options"

var (
	mechanism   = flag.String("mechanism", "", "globalization mechanism (LS|TR)")
	strategy    = flag.String("strategy", "", "globalization strategy (penalty|filter|nonmonotone-filter)")
	relaxation  = flag.String("constraint-relaxation", "", "constraint relaxation (feasibility-restoration|l1-relaxation)")
	subproblem  = flag.String("subproblem", "", "subproblem (QP|LP|barrier)")
	preset      = flag.String("preset", "", "option preset (byrd|filtersqp|ipopt)")
	optionsFile = flag.String("options", "", "path to an options file (key value per line, # comments)")
	verbose     = flag.Bool("v", false, "print usage")
)

func usage() {
	fmt.Println("Welcome to sqpkit")
	fmt.Println("To solve a built-in problem, type sqpkit <problem>")
	fmt.Println("To choose a globalization mechanism, use the argument -mechanism [LS|TR]")
	fmt.Println("To choose a globalization strategy, use the argument -strategy [penalty|filter|nonmonotone-filter]")
	fmt.Println("To choose a constraint relaxation strategy, use the argument -constraint-relaxation [feasibility-restoration|l1-relaxation]")
	fmt.Println("To choose a subproblem, use the argument -subproblem [QP|LP|barrier]")
	fmt.Println("To choose a preset, use the argument -preset [byrd|filtersqp|ipopt]")
	fmt.Println("Available problems:", strings.Join(models.Names(), ", "))
}

func main() {
	os.Exit(run())
}

func run() int {
	flag.Parse()
	if *verbose {
		usage()
		return 0
	}
	if flag.NArg() < 1 {
		usage()
		return 1
	}

	opts := sqp.DefaultOptions()
	switch {
	case *optionsFile != "":
		if err := opts.ReadOptionsFile(*optionsFile); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	default:
		if _, err := os.Stat(defaultOptionsFile); err == nil {
			if err := opts.ReadOptionsFile(defaultOptionsFile); err != nil {
				fmt.Fprintln(os.Stderr, err)
				return 1
			}
		}
	}
	if *preset != "" {
		if err := opts.ApplyPreset(*preset); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	}
	for key, value := range map[string]string{
		"mechanism":             *mechanism,
		"strategy":              *strategy,
		"constraint-relaxation": *relaxation,
		"subproblem":            *subproblem,
	} {
		if value != "" {
			opts[key] = value
		}
	}

	name := flag.Arg(flag.NArg() - 1)
	problem, err := models.Get(name)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, "available problems:", strings.Join(models.Names(), ", "))
		return 1
	}

	solver, err := sqp.NewSolver(opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	stats := sqp.NewStatistics(os.Stdout)
	result, err := solver.Solve(problem, stats)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	fmt.Printf("\nstatus:          %s\n", result.Status)
	fmt.Printf("objective:       %.10g\n", result.Objective)
	fmt.Printf("infeasibility:   %.4e\n", result.Residuals.Constraints)
	fmt.Printf("stationarity:    %.4e\n", result.Residuals.KKT)
	fmt.Printf("complementarity: %.4e\n", result.Residuals.Complementarity)
	fmt.Printf("iterations:      %d\n", result.Iterations)
	fmt.Printf("subproblems:     %d\n", stats.SubproblemSolves)
	fmt.Printf("evaluations:     f %d, c %d, grad %d, jac %d, hess %d\n",
		stats.Evals.Objective, stats.Evals.Constraints,
		stats.Evals.Gradient, stats.Evals.Jacobian, stats.Evals.Hessian)
	if result.Message != "" {
		fmt.Printf("message:         %s\n", result.Message)
	}
	if opts.Bool("print_solution") {
		fmt.Printf("x:               %v\n", result.X)
		fmt.Printf("multipliers:     %v\n", result.Multipliers.Constraints)
	}

	if result.Status == sqp.MechanismFailure {
		return 1
	}
	return 0
}
