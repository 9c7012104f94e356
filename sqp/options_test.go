// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sqp

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultOptionsValidate(t *testing.T) {
	if err := DefaultOptions().Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestValidateRejectsUnknownKey(t *testing.T) {
	opts := DefaultOptions()
	opts["no_such_option"] = "1"
	if err := opts.Validate(); err == nil {
		t.Fatal("unknown option accepted")
	}
}

func TestValidateRejectsBadEnum(t *testing.T) {
	opts := DefaultOptions()
	opts["mechanism"] = "teleport"
	if err := opts.Validate(); err == nil {
		t.Fatal("invalid mechanism accepted")
	}
}

func TestValidateRejectsBadNumber(t *testing.T) {
	opts := DefaultOptions()
	opts["TR_radius"] = "big"
	if err := opts.Validate(); err == nil {
		t.Fatal("non-numeric radius accepted")
	}
	opts["TR_radius"] = "0"
	if err := opts.Validate(); err == nil {
		t.Fatal("zero radius accepted")
	}
}

func TestPresets(t *testing.T) {
	opts := DefaultOptions()
	if err := opts.ApplyPreset("byrd"); err != nil {
		t.Fatal(err)
	}
	if opts["mechanism"] != "LS" || opts["constraint-relaxation"] != "l1-relaxation" {
		t.Fatalf("byrd preset wrong: %v %v", opts["mechanism"], opts["constraint-relaxation"])
	}
	if err := opts.ApplyPreset("filtersqp"); err != nil {
		t.Fatal(err)
	}
	if opts["mechanism"] != "TR" || opts["strategy"] != "filter" {
		t.Fatal("filtersqp preset wrong")
	}
	if err := opts.ApplyPreset("unknown"); err == nil {
		t.Fatal("unknown preset accepted")
	}
}

func TestReadOptionsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.options")
	content := "# comment line\n\nmechanism LS\nTR_radius 2.5\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	opts := DefaultOptions()
	if err := opts.ReadOptionsFile(path); err != nil {
		t.Fatal(err)
	}
	if opts["mechanism"] != "LS" {
		t.Fatal("file value not applied")
	}
	if opts.Float("TR_radius") != 2.5 {
		t.Fatal("numeric file value not applied")
	}
	if err := opts.Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestReadOptionsFileRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.options")
	if err := os.WriteFile(path, []byte("one two three\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := DefaultOptions().ReadOptionsFile(path); err == nil {
		t.Fatal("malformed line accepted")
	}
}

func TestBarrierSubproblemIsConfigurationError(t *testing.T) {
	opts := DefaultOptions()
	opts["subproblem"] = "barrier"
	if err := opts.Validate(); err != nil {
		t.Fatalf("barrier is a valid option value: %v", err)
	}
	if _, err := NewSubproblem("barrier", nil, opts); err == nil {
		t.Fatal("barrier subproblem should be rejected at construction")
	}
}
