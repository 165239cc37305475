// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestWarnfCountsAndPrefixes(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf, false)
	c.Warnf("no sleep epochs found")
	if c.Warnings() != 1 {
		t.Errorf("Warnings() = %d, want 1", c.Warnings())
	}
	if !strings.Contains(buf.String(), "WARN: no sleep epochs found") {
		t.Errorf("log output missing WARN line: %q", buf.String())
	}
}

func TestVerbosefRespectsFlag(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf, false)
	c.Verbosef("binding channel %s", "C3")
	if buf.Len() != 0 {
		t.Errorf("Verbosef should be silent when Verbose is false, got %q", buf.String())
	}

	c.Verbose = true
	c.Verbosef("binding channel %s", "C3")
	if !strings.Contains(buf.String(), "binding channel C3") {
		t.Errorf("Verbosef output missing: %q", buf.String())
	}
}

func TestHaltWrapsError(t *testing.T) {
	err := Halt("TRANS", errBoom)
	if err == nil {
		t.Fatal("Halt(nonNilErr) returned nil")
	}
	if !strings.Contains(err.Error(), "TRANS") {
		t.Errorf("HaltError.Error() = %q, want it to mention the command", err.Error())
	}
}

var errBoom = boomErr{}

type boomErr struct{}

func (boomErr) Error() string { return "boom" }
