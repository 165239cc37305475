// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package writer

import (
	"bytes"
	"strings"
	"testing"
)

func TestFlushProducesStratifiedRows(t *testing.T) {
	w := New()
	w.Command("HYPNO")
	w.Level("E", "1")
	w.ValueF("TST", 7.5)
	w.Unlevel()
	w.Level("E", "2")
	w.ValueF("TST", 7.6)
	w.Unlevel()

	var buf bytes.Buffer
	if err := w.Flush(&buf); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "CMD,E,VAR,VALUE") {
		t.Errorf("header missing expected columns: %q", out)
	}
	if !strings.Contains(out, "HYPNO,1,TST,7.5") {
		t.Errorf("row for epoch 1 missing: %q", out)
	}
	if !strings.Contains(out, "HYPNO,2,TST,7.6") {
		t.Errorf("row for epoch 2 missing: %q", out)
	}
}
