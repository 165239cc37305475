// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package params

import "testing"

func TestParseKeyValueList(t *testing.T) {
	s := Parse("sig=C3, expr=C3 + 1, verbose")
	if v, _ := s.String("sig"); v != "C3" {
		t.Errorf("sig = %q, want C3", v)
	}
	if v, _ := s.String("expr"); v != "C3 + 1" {
		t.Errorf("expr = %q, want \"C3 + 1\"", v)
	}
	if !s.Bool("verbose") {
		t.Errorf("verbose should be true for a bare key")
	}
}

func TestParseClock(t *testing.T) {
	tk, err := ParseClock("01:02:03.5")
	if err != nil {
		t.Fatalf("ParseClock: %v", err)
	}
	want := (3723.5)
	if tk.Seconds() != want {
		t.Errorf("ParseClock = %v seconds, want %v", tk.Seconds(), want)
	}
}

func TestListStripsBrackets(t *testing.T) {
	s := Parse("ch=[C3,C4,O1]")
	got, ok := s.List("ch")
	if !ok {
		t.Fatalf("List(ch) not found")
	}
	want := []string{"C3", "C4", "O1"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("List[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestBind(t *testing.T) {
	type opts struct {
		Sig     string  `param:"sig"`
		Thresh  float64 `param:"th"`
		Gap     int     `param:"gap"`
		Verbose bool    `param:"verbose"`
	}
	var o opts
	if err := Bind(&o, Parse("sig=HIGH,th=0.5,gap=10,verbose")); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if o.Sig != "HIGH" || o.Thresh != 0.5 || o.Gap != 10 || !o.Verbose {
		t.Errorf("Bind result = %+v", o)
	}
}
