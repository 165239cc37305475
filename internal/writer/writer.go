// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package writer implements the stratified tabular output sink
// described in spec §5/§9: a single writer collects command output as
// long-format rows (strata factors, variable name, value), grounded on
// retval_t/retval_strata_t/retval_data_t in the original implementation
// (there, a cmd -> {table/strata} -> data-table structure plugging
// into writer.level()/writer.value()/writer.unlevel()). Luna exposes
// the same level/value API but threads the writer through an explicit
// Context rather than a package-global singleton, per spec §9.
package writer

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
)

// Factor is one (name, value) stratification level, e.g. ("E", "12")
// for epoch 12 or ("CH", "C3") for a channel.
type Factor struct {
	Name, Value string
}

// Context is the explicit writer state threaded through command
// execution; it is not safe for concurrent use, matching spec §5's
// single-threaded cooperative model.
type Context struct {
	command string
	levels  []Factor
	rows    []row
}

type row struct {
	command string
	strata  []Factor
	varName string
	value   string
}

// New returns an empty writer Context.
func New() *Context { return &Context{} }

// Command sets the command name attributed to subsequently written
// rows, matching the top level of the original's cmd -> strata -> data
// hierarchy.
func (c *Context) Command(name string) { c.command = name }

// Level pushes a stratification factor (e.g. epoch or channel),
// matching writer.level() in the original. Pop with Unlevel.
func (c *Context) Level(name, value string) {
	c.levels = append(c.levels, Factor{Name: name, Value: value})
}

// Unlevel pops the most recently pushed level.
func (c *Context) Unlevel() {
	if len(c.levels) > 0 {
		c.levels = c.levels[:len(c.levels)-1]
	}
}

// Value writes one variable=value row at the current strata,
// matching writer.value().
func (c *Context) Value(varName string, value string) {
	strata := append([]Factor(nil), c.levels...)
	c.rows = append(c.rows, row{command: c.command, strata: strata, varName: varName, value: value})
}

// ValueF writes a float64-valued row, formatted with %v.
func (c *Context) ValueF(varName string, value float64) {
	c.Value(varName, fmt.Sprintf("%v", value))
}

// ValueI writes an int-valued row.
func (c *Context) ValueI(varName string, value int) {
	c.Value(varName, fmt.Sprintf("%d", value))
}

// Flush writes every collected row to w as long-format CSV: one
// column per distinct factor name seen (sorted by name), plus
// CMD, VAR and VALUE. This is the lightweight "destrat" long format
// retval_t's doc comment in the original aspires to replace.
func (c *Context) Flush(w io.Writer) error {
	var factorNames []string
	seen := map[string]bool{}
	for _, r := range c.rows {
		for _, f := range r.strata {
			if !seen[f.Name] {
				seen[f.Name] = true
				factorNames = append(factorNames, f.Name)
			}
		}
	}
	sort.Strings(factorNames)

	cw := csv.NewWriter(w)
	header := append([]string{"CMD"}, factorNames...)
	header = append(header, "VAR", "VALUE")
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range c.rows {
		byName := make(map[string]string, len(r.strata))
		for _, f := range r.strata {
			byName[f.Name] = f.Value
		}
		rec := make([]string, 0, len(header))
		rec = append(rec, r.command)
		for _, name := range factorNames {
			rec = append(rec, byName[name])
		}
		rec = append(rec, r.varName, r.value)
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Reset discards all collected rows and levels, for reuse across
// commands within one recording.
func (c *Context) Reset() {
	c.levels = c.levels[:0]
	c.rows = c.rows[:0]
}
