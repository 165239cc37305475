// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package params parses the command-language parameter surface
// described in spec §6: key=value pairs, comma-separated lists, and
// hh:mm:ss clock values, with a reflect-based struct binder in the
// tag-driven style of blast.Nucleic's buildarg tags (there used to
// build a BLAST argv; here used in the opposite direction, to bind a
// parsed key=value set onto a typed options struct).
package params

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/kortschak/luna/tick"
)

// Set is a parsed key=value parameter set.
type Set map[string]string

// Parse splits a comma-separated sequence of key=value tokens (spec
// §6's CLI parameter grammar) into a Set. A bare token with no "="
// is bound to itself as both key and value, matching flag-style
// boolean switches (e.g. "verbose").
func Parse(s string) Set {
	set := make(Set)
	for _, tok := range splitTop(s, ',') {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if i := strings.IndexByte(tok, '='); i >= 0 {
			set[tok[:i]] = tok[i+1:]
		} else {
			set[tok] = tok
		}
	}
	return set
}

// splitTop splits s on sep, ignoring separators inside a bracketed
// sub-list (e.g. "sig=C1-C2,expr=a+b" vs a list value "ch=[C1,C2]").
func splitTop(s string, sep byte) []string {
	var out []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '[', '(':
			depth++
		case ']', ')':
			if depth > 0 {
				depth--
			}
		default:
			if s[i] == sep && depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	out = append(out, s[start:])
	return out
}

// Has reports whether key was present in the parsed set.
func (s Set) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// String returns the raw string value for key.
func (s Set) String(key string) (string, bool) {
	v, ok := s[key]
	return v, ok
}

// List returns the comma-separated list value for key, stripping a
// surrounding "[...]" if present.
func (s Set) List(key string) ([]string, bool) {
	v, ok := s[key]
	if !ok {
		return nil, false
	}
	v = strings.TrimSuffix(strings.TrimPrefix(v, "["), "]")
	if v == "" {
		return nil, true
	}
	parts := strings.Split(v, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts, true
}

// Int returns key's value parsed as an integer.
func (s Set) Int(key string) (int, error) {
	v, ok := s[key]
	if !ok {
		return 0, fmt.Errorf("params: no value for %q", key)
	}
	return strconv.Atoi(v)
}

// Float returns key's value parsed as a float64.
func (s Set) Float(key string) (float64, error) {
	v, ok := s[key]
	if !ok {
		return 0, fmt.Errorf("params: no value for %q", key)
	}
	return strconv.ParseFloat(v, 64)
}

// Bool returns key's value as a boolean; a bare key (value equal to
// its own name) or "1"/"true" is true.
func (s Set) Bool(key string) bool {
	v, ok := s[key]
	if !ok {
		return false
	}
	return v == key || v == "1" || v == "true"
}

// Clock returns key's value parsed as an hh:mm:ss clock, converted to
// a tick.Tick offset from midnight, per spec §6.
func (s Set) Clock(key string) (tick.Tick, error) {
	v, ok := s[key]
	if !ok {
		return 0, fmt.Errorf("params: no value for %q", key)
	}
	return ParseClock(v)
}

// ParseClock parses an "hh:mm:ss" (or "hh:mm:ss.sss") string into a
// tick.Tick duration since midnight.
func ParseClock(s string) (tick.Tick, error) {
	fields := strings.Split(s, ":")
	if len(fields) != 3 {
		return 0, fmt.Errorf("params: bad clock %q, want hh:mm:ss", s)
	}
	h, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, fmt.Errorf("params: bad clock %q: %w", s, err)
	}
	m, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, fmt.Errorf("params: bad clock %q: %w", s, err)
	}
	sec, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return 0, fmt.Errorf("params: bad clock %q: %w", s, err)
	}
	total := float64(h)*3600 + float64(m)*60 + sec
	return tick.FromSeconds(total), nil
}

// Bind populates the exported fields of dst (a pointer to a struct)
// from s, using each field's `param:"name"` tag as the lookup key.
// Supported field kinds are string, int, float64, bool and []string;
// an unset key leaves the field at its existing value.
func Bind(dst interface{}, s Set) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("params: Bind requires a pointer to struct")
	}
	rv = rv.Elem()
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		tag := field.Tag.Get("param")
		if tag == "" || tag == "-" {
			continue
		}
		v, ok := s[tag]
		if !ok {
			continue
		}
		fv := rv.Field(i)
		switch fv.Kind() {
		case reflect.String:
			fv.SetString(v)
		case reflect.Int, reflect.Int64:
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return fmt.Errorf("params: field %s: %w", field.Name, err)
			}
			fv.SetInt(n)
		case reflect.Float64, reflect.Float32:
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("params: field %s: %w", field.Name, err)
			}
			fv.SetFloat(f)
		case reflect.Bool:
			fv.SetBool(s.Bool(tag))
		case reflect.Slice:
			if fv.Type().Elem().Kind() != reflect.String {
				return fmt.Errorf("params: field %s: unsupported slice element type", field.Name)
			}
			list, _ := s.List(tag)
			fv.Set(reflect.ValueOf(list))
		default:
			return fmt.Errorf("params: field %s: unsupported kind %s", field.Name, fv.Kind())
		}
	}
	return nil
}
