// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package logging wraps a plain *log.Logger in an explicit Context
// that commands pass down rather than reaching for the global log
// package, per spec §9's instruction that global mutable state in the
// writer and logger be modeled as an explicit context so tests can
// inject their own sinks.
package logging

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"log"
)

// Context carries a destination logger plus a verbose flag, passed
// explicitly through command execution.
type Context struct {
	Logger  *log.Logger
	Verbose bool

	warnings int
}

// New returns a Context writing to w with the standard log flags.
func New(w io.Writer, verbose bool) *Context {
	return &Context{Logger: log.New(w, "", log.LstdFlags), Verbose: verbose}
}

// Printf logs an informational line unconditionally.
func (c *Context) Printf(format string, args ...interface{}) {
	c.Logger.Printf(format, args...)
}

// Verbosef logs a line only when Verbose is set, for the TRANS/command
// "verbose" parameter (spec §6).
func (c *Context) Verbosef(format string, args ...interface{}) {
	if c.Verbose {
		c.Logger.Printf(format, args...)
	}
}

// Warnf logs a WARN-prefixed line and counts it, matching the
// warn-and-continue error kind in spec §7 (data-quality issues that
// don't halt the command).
func (c *Context) Warnf(format string, args ...interface{}) {
	c.warnings++
	c.Logger.Printf("WARN: "+format, args...)
}

// Warnings returns the number of Warnf calls made so far, so a caller
// can report "completed with N warnings".
func (c *Context) Warnings() int { return c.warnings }

// Capture returns an io.WriteCloser that line-buffers writes and pipes
// each non-blank line to c as an informational log entry, mirroring
// logCapture in the teacher's command driver (used there to fold a
// subprocess's stderr into the main log stream).
func (c *Context) Capture() io.WriteCloser {
	r, w := io.Pipe()
	go func() {
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			if len(bytes.TrimSpace(sc.Bytes())) == 0 {
				continue
			}
			c.Printf("\t%s", sc.Bytes())
		}
		if err := sc.Err(); err != nil && err != io.EOF {
			_ = w.CloseWithError(err)
		}
	}()
	return w
}

// HaltError is a hard-halt error (spec §7: programmer/config or input
// errors), distinguished from a Warnf call so command dispatch can
// decide whether to stop the command or continue with partial output.
type HaltError struct {
	Command string
	Err     error
}

func (e *HaltError) Error() string {
	return fmt.Sprintf("%s: %v", e.Command, e.Err)
}

func (e *HaltError) Unwrap() error { return e.Err }

// Halt wraps err as a HaltError for command.
func Halt(command string, err error) error {
	if err == nil {
		return nil
	}
	return &HaltError{Command: command, Err: err}
}
