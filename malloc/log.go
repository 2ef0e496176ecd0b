// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package malloc

import (
	"io"
	"log"
)

// Logger is the level-tagged log sink contract the allocator emits to. The
// allocator never reads from a Logger, only writes.
type Logger interface {
	Errorf(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

type discardLogger struct{}

func (discardLogger) Errorf(string, ...interface{}) {}
func (discardLogger) Warnf(string, ...interface{})  {}
func (discardLogger) Infof(string, ...interface{})  {}
func (discardLogger) Debugf(string, ...interface{}) {}

// stdLogger fans a single writer out into four *log.Logger instances, one
// per level, each with its own prefix.
type stdLogger struct {
	err, warn, info, debug *log.Logger
}

// NewStdLogger returns a Logger that writes level-prefixed lines to w using
// the standard library's log package.
func NewStdLogger(w io.Writer) Logger {
	flags := log.LstdFlags | log.Lmicroseconds
	return &stdLogger{
		err:   log.New(w, "[ERROR] ", flags),
		warn:  log.New(w, "[WARN]  ", flags),
		info:  log.New(w, "[INFO]  ", flags),
		debug: log.New(w, "[DEBUG] ", flags),
	}
}

func (l *stdLogger) Errorf(format string, args ...interface{}) { l.err.Printf(format, args...) }
func (l *stdLogger) Warnf(format string, args ...interface{})  { l.warn.Printf(format, args...) }
func (l *stdLogger) Infof(format string, args ...interface{})  { l.info.Printf(format, args...) }
func (l *stdLogger) Debugf(format string, args ...interface{}) { l.debug.Printf(format, args...) }
