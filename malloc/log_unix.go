// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build unix

package malloc

import (
	"log"
	"log/syslog"
)

// syslogLogger wires the four log levels to four syslog priorities, the
// same approach cznic/exp/dbm's crash tester uses for its own logger
// (syslog.NewLogger wrapped in a *log.Logger).
type syslogLogger struct {
	err, warn, info, debug *log.Logger
}

// NewSyslogLogger returns a Logger that writes to the local syslog daemon,
// one priority per level. Entries carry the program name as their syslog
// tag; the given tag is prepended to each message as "tag: ".
func NewSyslogLogger(tag string) (Logger, error) {
	l := &syslogLogger{}
	var err error
	if l.err, err = syslog.NewLogger(syslog.LOG_ERR|syslog.LOG_USER, 0); err != nil {
		return nil, err
	}

	if l.warn, err = syslog.NewLogger(syslog.LOG_WARNING|syslog.LOG_USER, 0); err != nil {
		return nil, err
	}

	if l.info, err = syslog.NewLogger(syslog.LOG_INFO|syslog.LOG_USER, 0); err != nil {
		return nil, err
	}

	if l.debug, err = syslog.NewLogger(syslog.LOG_DEBUG|syslog.LOG_USER, 0); err != nil {
		return nil, err
	}

	l.err.SetPrefix(tag + ": ")
	l.warn.SetPrefix(tag + ": ")
	l.info.SetPrefix(tag + ": ")
	l.debug.SetPrefix(tag + ": ")
	return l, nil
}

func (l *syslogLogger) Errorf(format string, args ...interface{}) { l.err.Printf(format, args...) }
func (l *syslogLogger) Warnf(format string, args ...interface{})  { l.warn.Printf(format, args...) }
func (l *syslogLogger) Infof(format string, args ...interface{})  { l.info.Printf(format, args...) }
func (l *syslogLogger) Debugf(format string, args ...interface{}) { l.debug.Printf(format, args...) }
