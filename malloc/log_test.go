// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package malloc

import (
	"bytes"
	"strings"
	"testing"
)

func TestStdLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	l := NewStdLogger(&buf)

	l.Errorf("boom %d", 1)
	l.Warnf("careful %d", 2)
	l.Infof("fyi %d", 3)
	l.Debugf("detail %d", 4)

	out := buf.String()
	for _, want := range []string{"boom 1", "careful 2", "fyi 3", "detail 4"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestDiscardLoggerIsNoop(t *testing.T) {
	var l Logger = discardLogger{}
	// None of these should panic; there is nothing else to assert against
	// a logger that intentionally drops everything.
	l.Errorf("x")
	l.Warnf("x")
	l.Infof("x")
	l.Debugf("x")
}
