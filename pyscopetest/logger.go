// Copyright © 2018 The ELPS authors

package pyscopetest

import (
	"bytes"
	"io"
	"sync"
	"testing"
)

// Logger is an io.Writer that forwards complete lines to t.Log.  It is safe
// for concurrent use, so it may collect the output of parallel workers.
type Logger struct {
	t      testing.TB
	prefix string
	mu     sync.Mutex
	buf    []byte
	lines  []string
}

var _ io.Writer = (*Logger)(nil)

// NewLogger returns a Logger that prepends prefix to every line it logs.
func NewLogger(t testing.TB, prefix string) *Logger {
	return &Logger{
		t:      t,
		prefix: prefix,
	}
}

func (log *Logger) Write(b []byte) (int, error) {
	log.mu.Lock()
	defer log.mu.Unlock()
	log.buf = append(log.buf, b...)
	for {
		i := bytes.IndexByte(log.buf, '\n')
		if i < 0 {
			return len(b), nil
		}
		log.emit(string(log.buf[:i]))
		log.buf = log.buf[i+1:]
	}
}

// Flush logs any partial line.
func (log *Logger) Flush() {
	log.mu.Lock()
	defer log.mu.Unlock()
	if len(log.buf) == 0 {
		return
	}
	log.emit(string(log.buf))
	log.buf = nil
}

// Lines returns the lines logged so far, without the prefix.
func (log *Logger) Lines() []string {
	log.mu.Lock()
	defer log.mu.Unlock()
	return append([]string(nil), log.lines...)
}

func (log *Logger) emit(line string) {
	log.lines = append(log.lines, line)
	log.t.Log(log.prefix + line)
}
