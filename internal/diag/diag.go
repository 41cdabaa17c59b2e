// Package diag holds the data-error taxonomy and the persistent,
// user-visible diagnostic log. Data-level errors are non-fatal: they are
// appended to the log and loading continues with partial state. Shader
// build failures are the only fatal class.
package diag

import (
	"fmt"
	"sync"
	"time"
)

type Kind int

const (
	MissingField Kind = iota
	InvalidDimension
	UnknownStorageClass
	MissingArrayPayload
	ShaderBuildFailure
)

func (k Kind) String() string {
	switch k {
	case MissingField:
		return "missing field"
	case InvalidDimension:
		return "invalid dimension"
	case UnknownStorageClass:
		return "unknown storage class"
	case MissingArrayPayload:
		return "missing array payload"
	case ShaderBuildFailure:
		return "shader build failure"
	default:
		return "unknown"
	}
}

// Error is a classified viewer error.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Kind, e.Msg) }

// Fatal reports whether the error class blocks rendering.
func (e *Error) Fatal() bool { return e.Kind == ShaderBuildFailure }

func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

type Entry struct {
	Time time.Time
	Kind Kind
	Msg  string
}

// Log is an append-only diagnostic list shared between the loader, the
// renderer and the probe TUI. Appends are rare (error paths only), so a
// plain mutex is fine.
type Log struct {
	mu      sync.Mutex
	entries []Entry
}

func (l *Log) Append(kind Kind, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, Entry{
		Time: time.Now(),
		Kind: kind,
		Msg:  fmt.Sprintf(format, args...),
	})
}

// Report records err. Classified errors keep their kind; anything else
// keeps its text and is tagged with the fallback kind.
func (l *Log) Report(err error, fallback Kind) {
	if err == nil {
		return
	}
	if de, ok := err.(*Error); ok {
		l.Append(de.Kind, "%s", de.Msg)
		return
	}
	l.Append(fallback, "%v", err)
}

// Entries returns a snapshot copy.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
