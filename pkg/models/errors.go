package models

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrorKind classifies engine failures so callers can branch without
// string matching.
type ErrorKind string

const (
	KindInval       ErrorKind = "EINVAL"
	KindNoMem       ErrorKind = "ENOMEM"
	KindBadState    ErrorKind = "EBADSTATE"
	KindCancelled   ErrorKind = "ECANCELLED"
	KindUnsupported ErrorKind = "EUNSUPPORTED"
)

// EngineError is the error value every engine operation returns on
// failure. File and Line point at the construction site.
type EngineError struct {
	Kind    ErrorKind
	Message string
	File    string
	Line    int
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("%s: %s [%s:%d]", e.Kind, e.Message, e.File, e.Line)
}

// Errorf builds an EngineError, capturing the caller's source location.
func Errorf(kind ErrorKind, format string, args ...interface{}) *EngineError {
	e := &EngineError{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
	if _, file, line, ok := runtime.Caller(1); ok {
		e.File = file
		e.Line = line
	}
	return e
}

// IsKind reports whether err is (or wraps) an EngineError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Kind == kind
	}
	return false
}
