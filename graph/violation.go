package graph

import (
	"strconv"
	"strings"

	"github.com/sghaida/keg/di"
)

// Code classifies a Violation.
type Code string

const (
	CodeInvalidProvider    Code = "invalid-provider"
	CodeDefaultConflict    Code = "default-conflict"
	CodeAmbiguousBinding   Code = "ambiguous-binding"
	CodeDependencyNotFound Code = "dependency-not-found"
	CodeTypeMismatch       Code = "type-mismatch"
	CodeCyclicDependency   Code = "cyclic-dependency"
)

// Violation is one wiring defect found by Validate.
type Violation struct {
	Code Code

	// Token is the token the violation is about; empty for shape and cycle
	// violations.
	Token di.Token

	// Nodes names the offending descriptors.
	Nodes []string

	// Source is the manifest of the first offending node, if known.
	Source string

	// Err is the typed di error describing the violation.
	Err error
}

// Error implements the error interface.
func (v Violation) Error() string {
	msg := "[" + string(v.Code) + "] " + v.Err.Error()
	if v.Source != "" {
		msg = v.Source + ": " + msg
	}
	return msg
}

// Unwrap returns the typed di error.
func (v Violation) Unwrap() error { return v.Err }

// Error is returned by Validate when at least one violation was found.
// errors.Is and errors.As see through it to every violation's typed error.
type Error struct {
	Violations []Violation
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("graph: ")
	b.WriteString(strconv.Itoa(len(e.Violations)))
	if len(e.Violations) == 1 {
		b.WriteString(" violation")
	} else {
		b.WriteString(" violations")
	}
	for _, v := range e.Violations {
		b.WriteString("\n  ")
		b.WriteString(v.Error())
	}
	return b.String()
}

// Unwrap returns the violations as errors.
func (e *Error) Unwrap() []error {
	out := make([]error, len(e.Violations))
	for i, v := range e.Violations {
		out[i] = v
	}
	return out
}

// Codes returns the code of every violation, in report order.
func (e *Error) Codes() []Code {
	out := make([]Code, len(e.Violations))
	for i, v := range e.Violations {
		out[i] = v.Code
	}
	return out
}
