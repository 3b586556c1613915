// Package token implements the pull-driven tokenizer that feeds the
// record state machine. A caller-supplied step function tells the
// driver what it wants next; the driver fulfills requests from an input
// brigade and suspends when the brigade runs dry.
package token

import (
	"fmt"

	"go.sablewire.io/engine/pkg/brigade"
)

// MaxCopyBytes bounds an OpCopyBytes request. Fixed-size header fields
// fit well below this; variable-length payloads use OpCopyBrigade.
const MaxCopyBytes = 256

// Op names what the step function wants next.
type Op int

const (
	// OpCopyBytes delivers Len bytes as a contiguous slice (Len <= MaxCopyBytes).
	OpCopyBytes Op = iota
	// OpCopyBrigade delivers Len bytes as a brigade.
	OpCopyBrigade
	// OpSkip consumes Len bytes without delivering them.
	OpSkip
	// OpDone ends the run.
	OpDone
)

// Next is the directive a step function returns.
type Next struct {
	Op  Op
	Len int
}

// Value carries the data fulfilling the previous directive: Bytes after
// OpCopyBytes, Brigade after OpCopyBrigade. The initial call and the
// call after OpSkip see the zero Value.
type Value struct {
	Bytes   []byte
	Brigade *brigade.Brigade
}

// StepFunc inspects the delivered value and returns the next directive.
type StepFunc func(v Value) (Next, error)

// Tokenizer drives a StepFunc over an input brigade. It remembers the
// pending directive across runs, so a suspended parse resumes exactly
// where it stopped; each input byte is delivered exactly once.
type Tokenizer struct {
	step    StepFunc
	pending Next
	primed  bool
}

// New returns a tokenizer for step. The step function is first invoked
// with the zero Value to obtain the initial directive.
func New(step StepFunc) *Tokenizer {
	return &Tokenizer{step: step}
}

// Run fulfills directives from in until the step function reports
// OpDone (done=true), the input runs dry (done=false, nil error), or
// the step function fails. A dry run leaves the pending directive in
// place; call Run again after appending more bytes.
func (t *Tokenizer) Run(in *brigade.Brigade) (bool, error) {
	if !t.primed {
		next, err := t.step(Value{})
		if err != nil {
			return false, err
		}
		t.pending = next
		t.primed = true
	}

	for {
		next := t.pending
		switch next.Op {
		case OpDone:
			return true, nil
		case OpCopyBytes:
			if next.Len > MaxCopyBytes {
				return false, fmt.Errorf("token: copy-bytes request of %d exceeds %d", next.Len, MaxCopyBytes)
			}
		case OpCopyBrigade, OpSkip:
		default:
			return false, fmt.Errorf("token: unknown op %d", next.Op)
		}

		if in.Size() < next.Len {
			return false, nil
		}

		var v Value
		switch next.Op {
		case OpCopyBytes:
			p, err := in.Consume(next.Len)
			if err != nil {
				return false, err
			}
			v.Bytes = p
		case OpCopyBrigade:
			bb, err := in.ConsumeBrigade(next.Len)
			if err != nil {
				return false, err
			}
			v.Brigade = bb
		case OpSkip:
			if err := in.Skip(next.Len); err != nil {
				return false, err
			}
		}

		nxt, err := t.step(v)
		if err != nil {
			return false, err
		}
		t.pending = nxt
	}
}
