// Package wizard implements linear multi-step forms: a step index, a
// required-input check per step, and transitions that refuse to move
// forward past an incomplete step.
package wizard

import (
	"fmt"

	"github.com/lalith-99/timelinealchemy/internal/apperr"
)

var (
	ErrFirstStep     = apperr.New(apperr.KindInvalid, "already at the first step")
	ErrLastStep      = apperr.New(apperr.KindInvalid, "already at the last step, complete the wizard instead")
	ErrNotLastStep   = apperr.New(apperr.KindInvalid, "the wizard can only be completed from its last step")
	ErrSkipForbidden = apperr.New(apperr.KindInvalid, "this wizard does not allow skipping steps")
)

// Step is one screen. Check returns nil once the step's required input
// is present; a step without Check never blocks.
type Step[F any] struct {
	Name  string
	Check func(F) error
}

type Flow[F any] struct {
	Name      string
	Steps     []Step[F]
	AllowSkip bool
}

// StepError names the step whose input is missing.
type StepError struct {
	Index int
	Name  string
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s): %v", e.Index+1, e.Name, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

func (f *Flow[F]) check(i int, form F) error {
	step := f.Steps[i]
	if step.Check == nil {
		return nil
	}
	if err := step.Check(form); err != nil {
		return &StepError{Index: i, Name: step.Name, Err: err}
	}
	return nil
}

// Validate walks every step in order and returns the first failure.
func (f *Flow[F]) Validate(form F) error {
	for i := range f.Steps {
		if err := f.check(i, form); err != nil {
			return err
		}
	}
	return nil
}

// Session is one user's pass through a flow. Form keeps its values
// across Back and Next.
type Session[F any] struct {
	flow  *Flow[F]
	index int
	Form  F
}

func (f *Flow[F]) Start(form F) *Session[F] {
	return &Session[F]{flow: f, Form: form}
}

// Resume reopens a session at a saved 1-based step, clamped to the
// flow's range.
func (f *Flow[F]) Resume(step int, form F) *Session[F] {
	idx := step - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(f.Steps) {
		idx = len(f.Steps) - 1
	}
	return &Session[F]{flow: f, index: idx, Form: form}
}

// Step is the current 1-based step number.
func (s *Session[F]) Step() int { return s.index + 1 }

func (s *Session[F]) StepName() string { return s.flow.Steps[s.index].Name }

func (s *Session[F]) Total() int { return len(s.flow.Steps) }

func (s *Session[F]) AtLast() bool { return s.index == len(s.flow.Steps)-1 }

// CanAdvance reports why the current step blocks Next, if it does.
func (s *Session[F]) CanAdvance() error {
	if s.AtLast() {
		return ErrLastStep
	}
	return s.flow.check(s.index, s.Form)
}

// Next moves exactly one step forward. When the current step is
// incomplete the session is left unchanged.
func (s *Session[F]) Next() error {
	if err := s.CanAdvance(); err != nil {
		return err
	}
	s.index++
	return nil
}

func (s *Session[F]) Back() error {
	if s.index == 0 {
		return ErrFirstStep
	}
	s.index--
	return nil
}

// Skip moves forward without validating the current step.
func (s *Session[F]) Skip() error {
	if !s.flow.AllowSkip {
		return ErrSkipForbidden
	}
	if s.AtLast() {
		return ErrLastStep
	}
	s.index++
	return nil
}

// Complete is the terminal submit. It is only offered on the last step
// and re-validates every step, including skipped ones.
func (s *Session[F]) Complete() error {
	if !s.AtLast() {
		return ErrNotLastStep
	}
	return s.flow.Validate(s.Form)
}
