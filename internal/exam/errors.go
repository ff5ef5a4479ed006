package exam

import "errors"

// Business outcomes are sentinel errors matched with errors.Is at the HTTP
// boundary. Anything not listed here is a storage failure and propagates
// wrapped.
var (
	ErrNotFound = errors.New("not found")

	// ErrNotEligible covers every failed eligibility clause: wrong window,
	// not assigned, already completed. Callers must not distinguish which
	// clause failed; the service logs the clause for diagnostics.
	ErrNotEligible = errors.New("student not eligible for exam")

	// ErrExamLocked rejects structural mutations once the exam window has
	// opened (or, for delete, once the exam has ended).
	ErrExamLocked = errors.New("exam locked: structural changes only allowed before start")

	// ErrForbidden rejects an operation by a caller who does not own the
	// target exam, question or bank entry.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidOption rejects an answer whose letter is outside the
	// question's declared option count.
	ErrInvalidOption = errors.New("selected option out of range for question")

	// ErrAlreadySubmitted rejects answer writes against a completed attempt.
	ErrAlreadySubmitted = errors.New("attempt already submitted")

	// ErrInvalidQuestion rejects a question whose correct option is not one
	// of its declared options.
	ErrInvalidQuestion = errors.New("correct option must be one of the declared options")

	// ErrInvalidExam rejects an exam whose window is empty or inverted.
	ErrInvalidExam = errors.New("exam end time must be after start time")
)
