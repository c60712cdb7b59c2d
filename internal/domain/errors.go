package domain

import "errors"

var (
	// ErrScheduleNotFound is returned when a scheduled quiz id resolves to nothing.
	ErrScheduleNotFound = errors.New("scheduled quiz not found")
	// ErrQuizNotFound indicates the quiz content behind a schedule could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrInvalidArgument indicates a malformed id or timestamp at the boundary.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrScheduleTooOld marks a schedule pruned by the stale-quiz cutoff during
	// bulk evaluation; callers drop the entry rather than report a failure.
	ErrScheduleTooOld = errors.New("scheduled quiz too old")
	// ErrSurveyClosed is returned when a survey submission arrives outside the
	// grace period or before play has finished.
	ErrSurveyClosed = errors.New("survey not open")
)
