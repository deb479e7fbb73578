package service

import "errors"

// ErrStudentNotFound indicates the referenced student does not exist.
var ErrStudentNotFound = errors.New("student not found")

// ErrReportNotFound indicates the referenced report does not exist.
var ErrReportNotFound = errors.New("report not found")

// ErrStrategyNotFound indicates the referenced strategy record does not exist.
var ErrStrategyNotFound = errors.New("strategy record not found")

// ErrEarnedAchievementNotFound indicates the earned record does not exist.
var ErrEarnedAchievementNotFound = errors.New("earned achievement not found")

// ErrInvalidReportKind indicates an unknown report kind was supplied.
var ErrInvalidReportKind = errors.New("invalid report kind")

// ErrInvalidTimeframe indicates an unknown forecast timeframe was supplied.
var ErrInvalidTimeframe = errors.New("invalid prediction timeframe")

// ErrInvalidStatusTransition indicates a strategy status move the state
// machine does not allow.
var ErrInvalidStatusTransition = errors.New("invalid strategy status transition")

// ErrStrategiesAlreadyRegistered indicates a second registration attempt for
// a report that already has strategy records. The first batch wins; the
// caller is told zero records were added.
var ErrStrategiesAlreadyRegistered = errors.New("strategies already registered for report")
