package models

import (
	"fmt"
	"time"
)

type FailureKind string

const (
	FailureKindError     FailureKind = "error"
	FailureKindCancelled FailureKind = "cancelled"
)

func ParseFailureKind(s string) (FailureKind, error) {
	switch s {
	case "error":
		return FailureKindError, nil
	case "cancelled":
		return FailureKindCancelled, nil
	default:
		return "", fmt.Errorf("invalid failure kind: %s", s)
	}
}

// Failure is one error handler report kept in the journal.
type Failure struct {
	ID        string
	Error     string
	Cancelled bool
	Elapsed   time.Duration
	CreatedAt time.Time
}

func (f Failure) Kind() FailureKind {
	if f.Cancelled {
		return FailureKindCancelled
	}
	return FailureKindError
}
