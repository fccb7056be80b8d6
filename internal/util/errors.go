package util

import (
	"errors"
	"fmt"
)

// The exam boundary distinguishes these precisely: a wrong owner is not a
// missing session, a finished session is not an expired one. Controllers map
// them to HTTP codes; services return them untouched.
var (
	ErrUserNotFound        = errors.New("user not found")
	ErrEmailRegistered     = errors.New("email already registered")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrSessionNotFound     = errors.New("exam session not found")
	ErrQuestionNotFound    = errors.New("question not found")
	ErrForbidden           = errors.New("not the session owner")
	ErrInvalidState        = errors.New("operation not valid for session state")
	ErrSessionExpired      = errors.New("exam time expired")
	ErrActiveSessionExists = errors.New("an in-progress exam session already exists")
	ErrReportNotFound      = errors.New("exam report not found")
	ErrProfileNotFound     = errors.New("behavior profile not found")
	ErrInvalidToken        = errors.New("invalid token")
)

// IncompleteError rejects a non-forced completion while questions are still
// unanswered; the caller may force or keep answering.
type IncompleteError struct {
	Outstanding int
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("%d questions still unanswered; complete with force to submit anyway", e.Outstanding)
}
