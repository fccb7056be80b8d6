package util

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestIncompleteErrorMessage(t *testing.T) {
	err := &IncompleteError{Outstanding: 12}
	if got := err.Error(); !strings.HasPrefix(got, "12 questions still unanswered") {
		t.Fatalf("unexpected message: %q", got)
	}
}

func TestIncompleteErrorAs(t *testing.T) {
	wrapped := fmt.Errorf("complete session: %w", &IncompleteError{Outstanding: 3})

	var incomplete *IncompleteError
	if !errors.As(wrapped, &incomplete) {
		t.Fatal("errors.As failed to unwrap IncompleteError")
	}
	if incomplete.Outstanding != 3 {
		t.Fatalf("Outstanding = %d, want 3", incomplete.Outstanding)
	}
}

func TestSentinelErrorsAreDistinct(t *testing.T) {
	sentinels := []error{
		ErrUserNotFound,
		ErrEmailRegistered,
		ErrInvalidCredentials,
		ErrSessionNotFound,
		ErrQuestionNotFound,
		ErrForbidden,
		ErrInvalidState,
		ErrSessionExpired,
		ErrActiveSessionExists,
		ErrReportNotFound,
		ErrProfileNotFound,
	}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j && errors.Is(a, b) {
				t.Fatalf("sentinel %v matches %v", a, b)
			}
		}
	}
}

func TestWrappedSentinelSurvivesIs(t *testing.T) {
	wrapped := fmt.Errorf("find session: %w", ErrSessionNotFound)
	if !errors.Is(wrapped, ErrSessionNotFound) {
		t.Fatal("wrapped sentinel not matched by errors.Is")
	}
	if errors.Is(wrapped, ErrForbidden) {
		t.Fatal("wrapped sentinel matched wrong sentinel")
	}
}
