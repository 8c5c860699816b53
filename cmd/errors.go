package cmd

import "fmt"

// CaptureFailedError indicates the OAuth flow ended without a usable credential.
type CaptureFailedError struct {
	// Reason is the underlying error.
	Reason error
}

// Error returns a user-friendly error message with actionable guidance.
func (e *CaptureFailedError) Error() string {
	return fmt.Sprintf(`OAuth capture failed: %v

To retry, run:
  sessionsplice login`, e.Reason)
}

// Unwrap returns the underlying error.
func (e *CaptureFailedError) Unwrap() error {
	return e.Reason
}

// InjectionRefusedError indicates the state database could not be written.
type InjectionRefusedError struct {
	// Email is the account being injected.
	Email string
	// Path is the state database, empty when it could not be located.
	Path string
	// Reason is the underlying error.
	Reason error
}

// Error returns a user-friendly error message with actionable guidance.
func (e *InjectionRefusedError) Error() string {
	target := e.Path
	if target == "" {
		target = "the state database"
	}
	return fmt.Sprintf(`Could not inject %s into %s: %v

The account is saved. Quit the application if it is running, then run:
  sessionsplice inject --email %s`, e.Email, target, e.Reason, e.Email)
}

// Unwrap returns the underlying error.
func (e *InjectionRefusedError) Unwrap() error {
	return e.Reason
}
