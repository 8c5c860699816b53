package capture

import "errors"

var (
	// ErrPortBindFailed is returned when no loopback listener could be bound.
	ErrPortBindFailed = errors.New("failed to bind loopback callback port")

	// ErrFlowAlreadyInProgress is returned when AwaitCode is called twice for the same flow.
	ErrFlowAlreadyInProgress = errors.New("oauth flow already in progress")

	// ErrStateMismatch is returned when the state parameter does not match the flow's CSRF token.
	ErrStateMismatch = errors.New("oauth state mismatch")

	// ErrFlowCancelled is returned when a flow is cancelled while being awaited.
	ErrFlowCancelled = errors.New("oauth flow cancelled")

	// ErrFlowTimedOut is returned when no code arrives before the timeout.
	ErrFlowTimedOut = errors.New("timed out waiting for oauth callback")

	// ErrChannelClosed is returned by every operation after Shutdown.
	ErrChannelClosed = errors.New("oauth capture session is shut down")

	// ErrNotPrepared is returned by AwaitCode when Prepare has not been called.
	ErrNotPrepared = errors.New("no oauth flow prepared")

	// ErrNoCode is returned when a callback or manual submission carries no code.
	ErrNoCode = errors.New("no authorization code received")
)
