package capture

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"sessionsplice/pkg/logging"
)

// DefaultTimeout is how long AwaitCode waits when no timeout is given.
const DefaultTimeout = 300 * time.Second

// State represents the lifecycle of a capture session.
type State int

const (
	// StateIdle means no flow exists.
	StateIdle State = iota
	// StatePrepared means listeners are bound and the authorization URL is ready.
	StatePrepared
	// StateConsumed means AwaitCode is waiting for the code.
	StateConsumed
	// StateCompleted means a code was delivered.
	StateCompleted
	// StateCancelled means the flow was cancelled or replaced.
	StateCancelled
	// StateTimedOut means no code arrived in time.
	StateTimedOut
	// StateFailed means the callback was rejected (state mismatch or no code).
	StateFailed
)

// String returns a string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StatePrepared:
		return "Prepared"
	case StateConsumed:
		return "Consumed"
	case StateCompleted:
		return "Completed"
	case StateCancelled:
		return "Cancelled"
	case StateTimedOut:
		return "TimedOut"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// AuthURLBuilder builds the provider authorization URL for a flow.
type AuthURLBuilder interface {
	AuthCodeURL(redirectURI, state, verifier string) string
}

// Options configures a Session.
type Options struct {
	// CallbackPath defaults to DefaultCallbackPath.
	CallbackPath string

	// Timeout is used by AwaitCode when called without one. Defaults to DefaultTimeout.
	Timeout time.Duration
}

// Grant is everything needed to exchange a captured code for a token.
type Grant struct {
	Code         string
	RedirectURI  string
	CodeVerifier string
	State        string
	Source       Source
}

// flow is one prepared capture attempt.
type flow struct {
	authURL     string
	redirectURI string
	state       string
	verifier    string

	results chan Result
	server  *Server
	ctx     context.Context
	cancel  context.CancelFunc

	// taken is set once AwaitCode owns the results channel.
	taken bool
}

func (f *flow) release() {
	f.cancel()
	if err := f.server.Close(); err != nil {
		logging.Warn("Capture", "Callback listener stopped with error: %v", err)
	}
}

// Session is a single-flight OAuth capture: at most one flow is active, its
// code arrives either through the loopback listeners or SubmitCodeManually,
// and exactly one outcome is observed by AwaitCode.
//
// Sessions are safe for concurrent use.
type Session struct {
	builder AuthURLBuilder
	opts    Options

	mu     sync.Mutex
	flow   *flow
	last   State
	closed bool
}

// NewSession creates an idle session.
func NewSession(builder AuthURLBuilder, opts Options) *Session {
	if opts.CallbackPath == "" {
		opts.CallbackPath = DefaultCallbackPath
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Session{
		builder: builder,
		opts:    opts,
		last:    StateIdle,
	}
}

// Prepare binds the callback listeners and returns the authorization URL.
// While the flow has not been awaited, repeated calls return the same URL.
// Once it is being awaited, Prepare cancels it and starts a new one.
func (s *Session) Prepare(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", ErrChannelClosed
	}

	if f := s.flow; f != nil {
		if !f.taken {
			return f.authURL, nil
		}
		logging.Info("Capture", "Restarting OAuth flow, cancelling the one in progress")
		s.flow = nil
		s.last = StateCancelled
		f.release()
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	// The flow outlives this call; it ends through AwaitCode, Cancel or Shutdown.
	flowCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	state := uuid.NewString()
	results := make(chan Result, 1)

	server, err := Listen(flowCtx, ServerConfig{
		Path:    s.opts.CallbackPath,
		State:   state,
		Results: results,
	})
	if err != nil {
		cancel()
		return "", err
	}

	verifier := oauth2.GenerateVerifier()
	f := &flow{
		authURL:     s.builder.AuthCodeURL(server.RedirectURI(), state, verifier),
		redirectURI: server.RedirectURI(),
		state:       state,
		verifier:    verifier,
		results:     results,
		server:      server,
		ctx:         flowCtx,
		cancel:      cancel,
	}
	s.flow = f

	logging.Info("Capture", "Prepared OAuth flow, waiting for callback on %s", f.redirectURI)
	return f.authURL, nil
}

// AwaitCode blocks until the prepared flow produces a code, is cancelled,
// ctx is done, or timeout elapses. A timeout of zero or less uses the
// session default. Every outcome releases the listeners and returns the
// session to Idle.
func (s *Session) AwaitCode(ctx context.Context, timeout time.Duration) (*Grant, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrChannelClosed
	}
	f := s.flow
	if f == nil {
		s.mu.Unlock()
		return nil, ErrNotPrepared
	}
	if f.taken {
		s.mu.Unlock()
		return nil, ErrFlowAlreadyInProgress
	}
	f.taken = true
	s.mu.Unlock()

	if timeout <= 0 {
		timeout = s.opts.Timeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-f.results:
		if res.Err != nil {
			s.finish(f, StateFailed)
			return nil, res.Err
		}
		s.finish(f, StateCompleted)
		logging.Debug("Capture", "OAuth code received from %s", res.Source)
		return &Grant{
			Code:         res.Code,
			RedirectURI:  f.redirectURI,
			CodeVerifier: f.verifier,
			State:        f.state,
			Source:       res.Source,
		}, nil

	case <-f.ctx.Done():
		s.finish(f, StateCancelled)
		if s.isClosed() {
			return nil, ErrChannelClosed
		}
		return nil, ErrFlowCancelled

	case <-ctx.Done():
		s.finish(f, StateCancelled)
		return nil, fmt.Errorf("%w: %w", ErrFlowCancelled, ctx.Err())

	case <-timer.C:
		s.finish(f, StateTimedOut)
		return nil, fmt.Errorf("%w after %s", ErrFlowTimedOut, timeout)
	}
}

// finish ends f with the given outcome. A flow already detached by Cancel,
// Prepare or Shutdown keeps the outcome recorded there.
func (s *Session) finish(f *flow, outcome State) {
	s.mu.Lock()
	if s.flow == f {
		s.flow = nil
		s.last = outcome
	}
	s.mu.Unlock()

	f.release()
}

// SubmitCodeManually delivers a code pasted by the user. codeOrURL may be the
// bare code or the full redirect URL. If expectedState is non-empty it must
// match the flow's CSRF token; a mismatch is reported without disturbing the
// pending wait. Submissions after the flow ended, or after another code was
// delivered, are dropped silently.
func (s *Session) SubmitCodeManually(codeOrURL, expectedState string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrChannelClosed
	}

	f := s.flow
	if f == nil {
		logging.Debug("Capture", "Ignoring manual OAuth code, no flow is active")
		return nil
	}

	if expectedState != "" && expectedState != f.state {
		return ErrStateMismatch
	}

	code := extractCode(codeOrURL)
	if code == "" {
		return ErrNoCode
	}

	logging.Info("Capture", "Received manual OAuth code submission")
	select {
	case f.results <- Result{Code: code, Source: SourceManual}:
	default:
		logging.Debug("Capture", "Dropped manual OAuth code, one was already delivered")
	}
	return nil
}

// extractCode returns the code query parameter of a redirect URL, or the
// input itself when it is not a URL carrying one.
func extractCode(input string) string {
	input = strings.TrimSpace(input)
	if strings.HasPrefix(input, "http") {
		if u, err := url.Parse(input); err == nil {
			if code := u.Query().Get("code"); code != "" {
				return code
			}
		}
	}
	return input
}

// Cancel ends the current flow, if any. A pending AwaitCode returns
// ErrFlowCancelled. Cancel is idempotent.
func (s *Session) Cancel() {
	s.mu.Lock()
	f := s.flow
	s.flow = nil
	if f != nil {
		s.last = StateCancelled
	}
	s.mu.Unlock()

	if f != nil {
		logging.Info("Capture", "OAuth flow cancelled")
		f.release()
	}
}

// Shutdown cancels any flow and closes the session. Every later call
// returns ErrChannelClosed.
func (s *Session) Shutdown() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	f := s.flow
	s.flow = nil
	s.mu.Unlock()

	if f != nil {
		f.release()
	}
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// State returns the current state: Idle, Prepared or Consumed.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.flow == nil:
		return StateIdle
	case s.flow.taken:
		return StateConsumed
	default:
		return StatePrepared
	}
}

// LastOutcome returns how the most recent flow ended, or StateIdle if none has.
func (s *Session) LastOutcome() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// RedirectURI returns the redirect URI of the current flow, or "" when idle.
func (s *Session) RedirectURI() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.flow == nil {
		return ""
	}
	return s.flow.redirectURI
}

// CSRFState returns the CSRF token of the current flow, or "" when idle.
func (s *Session) CSRFState() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.flow == nil {
		return ""
	}
	return s.flow.state
}
