package capture

import (
	"bytes"
	"context"
	"crypto/subtle"
	_ "embed"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"sessionsplice/pkg/logging"
)

// DefaultCallbackPath is the path the provider redirects to.
const DefaultCallbackPath = "/oauth-callback"

const (
	// maxRequestSize bounds how much of the callback request is read.
	maxRequestSize = 4096

	requestReadTimeout   = 10 * time.Second
	responseWriteTimeout = 5 * time.Second
)

//go:embed templates/success.html
var successHTML []byte

//go:embed templates/csrf.html
var csrfHTML []byte

//go:embed templates/failure.html
var failureHTML []byte

// Source identifies where an authorization code came from.
type Source string

const (
	SourceIPv4   Source = "ipv4"
	SourceIPv6   Source = "ipv6"
	SourceManual Source = "manual"
)

// Result is delivered to the waiting session by a listener or a manual
// submission. Exactly one of Code and Err is set.
type Result struct {
	Code   string
	Source Source
	Err    error
}

// listen binds a loopback socket. Tests replace it to simulate a host
// without one of the two stacks.
var listen = func(ctx context.Context, network, address string) (net.Listener, error) {
	var lc net.ListenConfig
	return lc.Listen(ctx, network, address)
}

// ServerConfig configures a callback Server.
type ServerConfig struct {
	// Path is the callback path. Defaults to DefaultCallbackPath.
	Path string

	// State is the CSRF token the callback must carry.
	State string

	// Results receives one Result per handled connection. Sends never block:
	// when the channel is full the result is dropped.
	Results chan<- Result
}

type boundListener struct {
	net.Listener
	source Source
}

// Server is a one-shot loopback OAuth callback receiver. It listens on
// [::1] and 127.0.0.1 with the same port when both are available and
// handles the first connection on each socket.
type Server struct {
	path        string
	state       string
	port        int
	redirectURI string
	listeners   []boundListener
	results     chan<- Result

	cancel    context.CancelFunc
	group     errgroup.Group
	closeOnce sync.Once
	closeErr  error
}

// Listen binds the loopback sockets and starts one accept goroutine per
// socket. The server stops when ctx is done or Close is called.
func Listen(ctx context.Context, cfg ServerConfig) (*Server, error) {
	path := cfg.Path
	if path == "" {
		path = DefaultCallbackPath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	bound, port, err := bindLoopback(ctx)
	if err != nil {
		return nil, err
	}

	serveCtx, cancel := context.WithCancel(ctx)
	s := &Server{
		path:        path,
		state:       cfg.State,
		port:        port,
		redirectURI: buildRedirectURI(bound, port, path),
		listeners:   bound,
		results:     cfg.Results,
		cancel:      cancel,
	}

	// Blocked Accept calls only return once their listener is closed.
	context.AfterFunc(serveCtx, s.closeListeners)

	for _, l := range bound {
		l := l
		s.group.Go(func() error {
			return s.serve(serveCtx, l)
		})
	}

	return s, nil
}

// bindLoopback binds [::1]:0 and then 127.0.0.1 on the same port, or the
// other way around when IPv6 is unavailable. Only the first bind must succeed.
func bindLoopback(ctx context.Context) ([]boundListener, int, error) {
	l6, err6 := listen(ctx, "tcp6", "[::1]:0")
	if err6 == nil {
		port, err := listenerPort(l6)
		if err != nil {
			_ = l6.Close()
			return nil, 0, fmt.Errorf("%w: %w", ErrPortBindFailed, err)
		}

		bound := []boundListener{{Listener: l6, source: SourceIPv6}}
		addr4 := net.JoinHostPort("127.0.0.1", strconv.Itoa(port))
		if l4, err := listen(ctx, "tcp4", addr4); err == nil {
			bound = append(bound, boundListener{Listener: l4, source: SourceIPv4})
		} else {
			logging.Warn("Capture", "Failed to bind %s, listening on IPv6 only: %v", addr4, err)
		}
		return bound, port, nil
	}

	logging.Debug("Capture", "IPv6 loopback unavailable, falling back to IPv4: %v", err6)

	l4, err := listen(ctx, "tcp4", "127.0.0.1:0")
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrPortBindFailed, err)
	}
	port, err := listenerPort(l4)
	if err != nil {
		_ = l4.Close()
		return nil, 0, fmt.Errorf("%w: %w", ErrPortBindFailed, err)
	}

	bound := []boundListener{{Listener: l4, source: SourceIPv4}}
	addr6 := net.JoinHostPort("::1", strconv.Itoa(port))
	if l6, err := listen(ctx, "tcp6", addr6); err == nil {
		bound = append(bound, boundListener{Listener: l6, source: SourceIPv6})
	} else {
		logging.Warn("Capture", "Failed to bind %s, listening on IPv4 only: %v", addr6, err)
	}
	return bound, port, nil
}

func listenerPort(l net.Listener) (int, error) {
	if addr, ok := l.Addr().(*net.TCPAddr); ok {
		return addr.Port, nil
	}
	_, portStr, err := net.SplitHostPort(l.Addr().String())
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(portStr)
}

// buildRedirectURI uses "localhost" only when both stacks listen; otherwise a
// browser resolving localhost to the missing stack would be refused.
func buildRedirectURI(bound []boundListener, port int, path string) string {
	host := "localhost"
	if len(bound) == 1 {
		switch bound[0].source {
		case SourceIPv4:
			host = "127.0.0.1"
		case SourceIPv6:
			host = "[::1]"
		}
	}
	return fmt.Sprintf("http://%s:%d%s", host, port, path)
}

func (s *Server) serve(ctx context.Context, l boundListener) error {
	defer l.Close()

	conn, err := l.Accept()
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
			return nil
		}
		return fmt.Errorf("accepting %s callback connection: %w", l.source, err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	request := readRequestHead(conn)

	result, status, page := s.evaluate(request)
	result.Source = l.source

	if err := writeResponse(conn, status, page); err != nil {
		logging.Debug("Capture", "Failed to write %s callback response: %v", l.source, err)
	}

	if result.Err != nil {
		logging.Warn("Capture", "OAuth callback on %s rejected: %v", l.source, result.Err)
	} else {
		logging.Info("Capture", "Captured OAuth code from %s listener", l.source)
	}

	s.deliver(result)
	return nil
}

// readRequestHead reads until the end of the request line, EOF, an error, or
// maxRequestSize bytes, whichever comes first.
func readRequestHead(conn net.Conn) []byte {
	_ = conn.SetReadDeadline(time.Now().Add(requestReadTimeout))

	buf := make([]byte, maxRequestSize)
	n := 0
	for n < len(buf) {
		m, err := conn.Read(buf[n:])
		n += m
		if err != nil || bytes.IndexByte(buf[:n], '\n') >= 0 {
			break
		}
	}
	return buf[:n]
}

func (s *Server) evaluate(request []byte) (Result, int, []byte) {
	query, ok := parseCallback(request, s.path)
	if !ok {
		return Result{Err: fmt.Errorf("%w: not a callback request", ErrNoCode)}, http.StatusBadRequest, failureHTML
	}

	code := query.Get("code")
	if code == "" {
		err := ErrNoCode
		if providerErr := query.Get("error"); providerErr != "" {
			err = fmt.Errorf("%w: provider returned %s", ErrNoCode, providerErr)
			if desc := query.Get("error_description"); desc != "" {
				err = fmt.Errorf("%w: provider returned %s: %s", ErrNoCode, providerErr, desc)
			}
		}
		return Result{Err: err}, http.StatusBadRequest, failureHTML
	}

	if subtle.ConstantTimeCompare([]byte(query.Get("state")), []byte(s.state)) != 1 {
		return Result{Err: ErrStateMismatch}, http.StatusBadRequest, csrfHTML
	}

	return Result{Code: code}, http.StatusOK, successHTML
}

// parseCallback extracts the query of a "GET <path>?<query> HTTP/1.x" request
// line. Any other method or path is not a callback.
func parseCallback(request []byte, path string) (url.Values, bool) {
	line := request
	if i := bytes.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}

	parts := strings.Fields(string(line))
	if len(parts) < 2 || parts[0] != http.MethodGet {
		return nil, false
	}

	target, err := url.ParseRequestURI(parts[1])
	if err != nil || target.Path != path {
		return nil, false
	}
	return target.Query(), true
}

func writeResponse(conn net.Conn, status int, page []byte) error {
	_ = conn.SetWriteDeadline(time.Now().Add(responseWriteTimeout))

	var head strings.Builder
	fmt.Fprintf(&head, "HTTP/1.1 %d %s\r\n", status, http.StatusText(status))
	head.WriteString("Content-Type: text/html; charset=utf-8\r\n")
	fmt.Fprintf(&head, "Content-Length: %d\r\n", len(page))
	head.WriteString("X-Content-Type-Options: nosniff\r\n")
	head.WriteString("X-Frame-Options: DENY\r\n")
	head.WriteString("Content-Security-Policy: default-src 'none'; style-src 'unsafe-inline'\r\n")
	head.WriteString("Referrer-Policy: no-referrer\r\n")
	head.WriteString("Cache-Control: no-store\r\n")
	head.WriteString("Connection: close\r\n\r\n")

	if _, err := conn.Write([]byte(head.String())); err != nil {
		return err
	}
	_, err := conn.Write(page)
	return err
}

func (s *Server) deliver(result Result) {
	select {
	case s.results <- result:
	default:
		logging.Debug("Capture", "Dropped %s callback result, one was already delivered", result.Source)
	}
}

func (s *Server) closeListeners() {
	for _, l := range s.listeners {
		_ = l.Close()
	}
}

// Close stops accepting, releases the ports and waits for the accept
// goroutines. It is safe to call more than once.
func (s *Server) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		s.closeListeners()
		s.closeErr = s.group.Wait()
	})
	return s.closeErr
}

// RedirectURI returns the URI the provider must redirect to.
func (s *Server) RedirectURI() string {
	return s.redirectURI
}

// Port returns the port shared by all listeners.
func (s *Server) Port() int {
	return s.port
}

// Sources reports which loopback stacks are listening.
func (s *Server) Sources() []Source {
	sources := make([]Source, 0, len(s.listeners))
	for _, l := range s.listeners {
		sources = append(sources, l.source)
	}
	return sources
}
