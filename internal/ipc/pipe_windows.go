//go:build windows

package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os/user"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/Microsoft/go-winio"
)

const (
	dialTimeout      = 3 * time.Second
	clientRWTimeout  = 15 * time.Second
	maxConnections   = 8
	slotAcquireLimit = 5 * time.Second
)

// Send dials pipeName (or the default), sends req and returns the response.
func Send(pipeName string, req Request) (Response, error) {
	if pipeName == "" {
		pipeName = DefaultPipeName()
	}
	timeout := dialTimeout
	conn, err := winio.DialPipe(pipeName, &timeout)
	if err != nil {
		return Response{}, err
	}
	defer conn.Close()
	return roundTrip(conn, req, clientRWTimeout)
}

// PipeServer accepts control connections restricted to the current user.
type PipeServer struct {
	pipeName string
	executor CommandExecutor

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	listener net.Listener
	started  bool
	wg       sync.WaitGroup
	slots    chan struct{}
}

// NewPipeServer returns a server for pipeName (or the default).
func NewPipeServer(pipeName string, executor CommandExecutor) *PipeServer {
	if pipeName == "" {
		pipeName = DefaultPipeName()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &PipeServer{
		pipeName: pipeName,
		executor: executor,
		ctx:      ctx,
		cancel:   cancel,
		slots:    make(chan struct{}, maxConnections),
	}
}

// PipeName returns the pipe the server listens on.
func (s *PipeServer) PipeName() string { return s.pipeName }

// Start creates the pipe and begins accepting connections.
func (s *PipeServer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return errors.New("pipe server already started")
	}
	if s.executor == nil {
		return errors.New("pipe server requires an executor")
	}

	sd, err := currentUserSecurityDescriptor()
	if err != nil {
		return err
	}
	listener, err := winio.ListenPipe(s.pipeName, &winio.PipeConfig{
		SecurityDescriptor: sd,
		InputBufferSize:    maxRequestBytes,
		OutputBufferSize:   maxResponseBytes,
	})
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.pipeName, err)
	}

	s.listener = listener
	s.started = true
	s.wg.Go(s.acceptLoop)
	slog.Info("[ipc] control pipe listening", "pipe", s.pipeName)
	return nil
}

// Stop closes the listener and waits for in-flight connections.
func (s *PipeServer) Stop() error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	s.cancel()
	listener := s.listener
	s.listener = nil
	s.mu.Unlock()

	var closeErr error
	if listener != nil {
		closeErr = listener.Close()
	}
	s.wg.Wait()
	return closeErr
}

func (s *PipeServer) acceptLoop() {
	failures := 0
	for {
		s.mu.Lock()
		listener := s.listener
		s.mu.Unlock()
		if listener == nil {
			return
		}

		conn, err := listener.Accept()
		if err != nil {
			if s.ctx.Err() != nil {
				return
			}
			failures++
			if failures > 10 {
				slog.Warn("[ipc] repeated accept failures", "error", err, "count", failures)
				time.Sleep(500 * time.Millisecond)
			} else {
				slog.Debug("[ipc] accept error", "error", err)
			}
			continue
		}
		failures = 0

		if !s.acquireSlot() {
			writeResponse(conn, Failure("server busy, try again later"))
			conn.Close()
			continue
		}
		s.wg.Go(func() {
			defer func() { <-s.slots }()
			serveConn(conn, s.executor)
		})
	}
}

func (s *PipeServer) acquireSlot() bool {
	timer := time.NewTimer(slotAcquireLimit)
	defer timer.Stop()
	select {
	case s.slots <- struct{}{}:
		return true
	case <-timer.C:
		slog.Warn("[ipc] no free connection slot, rejecting client")
		return false
	case <-s.ctx.Done():
		return false
	}
}

var sidPattern = regexp.MustCompile(`^S-1(-\d+)+$`)

// currentUserSecurityDescriptor grants access to SYSTEM and the current user
// only, through a protected DACL.
func currentUserSecurityDescriptor() (string, error) {
	current, err := user.Current()
	if err != nil {
		return "", fmt.Errorf("resolve current user: %w", err)
	}
	sid := strings.TrimSpace(current.Uid)
	if !sidPattern.MatchString(sid) {
		return "", fmt.Errorf("current user SID has unexpected format: %q", sid)
	}
	return fmt.Sprintf("D:P(A;;GA;;;SY)(A;;GA;;;%s)", sid), nil
}
