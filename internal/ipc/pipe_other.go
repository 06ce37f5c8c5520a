//go:build !windows

package ipc

import "errors"

// ErrUnsupported is returned outside Windows, where named pipes are absent.
var ErrUnsupported = errors.New("control pipe is only available on Windows")

// Send always fails outside Windows.
func Send(string, Request) (Response, error) {
	return Response{}, ErrUnsupported
}

// PipeServer is inert outside Windows.
type PipeServer struct {
	pipeName string
}

// NewPipeServer returns an inert server.
func NewPipeServer(pipeName string, _ CommandExecutor) *PipeServer {
	if pipeName == "" {
		pipeName = DefaultPipeName()
	}
	return &PipeServer{pipeName: pipeName}
}

// PipeName returns the configured pipe name.
func (s *PipeServer) PipeName() string { return s.pipeName }

// Start always fails outside Windows.
func (s *PipeServer) Start() error { return ErrUnsupported }

// Stop does nothing.
func (s *PipeServer) Stop() error { return nil }
