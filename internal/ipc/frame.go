package ipc

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"time"
)

const (
	maxRequestBytes  = 16 * 1024
	maxResponseBytes = 64 * 1024
	connTimeout      = 30 * time.Second
)

// readFrame reads up to and including '\n'. A final frame without the
// delimiter is accepted; an empty stream returns io.EOF.
func readFrame(reader *bufio.Reader, maxBytes int) ([]byte, error) {
	raw, err := reader.ReadSlice('\n')
	switch {
	case errors.Is(err, bufio.ErrBufferFull):
		return nil, fmt.Errorf("frame exceeds %d bytes", maxBytes)
	case errors.Is(err, io.EOF):
		if len(raw) == 0 {
			return nil, io.EOF
		}
		return raw, nil
	case err != nil:
		return nil, err
	}
	return raw, nil
}

func writeFrame(w io.Writer, raw []byte) error {
	if _, err := w.Write(append(raw, '\n')); err != nil {
		return err
	}
	return nil
}

// serveConn answers the single request on conn.
func serveConn(conn net.Conn, executor CommandExecutor) {
	defer conn.Close()
	if err := conn.SetDeadline(time.Now().Add(connTimeout)); err != nil {
		slog.Warn("[ipc] failed to set connection deadline", "error", err)
		return
	}

	raw, err := readFrame(bufio.NewReaderSize(conn, maxRequestBytes+1), maxRequestBytes)
	if errors.Is(err, io.EOF) {
		slog.Debug("[ipc] client disconnected without a request")
		return
	}
	if err != nil {
		writeResponse(conn, Failure("invalid request: %v", err))
		return
	}

	req, err := decodeRequest(raw)
	if err != nil {
		writeResponse(conn, Failure("invalid request: %v", err))
		return
	}

	slog.Debug("[ipc] request", "command", req.Command, "args", req.Args)
	writeResponse(conn, executeSafely(executor, req))
}

// executeSafely turns a handler panic into an error response so the client is
// never left waiting for a reply.
func executeSafely(executor CommandExecutor, req Request) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("[ipc] command handler panicked", "command", req.Command, "panic", r)
			resp = Failure("internal error while handling %q", req.Command)
		}
	}()
	return executor.Execute(req)
}

func writeResponse(conn net.Conn, resp Response) {
	raw, err := encodeResponse(resp)
	if err != nil {
		slog.Warn("[ipc] failed to encode response", "error", err)
		raw = []byte(`{"exit_code":1,"stderr":"internal encode error\n"}`)
	}
	if err := writeFrame(conn, raw); err != nil {
		slog.Debug("[ipc] failed to write response", "error", err)
	}
}

// roundTrip sends req on conn and reads the response.
func roundTrip(conn net.Conn, req Request, timeout time.Duration) (Response, error) {
	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		return Response{}, fmt.Errorf("set deadline: %w", err)
	}
	raw, err := encodeRequest(req)
	if err != nil {
		return Response{}, err
	}
	if err := writeFrame(conn, raw); err != nil {
		return Response{}, fmt.Errorf("write request: %w", err)
	}
	respRaw, err := readFrame(bufio.NewReaderSize(conn, maxResponseBytes+1), maxResponseBytes)
	if err != nil {
		return Response{}, fmt.Errorf("read response: %w", err)
	}
	resp, err := decodeResponse(respRaw)
	if err != nil {
		return Response{}, fmt.Errorf("invalid response: %w", err)
	}
	return resp, nil
}

// IsConnectionError reports whether err means no server is listening.
func IsConnectionError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Op == "dial" || opErr.Op == "open"
	}
	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return pathErr.Op == "open"
	}
	return errors.Is(err, os.ErrNotExist)
}
