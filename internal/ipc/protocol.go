// Package ipc carries control commands to the running winseek process over a
// per-user named pipe. Each connection holds one newline-terminated JSON
// request and one newline-terminated JSON response.
package ipc

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"sort"
	"strings"

	"winseek/internal/userutil"
)

// Commands understood by the running instance.
const (
	CommandOpen   = "open"
	CommandExit   = "exit"
	CommandStatus = "status"
)

// PipeNameEnv overrides the pipe name when it matches the winseek pattern.
const PipeNameEnv = "WINSEEK_PIPE"

const defaultPipePrefix = `\\.\pipe\winseek-`

var pipeNamePattern = regexp.MustCompile(`(?i)^\\\\\.\\pipe\\winseek-[a-z0-9._-]{1,128}$`)

// Request is one control command.
type Request struct {
	Command string   `json:"command"`
	Args    []string `json:"args,omitempty"`
}

// Response mirrors a process result.
type Response struct {
	ExitCode int    `json:"exit_code"`
	Stdout   string `json:"stdout,omitempty"`
	Stderr   string `json:"stderr,omitempty"`
}

// Failure builds a response with exit code 1 and a newline-terminated message.
func Failure(format string, args ...any) Response {
	return Response{ExitCode: 1, Stderr: strings.TrimRight(fmt.Sprintf(format, args...), "\n") + "\n"}
}

// Success builds a response with exit code 0.
func Success(stdout string) Response {
	return Response{Stdout: stdout}
}

// CommandExecutor answers one request.
type CommandExecutor interface {
	Execute(req Request) Response
}

// HandlerFunc answers one command.
type HandlerFunc func(req Request) Response

// Router dispatches requests by command name.
type Router map[string]HandlerFunc

// Execute runs the handler registered for req.Command.
func (r Router) Execute(req Request) Response {
	h, ok := r[req.Command]
	if !ok || h == nil {
		return Response{
			ExitCode: 2,
			Stderr:   fmt.Sprintf("unknown command %q (known: %s)\n", req.Command, strings.Join(r.Commands(), ", ")),
		}
	}
	return h(req)
}

// Commands lists the registered command names in sorted order.
func (r Router) Commands() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultPipeName returns the pipe to use: a trusted WINSEEK_PIPE value, or
// the per-user default.
func DefaultPipeName() string {
	if value := strings.TrimSpace(os.Getenv(PipeNameEnv)); value != "" {
		if pipeNamePattern.MatchString(value) {
			return value
		}
		slog.Warn("[ipc] pipe override rejected", "env", PipeNameEnv, "value", value)
	}
	return userutil.ScopedName(defaultPipePrefix)
}

func encodeRequest(req Request) ([]byte, error) {
	return json.Marshal(req)
}

func decodeRequest(raw []byte) (Request, error) {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return Request{}, err
	}
	req.Command = strings.TrimSpace(req.Command)
	if req.Command == "" {
		return Request{}, fmt.Errorf("command is required")
	}
	return req, nil
}

func encodeResponse(resp Response) ([]byte, error) {
	return json.Marshal(resp)
}

func decodeResponse(raw []byte) (Response, error) {
	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return Response{}, err
	}
	return resp, nil
}
