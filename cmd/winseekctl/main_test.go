package main

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"

	"winseek/internal/ipc"
)

func stubSend(t *testing.T, fn func(string, ipc.Request) (ipc.Response, error)) {
	t.Helper()
	orig := sendFn
	sendFn = fn
	t.Cleanup(func() { sendFn = orig })
}

func TestExecuteMirrorsRemoteResult(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		resp       ipc.Response
		wantCode   int
		wantCmd    string
		wantStdout string
		wantStderr string
	}{
		{
			name:     "open",
			args:     []string{"open"},
			wantCmd:  ipc.CommandOpen,
			wantCode: 0,
		},
		{
			name:       "status prints stdout",
			args:       []string{"status"},
			resp:       ipc.Success("hotkey: Ctrl+Alt+Space (listening)\nstate: idle\n"),
			wantCmd:    ipc.CommandStatus,
			wantStdout: "state: idle",
		},
		{
			name:       "remote failure keeps exit code",
			args:       []string{"exit"},
			resp:       ipc.Response{ExitCode: 3, Stderr: "busy\n"},
			wantCmd:    ipc.CommandExit,
			wantCode:   3,
			wantStderr: "busy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotCmd string
			stubSend(t, func(_ string, req ipc.Request) (ipc.Response, error) {
				gotCmd = req.Command
				return tt.resp, nil
			})

			var stdout, stderr bytes.Buffer
			code := execute(tt.args, &stdout, &stderr)

			if code != tt.wantCode {
				t.Errorf("exit code = %d, want %d", code, tt.wantCode)
			}
			if gotCmd != tt.wantCmd {
				t.Errorf("sent command = %q, want %q", gotCmd, tt.wantCmd)
			}
			if !strings.Contains(stdout.String(), tt.wantStdout) {
				t.Errorf("stdout = %q, want %q", stdout.String(), tt.wantStdout)
			}
			if !strings.Contains(stderr.String(), tt.wantStderr) {
				t.Errorf("stderr = %q, want %q", stderr.String(), tt.wantStderr)
			}
		})
	}
}

func TestExecutePassesPipeFlag(t *testing.T) {
	var gotPipe string
	stubSend(t, func(pipe string, _ ipc.Request) (ipc.Response, error) {
		gotPipe = pipe
		return ipc.Success(""), nil
	})

	var out bytes.Buffer
	if code := execute([]string{"--pipe", `\\.\pipe\winseek-test`, "open"}, &out, &out); code != 0 {
		t.Fatalf("exit code = %d, output %q", code, out.String())
	}
	if gotPipe != `\\.\pipe\winseek-test` {
		t.Fatalf("pipe = %q", gotPipe)
	}
}

func TestExecuteNotRunning(t *testing.T) {
	stubSend(t, func(string, ipc.Request) (ipc.Response, error) {
		return ipc.Response{}, &os.PathError{Op: "open", Path: `\\.\pipe\winseek-x`, Err: os.ErrNotExist}
	})

	var stdout, stderr bytes.Buffer
	code := execute([]string{"status"}, &stdout, &stderr)
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "winseek is not running") {
		t.Fatalf("stderr = %q", stderr.String())
	}
}

func TestExecuteTransportError(t *testing.T) {
	stubSend(t, func(string, ipc.Request) (ipc.Response, error) {
		return ipc.Response{}, errors.New("read response: timeout")
	})

	var stdout, stderr bytes.Buffer
	if code := execute([]string{"open"}, &stdout, &stderr); code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "open: read response: timeout") {
		t.Fatalf("stderr = %q", stderr.String())
	}
}

func TestExecuteRejectsUnknownSubcommandAndArgs(t *testing.T) {
	stubSend(t, func(string, ipc.Request) (ipc.Response, error) {
		t.Fatal("send must not be called")
		return ipc.Response{}, nil
	})

	var out bytes.Buffer
	if code := execute([]string{"toggle"}, &out, &out); code != 1 {
		t.Errorf("unknown subcommand exit code = %d, want 1", code)
	}
	if code := execute([]string{"open", "extra"}, &out, &out); code != 1 {
		t.Errorf("extra args exit code = %d, want 1", code)
	}
}
