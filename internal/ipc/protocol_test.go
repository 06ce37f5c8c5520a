package ipc

import (
	"strings"
	"testing"
)

func TestDefaultPipeNameHonorsTrustedOverride(t *testing.T) {
	t.Setenv(PipeNameEnv, `\\.\pipe\winseek-ci_pipe`)
	if got := DefaultPipeName(); got != `\\.\pipe\winseek-ci_pipe` {
		t.Fatalf("DefaultPipeName() = %q, want override", got)
	}
}

func TestDefaultPipeNameRejectsForeignOverride(t *testing.T) {
	t.Setenv(PipeNameEnv, `\\.\pipe\other-app`)
	t.Setenv("USERNAME", "tester")
	if got := DefaultPipeName(); got != defaultPipePrefix+"tester" {
		t.Fatalf("DefaultPipeName() = %q, want per-user default", got)
	}
}

func TestDefaultPipeNameSanitizesUsername(t *testing.T) {
	t.Setenv(PipeNameEnv, "")
	t.Setenv("USERNAME", "unit user!")
	if got, want := DefaultPipeName(), `\\.\pipe\winseek-unit_user_`; got != want {
		t.Fatalf("DefaultPipeName() = %q, want %q", got, want)
	}
}

func TestDecodeRequest(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "open", raw: `{"command":"open"}`, want: CommandOpen},
		{name: "trims command", raw: `{"command":"  status "}`, want: CommandStatus},
		{name: "missing command", raw: `{"args":["x"]}`, wantErr: true},
		{name: "malformed json", raw: `{"command":`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := decodeRequest([]byte(tt.raw))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("decodeRequest(%s) error = nil", tt.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("decodeRequest(%s) error = %v", tt.raw, err)
			}
			if req.Command != tt.want {
				t.Fatalf("Command = %q, want %q", req.Command, tt.want)
			}
		})
	}
}

func TestEncodeResponseOmitsEmptyStreams(t *testing.T) {
	raw, err := encodeResponse(Success(""))
	if err != nil {
		t.Fatalf("encodeResponse() error = %v", err)
	}
	if string(raw) != `{"exit_code":0}` {
		t.Fatalf("encodeResponse() = %s", raw)
	}
}

func TestRouterExecute(t *testing.T) {
	opened := 0
	router := Router{
		CommandOpen: func(Request) Response {
			opened++
			return Success("opened\n")
		},
		CommandStatus: func(Request) Response { return Success("idle\n") },
	}

	if resp := router.Execute(Request{Command: CommandOpen}); resp.ExitCode != 0 || resp.Stdout != "opened\n" {
		t.Fatalf("open response = %+v", resp)
	}
	if opened != 1 {
		t.Fatalf("open handler calls = %d, want 1", opened)
	}

	resp := router.Execute(Request{Command: "reboot"})
	if resp.ExitCode != 2 {
		t.Fatalf("unknown command exit code = %d, want 2", resp.ExitCode)
	}
	if !strings.Contains(resp.Stderr, "open, status") {
		t.Fatalf("unknown command stderr = %q, want sorted command list", resp.Stderr)
	}
}

func TestFailureTerminatesMessage(t *testing.T) {
	if got := Failure("bad %s\n\n", "thing"); got.ExitCode != 1 || got.Stderr != "bad thing\n" {
		t.Fatalf("Failure() = %+v", got)
	}
}
