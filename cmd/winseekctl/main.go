// Command winseekctl controls a running winseek instance over its control
// pipe.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"winseek/internal/ipc"
)

// sendFn is replaced in tests.
var sendFn = ipc.Send

// exitCodeError carries the exit code of a remote command.
type exitCodeError struct {
	code int
}

func (e exitCodeError) Error() string {
	return fmt.Sprintf("winseek returned exit code %d", e.code)
}

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

func execute(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	if err == nil {
		return 0
	}
	var exitErr exitCodeError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	fmt.Fprintf(stderr, "winseekctl: %v\n", err)
	return 1
}

func newRootCmd() *cobra.Command {
	var pipeName string

	root := &cobra.Command{
		Use:   "winseekctl",
		Short: "Control a running winseek instance",
		Long: `winseekctl talks to the running winseek process over its per-user
named pipe. Use it from scripts or shortcuts in place of a tray menu.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&pipeName, "pipe", "", "control pipe name (default: per-user pipe, or $"+ipc.PipeNameEnv+")")

	root.AddCommand(
		remoteCmd(&pipeName, ipc.CommandOpen, "Open the switcher, as if the hotkey was pressed"),
		remoteCmd(&pipeName, ipc.CommandExit, "Unregister the hotkey and quit winseek"),
		remoteCmd(&pipeName, ipc.CommandStatus, "Show the hotkey binding and session state"),
	)
	return root
}

func remoteCmd(pipeName *string, command, short string) *cobra.Command {
	return &cobra.Command{
		Use:   command,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return sendCommand(cmd, *pipeName, command)
		},
	}
}

func sendCommand(cmd *cobra.Command, pipeName, command string) error {
	resp, err := sendFn(pipeName, ipc.Request{Command: command})
	if err != nil {
		if ipc.IsConnectionError(err) {
			return errors.New("winseek is not running")
		}
		return fmt.Errorf("%s: %w", command, err)
	}

	if resp.Stdout != "" {
		fmt.Fprint(cmd.OutOrStdout(), resp.Stdout)
	}
	if resp.Stderr != "" {
		fmt.Fprint(cmd.ErrOrStderr(), resp.Stderr)
	}
	if resp.ExitCode != 0 {
		return exitCodeError{code: resp.ExitCode}
	}
	return nil
}
