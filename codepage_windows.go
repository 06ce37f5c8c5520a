//go:build windows

package main

import (
	"log/slog"

	"golang.org/x/sys/windows"
)

const cpUTF8 = 65001

// setConsoleUTF8 switches an attached console to UTF-8 so window titles in
// log output are not mangled. Without a console both calls fail harmlessly.
func setConsoleUTF8() {
	if err := windows.SetConsoleOutputCP(cpUTF8); err != nil {
		slog.Debug("[session] console output code page unchanged", "error", err)
	}
	if err := windows.SetConsoleCP(cpUTF8); err != nil {
		slog.Debug("[session] console input code page unchanged", "error", err)
	}
}
