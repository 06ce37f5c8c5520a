// Package singleinstance keeps one winseek process per user session.
package singleinstance

import (
	"errors"

	"winseek/internal/userutil"
)

// MutexPrefix is the kernel object name prefix. Local\ scopes the mutex to the
// logon session, matching the scope of global hotkeys.
const MutexPrefix = `Local\winseek-`

// ErrAlreadyRunning means another process holds the mutex.
var ErrAlreadyRunning = errors.New("another winseek instance is already running")

// DefaultMutexName returns the per-user mutex name.
func DefaultMutexName() string {
	return userutil.ScopedName(MutexPrefix)
}
