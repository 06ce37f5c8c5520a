package singleinstance

import (
	"strings"
	"testing"
)

func TestDefaultMutexName(t *testing.T) {
	t.Setenv("USERNAME", `CORP\alice`)
	name := DefaultMutexName()
	if name != MutexPrefix+"CORP_alice" {
		t.Fatalf("DefaultMutexName() = %q", name)
	}
	if strings.ContainsAny(strings.TrimPrefix(name, `Local\`), `\/`) {
		t.Fatalf("DefaultMutexName() = %q contains path separators", name)
	}
}
