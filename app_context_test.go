package main

import (
	"context"
	"sync"
	"testing"

	"winseek/internal/config"
	"winseek/internal/testutil"
)

func TestRuntimeContextSetAndGet(t *testing.T) {
	app, err := NewApp(&testutil.FakeSystem{}, nil)
	if err != nil {
		t.Fatalf("NewApp() error = %v", err)
	}
	if app.runtimeContext() != nil {
		t.Fatal("runtimeContext() should be nil before startup")
	}

	want := context.Background()
	app.setRuntimeContext(want)
	if got := app.runtimeContext(); got != want {
		t.Fatalf("runtimeContext() = %v, want %v", got, want)
	}
}

func TestRuntimeContextConcurrentSetGet(t *testing.T) {
	app, err := NewApp(&testutil.FakeSystem{}, nil)
	if err != nil {
		t.Fatalf("NewApp() error = %v", err)
	}

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := range 8 {
		wg.Go(func() {
			<-start
			for j := range 200 {
				if (i+j)%2 == 0 {
					app.setRuntimeContext(context.Background())
				} else {
					app.setRuntimeContext(nil)
				}
			}
		})
		wg.Go(func() {
			<-start
			for range 200 {
				_ = app.runtimeContext()
			}
		})
	}
	close(start)
	wg.Wait()
}

func TestConfigSnapshotIsIsolated(t *testing.T) {
	app, err := NewApp(&testutil.FakeSystem{}, nil)
	if err != nil {
		t.Fatalf("NewApp() error = %v", err)
	}
	cfg := config.DefaultConfig()
	cfg.ExcludedClasses = []string{"A"}
	app.setConfigSnapshot(cfg)

	cfg.ExcludedClasses[0] = "mutated"
	got := app.getConfigSnapshot()
	if got.ExcludedClasses[0] != "A" {
		t.Fatalf("snapshot aliased caller slice: %v", got.ExcludedClasses)
	}
	got.ExcludedClasses[0] = "again"
	if app.getConfigSnapshot().ExcludedClasses[0] != "A" {
		t.Fatal("returned snapshot aliases stored config")
	}
}
