package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"jenkins-notify-bot/src/contracts"
)

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		driver  string
		target  string
		wantErr error
	}{
		{name: "default is file", driver: "", target: filepath.Join(dir, "a.txt")},
		{name: "file", driver: DriverFile, target: filepath.Join(dir, "b.txt")},
		{name: "sqlite", driver: DriverSQLite, target: filepath.Join(dir, "status.db")},
		{name: "unknown", driver: "redis", target: "x", wantErr: ErrUnknownDriver},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Open(tt.driver, tt.target)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Open() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			defer s.Close()
		})
	}
}

// exerciseStore runs the shared Store contract against any implementation.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	empty, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load() on empty store error = %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("Load() on empty store returned %d entries", len(empty))
	}

	if err := s.Save(ctx, sampleStatuses()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	for name, st := range sampleStatuses() {
		if got[name] != st {
			t.Errorf("Load()[%q] = %+v, want %+v", name, got[name], st)
		}
	}

	only := map[string]contracts.BuildStatus{
		"lib-build": {JobName: "lib-build", LastUpdated: "t5", LastStatus: contracts.ResultSuccess},
	}
	if err := s.Save(ctx, only); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err = s.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(got) != 1 || got["lib-build"] != only["lib-build"] {
		t.Errorf("Load() after overwrite = %+v, want only lib-build", got)
	}

	bad := map[string]contracts.BuildStatus{
		"x": {JobName: "x", LastUpdated: "has space", LastStatus: contracts.ResultSuccess},
	}
	if err := s.Save(ctx, bad); !errors.Is(err, ErrInvalidField) {
		t.Errorf("Save() with whitespace error = %v, want ErrInvalidField", err)
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	exerciseStore(t, s)

	if s.Saves() != 2 {
		t.Errorf("Saves() = %d, want 2", s.Saves())
	}
}

func TestMemoryStore_LoadReturnsCopy(t *testing.T) {
	s := NewMemoryStore(contracts.BuildStatus{JobName: "a", LastUpdated: "t1", LastStatus: contracts.ResultSuccess})

	got, _ := s.Load(context.Background())
	delete(got, "a")

	again, _ := s.Load(context.Background())
	if _, ok := again["a"]; !ok {
		t.Error("mutating the loaded map changed the store")
	}
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "status.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })

	exerciseStore(t, s)
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("NOTIFY_BOT_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("NOTIFY_BOT_TEST_POSTGRES_DSN not set, skipping postgres test")
	}

	s, err := NewPostgresStore(dsn)
	if err != nil {
		t.Fatalf("NewPostgresStore() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if err := s.Save(context.Background(), map[string]contracts.BuildStatus{}); err != nil {
		t.Fatalf("clearing table: %v", err)
	}
	exerciseStore(t, s)
}
