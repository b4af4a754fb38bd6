package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"jenkins-notify-bot/src/contracts"
)

func sampleStatuses() map[string]contracts.BuildStatus {
	return map[string]contracts.BuildStatus{
		"app-build": {JobName: "app-build", LastUpdated: "2024-05-01T10:00:00Z", LastStatus: contracts.ResultSuccess},
		"lib-build": {JobName: "lib-build", LastUpdated: "2024-05-01T09:00:00Z", LastStatus: contracts.ResultUnstable},
		"new-job":   {JobName: "new-job", LastUpdated: "new", LastStatus: contracts.ResultFailure},
	}
}

func TestFileStore_LoadMissingFile(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "last_build_status.txt"))

	got, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Load() returned %d entries, want 0", len(got))
	}
}

func TestFileStore_LoadEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.txt")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := NewFileStore(path).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Load() returned %d entries, want 0", len(got))
	}
}

func TestFileStore_SaveThenLoad(t *testing.T) {
	ctx := context.Background()
	s := NewFileStore(filepath.Join(t.TempDir(), "status.txt"))

	if err := s.Save(ctx, sampleStatuses()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := sampleStatuses()
	if len(got) != len(want) {
		t.Fatalf("Load() returned %d entries, want %d", len(got), len(want))
	}
	for name, st := range want {
		if got[name] != st {
			t.Errorf("Load()[%q] = %+v, want %+v", name, got[name], st)
		}
	}
}

func TestFileStore_LineFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.txt")
	s := NewFileStore(path)

	err := s.Save(context.Background(), map[string]contracts.BuildStatus{
		"b": {JobName: "b", LastUpdated: "t2", LastStatus: contracts.ResultFailure},
		"a": {JobName: "a", LastUpdated: "t1", LastStatus: contracts.ResultSuccess},
	})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := "a t1 SUCCESS\nb t2 FAILURE\n"; string(data) != want {
		t.Errorf("file content = %q, want %q", data, want)
	}
}

func TestFileStore_SaveLoadIdempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "status.txt")
	s := NewFileStore(path)

	if err := s.Save(ctx, sampleStatuses()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	loaded, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := s.Save(ctx, loaded); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if string(before) != string(after) {
		t.Errorf("save(load()) changed content:\nbefore: %q\nafter:  %q", before, after)
	}
}

func TestFileStore_SaveOverwrites(t *testing.T) {
	ctx := context.Background()
	s := NewFileStore(filepath.Join(t.TempDir(), "status.txt"))

	if err := s.Save(ctx, sampleStatuses()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	only := map[string]contracts.BuildStatus{
		"app-build": {JobName: "app-build", LastUpdated: "t9", LastStatus: contracts.ResultFailure},
	}
	if err := s.Save(ctx, only); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(got) != 1 || got["app-build"] != only["app-build"] {
		t.Errorf("Load() = %+v, want only app-build", got)
	}
}

func TestFileStore_LoadMalformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "two fields", content: "app-build t1\n"},
		{name: "four fields", content: "app-build t1 SUCCESS extra\n"},
		{name: "unknown status", content: "app-build t1 GREEN\n"},
		{name: "empty job name", content: " t1 SUCCESS\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "status.txt")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}

			_, err := NewFileStore(path).Load(context.Background())
			if !errors.Is(err, ErrMalformedLine) {
				t.Errorf("Load() error = %v, want ErrMalformedLine", err)
			}
		})
	}
}

func TestFileStore_LoadEmptyStatus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.txt")
	if err := os.WriteFile(path, []byte("app-build t1 \n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := NewFileStore(path).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got["app-build"].LastStatus != contracts.ResultUnknown {
		t.Errorf("LastStatus = %q, want empty", got["app-build"].LastStatus)
	}
}

func TestFileStore_SaveRejectsWhitespace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.txt")
	s := NewFileStore(path)

	err := s.Save(context.Background(), map[string]contracts.BuildStatus{
		"my job": {JobName: "my job", LastUpdated: "t1", LastStatus: contracts.ResultSuccess},
	})
	if !errors.Is(err, ErrInvalidField) {
		t.Fatalf("Save() error = %v, want ErrInvalidField", err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Errorf("status file should not exist after rejected save, stat err = %v", statErr)
	}
}

func TestFileStore_SaveRejectsEmptyToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.txt")
	s := NewFileStore(path)

	err := s.Save(context.Background(), map[string]contracts.BuildStatus{
		"app-build": {JobName: "app-build", LastUpdated: "", LastStatus: contracts.ResultSuccess},
	})
	if !errors.Is(err, ErrInvalidField) {
		t.Fatalf("Save() error = %v, want ErrInvalidField", err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Errorf("status file should not exist after rejected save, stat err = %v", statErr)
	}

	// Every accepted save must load back.
	ok := map[string]contracts.BuildStatus{
		"app-build": {JobName: "app-build", LastUpdated: "t1", LastStatus: contracts.ResultUnknown},
	}
	if err := s.Save(context.Background(), ok); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() after Save() error = %v", err)
	}
	if got["app-build"] != ok["app-build"] {
		t.Errorf("Load() = %+v, want %+v", got["app-build"], ok["app-build"])
	}
}

func TestFileStore_SaveKeepsMode(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	existing := filepath.Join(dir, "existing.txt")
	if err := os.WriteFile(existing, []byte("app-build t1 SUCCESS\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.Chmod(existing, 0o600); err != nil {
		t.Fatal(err)
	}

	fresh := filepath.Join(dir, "fresh.txt")

	tests := []struct {
		path string
		want os.FileMode
	}{
		{path: existing, want: 0o600},
		{path: fresh, want: 0o644},
	}

	for _, tt := range tests {
		t.Run(filepath.Base(tt.path), func(t *testing.T) {
			if err := NewFileStore(tt.path).Save(ctx, sampleStatuses()); err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			info, err := os.Stat(tt.path)
			if err != nil {
				t.Fatalf("Stat() error = %v", err)
			}
			if got := info.Mode().Perm(); got != tt.want {
				t.Errorf("mode after Save() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseLine(t *testing.T) {
	st, err := ParseLine("app-build 2024-05-01T10:00:00Z UNSTABLE")
	if err != nil {
		t.Fatalf("ParseLine() error = %v", err)
	}
	want := contracts.BuildStatus{JobName: "app-build", LastUpdated: "2024-05-01T10:00:00Z", LastStatus: contracts.ResultUnstable}
	if st != want {
		t.Errorf("ParseLine() = %+v, want %+v", st, want)
	}
	if line := FormatLine(st); line != "app-build 2024-05-01T10:00:00Z UNSTABLE" {
		t.Errorf("FormatLine() = %q", line)
	}
}
