package store

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"jenkins-notify-bot/src/contracts"
)

// FileStore keeps statuses in a plain text file, one job per line:
//
//	<job_name> <last_updated> <last_status>
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by path. The file is created on first Save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// FormatLine renders a status in the persisted line format.
func FormatLine(st contracts.BuildStatus) string {
	return st.JobName + " " + st.LastUpdated + " " + string(st.LastStatus)
}

// ParseLine parses one persisted line. The status field may be empty.
func ParseLine(line string) (contracts.BuildStatus, error) {
	fields := strings.Split(line, " ")
	if len(fields) != 3 || fields[0] == "" || fields[1] == "" {
		return contracts.BuildStatus{}, fmt.Errorf("%w: %q", ErrMalformedLine, line)
	}

	result, err := contracts.ParseBuildResult(fields[2])
	if err != nil {
		return contracts.BuildStatus{}, fmt.Errorf("%w: %q: %v", ErrMalformedLine, line, err)
	}

	return contracts.BuildStatus{
		JobName:     fields[0],
		LastUpdated: fields[1],
		LastStatus:  result,
	}, nil
}

// Load reads the status file. A missing or empty file yields an empty mapping.
// Any malformed line fails the whole load.
func (s *FileStore) Load(ctx context.Context) (map[string]contracts.BuildStatus, error) {
	statuses := make(map[string]contracts.BuildStatus)

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return statuses, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read status file: %w", err)
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		st, err := ParseLine(line)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", s.path, lineNo, err)
		}
		statuses[st.JobName] = st
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan status file: %w", err)
	}

	return statuses, nil
}

// Save overwrites the status file. Lines are sorted by job name so that
// saving an unchanged mapping leaves the file byte-identical.
// The file is replaced atomically through a temp file in the same directory
// and keeps the permissions of the file it replaces.
func (s *FileStore) Save(ctx context.Context, statuses map[string]contracts.BuildStatus) error {
	if err := validateAll(statuses); err != nil {
		return err
	}

	names := make([]string, 0, len(statuses))
	for name := range statuses {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	for _, name := range names {
		buf.WriteString(FormatLine(statuses[name]))
		buf.WriteByte('\n')
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp status file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write status file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close status file: %w", err)
	}
	mode := os.FileMode(0o644)
	if info, err := os.Stat(s.path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		return fmt.Errorf("failed to chmod status file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace status file: %w", err)
	}

	return nil
}

// Close is a no-op for the file store.
func (s *FileStore) Close() error {
	return nil
}
