// Package store persists the last observed build status of every job.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"jenkins-notify-bot/src/contracts"
)

var (
	// ErrMalformedLine is returned when a persisted status line cannot be parsed.
	ErrMalformedLine = errors.New("malformed status line")
	// ErrInvalidField is returned when a status field would break the line format.
	ErrInvalidField = errors.New("invalid status field")
	// ErrUnknownDriver is returned by Open for an unsupported backend.
	ErrUnknownDriver = errors.New("unknown status store driver")
)

// Store loads and replaces the full job -> status mapping.
// Save is a full overwrite: jobs absent from the mapping are removed.
type Store interface {
	// Load returns the stored mapping, or an empty mapping when nothing was saved yet.
	Load(ctx context.Context) (map[string]contracts.BuildStatus, error)

	// Save replaces the stored mapping.
	Save(ctx context.Context, statuses map[string]contracts.BuildStatus) error

	// Close releases any underlying resources.
	Close() error
}

// Driver names accepted by Open.
const (
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open creates the store for the given driver.
// For the file driver target is a path; for sqlite a database file; for postgres a DSN.
func Open(driver, target string) (Store, error) {
	switch driver {
	case "", DriverFile:
		return NewFileStore(target), nil
	case DriverSQLite:
		return NewSQLiteStore(target)
	case DriverPostgres:
		return NewPostgresStore(target)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
}

// validateStatus rejects fields that cannot round-trip through the line format.
func validateStatus(key string, s contracts.BuildStatus) error {
	if s.JobName == "" {
		return fmt.Errorf("%w: empty job name", ErrInvalidField)
	}
	if s.LastUpdated == "" {
		return fmt.Errorf("%w: %s has an empty update token", ErrInvalidField, s.JobName)
	}
	if key != s.JobName {
		return fmt.Errorf("%w: key %q does not match job %q", ErrInvalidField, key, s.JobName)
	}
	for name, v := range map[string]string{
		"job_name":     s.JobName,
		"last_updated": s.LastUpdated,
		"last_status":  string(s.LastStatus),
	} {
		if strings.IndexFunc(v, unicode.IsSpace) >= 0 {
			return fmt.Errorf("%w: %s %q contains whitespace", ErrInvalidField, name, v)
		}
	}
	return nil
}

func validateAll(statuses map[string]contracts.BuildStatus) error {
	for key, s := range statuses {
		if err := validateStatus(key, s); err != nil {
			return err
		}
	}
	return nil
}

func copyStatuses(in map[string]contracts.BuildStatus) map[string]contracts.BuildStatus {
	out := make(map[string]contracts.BuildStatus, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
