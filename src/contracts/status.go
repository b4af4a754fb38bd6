// Package contracts defines the data structures shared between the poller,
// the notification engine, the stores and the outbound publishers.
package contracts

import (
	"errors"
	"fmt"
)

// ErrUnknownResult is returned when a build result string is not one of the
// values the CI server is known to produce.
var ErrUnknownResult = errors.New("unknown build result")

// BuildResult is the outcome of a single build as reported by Jenkins.
type BuildResult string

const (
	// ResultUnknown marks a job that has never been observed finishing.
	ResultUnknown  BuildResult = ""
	ResultSuccess  BuildResult = "SUCCESS"
	ResultFailure  BuildResult = "FAILURE"
	ResultUnstable BuildResult = "UNSTABLE"
	ResultAborted  BuildResult = "ABORTED"
	ResultNotBuilt BuildResult = "NOT_BUILT"
	// ResultBuilding is synthetic: Jenkins reports no result while a build runs.
	ResultBuilding BuildResult = "BUILDING"
)

// ParseBuildResult converts a raw result string into a BuildResult.
// The empty string maps to ResultUnknown.
func ParseBuildResult(s string) (BuildResult, error) {
	switch r := BuildResult(s); r {
	case ResultUnknown, ResultSuccess, ResultFailure, ResultUnstable,
		ResultAborted, ResultNotBuilt, ResultBuilding:
		return r, nil
	}
	return ResultUnknown, fmt.Errorf("%w: %q", ErrUnknownResult, s)
}

// IsFailing reports whether the result counts as a broken build.
func (r BuildResult) IsFailing() bool {
	return r == ResultFailure || r == ResultUnstable
}

func (r BuildResult) String() string {
	return string(r)
}

// NewJobToken is the update token seeded for jobs seen for the first time.
const NewJobToken = "new"

// BuildStatus is the persisted per-job state carried between polling cycles.
type BuildStatus struct {
	JobName     string      `json:"job_name"`
	LastUpdated string      `json:"last_updated"`
	LastStatus  BuildResult `json:"last_status"`
}

// SeedStatus returns the state assumed for a job with no stored entry.
// Seeding with a failure makes the first finished build count as a transition.
func SeedStatus(jobName string) BuildStatus {
	return BuildStatus{
		JobName:     jobName,
		LastUpdated: NewJobToken,
		LastStatus:  ResultFailure,
	}
}

// FeedEntry is one job line of the latest-builds feed.
type FeedEntry struct {
	JobName string
	// Updated is an opaque token, only ever compared for equality.
	Updated string
}

// BuildDetail is the last-build detail fetched for a job whose feed entry changed.
type BuildDetail struct {
	FullDisplayName string
	URL             string
	Building        bool
	Result          BuildResult
}
