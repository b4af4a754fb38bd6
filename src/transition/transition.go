// Package transition classifies a job's newly finished build against its
// previous status and turns the classification into policy-tagged reports.
package transition

import "jenkins-notify-bot/src/contracts"

// Transition holds the independent flags derived from a status change.
// A build can be both Success and Fixed.
type Transition struct {
	Success bool
	Failure bool
	Fixed   bool
}

// Classify compares the previous stored result with the new one.
func Classify(previous, next contracts.BuildResult) Transition {
	success := next == contracts.ResultSuccess
	return Transition{
		Success: success,
		Failure: next.IsFailing(),
		Fixed:   previous.IsFailing() && success,
	}
}

// Reports builds the reports for one finished build.
//
// BUILD is always emitted. BUILD_FIXED is emitted for fresh failures
// (not a success) and recoveries (a success). BUILD_SUCCESS is emitted for
// every success. BUILD and BUILD_FIXED both fire on a recovery.
func Reports(jobName string, detail contracts.BuildDetail, t Transition) []contracts.NotifyReport {
	newReport := func(policy contracts.NotifyPolicy, success bool) contracts.NotifyReport {
		return contracts.NotifyReport{
			JobName:         jobName,
			FullDisplayName: detail.FullDisplayName,
			Policy:          policy,
			Success:         success,
			Status:          detail.Result,
			Link:            detail.URL,
		}
	}

	reports := []contracts.NotifyReport{newReport(contracts.PolicyBuild, t.Success)}
	if t.Failure || t.Fixed {
		reports = append(reports, newReport(contracts.PolicyBuildFixed, t.Fixed))
	}
	if t.Success {
		reports = append(reports, newReport(contracts.PolicyBuildSuccess, true))
	}
	return reports
}

// Outcome is the result of evaluating one feed entry against its stored status.
type Outcome struct {
	// Status is what should be persisted for the job after this cycle.
	Status  contracts.BuildStatus
	Reports []contracts.NotifyReport
}

// NeedsDetail reports whether the feed entry changed since the stored status.
func NeedsDetail(entry contracts.FeedEntry, stored contracts.BuildStatus) bool {
	return entry.Updated != stored.LastUpdated
}

// Evaluate applies the report rules to a job whose feed token changed.
// A build still in progress produces no reports and keeps the stored status.
func Evaluate(entry contracts.FeedEntry, stored contracts.BuildStatus, detail contracts.BuildDetail) Outcome {
	if detail.Building {
		return Outcome{Status: stored}
	}

	t := Classify(stored.LastStatus, detail.Result)
	return Outcome{
		Status: contracts.BuildStatus{
			JobName:     entry.JobName,
			LastUpdated: entry.Updated,
			LastStatus:  detail.Result,
		},
		Reports: Reports(entry.JobName, detail, t),
	}
}
