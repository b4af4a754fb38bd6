package contracts

import (
	"errors"
	"fmt"
	"slices"
)

// ErrUnknownPolicy is returned for a policy name outside build, build_fixed and build_success.
var ErrUnknownPolicy = errors.New("unknown notify policy")

// NotifyPolicy selects which class of transitions a subscription hears about.
type NotifyPolicy int

const (
	// PolicyBuild reports every finished build, pass or fail.
	PolicyBuild NotifyPolicy = iota + 1
	// PolicyBuildFixed reports failures and the first success after a failure run.
	PolicyBuildFixed
	// PolicyBuildSuccess reports successes only.
	PolicyBuildSuccess
)

// DefaultPolicy applies when a subscription names no policy.
const DefaultPolicy = PolicyBuildFixed

var policyNames = map[NotifyPolicy]string{
	PolicyBuild:        "build",
	PolicyBuildFixed:   "build_fixed",
	PolicyBuildSuccess: "build_success",
}

// ParsePolicy converts a configuration name into a NotifyPolicy.
func ParsePolicy(name string) (NotifyPolicy, error) {
	for p, n := range policyNames {
		if n == name {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
}

func (p NotifyPolicy) String() string {
	if n, ok := policyNames[p]; ok {
		return n
	}
	return fmt.Sprintf("policy(%d)", int(p))
}

// MarshalText keeps policies readable in published JSON.
func (p NotifyPolicy) MarshalText() ([]byte, error) {
	if _, ok := policyNames[p]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPolicy, int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText is the inverse of MarshalText.
func (p *NotifyPolicy) UnmarshalText(b []byte) error {
	parsed, err := ParsePolicy(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Subscription binds a set of jobs and rooms to one policy and its message templates.
// Subscriptions are built once from configuration and never mutated.
type Subscription struct {
	Name            string
	Jobs            []string
	Rooms           []string
	Policy          NotifyPolicy
	MessagePrefix   string
	SuccessTitles   []string
	FailureTitles   []string
	SuccessEmoticon string
	FailureEmoticon string
}

// Matches reports whether the report belongs to this subscription.
func (s Subscription) Matches(r NotifyReport) bool {
	return r.Policy == s.Policy && slices.Contains(s.Jobs, r.JobName)
}
