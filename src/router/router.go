// Package router matches a cycle's reports against subscriptions and composes
// one batched message per subscription.
package router

import (
	"fmt"
	"math/rand/v2"

	"jenkins-notify-bot/src/contracts"
	"jenkins-notify-bot/src/message"
)

// RandSource picks a title index. *rand.Rand from math/rand/v2 satisfies it.
type RandSource interface {
	IntN(n int) int
}

// Router composes notifications. It is safe to reuse across cycles but not
// for concurrent use when the random source is not.
type Router struct {
	rand RandSource
}

// New creates a Router using the given random source.
// A nil source falls back to the global math/rand/v2 generator.
func New(src RandSource) *Router {
	if src == nil {
		src = globalRand{}
	}
	return &Router{rand: src}
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// Route returns one notification per subscription that matched at least one
// report, in subscription order. An error means a message could not be
// composed and the whole batch should be discarded.
func (r *Router) Route(reports []contracts.NotifyReport, subs []contracts.Subscription) ([]contracts.Notification, error) {
	var notifications []contracts.Notification
	for _, sub := range subs {
		n, ok, err := r.compose(reports, sub)
		if err != nil {
			return nil, fmt.Errorf("subscription %q: %w", sub.Name, err)
		}
		if ok {
			notifications = append(notifications, n)
		}
	}
	return notifications, nil
}

func (r *Router) compose(reports []contracts.NotifyReport, sub contracts.Subscription) (contracts.Notification, bool, error) {
	var (
		body        string
		matched     int
		failureSeen bool
	)
	for _, report := range reports {
		if !sub.Matches(report) {
			continue
		}
		matched++

		emoticon := message.Emoticon(sub.SuccessEmoticon)
		if !report.Success {
			emoticon = message.Emoticon(sub.FailureEmoticon)
			failureSeen = true
		}

		line, err := message.ReportLine(emoticon, report.FullDisplayName, sub.MessagePrefix, report.Status.String(), report.Link)
		if err != nil {
			return contracts.Notification{}, false, err
		}
		body += line
	}
	if matched == 0 {
		return contracts.Notification{}, false, nil
	}

	titles := sub.SuccessTitles
	if failureSeen {
		titles = sub.FailureTitles
	}

	text, err := message.Decorate(r.pick(titles), body)
	if err != nil {
		return contracts.Notification{}, false, err
	}

	return contracts.Notification{
		Subscription: sub.Name,
		Rooms:        sub.Rooms,
		Text:         text,
		FailureSeen:  failureSeen,
		ReportCount:  matched,
	}, true, nil
}

func (r *Router) pick(titles []string) string {
	if len(titles) == 0 {
		return ""
	}
	return titles[r.rand.IntN(len(titles))]
}
