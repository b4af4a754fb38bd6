// Package bot runs the polling cycle: read the feed, detect transitions,
// route reports to subscriptions, deliver messages and persist statuses.
package bot

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"jenkins-notify-bot/src/broker"
	"jenkins-notify-bot/src/contracts"
	"jenkins-notify-bot/src/logger"
	"jenkins-notify-bot/src/notify"
	"jenkins-notify-bot/src/router"
	"jenkins-notify-bot/src/store"
	"jenkins-notify-bot/src/transition"
)

// Feed is the CI server as seen by the bot. *jenkins.Client satisfies it.
type Feed interface {
	LatestBuilds(ctx context.Context) ([]contracts.FeedEntry, error)
	LastBuild(ctx context.Context, jobName string) (*contracts.BuildDetail, error)
}

// CycleResult summarizes one call to Process.
type CycleResult struct {
	ID             string
	Jobs           int
	Fetched        int
	DetailErrors   int
	Reports        []contracts.NotifyReport
	Notifications  []contracts.Notification
	Delivered      int
	DeliveryErrors int
	Statuses       map[string]contracts.BuildStatus
}

// Bot owns the dependencies of a polling cycle.
type Bot struct {
	feed   Feed
	store  store.Store
	sink   notify.Sink
	subs   []contracts.Subscription
	router *router.Router
	broker broker.Broker
	log    logger.Logger

	concurrency int
	timeout     time.Duration
}

// Option configures a Bot.
type Option func(*Bot)

// WithLogger sets the logger. The default is silent.
func WithLogger(l logger.Logger) Option {
	return func(b *Bot) { b.log = l }
}

// WithBroker publishes every generated report to the build reports topic.
func WithBroker(br broker.Broker) Option {
	return func(b *Bot) { b.broker = br }
}

// WithRouter replaces the default router, typically to fix title selection in tests.
func WithRouter(r *router.Router) Option {
	return func(b *Bot) { b.router = r }
}

// WithConcurrency bounds the number of detail fetches in flight.
func WithConcurrency(n int) Option {
	return func(b *Bot) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithTimeout bounds each detail fetch and each message delivery.
func WithTimeout(d time.Duration) Option {
	return func(b *Bot) { b.timeout = d }
}

// New creates a Bot.
func New(feed Feed, st store.Store, sink notify.Sink, subs []contracts.Subscription, opts ...Option) *Bot {
	b := &Bot{
		feed:        feed,
		store:       st,
		sink:        sink,
		subs:        subs,
		router:      router.New(nil),
		log:         logger.NewSilentLogger(),
		concurrency: 4,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Process runs one polling cycle.
//
// Loading the store, reading the feed and composing messages are fatal to the
// cycle and leave the persisted statuses untouched. Detail and delivery
// failures are logged and isolated to their job or room.
func (b *Bot) Process(ctx context.Context) (*CycleResult, error) {
	res := &CycleResult{ID: uuid.NewString()}
	log := logger.With(b.log, "cycle", res.ID)

	stored, err := b.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load build statuses: %w", err)
	}

	entries, err := b.feed.LatestBuilds(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch latest builds: %w", err)
	}
	entries = usableEntries(log, entries)
	res.Jobs = len(entries)
	log.Debug("[Bot] %d jobs in feed, %d stored", len(entries), len(stored))

	details, err := b.fetchDetails(ctx, log, res, entries, stored)
	if err != nil {
		return nil, err
	}

	// Jobs missing from the feed keep their stored status.
	next := make(map[string]contracts.BuildStatus, len(stored)+len(entries))
	for job, s := range stored {
		next[job] = s
	}

	for i, entry := range entries {
		prev, ok := stored[entry.JobName]
		if !ok {
			prev = contracts.SeedStatus(entry.JobName)
		}
		if details[i] == nil {
			next[entry.JobName] = prev
			continue
		}

		out := transition.Evaluate(entry, prev, *details[i])
		next[entry.JobName] = out.Status
		res.Reports = append(res.Reports, out.Reports...)
	}
	res.Statuses = next

	b.publishReports(ctx, log, res)

	notifications, err := b.router.Route(res.Reports, b.subs)
	if err != nil {
		return nil, fmt.Errorf("failed to compose notifications: %w", err)
	}
	res.Notifications = notifications

	b.deliver(ctx, log, res)

	if err := b.store.Save(ctx, next); err != nil {
		log.Error("[Bot] Failed to save build statuses: %v", err)
		return res, fmt.Errorf("failed to save build statuses: %w", err)
	}

	log.Info("[Bot] %d jobs, %d fetched, %d reports, %d messages sent, %d delivery errors",
		res.Jobs, res.Fetched, len(res.Reports), res.Delivered, res.DeliveryErrors)
	return res, nil
}

// usableEntries drops feed entries whose name or update token cannot be stored.
// Such an entry would otherwise be persisted as a line that never loads back.
func usableEntries(log logger.Logger, entries []contracts.FeedEntry) []contracts.FeedEntry {
	out := entries[:0:0]
	for _, e := range entries {
		if !storable(e.JobName) || !storable(e.Updated) {
			log.Error("[Bot] Skipping feed entry %q with update token %q", e.JobName, e.Updated)
			continue
		}
		out = append(out, e)
	}
	return out
}

func storable(field string) bool {
	return field != "" && strings.IndexFunc(field, unicode.IsSpace) < 0
}

// fetchDetails returns one detail per entry, nil where the entry is unchanged
// or the fetch failed.
func (b *Bot) fetchDetails(ctx context.Context, log logger.Logger, res *CycleResult, entries []contracts.FeedEntry, stored map[string]contracts.BuildStatus) ([]*contracts.BuildDetail, error) {
	details := make([]*contracts.BuildDetail, len(entries))
	errs := make([]error, len(entries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	for i, entry := range entries {
		if prev, ok := stored[entry.JobName]; ok && !transition.NeedsDetail(entry, prev) {
			continue
		}
		g.Go(func() error {
			callCtx := gctx
			if b.timeout > 0 {
				var cancel context.CancelFunc
				callCtx, cancel = context.WithTimeout(gctx, b.timeout)
				defer cancel()
			}
			details[i], errs[i] = b.feed.LastBuild(callCtx, entry.JobName)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for i, err := range errs {
		if err != nil {
			details[i] = nil
			res.DetailErrors++
			log.Error("[Bot] Failed to fetch last build of %s: %v", entries[i].JobName, err)
			continue
		}
		if details[i] != nil {
			res.Fetched++
		}
	}
	return details, nil
}

func (b *Bot) publishReports(ctx context.Context, log logger.Logger, res *CycleResult) {
	if b.broker == nil {
		return
	}
	for _, report := range res.Reports {
		if err := broker.PublishJSON(ctx, b.broker, contracts.TopicBuildReports, report.JobName, report); err != nil {
			log.Error("[Bot] Failed to publish report for %s: %v", report.JobName, err)
		}
	}
}

func (b *Bot) deliver(ctx context.Context, log logger.Logger, res *CycleResult) {
	for _, n := range res.Notifications {
		for _, room := range n.Rooms {
			sendCtx := ctx
			cancel := context.CancelFunc(func() {})
			if b.timeout > 0 {
				sendCtx, cancel = context.WithTimeout(ctx, b.timeout)
			}
			id, err := b.sink.SendMessage(sendCtx, room, n.Text)
			cancel()

			if err != nil {
				res.DeliveryErrors++
				log.Error("[Bot] Failed to send %s to room %s: %v", n.Subscription, room, err)
				continue
			}
			res.Delivered++
			log.Debug("[Bot] Sent %s to room %s as message %s", n.Subscription, room, id)
		}
	}
}

// Run calls Process every interval until ctx is done.
// A failed cycle is logged and retried on the next tick.
func (b *Bot) Run(ctx context.Context, interval time.Duration) error {
	b.log.Info("[Bot] Polling every %s", interval)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			b.log.Info("[Bot] Shutting down")
			return nil
		case <-timer.C:
		}

		if _, err := b.Process(ctx); err != nil && ctx.Err() == nil {
			b.log.Error("[Bot] Cycle failed: %v", err)
		}
		timer.Reset(interval)
	}
}
