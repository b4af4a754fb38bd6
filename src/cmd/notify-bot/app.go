package main

import (
	"errors"
	"fmt"

	"jenkins-notify-bot/src/bot"
	"jenkins-notify-bot/src/broker"
	"jenkins-notify-bot/src/chatwork"
	"jenkins-notify-bot/src/config"
	"jenkins-notify-bot/src/jenkins"
	"jenkins-notify-bot/src/logger"
	"jenkins-notify-bot/src/notify"
	"jenkins-notify-bot/src/store"
)

// app holds everything a command needs and owns what must be closed.
type app struct {
	cfg    *config.Config
	log    logger.Logger
	store  store.Store
	broker broker.Broker
	bot    *bot.Bot
}

func openStore(cfg *config.Config) (store.Store, error) {
	driver, target := cfg.StoreTarget()
	st, err := store.Open(driver, target)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s status store: %w", driver, err)
	}
	return st, nil
}

// newApp wires the bot from configuration.
func newApp(cfg *config.Config, log logger.Logger) (*app, error) {
	subs, err := cfg.Subscriptions()
	if err != nil {
		return nil, err
	}

	st, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: log, store: st}

	if len(cfg.RedpandaBrokers) > 0 {
		rp, err := broker.NewRedpandaBroker(cfg.RedpandaBrokers, log)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.broker = rp
		log.Info("[NotifyBot] Publishing reports and notifications to %v", cfg.RedpandaBrokers)
	}

	jenkinsOpts := []jenkins.Option{
		jenkins.WithTimeout(cfg.Timeout()),
		jenkins.WithRateLimit(cfg.JenkinsRateLimit),
		jenkins.WithLogger(log),
	}
	if cfg.JenkinsUser != "" {
		jenkinsOpts = append(jenkinsOpts, jenkins.WithBasicAuth(cfg.JenkinsUser, cfg.JenkinsAPIToken))
	}
	feed := jenkins.NewClient(cfg.JenkinsServerURL, jenkinsOpts...)

	var sink notify.Sink
	if cfg.DryRun {
		log.Info("[NotifyBot] Dry run: messages are logged, not sent")
		sink = notify.NewLogSink(log)
	} else {
		sink = chatwork.NewClient(cfg.ChatworkBaseURL, cfg.APIToken, cfg.Timeout())
	}

	botOpts := []bot.Option{
		bot.WithLogger(log),
		bot.WithConcurrency(cfg.DetailConcurrency),
		bot.WithTimeout(cfg.Timeout()),
	}
	if a.broker != nil {
		sink = notify.NewTee(log, sink, notify.NewBrokerSink(a.broker))
		botOpts = append(botOpts, bot.WithBroker(a.broker))
	}

	a.bot = bot.New(feed, st, sink, subs, botOpts...)
	return a, nil
}

func (a *app) Close() error {
	var errs []error
	if a.broker != nil {
		errs = append(errs, a.broker.Close())
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	return errors.Join(errs...)
}
