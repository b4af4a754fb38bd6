package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"jenkins-notify-bot/src/broker"
	"jenkins-notify-bot/src/config"
	"jenkins-notify-bot/src/contracts"
)

var (
	tailTopic string
	tailGroup string
)

// tailTopics maps the --topic values to broker topics.
var tailTopics = map[string]string{
	"reports":       contracts.TopicBuildReports,
	"notifications": contracts.TopicNotifications,
}

var tailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Print build reports or sent messages published to Redpanda",
	Long: `Follows one of the topics the bot publishes to and prints each record:
  reports        every build report generated by a cycle
  notifications  every chat message that was delivered

Without --group a fresh consumer group is used, so the topic is printed
from the oldest retained record. Stops on Ctrl-C.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}

		topic, ok := tailTopics[tailTopic]
		if !ok {
			return &config.UserError{
				Message: fmt.Sprintf("Unknown topic %q", tailTopic),
				Hint:    "Use --topic reports or --topic notifications.",
			}
		}
		if len(cfg.RedpandaBrokers) == 0 {
			return &config.UserError{
				Message: "No Redpanda brokers configured",
				Hint:    "Set redpanda_brokers (or NOTIFY_BOT_REDPANDA_BROKERS) to the brokers the bot publishes to.",
			}
		}

		b, err := broker.NewRedpandaBroker(cfg.RedpandaBrokers, log)
		if err != nil {
			return err
		}
		defer b.Close()

		group := tailGroup
		if group == "" {
			group = "notify-bot-tail-" + uuid.NewString()
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return tail(ctx, b, topic, group, cmd.OutOrStdout())
	},
}

// tail prints every record of topic until ctx is done or the subscription closes.
func tail(ctx context.Context, b broker.Broker, topic, group string, w io.Writer) error {
	msgs, err := b.Subscribe(ctx, topic, group)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			line, err := formatRecord(msg)
			if err != nil {
				line = fmt.Sprintf("offset %d: undecodable %s record: %v", msg.Offset, msg.Topic, err)
			}
			fmt.Fprintln(w, line)
		}
	}
}

func formatRecord(msg broker.Message) (string, error) {
	switch msg.Topic {
	case contracts.TopicBuildReports:
		var r contracts.NotifyReport
		if err := json.Unmarshal(msg.Value, &r); err != nil {
			return "", err
		}
		outcome := "failure"
		if r.Success {
			outcome = "success"
		}
		return fmt.Sprintf("%s [%s] %s %s %s", r.FullDisplayName, r.Policy, r.Status, outcome, r.Link), nil

	case contracts.TopicNotifications:
		var m contracts.DeliveredMessage
		if err := json.Unmarshal(msg.Value, &m); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s room %s message %s\n%s", m.Timestamp, m.RoomID, m.ID, m.Text), nil
	}
	return string(msg.Value), nil
}

func init() {
	tailCmd.Flags().StringVar(&tailTopic, "topic", "notifications", "topic to follow: reports or notifications")
	tailCmd.Flags().StringVar(&tailGroup, "group", "", "consumer group to join (default: a new group per run)")
}
