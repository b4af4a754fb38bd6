// Package notify delivers composed messages to chat rooms.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"jenkins-notify-bot/src/broker"
	"jenkins-notify-bot/src/contracts"
	"jenkins-notify-bot/src/logger"
)

// Sink delivers one message to one room and returns the message ID.
// *chatwork.Client satisfies it.
type Sink interface {
	SendMessage(ctx context.Context, roomID, body string) (string, error)
}

// LogSink logs messages instead of sending them. Used for dry runs.
type LogSink struct {
	log logger.Logger
}

func NewLogSink(log logger.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) SendMessage(ctx context.Context, roomID, body string) (string, error) {
	id := uuid.NewString()
	s.log.Info("[DryRun] room %s message %s:\n%s", roomID, id, body)
	return id, nil
}

// BrokerSink publishes each message to the notifications topic, keyed by room.
type BrokerSink struct {
	broker broker.Broker
	now    func() time.Time
}

func NewBrokerSink(b broker.Broker) *BrokerSink {
	return &BrokerSink{broker: b, now: time.Now}
}

func (s *BrokerSink) SendMessage(ctx context.Context, roomID, body string) (string, error) {
	msg := contracts.DeliveredMessage{
		ID:        uuid.NewString(),
		RoomID:    roomID,
		Text:      body,
		Timestamp: s.now().UTC().Format(time.RFC3339),
	}
	if err := broker.PublishJSON(ctx, s.broker, contracts.TopicNotifications, roomID, msg); err != nil {
		return "", fmt.Errorf("failed to mirror message for room %s: %w", roomID, err)
	}
	return msg.ID, nil
}

// Tee sends through a primary sink and copies successful sends to mirrors.
// Only the primary's result is returned; mirror failures are logged.
type Tee struct {
	primary Sink
	mirrors []Sink
	log     logger.Logger
}

func NewTee(log logger.Logger, primary Sink, mirrors ...Sink) *Tee {
	return &Tee{primary: primary, mirrors: mirrors, log: log}
}

func (t *Tee) SendMessage(ctx context.Context, roomID, body string) (string, error) {
	id, err := t.primary.SendMessage(ctx, roomID, body)
	if err != nil {
		return "", err
	}
	for _, m := range t.mirrors {
		if _, merr := m.SendMessage(ctx, roomID, body); merr != nil {
			t.log.Error("[Tee] Mirror failed for room %s: %v", roomID, merr)
		}
	}
	return id, nil
}
