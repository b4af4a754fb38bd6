package broker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/twmb/franz-go/pkg/kgo"

	"jenkins-notify-bot/src/logger"
)

type consumerKey struct {
	topic string
	group string
}

// RedpandaBroker is a Kafka-compatible Broker backed by franz-go.
// One producer client is shared; every Subscribe gets its own group consumer.
type RedpandaBroker struct {
	producer  *kgo.Client
	brokers   []string
	log       logger.Logger
	mu        sync.RWMutex
	consumers map[consumerKey]*kgo.Client
	closed    bool
}

// NewRedpandaBroker connects to the seed brokers (e.g. ["localhost:19092"]).
// Topics are created on first publish.
func NewRedpandaBroker(brokers []string, log logger.Logger) (*RedpandaBroker, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("at least one broker address is required")
	}
	if log == nil {
		log = logger.NewSilentLogger()
	}

	producer, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.AllowAutoTopicCreation(),
		kgo.ProducerLinger(0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redpanda client: %w", err)
	}

	return &RedpandaBroker{
		producer:  producer,
		brokers:   brokers,
		log:       log,
		consumers: make(map[consumerKey]*kgo.Client),
	}, nil
}

// Publish produces one record and waits for the ack.
func (b *RedpandaBroker) Publish(ctx context.Context, topic string, key string, value []byte) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}

	rec := &kgo.Record{Topic: topic, Key: []byte(key), Value: value}
	if err := b.producer.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	return nil
}

// Subscribe joins groupID on topic. A group without committed offsets starts
// at the oldest retained record. The channel closes when ctx is done or the
// broker is closed.
func (b *RedpandaBroker) Subscribe(ctx context.Context, topic string, groupID string) (<-chan Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}

	key := consumerKey{topic: topic, group: groupID}
	if _, dup := b.consumers[key]; dup {
		return nil, fmt.Errorf("topic %s already has a consumer in group %s", topic, groupID)
	}

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(b.brokers...),
		kgo.ConsumerGroup(groupID),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer for %s: %w", topic, err)
	}
	b.consumers[key] = consumer

	out := make(chan Message, subscriberBuffer)
	go b.pump(ctx, key, consumer, out)
	return out, nil
}

// pump forwards fetched records to out until ctx is done or the consumer is closed.
func (b *RedpandaBroker) pump(ctx context.Context, key consumerKey, consumer *kgo.Client, out chan<- Message) {
	defer close(out)
	defer b.release(key, consumer)

	for ctx.Err() == nil {
		fetches := consumer.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return
		}

		fetches.EachError(func(topic string, partition int32, err error) {
			if !errors.Is(err, context.Canceled) {
				b.log.Error("[RedpandaBroker] Fetch error on %s/%d: %v", topic, partition, err)
			}
		})

		for iter := fetches.RecordIter(); !iter.Done(); {
			select {
			case out <- toMessage(iter.Next()):
			case <-ctx.Done():
				return
			}
		}
	}
}

// release closes a consumer that stopped on its own. Consumers closed by
// Close are already gone from the map.
func (b *RedpandaBroker) release(key consumerKey, consumer *kgo.Client) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.consumers[key] == consumer {
		delete(b.consumers, key)
		consumer.Close()
	}
}

func toMessage(rec *kgo.Record) Message {
	return Message{
		Topic:     rec.Topic,
		Key:       string(rec.Key),
		Value:     rec.Value,
		Offset:    rec.Offset,
		Partition: rec.Partition,
		Timestamp: rec.Timestamp.UnixMilli(),
	}
}

// Close stops every consumer and the producer.
func (b *RedpandaBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true

	for key, consumer := range b.consumers {
		consumer.Close()
		delete(b.consumers, key)
	}
	b.producer.Close()
	return nil
}
