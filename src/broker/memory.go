package broker

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// subscriberBuffer is the channel capacity given to each in-memory subscriber.
const subscriberBuffer = 100

type subscriber struct {
	ch     chan Message
	closed bool
}

// MemoryBroker is an in-process Broker. Every subscriber of a topic receives
// every message; a subscriber whose buffer is full makes Publish fail.
type MemoryBroker struct {
	mu      sync.Mutex
	subs    map[string][]*subscriber
	history map[string][]Message
	closed  bool
}

// NewMemoryBroker creates a new MemoryBroker.
func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{
		subs:    make(map[string][]*subscriber),
		history: make(map[string][]Message),
	}
}

func (b *MemoryBroker) Publish(ctx context.Context, topic string, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}

	msg := Message{
		Topic:     topic,
		Key:       key,
		Value:     append([]byte(nil), value...),
		Offset:    int64(len(b.history[topic])),
		Timestamp: time.Now().UnixMilli(),
	}
	b.history[topic] = append(b.history[topic], msg)

	for _, sub := range b.subs[topic] {
		if sub.closed {
			continue
		}
		select {
		case sub.ch <- msg:
		default:
			return fmt.Errorf("subscriber buffer full on topic %s", topic)
		}
	}
	return nil
}

// Subscribe registers a subscriber that only sees messages published after the call.
// The channel closes when ctx is done or the broker is closed.
func (b *MemoryBroker) Subscribe(ctx context.Context, topic string, groupID string) (<-chan Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}

	sub := &subscriber{ch: make(chan Message, subscriberBuffer)}
	b.subs[topic] = append(b.subs[topic], sub)

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		defer b.mu.Unlock()
		b.closeSubscriber(sub)
	}()

	return sub.ch, nil
}

// Messages returns every message published to topic, in order.
func (b *MemoryBroker) Messages(topic string) []Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Message(nil), b.history[topic]...)
}

func (b *MemoryBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	for _, subs := range b.subs {
		for _, sub := range subs {
			b.closeSubscriber(sub)
		}
	}
	return nil
}

// closeSubscriber must be called with b.mu held.
func (b *MemoryBroker) closeSubscriber(sub *subscriber) {
	if !sub.closed {
		sub.closed = true
		close(sub.ch)
	}
}
