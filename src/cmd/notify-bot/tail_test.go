package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"jenkins-notify-bot/src/broker"
	"jenkins-notify-bot/src/contracts"
)

// signallingBroker closes subscribed once Subscribe has registered.
type signallingBroker struct {
	*broker.MemoryBroker
	subscribed chan struct{}
}

func (b *signallingBroker) Subscribe(ctx context.Context, topic, groupID string) (<-chan broker.Message, error) {
	ch, err := b.MemoryBroker.Subscribe(ctx, topic, groupID)
	close(b.subscribed)
	return ch, err
}

func TestTail_PrintsNotifications(t *testing.T) {
	mem := broker.NewMemoryBroker()
	b := &signallingBroker{MemoryBroker: mem, subscribed: make(chan struct{})}
	ctx := context.Background()

	var out bytes.Buffer
	done := make(chan error, 1)
	go func() {
		done <- tail(ctx, b, contracts.TopicNotifications, "g", &out)
	}()

	select {
	case <-b.subscribed:
	case <-time.After(5 * time.Second):
		t.Fatal("tail never subscribed")
	}

	msg := contracts.DeliveredMessage{
		ID:        "m-1",
		RoomID:    "100",
		Text:      "[info][title]Fixed[/title] (clap) app-build #2: Build SUCCESS http://x/2[/info]",
		Timestamp: "2024-05-01T10:00:00Z",
	}
	if err := broker.PublishJSON(ctx, mem, contracts.TopicNotifications, msg.RoomID, msg); err != nil {
		t.Fatalf("PublishJSON() error = %v", err)
	}
	if err := mem.Publish(ctx, contracts.TopicNotifications, "100", []byte("not json")); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	mem.Close()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("tail() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("tail did not stop after the broker closed")
	}

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	want := []string{
		"2024-05-01T10:00:00Z room 100 message m-1",
		msg.Text,
	}
	if len(lines) != 3 {
		t.Fatalf("tail() printed %q, want 3 lines", out.String())
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
	if !strings.HasPrefix(lines[2], "offset 1: undecodable jenkins.notifications record") {
		t.Errorf("line 2 = %q, want an undecodable-record line", lines[2])
	}
}

func TestTail_StopsOnCancel(t *testing.T) {
	mem := broker.NewMemoryBroker()
	defer mem.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- tail(ctx, mem, contracts.TopicBuildReports, "g", &bytes.Buffer{})
	}()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("tail() error = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("tail did not stop after cancel")
	}
}

func TestTail_ClosedBroker(t *testing.T) {
	mem := broker.NewMemoryBroker()
	mem.Close()

	err := tail(context.Background(), mem, contracts.TopicBuildReports, "g", &bytes.Buffer{})
	if !errors.Is(err, broker.ErrClosed) {
		t.Errorf("tail() error = %v, want ErrClosed", err)
	}
}

func TestFormatRecord_Report(t *testing.T) {
	tests := []struct {
		name   string
		report contracts.NotifyReport
		want   string
	}{
		{
			name: "fixed",
			report: contracts.NotifyReport{
				JobName: "app-build", FullDisplayName: "app-build #2", Policy: contracts.PolicyBuildFixed,
				Success: true, Status: contracts.ResultSuccess, Link: "http://x/2",
			},
			want: "app-build #2 [build_fixed] SUCCESS success http://x/2",
		},
		{
			name: "broken",
			report: contracts.NotifyReport{
				JobName: "lint", FullDisplayName: "lint #7", Policy: contracts.PolicyBuild,
				Status: contracts.ResultUnstable, Link: "http://x/7",
			},
			want: "lint #7 [build] UNSTABLE failure http://x/7",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := broker.NewMemoryBroker()
			defer mem.Close()
			if err := broker.PublishJSON(context.Background(), mem, contracts.TopicBuildReports, tt.report.JobName, tt.report); err != nil {
				t.Fatalf("PublishJSON() error = %v", err)
			}

			got, err := formatRecord(mem.Messages(contracts.TopicBuildReports)[0])
			if err != nil {
				t.Fatalf("formatRecord() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("formatRecord() = %q, want %q", got, tt.want)
			}
		})
	}
}
