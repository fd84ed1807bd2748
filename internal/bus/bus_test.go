package bus

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/garipamoja/askari/internal/domain"
)

func TestChannelBusPublishSubscribe(t *testing.T) {
	bus := NewChannelBus(10)
	defer bus.Close()
	ctx := context.Background()

	received := make(chan *domain.Message, 1)
	sub, err := bus.Subscribe(ctx, domain.TopicAnalysisCompleted, func(ctx context.Context, msg *domain.Message) error {
		received <- msg
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer sub.Unsubscribe()

	if sub.Topic() != domain.TopicAnalysisCompleted {
		t.Errorf("unexpected topic: %s", sub.Topic())
	}

	if err := bus.Publish(ctx, domain.TopicAnalysisCompleted, []byte(`{"id":"a-1"}`)); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	select {
	case msg := <-received:
		if string(msg.Payload) != `{"id":"a-1"}` {
			t.Errorf("unexpected payload: %s", msg.Payload)
		}
		if msg.ID == "" {
			t.Error("expected generated message ID")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestChannelBusTopicIsolation(t *testing.T) {
	bus := NewChannelBus(10)
	defer bus.Close()
	ctx := context.Background()

	var count atomic.Int32
	_, err := bus.Subscribe(ctx, domain.TopicFraudAlert, func(ctx context.Context, msg *domain.Message) error {
		count.Add(1)
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	_ = bus.Publish(ctx, domain.TopicAnalysisCompleted, []byte("other"))
	_ = bus.Publish(ctx, domain.TopicFraudAlert, []byte("alert"))

	deadline := time.After(time.Second)
	for count.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for alert")
		case <-time.After(5 * time.Millisecond):
		}
	}
	time.Sleep(20 * time.Millisecond)

	if got := count.Load(); got != 1 {
		t.Errorf("expected 1 message on topic, got %d", got)
	}
}

func TestChannelBusMultipleSubscribers(t *testing.T) {
	bus := NewChannelBus(10)
	defer bus.Close()
	ctx := context.Background()

	var count atomic.Int32
	for i := 0; i < 3; i++ {
		_, err := bus.Subscribe(ctx, "topic", func(ctx context.Context, msg *domain.Message) error {
			count.Add(1)
			return nil
		})
		if err != nil {
			t.Fatalf("Subscribe failed: %v", err)
		}
	}

	_ = bus.Publish(ctx, "topic", []byte("fanout"))

	deadline := time.After(time.Second)
	for count.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("timed out, got %d of 3 deliveries", count.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestChannelBusUnsubscribe(t *testing.T) {
	bus := NewChannelBus(10)
	defer bus.Close()
	ctx := context.Background()

	var count atomic.Int32
	sub, _ := bus.Subscribe(ctx, "topic", func(ctx context.Context, msg *domain.Message) error {
		count.Add(1)
		return nil
	})

	_ = sub.Unsubscribe()
	time.Sleep(10 * time.Millisecond)

	_ = bus.Publish(ctx, "topic", []byte("after"))
	time.Sleep(20 * time.Millisecond)

	if got := count.Load(); got != 0 {
		t.Errorf("expected no deliveries after unsubscribe, got %d", got)
	}
}

func TestChannelBusClose(t *testing.T) {
	bus := NewChannelBus(10)
	ctx := context.Background()

	if err := bus.Ping(ctx); err != nil {
		t.Fatalf("Ping failed before close: %v", err)
	}

	if err := bus.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if err := bus.Publish(ctx, "topic", []byte("late")); err == nil {
		t.Error("expected error publishing to closed bus")
	}
	if _, err := bus.Subscribe(ctx, "topic", nil); err == nil {
		t.Error("expected error subscribing to closed bus")
	}
	if err := bus.Ping(ctx); err == nil {
		t.Error("expected ping failure on closed bus")
	}
}

func TestNewFromConfig(t *testing.T) {
	t.Run("Channel", func(t *testing.T) {
		b, err := New(domain.EventBusConfig{Type: "channel", ChannelBufferSize: 10})
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		defer b.Close()

		if _, ok := b.(*ChannelBus); !ok {
			t.Errorf("expected ChannelBus, got %T", b)
		}
	})

	t.Run("Unsupported", func(t *testing.T) {
		if _, err := New(domain.EventBusConfig{Type: "kafka"}); err == nil {
			t.Error("expected error for unsupported bus type")
		}
	})
}
