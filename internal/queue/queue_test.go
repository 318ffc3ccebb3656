package queue

import (
	"context"
	"testing"
	"time"
)

func TestInMemoryRoundTrip(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewInMemory(4)
	messages, err := q.Consume(ctx)
	if err != nil {
		t.Fatalf("Consume() error = %v", err)
	}
	if err := q.Publish(ctx, Message{Type: "absence_decided", Body: []byte(`{"requestId":"r1"}`)}); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	select {
	case msg := <-messages:
		if msg.Type != "absence_decided" || string(msg.Body) != `{"requestId":"r1"}` {
			t.Errorf("received %+v", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("no message delivered")
	}
}

func TestInMemoryConsumeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	q := NewInMemory(1)
	messages, err := q.Consume(ctx)
	if err != nil {
		t.Fatalf("Consume() error = %v", err)
	}
	cancel()
	select {
	case _, open := <-messages:
		if open {
			t.Fatal("channel delivered after cancel")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestNotifierEncodesPayload(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewInMemory(1)
	messages, err := q.Consume(ctx)
	if err != nil {
		t.Fatalf("Consume() error = %v", err)
	}
	n := Notifier{Q: q}
	if err := n.Notify(ctx, "absence_decision_edited", map[string]string{"requestId": "r1", "status": "Rejected"}); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}

	select {
	case msg := <-messages:
		if msg.Type != "absence_decision_edited" {
			t.Errorf("type = %q", msg.Type)
		}
		if len(msg.Body) == 0 || msg.Body[0] != '{' {
			t.Errorf("body is not JSON: %q", msg.Body)
		}
	case <-time.After(time.Second):
		t.Fatal("no message delivered")
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
	}{
		{"typed", Message{Type: "absence_decided", Body: []byte(`{"a":1}`)}},
		{"body with separators", Message{Type: "x", Body: []byte("a|b|c")}},
		{"empty body", Message{Type: "ping", Body: nil}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := deserialize(serialize(tt.msg))
			if err != nil {
				t.Fatalf("deserialize() error = %v", err)
			}
			if got.Type != tt.msg.Type || string(got.Body) != string(tt.msg.Body) {
				t.Errorf("round trip = %+v, want %+v", got, tt.msg)
			}
		})
	}
}
