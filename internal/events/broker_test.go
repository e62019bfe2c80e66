package events

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestMemoryPublishSubscribe(t *testing.T) {
	b := NewMemory()
	ch := b.Subscribe(TopicMatching)

	evt := Event{ID: "r1", Type: "match.completed", Data: map[string]any{"x": 1}}
	if err := b.Publish(context.Background(), TopicMatching, evt); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-ch:
		if got.Type != evt.Type {
			t.Fatalf("got type %s, want %s", got.Type, evt.Type)
		}
		if got.Data["x"].(int) != 1 {
			t.Fatalf("bad payload: %+v", got.Data)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timeout waiting for event")
	}

	b.Unsubscribe(TopicMatching, ch)
	if _, ok := <-ch; ok {
		t.Fatal("channel should be closed after unsubscribe")
	}
	// second unsubscribe is a no-op
	b.Unsubscribe(TopicMatching, ch)
}

func TestMemoryOtherTopicNotDelivered(t *testing.T) {
	b := NewMemory()
	ch := b.Subscribe("a")
	defer b.Unsubscribe("a", ch)
	_ = b.Publish(context.Background(), "b", Event{Type: "x"})
	select {
	case evt := <-ch:
		t.Fatalf("unexpected event %+v", evt)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestRedisPublishSubscribe(t *testing.T) {
	mr := miniredis.RunT(t)
	b, err := NewRedis("redis://" + mr.Addr())
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()
	if err := b.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}

	ch := b.Subscribe(TopicMatching)
	if err := b.Publish(context.Background(), TopicMatching, Event{ID: "r2", Type: "match.completed", Data: map[string]any{"totalCost": 12}}); err != nil {
		t.Fatal(err)
	}
	select {
	case got := <-ch:
		if got.ID != "r2" || got.Data["totalCost"].(float64) != 12 {
			t.Fatalf("unexpected event %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for redis event")
	}

	b.Unsubscribe(TopicMatching, ch)
	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected channel closed")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after unsubscribe")
	}
}
