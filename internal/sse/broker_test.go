package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// drain collects whatever is buffered on ch after a short settle.
func drain(ch chan []byte) []string {
	time.Sleep(50 * time.Millisecond)
	var out []string
	for {
		select {
		case msg := <-ch:
			out = append(out, string(msg))
		default:
			return out
		}
	}
}

func countType(msgs []string, typ string) int {
	n := 0
	for _, m := range msgs {
		if strings.Contains(m, "event: "+typ+"\n") {
			n++
		}
	}
	return n
}

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func TestSyncEventFrame(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishSyncEvent(SyncEvent{Direction: "push", Succeeded: 3})

	select {
	case msg := <-ch:
		want := "id: 1\nevent: sync.completed\ndata: {\"direction\":\"push\",\"succeeded\":3,\"failed\":0}\n\n"
		if string(msg) != want {
			t.Errorf("frame = %q, want %q", msg, want)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestCatalogThrottle(t *testing.T) {
	b := NewBroker(500 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishSyncEvent(SyncEvent{Direction: "push", Succeeded: 1})
	b.PublishSyncEvent(SyncEvent{Direction: "pull", Succeeded: 2})
	b.PublishCatalogEvent(map[string]int{"indexed": 4})

	msgs := drain(ch)
	if n := countType(msgs, EventSyncCompleted); n != 2 {
		t.Errorf("sync events = %d, want 2", n)
	}
	if n := countType(msgs, EventCatalogUpdated); n != 1 {
		t.Errorf("catalog events = %d, want 1 (throttled)", n)
	}
}

func TestCatalogEventCarriesData(t *testing.T) {
	b := NewBroker(time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishCatalogEvent(map[string]int{"indexed": 4})

	msgs := drain(ch)
	if len(msgs) != 1 || !strings.Contains(msgs[0], `data: {"indexed":4}`) {
		t.Errorf("msgs = %q", msgs)
	}
}

func TestLateSubscriberGetsLastSync(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()

	b.PublishSyncEvent(SyncEvent{Direction: "push", Succeeded: 1})
	b.PublishSyncEvent(SyncEvent{Direction: "pull", Failed: 2})
	// Let the loop consume both before anyone joins.
	time.Sleep(50 * time.Millisecond)

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	msgs := drain(ch)
	if len(msgs) != 1 {
		t.Fatalf("msgs = %q, want only the latest sync", msgs)
	}
	if !strings.Contains(msgs[0], `"direction":"pull"`) || !strings.HasPrefix(msgs[0], "id: 3\n") {
		t.Errorf("replayed frame = %q", msgs[0])
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	b.KeepAlive = 20 * time.Millisecond
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	// Give handler time to subscribe.
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.PublishSyncEvent(SyncEvent{Direction: "pull", Failed: 1})
	time.Sleep(50 * time.Millisecond)

	cancel()
	<-done

	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type = %q", ct)
	}
	body := w.Body.String()
	if !strings.Contains(body, "event: sync.completed") {
		t.Errorf("handler output missing event: %q", body)
	}
	if !strings.Contains(body, ": keepalive\n\n") {
		t.Errorf("handler output missing keepalive: %q", body)
	}

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// Buffer holds 64; the rest must be dropped without blocking.
	for i := 0; i < 70; i++ {
		b.PublishSyncEvent(SyncEvent{Direction: "push", Succeeded: i})
	}
	if n := len(drain(ch)); n > 64 {
		t.Errorf("delivered %d frames, buffer is 64", n)
	}
}

func TestCloseClosesSubscribers(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	ch := b.Subscribe()

	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after close")
	}

	// No-ops after close.
	b.PublishCatalogEvent(nil)
	b.PublishSyncEvent(SyncEvent{Direction: "push"})
	b.Close()
}
