package hub

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/websocket/v2"
)

type written struct {
	typ  int
	data []byte
}

// fakeConn records writes; ReadMessage blocks until Close.
type fakeConn struct {
	writes chan written
	closed chan struct{}
	once   sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		writes: make(chan written, 64),
		closed: make(chan struct{}),
	}
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	<-f.closed
	return 0, nil, errors.New("closed")
}

func (f *fakeConn) WriteMessage(t int, data []byte) error {
	select {
	case <-f.closed:
		return errors.New("closed")
	default:
	}
	f.writes <- written{t, data}
	return nil
}

func (f *fakeConn) SetReadLimit(int64) {}
func (f *fakeConn) SetReadDeadline(time.Time) error { return nil }
func (f *fakeConn) SetWriteDeadline(time.Time) error { return nil }
func (f *fakeConn) SetPongHandler(func(string) error) {}
func (f *fakeConn) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeConn) next(t *testing.T) written {
	t.Helper()
	select {
	case w := <-f.writes:
		return w
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a write")
		return written{}
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestBroadcastReachesClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := New("camera", false, nil)
	go h.Run(ctx)

	conn := newFakeConn()
	c := NewClient(h, conn)
	go c.Run()
	waitFor(t, func() bool { return h.ClientCount() == 1 })

	h.BroadcastBinary([]byte{0xFF, 0xD8})
	w := conn.next(t)
	if w.typ != websocket.BinaryMessage || len(w.data) != 2 {
		t.Errorf("got type %d len %d, want binary frame", w.typ, len(w.data))
	}

	if err := h.BroadcastJSON(map[string]string{"state": "capturing"}); err != nil {
		t.Fatalf("BroadcastJSON: %v", err)
	}
	w = conn.next(t)
	if w.typ != websocket.TextMessage || string(w.data) != `{"state":"capturing"}` {
		t.Errorf("got %d %q", w.typ, w.data)
	}

	conn.Close()
	waitFor(t, func() bool { return h.ClientCount() == 0 })
}

func TestReplayLastMessage(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := New("status", true, nil)
	go h.Run(ctx)

	first := newFakeConn()
	c := NewClient(h, first)
	go c.Run()

	h.BroadcastJSON(map[string]int{"frames": 1})
	first.next(t)

	late := newFakeConn()
	go NewClient(h, late).Run()

	w := late.next(t)
	if string(w.data) != `{"frames":1}` {
		t.Errorf("late client got %q, want the last status", w.data)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := New("camera", false, nil)
	go h.Run(ctx)
	waitFor(t, h.IsRunning)

	conn := newFakeConn()
	go NewClient(h, conn).Run()
	waitFor(t, func() bool { return h.ClientCount() == 1 })

	cancel()
	select {
	case <-h.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop")
	}

	// The write pump sends a close frame once its queue is closed.
	if w := conn.next(t); w.typ != websocket.CloseMessage {
		t.Errorf("got type %d, want close", w.typ)
	}
	if h.IsRunning() {
		t.Error("IsRunning after stop")
	}
	if NewClient(h, newFakeConn()) != nil {
		t.Error("NewClient on a stopped hub should return nil")
	}
}

func TestBroadcastDropsWhenQueueFull(t *testing.T) {
	h := New("camera", false, nil) // not running, nothing drains the queue
	for i := 0; i < broadcastBuffer+5; i++ {
		h.BroadcastBinary([]byte{byte(i)})
	}
	if h.Dropped() != 5 {
		t.Errorf("Dropped = %d, want 5", h.Dropped())
	}
}
