package bus

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestSoloBusLockExpiry(t *testing.T) {
	bus, err := NewSolo()
	if err != nil {
		t.Fatalf("NewSolo() failed: %v", err)
	}

	ctx := context.Background()
	_, err = bus.Lock(ctx, "key", 500*time.Millisecond)
	if err != nil {
		t.Fatalf("Lock() failed: %v", err)
	}

	time.Sleep(time.Second)

	// Lock should be expired, new lock should succeed
	lock2, err := bus.Lock(ctx, "key", time.Second)
	if err != nil {
		t.Errorf("Lock() after expiry failed: %v", err)
	}
	if lock2 != nil {
		lock2.Unlock()
	}
}

func TestSoloBusKeepAlive(t *testing.T) {
	bus, err := NewSolo()
	if err != nil {
		t.Fatalf("NewSolo() failed: %v", err)
	}

	ctx := context.Background()
	lock, err := bus.Lock(ctx, "key", 500*time.Millisecond)
	if err != nil {
		t.Fatalf("Lock() failed: %v", err)
	}

	// Keep lock alive
	time.Sleep(250 * time.Millisecond)
	if err := lock.KeepAlive(); err != nil {
		t.Errorf("KeepAlive() failed: %v", err)
	}

	// Verify lock is still valid
	_, err = bus.Lock(ctx, "key", time.Second)
	if !errors.Is(err, ErrLocked) {
		t.Errorf("Lock() = %v, want ErrLocked", err)
	}

	lock.Unlock()
}

func TestSoloBusPubSub(t *testing.T) {
	bus, err := NewSolo()
	if err != nil {
		t.Fatalf("NewSolo() failed: %v", err)
	}

	ch1, unsub1 := bus.Subscribe("topic1")
	defer unsub1()
	ch2, unsub2 := bus.Subscribe("topic1")
	defer unsub2()

	if err := bus.Send("topic1", []byte("test message")); err != nil {
		t.Errorf("Send() failed: %v", err)
	}

	for i, ch := range []<-chan []byte{ch1, ch2} {
		select {
		case msg := <-ch:
			if string(msg) != "test message" {
				t.Errorf("subscriber %d got message %q, want %q", i+1, string(msg), "test message")
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("subscriber %d got nothing", i+1)
		}
	}
}

func TestSoloBusOtherTopicIsQuiet(t *testing.T) {
	bus, err := NewSolo()
	if err != nil {
		t.Fatalf("NewSolo() failed: %v", err)
	}

	ch, unsub := bus.Subscribe("topic")
	defer unsub()
	if err := bus.Send("other", []byte("x")); err != nil {
		t.Fatalf("Send() failed: %v", err)
	}

	select {
	case msg := <-ch:
		t.Errorf("unexpected message %q", string(msg))
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSoloBusConcurrent(t *testing.T) {
	bus, err := NewSolo()
	if err != nil {
		t.Fatalf("NewSolo() failed: %v", err)
	}

	const numRoutines = 10
	var wg sync.WaitGroup
	wg.Add(numRoutines)

	for i := 0; i < numRoutines; i++ {
		go func() {
			defer wg.Done()
			ctx := context.Background()
			lock, err := bus.Lock(ctx, "shared", time.Second)
			if err == nil {
				time.Sleep(10 * time.Millisecond)
				lock.Unlock()
			}
		}()
	}

	wg.Wait()
}

func TestSoloBusExpiredLockCancelsContext(t *testing.T) {
	bus, err := NewSolo()
	if err != nil {
		t.Fatalf("NewSolo() failed: %v", err)
	}
	defer bus.Close()

	lock, err := bus.Lock(context.Background(), "refresh/orders", 100*time.Millisecond)
	if err != nil {
		t.Fatalf("Lock() failed: %v", err)
	}

	select {
	case <-lock.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("expired lock context was not cancelled")
	}

	if err := lock.KeepAlive(); !errors.Is(err, ErrNotLocked) {
		t.Errorf("KeepAlive() on expired lock = %v, want ErrNotLocked", err)
	}
	// unlocking a stale lock must not release a newer holder
	lock2, err := bus.Lock(context.Background(), "refresh/orders", time.Second)
	if err != nil {
		t.Fatalf("Lock() after expiry failed: %v", err)
	}
	lock.Unlock()
	if _, err := bus.Lock(context.Background(), "refresh/orders", time.Second); !errors.Is(err, ErrLocked) {
		t.Errorf("stale Unlock released the new holder, Lock() = %v", err)
	}
	lock2.Unlock()
}

func TestSoloBusSubscribeFanOut(t *testing.T) {
	bus, err := NewSolo()
	if err != nil {
		t.Fatalf("NewSolo() failed: %v", err)
	}

	a, unsubA := bus.Subscribe("orders.changed")
	b, unsubB := bus.Subscribe("orders.changed")
	other, unsubOther := bus.Subscribe("plans.changed")
	defer unsubOther()

	if err := bus.Send("orders.changed", []byte("o1")); err != nil {
		t.Fatalf("Send() failed: %v", err)
	}

	for name, ch := range map[string]<-chan []byte{"a": a, "b": b} {
		select {
		case msg := <-ch:
			if string(msg) != "o1" {
				t.Errorf("%s got %q, want %q", name, msg, "o1")
			}
		case <-time.After(time.Second):
			t.Errorf("%s got nothing", name)
		}
	}

	select {
	case msg := <-other:
		t.Errorf("other topic got %q", msg)
	default:
	}

	unsubA()
	unsubA()
	if _, ok := <-a; ok {
		t.Error("channel still open after unsubscribe")
	}
	unsubB()
}

func TestSoloBusClose(t *testing.T) {
	bus, err := NewSolo()
	if err != nil {
		t.Fatalf("NewSolo() failed: %v", err)
	}

	ch, unsub := bus.Subscribe("topic")
	if err := bus.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	unsub()

	if _, ok := <-ch; ok {
		t.Error("subscription survived Close()")
	}
	if err := bus.Send("topic", nil); !errors.Is(err, ErrClosed) {
		t.Errorf("Send() after Close() = %v, want ErrClosed", err)
	}
	if _, err := bus.Lock(context.Background(), "k", time.Second); !errors.Is(err, ErrClosed) {
		t.Errorf("Lock() after Close() = %v, want ErrClosed", err)
	}
}
