package gateway

import (
	"context"
	"testing"
	"time"
)

func TestSubmitAndReceiveCommand(t *testing.T) {
	g := NewInProcess(1)
	defer g.Close()

	cmd := Command{SessionID: "s1", ActorID: "p1", Universe: "u1", Text: "look"}
	if err := g.Submit(context.Background(), cmd); err != nil {
		t.Fatalf("submit: %v", err)
	}

	select {
	case got := <-g.Commands():
		if got != cmd {
			t.Fatalf("expected %+v, got %+v", cmd, got)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for command")
	}
}

func TestSubmitBlocksUntilContextCancelledWhenBufferFull(t *testing.T) {
	g := NewInProcess(1)
	defer g.Close()

	if err := g.Submit(context.Background(), Command{SessionID: "s1", Text: "first"}); err != nil {
		t.Fatalf("first submit: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := g.Submit(ctx, Command{SessionID: "s2", Text: "second"})
	if err == nil {
		t.Fatal("expected context deadline error when buffer is full")
	}
}

func TestDisconnectIsNoop(t *testing.T) {
	g := NewInProcess(1)
	defer g.Close()
	if err := g.Disconnect("s1"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestCloseClosesCommandChannel(t *testing.T) {
	g := NewInProcess(1)
	g.Close()
	_, ok := <-g.Commands()
	if ok {
		t.Fatal("expected channel to be closed")
	}
}
