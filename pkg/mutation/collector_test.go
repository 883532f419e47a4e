package mutation

import (
	"testing"

	"github.com/cuemby/mudforge/pkg/router"
)

func TestStageOrdersIntents(t *testing.T) {
	c := New("u1")
	c.Stage(KindCreate, "a")
	c.Stage(KindUpdate, "b")
	c.Stage(KindDelete, "c")

	intents := c.Intents()
	if len(intents) != 3 {
		t.Fatalf("expected 3 intents, got %d", len(intents))
	}
	wantKinds := []Kind{KindCreate, KindUpdate, KindDelete}
	for i, k := range wantKinds {
		if intents[i].Kind != k {
			t.Fatalf("intent %d: expected kind %q, got %q", i, k, intents[i].Kind)
		}
	}
}

func TestAbortDiscardsEverythingAndBlocksFurtherStaging(t *testing.T) {
	c := New("u1")
	c.Stage(KindCreate, "a")
	c.StageMessage(router.Message{Kind: router.KindDirect, TargetID: "p1", Text: "hi"})

	c.Abort()
	if !c.Aborted() {
		t.Fatal("expected Aborted() to be true after Abort")
	}
	if len(c.Intents()) != 0 {
		t.Fatalf("expected intents cleared after abort, got %d", len(c.Intents()))
	}
	if len(c.MessageBatch().Messages) != 0 {
		t.Fatalf("expected messages cleared after abort")
	}

	c.Stage(KindCreate, "b")
	c.StageMessage(router.Message{Kind: router.KindDirect, TargetID: "p1", Text: "late"})
	if len(c.Intents()) != 0 || len(c.MessageBatch().Messages) != 0 {
		t.Fatal("expected staging after Abort to be a no-op")
	}
}

func TestMessageBatchCarriesUniverse(t *testing.T) {
	c := New("u7")
	c.StageMessage(router.Message{Kind: router.KindRoom, TargetID: "room-1", Text: "hello"})

	batch := c.MessageBatch()
	if batch.Universe != "u7" {
		t.Fatalf("expected universe u7, got %q", batch.Universe)
	}
	if len(batch.Messages) != 1 || batch.Messages[0].Text != "hello" {
		t.Fatalf("unexpected messages: %+v", batch.Messages)
	}
}
