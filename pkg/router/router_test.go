package router

import "testing"

type recordingSink struct {
	delivered []string
}

func (s *recordingSink) Deliver(actorID, text string) {
	s.delivered = append(s.delivered, actorID+":"+text)
}

type fakePresence struct {
	rooms   map[string][]string
	regions map[string][]string
}

func (f *fakePresence) ActorsInRoom(universe, roomID string) []string   { return f.rooms[roomID] }
func (f *fakePresence) ActorsInRegion(universe, regionID string) []string { return f.regions[regionID] }

func TestFlushDirectDeliversToOneActor(t *testing.T) {
	sink := &recordingSink{}
	r := New(&fakePresence{})
	r.Register("p1", sink)
	r.Flush(Batch{Universe: "u1", Messages: []Message{{Kind: KindDirect, TargetID: "p1", Text: "hi"}}})
	if len(sink.delivered) != 1 || sink.delivered[0] != "p1:hi" {
		t.Fatalf("unexpected delivery: %v", sink.delivered)
	}
}

func TestFlushRoomDeliversToEveryoneInRoomIncludingSender(t *testing.T) {
	p1, p2 := &recordingSink{}, &recordingSink{}
	r := New(&fakePresence{rooms: map[string][]string{"/room/1": {"p1", "p2"}}})
	r.Register("p1", p1)
	r.Register("p2", p2)
	r.Flush(Batch{Universe: "u1", Messages: []Message{{Kind: KindRoom, TargetID: "/room/1", Text: "hey"}}})
	if len(p1.delivered) != 1 || len(p2.delivered) != 1 {
		t.Fatalf("expected both actors to receive, got p1=%v p2=%v", p1.delivered, p2.delivered)
	}
}

func TestFlushRoomExceptSkipsExcludedActor(t *testing.T) {
	p1, p2 := &recordingSink{}, &recordingSink{}
	r := New(&fakePresence{rooms: map[string][]string{"/room/1": {"p1", "p2"}}})
	r.Register("p1", p1)
	r.Register("p2", p2)
	r.Flush(Batch{Universe: "u1", Messages: []Message{{Kind: KindRoomExcept, TargetID: "/room/1", ExceptID: "p1", Text: "hey"}}})
	if len(p1.delivered) != 0 {
		t.Fatalf("expected excluded actor to receive nothing, got %v", p1.delivered)
	}
	if len(p2.delivered) != 1 {
		t.Fatalf("expected p2 to receive, got %v", p2.delivered)
	}
}

func TestFlushRegionDeliversToActorsInRegion(t *testing.T) {
	p1 := &recordingSink{}
	r := New(&fakePresence{regions: map[string][]string{"/region/1": {"p1"}}})
	r.Register("p1", p1)
	r.Flush(Batch{Universe: "u1", Messages: []Message{{Kind: KindRegion, TargetID: "/region/1", Text: "quake"}}})
	if len(p1.delivered) != 1 {
		t.Fatalf("expected delivery, got %v", p1.delivered)
	}
}

func TestSendToUnregisteredActorIsNoop(t *testing.T) {
	r := New(&fakePresence{})
	r.Flush(Batch{Universe: "u1", Messages: []Message{{Kind: KindDirect, TargetID: "ghost", Text: "hi"}}})
}

func TestUnregisterStopsDelivery(t *testing.T) {
	sink := &recordingSink{}
	r := New(&fakePresence{})
	r.Register("p1", sink)
	r.Unregister("p1")
	r.Flush(Batch{Universe: "u1", Messages: []Message{{Kind: KindDirect, TargetID: "p1", Text: "hi"}}})
	if len(sink.delivered) != 0 {
		t.Fatalf("expected no delivery after unregister, got %v", sink.delivered)
	}
}

func TestConnectedAndConnectedCount(t *testing.T) {
	r := New(&fakePresence{})
	if r.Connected("p1") {
		t.Fatal("expected not connected before register")
	}
	r.Register("p1", &recordingSink{})
	r.Register("p2", &recordingSink{})
	if !r.Connected("p1") {
		t.Fatal("expected connected after register")
	}
	if r.ConnectedCount() != 2 {
		t.Fatalf("expected count 2, got %d", r.ConnectedCount())
	}
}

func TestRegisterReplacesPreviousSinkOnReconnect(t *testing.T) {
	old, fresh := &recordingSink{}, &recordingSink{}
	r := New(&fakePresence{})
	r.Register("p1", old)
	r.Register("p1", fresh)
	r.Flush(Batch{Universe: "u1", Messages: []Message{{Kind: KindDirect, TargetID: "p1", Text: "hi"}}})
	if len(old.delivered) != 0 {
		t.Fatalf("expected old sink to receive nothing, got %v", old.delivered)
	}
	if len(fresh.delivered) != 1 {
		t.Fatalf("expected fresh sink to receive, got %v", fresh.delivered)
	}
}
