package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/cuemby/mudforge/pkg/muderrs"
	"github.com/cuemby/mudforge/pkg/types"
)

// openTestStore opens a fresh on-disk store and seeds an "owner-1" account
// and "u1" universe: objects.universe_id is a foreign key into universes,
// so every object/timer test needs a real universe row to hang off of.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	insertTestAccount(t, s, "owner-1")
	if err := s.PutUniverse(&types.Universe{ID: "u1", Name: "Test Universe", OwnerID: "owner-1", Config: map[string]any{}, CreatedAt: time.Now()}); err != nil {
		t.Fatalf("seed universe: %v", err)
	}
	return s
}

// insertTestAccount writes an accounts row directly via raw SQL: store.go
// exposes no PutAccount (account creation belongs to the session gateway's
// auth flow), but universes.owner_id is a foreign key into accounts, so
// universe/object tests need a row to reference.
func insertTestAccount(t *testing.T, s *Store, id string) {
	t.Helper()
	_, err := s.DB().Exec(`INSERT INTO accounts (id, username, password_hash, salt, access_level, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, id, "hash", "salt", "player", time.Now().UnixMilli())
	if err != nil {
		t.Fatalf("insert test account: %v", err)
	}
}

func strPtr(s string) *string { return &s }

func TestPutGetObject(t *testing.T) {
	s := openTestStore(t)
	now := time.Now()
	obj := &types.Object{
		ID: "/room/1", Universe: "u1", Class: "room", Parent: nil,
		Name: "A room", Description: "an empty room",
		Properties: map[string]any{"lit": true},
		CreatedAt:  now, UpdatedAt: now,
	}
	if err := s.PutObject(obj); err != nil {
		t.Fatalf("put object: %v", err)
	}

	got, err := s.GetObject("u1", "/room/1")
	if err != nil {
		t.Fatalf("get object: %v", err)
	}
	if got.Name != "A room" || got.Class != "room" {
		t.Fatalf("unexpected object: %+v", got)
	}
	if lit, _ := got.Properties["lit"].(bool); !lit {
		t.Fatalf("expected lit=true, got %+v", got.Properties)
	}
}

func TestGetObjectMissing(t *testing.T) {
	s := openTestStore(t)
	_, err := s.GetObject("u1", "/nope")
	if _, ok := err.(*muderrs.NotFound); !ok {
		t.Fatalf("expected NotFound, got %v (%T)", err, err)
	}
}

func TestPutObjectUpsertUpdatesFields(t *testing.T) {
	s := openTestStore(t)
	now := time.Now()
	obj := &types.Object{ID: "/a", Universe: "u1", Class: "thing", Name: "orig", CreatedAt: now, UpdatedAt: now, Properties: map[string]any{}}
	if err := s.PutObject(obj); err != nil {
		t.Fatalf("put: %v", err)
	}
	obj.Name = "renamed"
	obj.UpdatedAt = now.Add(time.Second)
	if err := s.PutObject(obj); err != nil {
		t.Fatalf("re-put: %v", err)
	}
	got, err := s.GetObject("u1", "/a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "renamed" {
		t.Fatalf("expected renamed, got %q", got.Name)
	}
}

func TestChildrenOf(t *testing.T) {
	s := openTestStore(t)
	now := time.Now()
	parent := strPtr("/room/1")
	for _, id := range []string{"/room/1/a", "/room/1/b"} {
		o := &types.Object{ID: id, Universe: "u1", Class: "item", Parent: parent, CreatedAt: now, UpdatedAt: now, Properties: map[string]any{}}
		if err := s.PutObject(o); err != nil {
			t.Fatalf("put %s: %v", id, err)
		}
	}
	kids, err := s.ChildrenOf("u1", "/room/1")
	if err != nil {
		t.Fatalf("children: %v", err)
	}
	if len(kids) != 2 {
		t.Fatalf("expected 2 children, got %d", len(kids))
	}
}

func TestDeleteObjectCascadesTimers(t *testing.T) {
	s := openTestStore(t)
	now := time.Now()
	obj := &types.Object{ID: "/a", Universe: "u1", Class: "thing", CreatedAt: now, UpdatedAt: now, Properties: map[string]any{}}
	if err := s.PutObject(obj); err != nil {
		t.Fatalf("put: %v", err)
	}
	timer := &types.Timer{ID: "t1", Universe: "u1", ObjectID: "/a", Method: "tick", FireAt: 100, Args: []any{}, CreatedAt: now}
	if err := s.PutTimer(timer); err != nil {
		t.Fatalf("put timer: %v", err)
	}

	if err := s.DeleteObject("u1", "/a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetObject("u1", "/a"); err == nil {
		t.Fatal("expected object gone")
	}
	timers, err := s.LoadPendingTimers("u1")
	if err != nil {
		t.Fatalf("load timers: %v", err)
	}
	if len(timers) != 0 {
		t.Fatalf("expected cascade-deleted timers, got %d", len(timers))
	}
}

func TestDeleteObjectMissingReturnsNotFound(t *testing.T) {
	s := openTestStore(t)
	err := s.DeleteObject("u1", "/nope")
	if _, ok := err.(*muderrs.NotFound); !ok {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestCountObjectsByClass(t *testing.T) {
	s := openTestStore(t)
	now := time.Now()
	ids := []string{"/a", "/b", "/c"}
	classes := []string{"room", "room", "item"}
	for i, class := range classes {
		o := &types.Object{ID: ids[i], Universe: "u1", Class: class, CreatedAt: now, UpdatedAt: now, Properties: map[string]any{}}
		if err := s.PutObject(o); err != nil {
			t.Fatalf("put: %v", err)
		}
	}
	counts, err := s.CountObjectsByClass()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if counts["room"] != 2 || counts["item"] != 1 {
		t.Fatalf("unexpected counts: %+v", counts)
	}
}

func TestPutGetClassWithPropertiesAndHandlers(t *testing.T) {
	s := openTestStore(t)
	parent := strPtr("thing")
	c := &types.ClassDef{
		Name: "sword", Universe: "u1", ParentName: parent,
		PropertyDefaults: map[string]types.PropertySpec{
			"damage": {Type: "int", Default: float64(5)},
		},
		HandlerNames: map[string]bool{"on_wield": true},
		CreatedAt:    time.Now(),
	}
	if err := s.PutClass(c); err != nil {
		t.Fatalf("put class: %v", err)
	}

	got, err := s.GetClass("u1", "sword")
	if err != nil {
		t.Fatalf("get class: %v", err)
	}
	if got.ParentName == nil || *got.ParentName != "thing" {
		t.Fatalf("unexpected parent: %+v", got.ParentName)
	}
	spec, ok := got.PropertyDefaults["damage"]
	if !ok || spec.Type != "int" {
		t.Fatalf("unexpected property defaults: %+v", got.PropertyDefaults)
	}
	if !got.HandlerNames["on_wield"] {
		t.Fatalf("expected on_wield handler, got %+v", got.HandlerNames)
	}
}

func TestPutClassOverwritesPropertiesAndHandlers(t *testing.T) {
	s := openTestStore(t)
	c := &types.ClassDef{
		Name: "npc", Universe: "u1",
		PropertyDefaults: map[string]types.PropertySpec{"hp": {Type: "int", Default: float64(10)}},
		HandlerNames:     map[string]bool{"on_attack": true},
		CreatedAt:        time.Now(),
	}
	if err := s.PutClass(c); err != nil {
		t.Fatalf("put: %v", err)
	}
	c.PropertyDefaults = map[string]types.PropertySpec{"hp": {Type: "int", Default: float64(20)}}
	c.HandlerNames = map[string]bool{"on_death": true}
	if err := s.PutClass(c); err != nil {
		t.Fatalf("re-put: %v", err)
	}

	got, err := s.GetClass("u1", "npc")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.HandlerNames) != 1 || !got.HandlerNames["on_death"] {
		t.Fatalf("expected stale handlers replaced, got %+v", got.HandlerNames)
	}
	if got.PropertyDefaults["hp"].Default.(float64) != 20 {
		t.Fatalf("expected updated default, got %+v", got.PropertyDefaults["hp"])
	}
}

func TestGetClassMissing(t *testing.T) {
	s := openTestStore(t)
	_, err := s.GetClass("u1", "nope")
	if _, ok := err.(*muderrs.UnknownClass); !ok {
		t.Fatalf("expected UnknownClass, got %v", err)
	}
}

func TestCountClasses(t *testing.T) {
	s := openTestStore(t)
	for _, name := range []string{"sword", "shield"} {
		c := &types.ClassDef{Name: name, Universe: "u1", PropertyDefaults: map[string]types.PropertySpec{}, HandlerNames: map[string]bool{}, CreatedAt: time.Now()}
		if err := s.PutClass(c); err != nil {
			t.Fatalf("put: %v", err)
		}
	}
	n, err := s.CountClasses()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 classes, got %d", n)
	}
}

func TestPutGetCodeIdempotent(t *testing.T) {
	s := openTestStore(t)
	if err := s.PutCode("h1", "source one"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.PutCode("h1", "ignored on conflict"); err != nil {
		t.Fatalf("re-put: %v", err)
	}
	src, err := s.GetCode("h1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if src != "source one" {
		t.Fatalf("expected original source preserved, got %q", src)
	}
}

func TestGetCodeMissing(t *testing.T) {
	s := openTestStore(t)
	_, err := s.GetCode("nope")
	if _, ok := err.(*muderrs.NotFound); !ok {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestAdjustCodeRefCountAndSweep(t *testing.T) {
	s := openTestStore(t)
	if err := s.PutCode("h1", "src"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.AdjustCodeRefCount("h1", 1); err != nil {
		t.Fatalf("adjust up: %v", err)
	}
	if err := s.AdjustCodeRefCount("h1", -1); err != nil {
		t.Fatalf("adjust down: %v", err)
	}

	n, err := s.SweepCode(-time.Hour) // negative grace: everything is "old enough"
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 entry swept, got %d", n)
	}
	if _, err := s.GetCode("h1"); err == nil {
		t.Fatal("expected code entry gone after sweep")
	}
}

func TestSweepCodeSparesReferencedEntries(t *testing.T) {
	s := openTestStore(t)
	if err := s.PutCode("h1", "src"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.AdjustCodeRefCount("h1", 1); err != nil {
		t.Fatalf("adjust: %v", err)
	}
	n, err := s.SweepCode(-time.Hour)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected referenced entry spared, got %d swept", n)
	}
}

func TestCountCodeEntries(t *testing.T) {
	s := openTestStore(t)
	for _, h := range []string{"h1", "h2"} {
		if err := s.PutCode(h, "src"); err != nil {
			t.Fatalf("put: %v", err)
		}
	}
	n, err := s.CountCodeEntries()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2, got %d", n)
	}
}

func TestGetBalanceDefaultsToZero(t *testing.T) {
	s := openTestStore(t)
	bal, err := s.GetBalance("u1", "p1")
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if bal != 0 {
		t.Fatalf("expected 0, got %d", bal)
	}
}

func TestAdjustBalanceGrantAndDeduct(t *testing.T) {
	s := openTestStore(t)
	bal, err := s.AdjustBalance("u1", "p1", 100)
	if err != nil {
		t.Fatalf("grant: %v", err)
	}
	if bal != 100 {
		t.Fatalf("expected 100, got %d", bal)
	}
	bal, err = s.AdjustBalance("u1", "p1", -40)
	if err != nil {
		t.Fatalf("deduct: %v", err)
	}
	if bal != 60 {
		t.Fatalf("expected 60, got %d", bal)
	}
}

func TestAdjustBalanceRejectsOverdraft(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.AdjustBalance("u1", "p1", 10); err != nil {
		t.Fatalf("grant: %v", err)
	}
	_, err := s.AdjustBalance("u1", "p1", -50)
	ic, ok := err.(*muderrs.InsufficientCredits)
	if !ok {
		t.Fatalf("expected InsufficientCredits, got %v", err)
	}
	if ic.Have != 10 || ic.Need != 50 {
		t.Fatalf("unexpected InsufficientCredits fields: %+v", ic)
	}
	// Balance must be unchanged after a rejected deduction.
	bal, err := s.GetBalance("u1", "p1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if bal != 10 {
		t.Fatalf("expected balance unchanged at 10, got %d", bal)
	}
}

func TestAllCredits(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.AdjustBalance("u1", "p1", 5); err != nil {
		t.Fatalf("grant: %v", err)
	}
	if _, err := s.AdjustBalance("u1", "p2", 7); err != nil {
		t.Fatalf("grant: %v", err)
	}
	all, err := s.AllCredits("u1")
	if err != nil {
		t.Fatalf("all credits: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 balances, got %d", len(all))
	}
}

func TestPutAndDeleteTimer(t *testing.T) {
	s := openTestStore(t)
	now := time.Now()
	timer := &types.Timer{ID: "t1", Universe: "u1", ObjectID: "/a", Method: "tick", FireAt: 500, Args: []any{"x"}, CreatedAt: now}
	if err := s.PutTimer(timer); err != nil {
		t.Fatalf("put: %v", err)
	}
	loaded, err := s.LoadPendingTimers("u1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 1 || loaded[0].Method != "tick" {
		t.Fatalf("unexpected timers: %+v", loaded)
	}
	if len(loaded[0].Args) != 1 || loaded[0].Args[0].(string) != "x" {
		t.Fatalf("unexpected args: %+v", loaded[0].Args)
	}

	if err := s.DeleteTimer("u1", "t1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	loaded, err = s.LoadPendingTimers("u1")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(loaded) != 0 {
		t.Fatalf("expected no timers left, got %d", len(loaded))
	}
}

func TestAllTimersIsAliasOfLoadPendingTimers(t *testing.T) {
	s := openTestStore(t)
	timer := &types.Timer{ID: "t1", Universe: "u1", ObjectID: "/a", Method: "tick", FireAt: 1, Args: []any{}, CreatedAt: time.Now()}
	if err := s.PutTimer(timer); err != nil {
		t.Fatalf("put: %v", err)
	}
	all, err := s.AllTimers("u1")
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1, got %d", len(all))
	}
}

func TestPutAndGetGrants(t *testing.T) {
	s := openTestStore(t)
	g := &types.PathGrant{ID: "g1", Universe: "u1", GranteeID: "p1", PathPrefix: "/room", CanDelegate: true, GrantedBy: "owner", GrantedAt: time.Now()}
	if err := s.PutGrant(g); err != nil {
		t.Fatalf("put: %v", err)
	}
	grants, err := s.GrantsFor("u1", "p1")
	if err != nil {
		t.Fatalf("grants for: %v", err)
	}
	if len(grants) != 1 || grants[0].PathPrefix != "/room" || !grants[0].CanDelegate {
		t.Fatalf("unexpected grants: %+v", grants)
	}

	all, err := s.AllGrants("u1")
	if err != nil {
		t.Fatalf("all grants: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 grant, got %d", len(all))
	}
}

func TestPutAndAllUniverses(t *testing.T) {
	s := openTestStore(t)
	insertTestAccount(t, s, "owner-2")
	u := &types.Universe{ID: "u2", Name: "Test World", OwnerID: "owner-2", Config: map[string]any{"theme": "fantasy"}, CreatedAt: time.Now()}
	if err := s.PutUniverse(u); err != nil {
		t.Fatalf("put: %v", err)
	}
	all, err := s.AllUniverses()
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 universes (the seeded one plus u2), got %d", len(all))
	}
	var found *types.Universe
	for _, u := range all {
		if u.ID == "u2" {
			found = u
		}
	}
	if found == nil || found.Name != "Test World" {
		t.Fatalf("expected to find u2 with name Test World, got %+v", all)
	}
	if theme, _ := found.Config["theme"].(string); theme != "fantasy" {
		t.Fatalf("unexpected config: %+v", found.Config)
	}
}

func TestPutUniverseUpsertUpdatesName(t *testing.T) {
	s := openTestStore(t)
	u := &types.Universe{ID: "u1", Name: "Old Name", OwnerID: "owner-1", Config: map[string]any{}, CreatedAt: time.Now()}
	if err := s.PutUniverse(u); err != nil {
		t.Fatalf("put: %v", err)
	}
	u.Name = "New Name"
	if err := s.PutUniverse(u); err != nil {
		t.Fatalf("re-put: %v", err)
	}
	all, err := s.AllUniverses()
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(all) != 1 || all[0].Name != "New Name" {
		t.Fatalf("expected updated name, got %+v", all)
	}
}

func TestAllObjectsAndAllClasses(t *testing.T) {
	s := openTestStore(t)
	now := time.Now()
	if err := s.PutObject(&types.Object{ID: "/a", Universe: "u1", Class: "thing", CreatedAt: now, UpdatedAt: now, Properties: map[string]any{}}); err != nil {
		t.Fatalf("put object: %v", err)
	}
	if err := s.PutClass(&types.ClassDef{Name: "thing", Universe: "u1", PropertyDefaults: map[string]types.PropertySpec{}, HandlerNames: map[string]bool{}, CreatedAt: now}); err != nil {
		t.Fatalf("put class: %v", err)
	}

	objs, err := s.AllObjects("u1")
	if err != nil {
		t.Fatalf("all objects: %v", err)
	}
	if len(objs) != 1 {
		t.Fatalf("expected 1 object, got %d", len(objs))
	}

	classes, err := s.AllClasses("u1")
	if err != nil {
		t.Fatalf("all classes: %v", err)
	}
	if len(classes) != 1 || classes[0].Name != "thing" {
		t.Fatalf("unexpected classes: %+v", classes)
	}
}

func TestAllCodeIsProcessWideNotUniverseScoped(t *testing.T) {
	s := openTestStore(t)
	if err := s.PutCode("h1", "src"); err != nil {
		t.Fatalf("put: %v", err)
	}
	all, err := s.AllCode()
	if err != nil {
		t.Fatalf("all code: %v", err)
	}
	if len(all) != 1 || all[0].Hash != "h1" {
		t.Fatalf("unexpected code entries: %+v", all)
	}
}

func TestAppendRaftLogEntryAndRecordVote(t *testing.T) {
	s := openTestStore(t)
	if err := s.AppendRaftLogEntry(1, 1, "command", []byte(`{"k":"v"}`), time.Now().UnixMilli()); err != nil {
		t.Fatalf("append: %v", err)
	}
	// Re-appending the same index should update in place, not conflict.
	if err := s.AppendRaftLogEntry(1, 2, "command", []byte(`{"k":"v2"}`), time.Now().UnixMilli()); err != nil {
		t.Fatalf("re-append: %v", err)
	}
	if err := s.RecordVote(2, "node-1", true); err != nil {
		t.Fatalf("record vote: %v", err)
	}
	if err := s.RecordVote(3, "node-1", false); err != nil {
		t.Fatalf("re-record vote: %v", err)
	}
}

func TestGetAccountMissing(t *testing.T) {
	s := openTestStore(t)
	_, err := s.GetAccount("nope")
	if _, ok := err.(*muderrs.NotFound); !ok {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestGetAccountFound(t *testing.T) {
	s := openTestStore(t)
	insertTestAccount(t, s, "acc-1")
	a, err := s.GetAccount("acc-1")
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if a.ID != "acc-1" || a.AccessLevel != types.AccessPlayer {
		t.Fatalf("unexpected account: %+v", a)
	}
}
