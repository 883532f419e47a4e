package classes

import (
	"path/filepath"
	"testing"

	"github.com/cuemby/mudforge/pkg/muderrs"
	"github.com/cuemby/mudforge/pkg/store"
	"github.com/cuemby/mudforge/pkg/types"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return New("u1", st)
}

func TestBuiltinChainResolves(t *testing.T) {
	r := newTestRegistry(t)
	chain, err := r.Chain("player")
	if err != nil {
		t.Fatalf("chain: %v", err)
	}
	want := []string{"player", "living", "thing"}
	if len(chain) != len(want) {
		t.Fatalf("expected %v, got %v", want, chain)
	}
	for i := range want {
		if chain[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, chain)
		}
	}
}

func TestDefineCustomClass(t *testing.T) {
	r := newTestRegistry(t)
	err := r.Define("sword", "weapon", map[string]types.PropertySpec{
		"damage": {Type: "int", Default: float64(5)},
	}, map[string]bool{"on_wield": true})
	if err != nil {
		t.Fatalf("define: %v", err)
	}

	chain, err := r.Chain("sword")
	if err != nil {
		t.Fatalf("chain: %v", err)
	}
	want := []string{"sword", "weapon", "item", "thing"}
	if len(chain) != len(want) {
		t.Fatalf("expected %v, got %v", want, chain)
	}
}

func TestDefineRejectsBuiltinName(t *testing.T) {
	r := newTestRegistry(t)
	err := r.Define("thing", "item", nil, nil)
	if _, ok := err.(*muderrs.BuiltinLocked); !ok {
		t.Fatalf("expected BuiltinLocked, got %v", err)
	}
}

func TestDefineRejectsRedefinition(t *testing.T) {
	r := newTestRegistry(t)
	if err := r.Define("sword", "weapon", nil, nil); err != nil {
		t.Fatalf("define: %v", err)
	}
	err := r.Define("sword", "weapon", nil, nil)
	if _, ok := err.(*muderrs.ClassRedefine); !ok {
		t.Fatalf("expected ClassRedefine, got %v", err)
	}
}

func TestDefineRejectsMissingParent(t *testing.T) {
	r := newTestRegistry(t)
	err := r.Define("sword", "nonexistent", nil, nil)
	if _, ok := err.(*muderrs.MissingParent); !ok {
		t.Fatalf("expected MissingParent, got %v", err)
	}
}

func TestGetUnknownClass(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.Get("nonexistent")
	if _, ok := err.(*muderrs.UnknownClass); !ok {
		t.Fatalf("expected UnknownClass, got %v", err)
	}
}

func TestIsA(t *testing.T) {
	r := newTestRegistry(t)
	if err := r.Define("sword", "weapon", nil, nil); err != nil {
		t.Fatalf("define: %v", err)
	}
	ok, err := r.IsA("sword", "item")
	if err != nil {
		t.Fatalf("isa: %v", err)
	}
	if !ok {
		t.Fatal("expected sword IsA item")
	}
	ok, err = r.IsA("sword", "room")
	if err != nil {
		t.Fatalf("isa: %v", err)
	}
	if ok {
		t.Fatal("expected sword not IsA room")
	}
}

func TestResolvePropertiesLayersChainThenOverrides(t *testing.T) {
	r := newTestRegistry(t)
	if err := r.Define("weapon2", "weapon", map[string]types.PropertySpec{
		"damage": {Type: "int", Default: float64(1)},
	}, nil); err != nil {
		t.Fatalf("define weapon2: %v", err)
	}
	if err := r.Define("sword", "weapon2", map[string]types.PropertySpec{
		"damage": {Type: "int", Default: float64(5)},
		"weight": {Type: "int", Default: float64(3)},
	}, nil); err != nil {
		t.Fatalf("define sword: %v", err)
	}

	resolved, err := r.ResolveProperties("sword", map[string]any{"weight": float64(10)})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved["damage"].(float64) != 5 {
		t.Fatalf("expected subclass default 5 to win over ancestor's 1, got %v", resolved["damage"])
	}
	if resolved["weight"].(float64) != 10 {
		t.Fatalf("expected override 10 to win over class default 3, got %v", resolved["weight"])
	}
}

func TestHandlerChainCollectsRootFirstAndDedupes(t *testing.T) {
	r := newTestRegistry(t)
	if err := r.Define("weapon2", "weapon", nil, map[string]bool{"on_wield": true}); err != nil {
		t.Fatalf("define weapon2: %v", err)
	}
	if err := r.Define("sword", "weapon2", nil, map[string]bool{"on_wield": true, "on_swing": true}); err != nil {
		t.Fatalf("define sword: %v", err)
	}

	handlers, err := r.HandlerChain("sword")
	if err != nil {
		t.Fatalf("handler chain: %v", err)
	}
	seen := map[string]int{}
	for _, h := range handlers {
		seen[h]++
	}
	if seen["on_wield"] != 1 {
		t.Fatalf("expected on_wield deduped to 1 occurrence, got %d", seen["on_wield"])
	}
	if seen["on_swing"] != 1 {
		t.Fatalf("expected on_swing present once, got %d", seen["on_swing"])
	}
}
