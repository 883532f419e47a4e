package credits

import (
	"path/filepath"
	"testing"

	"github.com/cuemby/mudforge/pkg/muderrs"
	"github.com/cuemby/mudforge/pkg/store"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return New("u1", st)
}

func TestBalanceDefaultsToZero(t *testing.T) {
	l := newTestLedger(t)
	bal, err := l.Balance("p1")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if bal != 0 {
		t.Fatalf("expected 0, got %d", bal)
	}
}

func TestGrantThenDeduct(t *testing.T) {
	l := newTestLedger(t)
	if _, err := l.Grant("p1", 100); err != nil {
		t.Fatalf("grant: %v", err)
	}
	bal, err := l.Deduct("p1", 40, "llm_chat")
	if err != nil {
		t.Fatalf("deduct: %v", err)
	}
	if bal != 60 {
		t.Fatalf("expected 60, got %d", bal)
	}
}

func TestDeductRejectsOverdraft(t *testing.T) {
	l := newTestLedger(t)
	if _, err := l.Grant("p1", 10); err != nil {
		t.Fatalf("grant: %v", err)
	}
	_, err := l.Deduct("p1", 50, "llm_image")
	ic, ok := err.(*muderrs.InsufficientCredits)
	if !ok {
		t.Fatalf("expected InsufficientCredits, got %v", err)
	}
	if ic.Have != 10 || ic.Need != 50 {
		t.Fatalf("expected Have=10 Need=50, got %+v", ic)
	}
	bal, _ := l.Balance("p1")
	if bal != 10 {
		t.Fatalf("expected balance unchanged at 10, got %d", bal)
	}
}

func TestLedgersAreUniverseScoped(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	l1 := New("u1", st)
	l2 := New("u2", st)

	if _, err := l1.Grant("p1", 50); err != nil {
		t.Fatalf("grant: %v", err)
	}
	bal, err := l2.Balance("p1")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if bal != 0 {
		t.Fatalf("expected universe-scoped balance of 0, got %d", bal)
	}
}
