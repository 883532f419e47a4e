package sandbox

import (
	"testing"
	"time"

	"github.com/dop251/goja"

	"github.com/cuemby/mudforge/pkg/muderrs"
)

type noopHost struct{}

func (noopHost) Bind(rt *goja.Runtime, budget *Budget, execCtx ExecContext) error {
	return nil
}

func TestRunExecutesAndReturnsValue(t *testing.T) {
	sb := New(DefaultLimits)
	res, err := sb.Run("1 + 1;", noopHost{}, ExecContext{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Value.ToInteger() != 2 {
		t.Fatalf("expected 2, got %v", res.Value)
	}
}

func TestRunAbortsOnInstructionLimit(t *testing.T) {
	tight := Limits{Instructions: 5, MemoryBytes: DefaultLimits.MemoryBytes, WallClock: time.Second, OracleCalls: 5, StoreQueries: 100}
	sb := New(tight)
	_, err := sb.Run("var total = 0; for (var i = 0; i < 100000; i++) { total += i; }", noopHost{}, ExecContext{})
	if err == nil {
		t.Fatal("expected instruction limit to abort execution")
	}
	re, ok := err.(*muderrs.ResourceExceeded)
	if !ok {
		t.Fatalf("expected ResourceExceeded, got %v (%T)", err, err)
	}
	if re.Kind != muderrs.ResourceInstructions {
		t.Fatalf("expected instructions kind, got %s", re.Kind)
	}
}

func TestRunAbortsOnWallClock(t *testing.T) {
	tight := Limits{Instructions: 1 << 40, MemoryBytes: DefaultLimits.MemoryBytes, WallClock: 10 * time.Millisecond, OracleCalls: 5, StoreQueries: 100}
	sb := New(tight)
	_, err := sb.Run("while (true) {}", noopHost{}, ExecContext{})
	if err == nil {
		t.Fatal("expected wall-clock limit to abort execution")
	}
	re, ok := err.(*muderrs.ResourceExceeded)
	if !ok {
		t.Fatalf("expected ResourceExceeded, got %v (%T)", err, err)
	}
	if re.Kind != muderrs.ResourceWallClock {
		t.Fatalf("expected wall_clock kind, got %s", re.Kind)
	}
}

func TestRunPropagatesScriptError(t *testing.T) {
	sb := New(DefaultLimits)
	_, err := sb.Run("throw new Error('boom');", noopHost{}, ExecContext{})
	if err == nil {
		t.Fatal("expected error from thrown script exception")
	}
}

func TestPrivilegedLimitsScaleTenX(t *testing.T) {
	p := Privileged()
	if p.Instructions != DefaultLimits.Instructions*10 {
		t.Fatalf("expected instructions scaled 10x, got %d", p.Instructions)
	}
	if p.MemoryBytes != DefaultLimits.MemoryBytes*10 {
		t.Fatalf("expected memory scaled 10x, got %d", p.MemoryBytes)
	}
	if p.WallClock != DefaultLimits.WallClock*10 {
		t.Fatalf("expected wall clock scaled 10x, got %v", p.WallClock)
	}
	if p.OracleCalls != DefaultLimits.OracleCalls {
		t.Fatalf("expected oracle calls unscaled, got %d", p.OracleCalls)
	}
}

func TestBudgetChargeOracleCallExceeds(t *testing.T) {
	b := NewBudget(Limits{OracleCalls: 2})
	if err := b.ChargeOracleCall(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := b.ChargeOracleCall(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := b.ChargeOracleCall()
	re, ok := err.(*muderrs.ResourceExceeded)
	if !ok || re.Kind != muderrs.ResourceOracleCalls {
		t.Fatalf("expected oracle_calls ResourceExceeded, got %v", err)
	}
}

func TestBudgetChargeStoreQueryExceeds(t *testing.T) {
	b := NewBudget(Limits{StoreQueries: 1})
	if err := b.ChargeStoreQuery(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := b.ChargeStoreQuery()
	re, ok := err.(*muderrs.ResourceExceeded)
	if !ok || re.Kind != muderrs.ResourceStoreQueries {
		t.Fatalf("expected store_queries ResourceExceeded, got %v", err)
	}
}
