// Package sandbox runs user script code inside a fresh goja VM per
// execution, metered against spec §4.4's instruction/memory/wall-clock/
// oracle-call/store-query budgets.
package sandbox

import (
	"fmt"
	"runtime"
	"time"

	"github.com/dop251/goja"

	"github.com/cuemby/mudforge/pkg/muderrs"
)

// Limits are the metering budgets for one execution. Defaults per spec
// §4.4; wizard eval multiplies the first three by 10.
type Limits struct {
	Instructions int64
	MemoryBytes  uint64
	WallClock    time.Duration
	OracleCalls  int
	StoreQueries int
}

// DefaultLimits are the spec's non-privileged defaults.
var DefaultLimits = Limits{
	Instructions: 1_000_000,
	MemoryBytes:  64 * 1024 * 1024,
	WallClock:    500 * time.Millisecond,
	OracleCalls:  5,
	StoreQueries: 100,
}

// Privileged returns limits scaled 10x for wizard eval, per spec §4.4.
func Privileged() Limits {
	l := DefaultLimits
	l.Instructions *= 10
	l.MemoryBytes *= 10
	l.WallClock *= 10
	return l
}

// Budget tracks consumption against Limits during one execution. Host
// API calls increment OracleCalls/StoreQueries directly; the instruction
// counter is driven by the instrumented script's tick calls.
type Budget struct {
	limits       Limits
	instructions int64
	oracleCalls  int
	storeQueries int
}

// NewBudget creates a tracker for the given limits.
func NewBudget(limits Limits) *Budget { return &Budget{limits: limits} }

// ChargeOracleCall counts one ContentOracle call, returning
// ResourceExceeded once the budget is spent.
func (b *Budget) ChargeOracleCall() error {
	b.oracleCalls++
	if b.oracleCalls > b.limits.OracleCalls {
		return &muderrs.ResourceExceeded{Kind: muderrs.ResourceOracleCalls}
	}
	return nil
}

// ChargeStoreQuery counts one store read or write.
func (b *Budget) ChargeStoreQuery() error {
	b.storeQueries++
	if b.storeQueries > b.limits.StoreQueries {
		return &muderrs.ResourceExceeded{Kind: muderrs.ResourceStoreQueries}
	}
	return nil
}

// ExecContext is the implicit per-execution context injected as
// game.get_actor()/game.this_object() per spec §4.4.
type ExecContext struct {
	ActorID     string
	UniverseID  string
	ObjectID    string
	Verb        string
	CodeHash    string
	CommandSeq  int64
}

// Sandbox configures and runs one script execution.
type Sandbox struct {
	limits Limits
}

// New creates a Sandbox with the given limits.
func New(limits Limits) *Sandbox {
	return &Sandbox{limits: limits}
}

// HostBinder attaches the Host API surface (game.*) to a fresh runtime.
// Implemented by pkg/hostapi.
type HostBinder interface {
	Bind(rt *goja.Runtime, budget *Budget, execCtx ExecContext) error
}

// Result is what one execution produces.
type Result struct {
	Value   goja.Value
	Budget  *Budget
	Elapsed time.Duration
}

// Run executes source in a fresh, metered VM. source is instrumented
// with tick calls before compilation; host is bound before the script
// runs so game.* is available immediately.
func (s *Sandbox) Run(source string, host HostBinder, execCtx ExecContext) (*Result, error) {
	budget := NewBudget(s.limits)
	rt := goja.New()
	rt.SetMaxCallStackSize(256)

	if err := host.Bind(rt, budget, execCtx); err != nil {
		return nil, err
	}

	instructions := int64(0)
	if err := rt.Set(tickFn, func() {
		instructions++
		if instructions > s.limits.Instructions {
			panic(rt.NewGoError(&muderrs.ResourceExceeded{Kind: muderrs.ResourceInstructions}))
		}
	}); err != nil {
		return nil, err
	}

	stop := make(chan struct{})
	aborted := make(chan error, 1)
	deadline := time.Now().Add(s.limits.WallClock)

	go func() {
		ticker := time.NewTicker(2 * time.Millisecond)
		defer ticker.Stop()
		var mem runtime.MemStats
		for {
			select {
			case <-stop:
				return
			case now := <-ticker.C:
				if now.After(deadline) {
					rt.Interrupt(&muderrs.ResourceExceeded{Kind: muderrs.ResourceWallClock})
					select {
					case aborted <- &muderrs.ResourceExceeded{Kind: muderrs.ResourceWallClock}:
					default:
					}
					return
				}
				runtime.ReadMemStats(&mem)
				if mem.Alloc > s.limits.MemoryBytes {
					rt.Interrupt(&muderrs.ResourceExceeded{Kind: muderrs.ResourceMemory})
					select {
					case aborted <- &muderrs.ResourceExceeded{Kind: muderrs.ResourceMemory}:
					default:
					}
					return
				}
			}
		}
	}()

	started := time.Now()
	val, runErr := runInstrumented(rt, source)
	close(stop)

	if runErr != nil {
		select {
		case limitErr := <-aborted:
			return nil, limitErr
		default:
		}
		if exc, ok := runErr.(*goja.Exception); ok {
			if ge, ok := exc.Value().Export().(error); ok {
				return nil, ge
			}
			return nil, &muderrs.ScriptError{Message: exc.Error()}
		}
		return nil, &muderrs.ScriptError{Message: runErr.Error()}
	}

	return &Result{Value: val, Budget: budget, Elapsed: time.Since(started)}, nil
}

func runInstrumented(rt *goja.Runtime, source string) (val goja.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			if goErr, ok := r.(*goja.Object); ok {
				err = fmt.Errorf("%v", goErr)
				return
			}
			if e, ok := r.(error); ok {
				err = e
				return
			}
			panic(r)
		}
	}()
	return rt.RunString(instrument(source))
}
