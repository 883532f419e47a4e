package sandbox

import (
	"github.com/dop251/goja"

	"github.com/cuemby/mudforge/pkg/muderrs"
)

// CallHandler loads source into an already-bound, already-running
// runtime (as opposed to Run, which starts a fresh one) and calls the
// top-level function named handler with args, instrumented the same way
// Run's script body is so the call is metered against the execution's
// existing budget rather than a fresh one. found is false when source
// declares no such function — a silent no-op, not an error, since the
// class chain's handler walk can land on a source that predates a
// handler name added to a subclass.
func CallHandler(rt *goja.Runtime, source, handler string, args []interface{}) (val goja.Value, found bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
				return
			}
			panic(r)
		}
	}()

	if _, runErr := rt.RunString(instrument(source)); runErr != nil {
		return nil, false, wrapScriptErr(runErr)
	}

	fnVal := rt.Get(handler)
	if fnVal == nil || goja.IsUndefined(fnVal) {
		return nil, false, nil
	}
	fn, ok := goja.AssertFunction(fnVal)
	if !ok {
		return nil, false, nil
	}

	jsArgs := make([]goja.Value, len(args))
	for i, a := range args {
		jsArgs[i] = rt.ToValue(a)
	}
	val, callErr := fn(goja.Undefined(), jsArgs...)
	if callErr != nil {
		return nil, true, wrapScriptErr(callErr)
	}
	return val, true, nil
}

func wrapScriptErr(err error) error {
	if exc, ok := err.(*goja.Exception); ok {
		if ge, ok := exc.Value().Export().(error); ok {
			return ge
		}
		return &muderrs.ScriptError{Message: exc.Error()}
	}
	return &muderrs.ScriptError{Message: err.Error()}
}
