package jsvm

import (
	"github.com/dop251/goja"
)

const (
	functionMarker = "[Function]"
	objectMarker   = "[Object]"
)

// formatter renders script values as text. It holds on to the runtime's
// original JSON.stringify so a snippet that reassigns JSON cannot change how
// its values are printed.
type formatter struct {
	vm        *goja.Runtime
	json      goja.Value
	stringify goja.Callable
}

func newFormatter(vm *goja.Runtime) *formatter {
	f := &formatter{vm: vm}
	if json := vm.Get("JSON"); json != nil {
		if obj, ok := json.(*goja.Object); ok {
			if fn, ok := goja.AssertFunction(obj.Get("stringify")); ok {
				f.json = obj
				f.stringify = fn
			}
		}
	}
	return f
}

// Format renders v the way console output shows it:
//
//	null              → "null"
//	undefined / nil   → "undefined"
//	string            → the string itself
//	function          → "[Function]"
//	object, array     → JSON with 2-space indentation, "[Object]" if that throws
//	other primitives  → default string conversion
//
// Format never panics.
func Format(vm *goja.Runtime, v goja.Value) string {
	return newFormatter(vm).format(v)
}

func (f *formatter) format(v goja.Value) (s string) {
	defer func() {
		if r := recover(); r != nil {
			s = objectMarker
		}
	}()

	if v == nil || goja.IsUndefined(v) {
		return "undefined"
	}
	if goja.IsNull(v) {
		return "null"
	}

	if sym, ok := v.(*goja.Symbol); ok {
		return "Symbol(" + sym.String() + ")"
	}

	obj, ok := v.(*goja.Object)
	if !ok {
		return v.String()
	}
	if _, isFunc := goja.AssertFunction(obj); isFunc {
		return functionMarker
	}
	return f.serialize(obj)
}

func (f *formatter) serialize(obj *goja.Object) string {
	if f.stringify == nil {
		return objectMarker
	}
	out, err := f.stringify(f.json, obj, goja.Null(), f.vm.ToValue(2))
	if err != nil {
		return objectMarker
	}
	if out == nil || goja.IsUndefined(out) {
		return "undefined"
	}
	return out.String()
}
