package dbus

import (
	"time"

	"github.com/godbus/dbus/v5"
)

// DefaultTimeout is the timeout used for all D-Bus calls.
var DefaultTimeout = 5 * time.Second

// CallWithTimeout executes a D-Bus call with the default timeout.
func CallWithTimeout(call *dbus.Call) error {
	done := make(chan error, 1)
	go func() { done <- call.Err }()
	select {
	case err := <-done:
		return err
	case <-time.After(DefaultTimeout):
		return &TimeoutError{}
	}
}

// GetProperty retrieves a single property from a D-Bus object.
func GetProperty(obj dbus.BusObject, iface, prop string) (dbus.Variant, error) {
	var v dbus.Variant
	call := obj.Call(PROP_GET, 0, iface, prop)
	if err := CallWithTimeout(call); err != nil {
		return dbus.Variant{}, err
	}
	if err := call.Store(&v); err != nil {
		return dbus.Variant{}, err
	}
	return v, nil
}

// SetProperty sets a single property on a D-Bus object.
func SetProperty(obj dbus.BusObject, iface, prop string, value interface{}) error {
	return CallWithTimeout(obj.Call(PROP_SET, 0, iface, prop, dbus.MakeVariant(value)))
}

// CallMethod calls a method on a D-Bus object with the default timeout.
func CallMethod(obj dbus.BusObject, method string, args ...interface{}) error {
	return CallWithTimeout(obj.Call(method, 0, args...))
}

// --- Variant extraction helpers ---

// ExtractString extracts a string from a dbus.Variant.
func ExtractString(v dbus.Variant) (string, bool) {
	val, ok := v.Value().(string)
	return val, ok
}

// ExtractBool extracts a bool from a dbus.Variant.
func ExtractBool(v dbus.Variant) (bool, bool) {
	val, ok := v.Value().(bool)
	return val, ok
}

// ExtractInt64 extracts an int64 from a dbus.Variant.
func ExtractInt64(v dbus.Variant) (int64, bool) {
	val, ok := v.Value().(int64)
	return val, ok
}

// ExtractFloat64 extracts a float64 from a dbus.Variant.
func ExtractFloat64(v dbus.Variant) (float64, bool) {
	val, ok := v.Value().(float64)
	return val, ok
}

// ExtractVariantMap extracts a map[string]dbus.Variant from a dbus.Variant.
func ExtractVariantMap(v dbus.Variant) (map[string]dbus.Variant, bool) {
	val, ok := v.Value().(map[string]dbus.Variant)
	return val, ok
}

// NameOwnerChange is a decoded NameOwnerChanged signal body.
type NameOwnerChange struct {
	Name     string
	OldOwner string
	NewOwner string
}

// ParseNameOwnerChanged decodes the (name, old_owner, new_owner) triple of a
// NameOwnerChanged signal.
func ParseNameOwnerChanged(sig *dbus.Signal) (NameOwnerChange, error) {
	if sig == nil {
		return NameOwnerChange{}, &SignalError{Reason: "nil signal"}
	}
	if len(sig.Body) < 3 {
		return NameOwnerChange{}, &SignalError{Reason: "NameOwnerChanged body too short"}
	}
	name, ok := sig.Body[0].(string)
	if !ok {
		return NameOwnerChange{}, &SignalError{Reason: "NameOwnerChanged name is not a string"}
	}
	oldOwner, _ := sig.Body[1].(string)
	newOwner, _ := sig.Body[2].(string)
	return NameOwnerChange{Name: name, OldOwner: oldOwner, NewOwner: newOwner}, nil
}
