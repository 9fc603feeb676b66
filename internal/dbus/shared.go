package dbus

import (
	"sync"

	"github.com/godbus/dbus/v5"
)

// SharedConn is the session bus handle shared by every task. Setup operations
// (match rules, signal channel registration, object handles) go through a
// try-lock: if the handle is busy they fail immediately with
// LockContentionError instead of waiting. Property calls on the returned
// BusObjects do not take the lock.
type SharedConn struct {
	mu   sync.Mutex
	conn *dbus.Conn
}

// ConnectSession opens a shared handle to the session bus.
func ConnectSession() (*SharedConn, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, err
	}
	return Wrap(conn), nil
}

// Wrap shares an existing connection.
func Wrap(conn *dbus.Conn) *SharedConn {
	return &SharedConn{conn: conn}
}

// WithLock runs fn with exclusive access to the connection, failing fast with
// LockContentionError when the handle is currently held. fn must not block on
// the bus longer than a single call; the lock is held for its whole duration.
func (s *SharedConn) WithLock(op string, fn func(*dbus.Conn) error) error {
	if !s.mu.TryLock() {
		return &LockContentionError{Op: op}
	}
	defer s.mu.Unlock()
	return fn(s.conn)
}

// Object returns a proxy object for the given destination and path.
func (s *SharedConn) Object(dest, path string) (dbus.BusObject, error) {
	var obj dbus.BusObject
	err := s.WithLock("create proxy "+dest, func(conn *dbus.Conn) error {
		obj = conn.Object(dest, dbus.ObjectPath(path))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return obj, nil
}

// BusObject returns a proxy for the message bus itself.
func (s *SharedConn) BusObject() (dbus.BusObject, error) {
	return s.Object(DBUS_INTERFACE, DBUS_PATH)
}

// AddMatch subscribes to signals matching rule.
func (s *SharedConn) AddMatch(rule string) error {
	return s.WithLock("add match rule", func(conn *dbus.Conn) error {
		return CallWithTimeout(conn.BusObject().Call(BUS_ADD_MATCH, 0, rule))
	})
}

// RemoveMatch removes a previously added match rule.
func (s *SharedConn) RemoveMatch(rule string) error {
	return s.WithLock("remove match rule", func(conn *dbus.Conn) error {
		return CallWithTimeout(conn.BusObject().Call(BUS_REMOVE_MATCH, 0, rule))
	})
}

// Signal registers ch to receive matched signals.
func (s *SharedConn) Signal(ch chan<- *dbus.Signal) error {
	return s.WithLock("register signal channel", func(conn *dbus.Conn) error {
		conn.Signal(ch)
		return nil
	})
}

// RemoveSignal unregisters ch. Unlike setup, teardown waits for the lock so a
// stopping watcher never leaves its channel registered.
func (s *SharedConn) RemoveSignal(ch chan<- *dbus.Signal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.RemoveSignal(ch)
}

// Close closes the underlying connection.
func (s *SharedConn) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.Close()
}
