package storage

import (
	"sync"
	"sync/atomic"
)

// The process-wide connection is created once, on first use, and shared by every
// caller that needs MongoDB access.
var (
	globalConnection     atomic.Pointer[Connection]
	globalConnectionOnce sync.Once
)

// InitGlobalConnection creates the process-wide Connection on the first call and
// returns it. Later calls return the same instance and ignore their arguments.
//
// Usage:
//
//	conn := storage.InitGlobalConnection(cfg.MongoDB.URI, storage.WithLogger(sugar))
//	if _, err := conn.EnsureConnected(ctx); err != nil {
//	    return err
//	}
func InitGlobalConnection(endpoint string, opts ...Option) *Connection {
	globalConnectionOnce.Do(func() {
		conn := NewConnection(endpoint, opts...)
		conn.publishState(conn.State())
		globalConnection.Store(conn)
	})
	return globalConnection.Load()
}

// GlobalConnection returns the process-wide Connection, or nil before InitGlobalConnection
func GlobalConnection() *Connection {
	return globalConnection.Load()
}
