// Package session provides the per-client key-value store that backs browser
// sessions.
//
// Each client is identified by an opaque session id carried in a cookie. The
// store offers get/set/increment/flush semantics scoped to one session id, so
// no cross-client locking is ever needed. Redis and in-memory drivers live in
// this package behind the Store interface.
package session
