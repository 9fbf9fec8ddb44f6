// Package session implements the request/response and event multiplexing
// layer on top of a single message channel: request ID allocation,
// pending-call correlation, event subscription and dispatch, heartbeat via
// the underlying channel, and auto-reconnect with exponential backoff.
//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package session
