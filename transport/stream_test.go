// File: transport/stream_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package transport_test

import (
	"net"
	"testing"
	"time"

	"github.com/corvidlabs/cdpgo/cdperr"
	"github.com/corvidlabs/cdpgo/transport"
)

// newPipeStream builds a transport.Stream over one end of a net.Pipe.
// Dial cannot target an in-memory pipe, so the client end is wrapped with
// FromConn instead; Stream only needs a net.Conn.
func newPipeStream(t *testing.T) (*transport.Stream, net.Conn) {
	t.Helper()
	client, server := net.Pipe()
	s := transport.FromConn(client)
	t.Cleanup(func() { client.Close(); server.Close() })
	return s, server
}

func TestStream_SendRecvRoundTrip(t *testing.T) {
	s, server := newPipeStream(t)

	go func() {
		buf := make([]byte, 5)
		server.Read(buf)
		server.Write(buf)
	}()

	if err := s.Send([]byte("hello"), 0); err != nil {
		t.Fatalf("send: %v", err)
	}
	buf := make([]byte, 5)
	if err := s.RecvExact(buf, time.Second); err != nil {
		t.Fatalf("recv exact: %v", err)
	}
	if string(buf) != "hello" {
		t.Fatalf("got %q, want %q", buf, "hello")
	}
}

func TestStream_RecvTimeout(t *testing.T) {
	s, _ := newPipeStream(t)
	buf := make([]byte, 4)
	err := s.RecvExact(buf, 20*time.Millisecond)
	if !cdperr.Is(err, cdperr.KindTimeout) {
		t.Fatalf("want KindTimeout, got %v", err)
	}
}

func TestStream_CloseIsErrorSafe(t *testing.T) {
	s, _ := newPipeStream(t)
	if err := s.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}
}
