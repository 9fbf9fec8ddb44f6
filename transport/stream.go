// File: transport/stream.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package transport owns the raw TCP stream a session dials the loopback
// debugger over, adapted from the teacher's clientTransport: that type
// wrapped net.Conn behind a buffer-pooled, NUMA-aware api.Transport
// interface meant for a stress-test client exchanging many small frames
// concurrently with a benchmarking harness. A CDP client only ever has one
// reader task and one or more writer callers per socket, so this version
// drops the buffer pool and batch API and instead gives Send and Recv
// independent locks, so a blocked write never stalls a concurrent read.
package transport

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/corvidlabs/cdpgo/cdperr"
)

// recvBufferSize bounds how far RecvUntil/Peek may look ahead before giving
// up — generous enough for an HTTP/1.1 handshake response with a handful of
// headers, the only caller that currently needs more than a few bytes of
// lookahead.
const recvBufferSize = 64 * 1024

// Stream is a single TCP connection to the loopback debugger, safe for one
// concurrent writer and one concurrent reader (the common session shape: a
// reader task plus callers issuing sends). All reads — RecvInto, RecvExact,
// Peek, and RecvUntil — go through the same buffered reader, so bytes
// peeked or matched against a delimiter but not yet consumed stay available
// for whichever Stream method reads next; nothing peeked is ever dropped.
type Stream struct {
	conn net.Conn
	br   *bufio.Reader

	sendMu sync.Mutex
	recvMu sync.Mutex
}

// Dial opens a TCP connection to addr ("host:port"), using timeout as the
// bound for the connect itself.
func Dial(timeout time.Duration, addr string) (*Stream, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, cdperr.Wrap(cdperr.KindConnection, "dial "+addr, err)
	}
	return &Stream{conn: conn, br: bufio.NewReaderSize(conn, recvBufferSize)}, nil
}

// FromConn wraps an already-established net.Conn as a Stream, for callers
// that dial or accept the connection themselves (tests, or a future
// listener-side use).
func FromConn(conn net.Conn) *Stream {
	return &Stream{conn: conn, br: bufio.NewReaderSize(conn, recvBufferSize)}
}

// Conn exposes the underlying net.Conn, for callers that need the raw
// connection for something Stream itself doesn't wrap (setting socket
// options, logging the remote address).
func (s *Stream) Conn() net.Conn { return s.conn }

// Send writes buf in full, applying timeout as a write deadline if positive.
func (s *Stream) Send(buf []byte, timeout time.Duration) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	if timeout > 0 {
		_ = s.conn.SetWriteDeadline(time.Now().Add(timeout))
		defer s.conn.SetWriteDeadline(time.Time{})
	}
	if _, err := s.conn.Write(buf); err != nil {
		return cdperr.Wrap(cdperr.KindConnection, "write", err)
	}
	return nil
}

// RecvInto reads at least one byte into buf, returning the number read.
func (s *Stream) RecvInto(buf []byte, timeout time.Duration) (int, error) {
	s.recvMu.Lock()
	defer s.recvMu.Unlock()

	if timeout > 0 {
		_ = s.conn.SetReadDeadline(time.Now().Add(timeout))
		defer s.conn.SetReadDeadline(time.Time{})
	}
	n, err := s.br.Read(buf)
	if err != nil {
		return n, classifyRecvErr(err)
	}
	return n, nil
}

// RecvExact reads exactly len(buf) bytes, blocking across multiple reads as
// needed, honoring timeout as a single deadline for the whole call.
func (s *Stream) RecvExact(buf []byte, timeout time.Duration) error {
	s.recvMu.Lock()
	defer s.recvMu.Unlock()

	if timeout > 0 {
		_ = s.conn.SetReadDeadline(time.Now().Add(timeout))
		defer s.conn.SetReadDeadline(time.Time{})
	}
	if _, err := io.ReadFull(s.br, buf); err != nil {
		return classifyRecvErr(err)
	}
	return nil
}

// Peek returns the next n bytes without consuming them, so a caller can
// inspect upcoming bytes (RecvUntil's delimiter search, or a caller probing
// ahead of the frame codec) before committing to read past them. The
// returned slice is a copy: it stays valid across later Stream calls, which
// may reuse the internal buffer.
func (s *Stream) Peek(n int, timeout time.Duration) ([]byte, error) {
	s.recvMu.Lock()
	defer s.recvMu.Unlock()

	if timeout > 0 {
		_ = s.conn.SetReadDeadline(time.Now().Add(timeout))
		defer s.conn.SetReadDeadline(time.Time{})
	}
	peeked, err := s.br.Peek(n)
	if err != nil {
		return nil, classifyRecvErr(err)
	}
	out := make([]byte, len(peeked))
	copy(out, peeked)
	return out, nil
}

// RecvUntil reads and consumes bytes up to and including the first
// occurrence of delimiter, returning them. It peeks ahead to find the
// delimiter before consuming anything, so any bytes the peer sent past the
// delimiter in the same write (the start of the next message, for a
// handshake response a server pipelined a frame behind) are left buffered
// for the next Stream read rather than being silently discarded.
func (s *Stream) RecvUntil(delimiter []byte, timeout time.Duration) ([]byte, error) {
	s.recvMu.Lock()
	defer s.recvMu.Unlock()

	if timeout > 0 {
		_ = s.conn.SetReadDeadline(time.Now().Add(timeout))
		defer s.conn.SetReadDeadline(time.Time{})
	}

	for n := len(delimiter); ; n++ {
		peeked, peekErr := s.br.Peek(n)
		if idx := bytes.Index(peeked, delimiter); idx >= 0 {
			total := idx + len(delimiter)
			out := make([]byte, total)
			if _, err := io.ReadFull(s.br, out); err != nil {
				return nil, classifyRecvErr(err)
			}
			return out, nil
		}
		if peekErr != nil {
			return nil, classifyRecvErr(peekErr)
		}
	}
}

func classifyRecvErr(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return cdperr.Wrap(cdperr.KindConnection, "connection closed", err)
	}
	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		return cdperr.Wrap(cdperr.KindTimeout, "recv timeout", err)
	}
	if err == bufio.ErrBufferFull {
		return cdperr.Wrap(cdperr.KindProtocolError, "recv", err)
	}
	return cdperr.Wrap(cdperr.KindConnection, "read", err)
}

// Close closes the underlying connection. It is not idempotent: a second
// call returns the wrapped error net.Conn reports for an already-closed
// connection.
func (s *Stream) Close() error {
	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("transport: close: %w", err)
	}
	return nil
}
