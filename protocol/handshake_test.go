// File: protocol/handshake_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package protocol_test

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/corvidlabs/cdpgo/protocol"
	"github.com/corvidlabs/cdpgo/transport"
)

// fakeServer reads the handshake request off one end of a net.Pipe, computes
// the correct accept key, and replies with a 101 response. trailing, if
// non-nil, is written in the same call as the response, simulating a server
// that pipelines the start of the first frame behind the header terminator.
func fakeServer(t *testing.T, conn net.Conn, rejectStatus, corruptAccept bool, trailing []byte) {
	t.Helper()
	reader := bufio.NewReader(conn)
	req, err := http.ReadRequest(reader)
	if err != nil {
		t.Errorf("server: read request: %v", err)
		return
	}
	nonce := req.Header.Get("Sec-WebSocket-Key")

	if rejectStatus {
		fmt.Fprintf(conn, "HTTP/1.1 400 Bad Request\r\n\r\n")
		return
	}

	accept := protocol.TestAcceptKey(nonce)
	if corruptAccept {
		accept = "not-the-right-key"
	}
	resp := fmt.Sprintf("HTTP/1.1 101 Switching Protocols\r\n"+
		"Upgrade: websocket\r\n"+
		"Connection: Upgrade\r\n"+
		"Sec-WebSocket-Accept: %s\r\n"+
		"\r\n", accept)
	buf := append([]byte(resp), trailing...)
	conn.Write(buf)
}

func TestHandshake_Success(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	go fakeServer(t, server, false, false, nil)

	stream := transport.FromConn(client)
	hdr, err := protocol.Handshake(stream, protocol.HandshakeRequest{Host: "127.0.0.1:9222", Path: "/devtools/page/abc"}, time.Second)
	if err != nil {
		t.Fatalf("handshake: %v", err)
	}
	if hdr.Get("Upgrade") != "websocket" {
		t.Fatalf("unexpected Upgrade header: %q", hdr.Get("Upgrade"))
	}
}

func TestHandshake_RejectsBadStatus(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	go fakeServer(t, server, true, false, nil)

	stream := transport.FromConn(client)
	_, err := protocol.Handshake(stream, protocol.HandshakeRequest{Host: "127.0.0.1:9222", Path: "/devtools/page/abc"}, time.Second)
	if !protocol.ErrHandshakeRejected(err) {
		t.Fatalf("want handshake_rejected, got %v", err)
	}
}

func TestHandshake_RejectsBadAccept(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	go fakeServer(t, server, false, true, nil)

	stream := transport.FromConn(client)
	_, err := protocol.Handshake(stream, protocol.HandshakeRequest{Host: "127.0.0.1:9222", Path: "/devtools/page/abc"}, time.Second)
	if !protocol.ErrHandshakeRejected(err) {
		t.Fatalf("want handshake_rejected, got %v", err)
	}
}

// TestHandshake_PreservesPipelinedBytes writes a few extra bytes (standing
// in for the start of the first WebSocket frame) in the same write as the
// handshake response, and checks the stream still has them buffered for the
// caller to read after Handshake returns — a throwaway internal reader
// would have consumed and discarded them.
func TestHandshake_PreservesPipelinedBytes(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	pipelined := []byte{0x81, 0x02, 'h', 'i'}
	go fakeServer(t, server, false, false, pipelined)

	stream := transport.FromConn(client)
	if _, err := protocol.Handshake(stream, protocol.HandshakeRequest{Host: "127.0.0.1:9222", Path: "/devtools/page/abc"}, time.Second); err != nil {
		t.Fatalf("handshake: %v", err)
	}

	got, err := stream.Peek(len(pipelined), time.Second)
	if err != nil {
		t.Fatalf("peek pipelined bytes: %v", err)
	}
	if string(got) != string(pipelined) {
		t.Fatalf("got %v, want %v", got, pipelined)
	}
}
