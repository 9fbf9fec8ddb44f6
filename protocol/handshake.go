// File: protocol/handshake.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Client-side opening handshake, adapted from the teacher's server-side
// upgrader: this implementation issues the request rather than answering
// one, generating the client nonce and verifying the server's accept key.

package protocol

import (
	"bufio"
	"bytes"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/corvidlabs/cdpgo/transport"
)

// HandshakeRequest describes the loopback target for an opening handshake.
type HandshakeRequest struct {
	Host string
	Path string
}

// handshakeTerminator is the blank line ending the HTTP response headers.
var handshakeTerminator = []byte("\r\n\r\n")

// Handshake performs the client opening handshake over stream, an already
// dialed transport, and returns the server's response headers on success.
// It reads the response through stream's own peek-based RecvUntil instead
// of a throwaway buffered reader, so any bytes the server pipelines past
// the header terminator — the start of the first WebSocket frame, which
// real loopback servers routinely write in the same flush as the handshake
// response — stay buffered inside stream for the frame codec to read next,
// instead of being silently dropped (spec.md §4.B). A non-101 status or a
// mismatched Sec-WebSocket-Accept both surface as a handshake_rejected
// error to the caller.
func Handshake(stream *transport.Stream, req HandshakeRequest, timeout time.Duration) (http.Header, error) {
	nonce, err := newNonce()
	if err != nil {
		return nil, err
	}
	expected := acceptKey(nonce)

	reqLine := fmt.Sprintf("GET %s HTTP/1.1\r\n", req.Path)
	headers := fmt.Sprintf(
		"Host: %s\r\n"+
			"Upgrade: websocket\r\n"+
			"Connection: Upgrade\r\n"+
			"Sec-WebSocket-Key: %s\r\n"+
			"Sec-WebSocket-Version: 13\r\n"+
			"\r\n",
		req.Host, nonce)

	if err := stream.Send([]byte(reqLine+headers), timeout); err != nil {
		return nil, fmt.Errorf("protocol: write handshake request: %w", err)
	}

	raw, err := stream.RecvUntil(handshakeTerminator, timeout)
	if err != nil {
		return nil, fmt.Errorf("protocol: read handshake response: %w", err)
	}

	reader := bufio.NewReader(bytes.NewReader(raw))
	statusLine, err := reader.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("protocol: read handshake status line: %w", err)
	}
	if !isSwitchingProtocols(statusLine) {
		return nil, fmt.Errorf("%w: unexpected status line %q", errHandshakeRejected, statusLine)
	}

	tp := textproto.NewReader(reader)
	mimeHeader, err := tp.ReadMIMEHeader()
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("protocol: read handshake headers: %w", err)
	}
	hdr := http.Header(mimeHeader)

	accept := hdr.Get("Sec-WebSocket-Accept")
	if accept != expected {
		return nil, fmt.Errorf("%w: accept key mismatch", errHandshakeRejected)
	}
	return hdr, nil
}

var errHandshakeRejected = fmt.Errorf("protocol: handshake rejected")

// ErrHandshakeRejected reports whether err originated from a rejected
// opening handshake (bad status line or accept-key mismatch).
func ErrHandshakeRejected(err error) bool {
	return err != nil && (err == errHandshakeRejected || isWrapped(err, errHandshakeRejected))
}

func isWrapped(err, target error) bool {
	type unwrapper interface{ Unwrap() error }
	for err != nil {
		if err == target {
			return true
		}
		u, ok := err.(unwrapper)
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

func isSwitchingProtocols(statusLine string) bool {
	return strings.Contains(statusLine, " 101 ")
}

func newNonce() (string, error) {
	var raw [16]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", fmt.Errorf("protocol: generate nonce: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw[:]), nil
}

// acceptKey computes the Sec-WebSocket-Accept value for a given client
// nonce per RFC 6455 §1.3: base64(SHA1(nonce + GUID)).
func acceptKey(nonce string) string {
	h := sha1.New()
	io.WriteString(h, nonce)
	io.WriteString(h, WebSocketGUID)
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// TestAcceptKey exposes acceptKey to the package's external test file.
func TestAcceptKey(nonce string) string { return acceptKey(nonce) }
