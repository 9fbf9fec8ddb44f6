// File: protocol/frame_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package protocol_test

import (
	"bytes"
	"testing"

	"github.com/corvidlabs/cdpgo/protocol"
)

func TestEncodeClientFrame_AlwaysMasks(t *testing.T) {
	payload := []byte("hello cdp")
	out, err := protocol.EncodeClientFrame(true, protocol.OpcodeText, payload)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if out[1]&0x80 == 0 {
		t.Fatal("mask bit not set on client frame")
	}
	if bytes.Contains(out, payload) {
		t.Fatal("unmasked payload leaked into encoded frame")
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := [][]byte{
		{},
		[]byte("short"),
		bytes.Repeat([]byte{'x'}, 200),
		bytes.Repeat([]byte{'y'}, 70000),
	}
	for _, payload := range cases {
		encoded, err := protocol.EncodeClientFrame(true, protocol.OpcodeBinary, payload)
		if err != nil {
			t.Fatalf("encode len=%d: %v", len(payload), err)
		}
		// Flip the mask bit off and drop the 4-byte mask key to build what a
		// server frame carrying the same payload looks like on the wire,
		// since DecodeServerFrame rejects masked frames outright.
		headerLen := len(encoded) - len(payload) - 4
		unmasked := make([]byte, 0, len(encoded)-4)
		unmasked = append(unmasked, encoded[:headerLen]...)
		unmasked[1] &^= 0x80
		unmasked = append(unmasked, payload...)

		frame, n, err := protocol.DecodeServerFrame(unmasked, protocol.DefaultMaxMessageSize)
		if err != nil {
			t.Fatalf("decode len=%d: %v", len(payload), err)
		}
		if frame == nil {
			t.Fatalf("decode len=%d: incomplete, want complete", len(payload))
		}
		if n != len(unmasked) {
			t.Fatalf("consumed %d, want %d", n, len(unmasked))
		}
		if !bytes.Equal(frame.Payload, payload) {
			t.Fatalf("payload mismatch: got %d bytes, want %d", len(frame.Payload), len(payload))
		}
	}
}

func TestDecodeServerFrame_Incomplete(t *testing.T) {
	frame, n, err := protocol.DecodeServerFrame([]byte{0x82}, protocol.DefaultMaxMessageSize)
	if err != nil || frame != nil || n != 0 {
		t.Fatalf("want incomplete (nil,0,nil), got (%v,%d,%v)", frame, n, err)
	}
}

func TestDecodeServerFrame_RejectsMasked(t *testing.T) {
	raw := []byte{0x82, 0x84, 0, 0, 0, 0, 'a', 'b', 'c', 'd'}
	_, _, err := protocol.DecodeServerFrame(raw, protocol.DefaultMaxMessageSize)
	if err == nil {
		t.Fatal("want error for masked server frame")
	}
}

func TestDecodeServerFrame_EnforcesMaxPayload(t *testing.T) {
	raw := []byte{0x82, 126, 0xFF, 0xFF}
	_, _, err := protocol.DecodeServerFrame(raw, 10)
	if err == nil {
		t.Fatal("want error when declared length exceeds max payload")
	}
}

func TestReadServerFrame_MatchesDecode(t *testing.T) {
	payload := []byte("streamed payload")
	encoded, err := protocol.EncodeClientFrame(true, protocol.OpcodeText, payload)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	// Unmasked server frame: same header with the mask bit cleared, no mask
	// key, plain payload.
	headerLen := len(encoded) - len(payload) - 4
	serverFrame := make([]byte, 0, len(encoded)-4)
	serverFrame = append(serverFrame, encoded[:headerLen]...)
	serverFrame[1] &^= 0x80
	serverFrame = append(serverFrame, payload...)

	frame, err := protocol.ReadServerFrame(bytes.NewReader(serverFrame), protocol.DefaultMaxMessageSize)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(frame.Payload, payload) {
		t.Fatalf("payload mismatch: got %q, want %q", frame.Payload, payload)
	}
}
