// Package protocol implements the client side of the bidirectional
// message-framing protocol that carries CDP traffic: the opening handshake
// and the frame codec (encode/decode, client-side masking, fragmentation,
// control frames).
//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// This package only ever plays the client role: every outbound frame is
// masked, and an inbound frame that arrives masked is a protocol error. It
// has no notion of TLS, permessage-deflate, or any extension beyond the
// standard opcodes — none of that is needed to talk to a loopback Chromium
// debugger.
package protocol
