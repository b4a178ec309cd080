// Copyright (c) 2018 Andrew Fort
//

// Package rfc6242 implements the NETCONF message codec.
//
// RFC6242 defines two framing mechanisms: "end of message delimited"
// framing used by :base:1.0 sessions (and by both peers for the <hello>
// exchange), and "chunked framing" used by :base:1.1 sessions.
//
// Encode frames a serialized <rpc> document for the negotiated Version.
// Decode takes the complete raw bytes of a reply, removes the framing,
// validates chunk sizes and parses the document with xmlquery.
//
// Chunk size validation is deliberately tolerant. Some servers count a
// trailing newline they do not send, or send trailing whitespace they do
// not count; see ValidChunkSize.
package rfc6242
