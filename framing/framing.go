package framing

import (
	"bytes"
	"fmt"
	"regexp"
)

type ErrBadChunk struct {
	Message string
	Offset  int
}

func (e ErrBadChunk) Error() string {
	msg := "netconf bad chunk"
	if e.Message != "" {
		msg = msg + ": " + e.Message
	}
	if e.Offset < 1 {
		return msg
	}
	return fmt.Sprintf("%s at input offset %d", msg, e.Offset)
}

// TokenEOM is the message termination token found in end-of-message encoding streams
var TokenEOM = []byte("]]>]]>")

// endOfChunks matches the end-of-chunks line of a chunked framing message.
// Some devices emit it through a pty, leaving a carriage return before the
// newline.
var endOfChunks = regexp.MustCompile(`(?m)^##\r?$`)

// EndOfMessage returns the offset just past the end of the first complete
// message in b, and true, if b holds one. The message ends at the
// end-of-message token for end-of-message framing (chunked=false), or at
// the end-of-chunks line for chunked framing.
func EndOfMessage(b []byte, chunked bool) (end int, ok bool) {
	if !chunked {
		return Index(b, TokenEOM)
	}
	loc := endOfChunks.FindIndex(b)
	if loc == nil {
		return 0, false
	}
	return loc[1], true
}

// Index returns the offset just past the first instance of token in b.
func Index(b, token []byte) (end int, ok bool) {
	idx := bytes.Index(b, token)
	if idx < 0 {
		return 0, false
	}
	return idx + len(token), true
}

// Split splits b at the end of the first complete message, returning the
// message and any remainder. ok is false (and msg nil) if b holds no
// complete message.
func Split(b []byte, chunked bool) (msg, rest []byte, ok bool) {
	end, ok := EndOfMessage(b, chunked)
	if !ok {
		return nil, b, false
	}
	return b[:end], b[end:], true
}
