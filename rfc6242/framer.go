package rfc6242

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/andaru/ncclient/framing"
	"github.com/pkg/errors"
)

var (
	// ErrZeroChunks is a protocol error indicating that no chunk was
	// seen prior to the end-of-chunks token.
	ErrZeroChunks = errors.New("end-of-chunks seen prior to chunk")
	// ErrMissingEndOfChunks indicates the input ended without the
	// end-of-chunks token.
	ErrMissingEndOfChunks = errors.New("no end-of-chunks token seen")
	// ErrChunkSizeInvalid is a protocol error indicating that a chunk
	// frame introduction was seen, but chunk-size decoding failed.
	ErrChunkSizeInvalid = errors.New("no valid chunk-size detected")
	// ErrChunkSizeTokenTooLong is a protocol error indicating a
	// valid chunk-size token start was seen, but that the chunk-size
	// token was longer than that necessary to store the maximum
	// permitted chunk size "4294967295".
	ErrChunkSizeTokenTooLong = errors.New("token too long")
	// ErrChunkSizeTooLarge is a protocol error indicating that the
	// chunk-size decoded exceeds the limit stated in RFC6242.
	ErrChunkSizeTooLarge = errors.New("chunk size larger than maximum (4294967295)")
	// ErrChunkSize is matched by every ChunkSizeError.
	ErrChunkSize = errors.New("chunk size mismatch")
)

const (
	rfc6242maximumAllowedChunkSize       = 4294967295
	rfc6242maximumAllowedChunkSizeLength = 10
)

// Chunk is a single chunk of a chunked framing message.
type Chunk struct {
	// Size is the chunk-size declared in the chunk header
	Size int
	// Data is the chunk payload as located in the input
	Data []byte
	// Offset is the input offset of Data
	Offset int
}

// ChunkSizeError reports a chunk whose payload does not match its
// declared size, even allowing for whitespace accounting differences.
type ChunkSizeError struct {
	Declared, Actual, Offset int
}

func (e *ChunkSizeError) Error() string {
	return fmt.Sprintf("chunk at input offset %d declared %d bytes, got %d", e.Offset, e.Declared, e.Actual)
}

func (e *ChunkSizeError) Is(target error) bool { return target == ErrChunkSize }

// ValidChunkSize reports whether payload is acceptable for a chunk
// declaring size bytes. It accepts a payload of exactly size bytes, one
// that is size bytes once trailing whitespace is removed, or size bytes
// followed by a single newline.
func ValidChunkSize(size int, payload []byte) bool {
	switch n := len(payload); {
	case n == size:
		return true
	case len(bytes.TrimRight(payload, " \t\r\n")) == size:
		return true
	default:
		return n == size+1 && payload[n-1] == '\n'
	}
}

// Chunks locates the chunks of the chunked framing message in b.
//
// A chunk's payload normally runs for its declared size. When the bytes
// at that point do not begin the next chunk header, the payload instead
// runs up to the next "\n#", so that miscounted chunks can be validated
// (see ValidChunkSize) rather than desynchronising the scan.
func Chunks(b []byte) (chunks []Chunk, err error) {
	i := 0
	for {
		for i < len(b) && isSpace(b[i]) {
			i++
		}
		if i >= len(b) {
			return chunks, errors.WithStack(ErrMissingEndOfChunks)
		}
		action, adv, size, herr := detectChunkHeader(b[i:])
		switch {
		case herr != nil:
			return chunks, errors.WithStack(framing.ErrBadChunk{Message: herr.Error(), Offset: i})
		case action == chActionMoreData:
			return chunks, errors.WithStack(framing.ErrBadChunk{Message: "truncated chunk header", Offset: i})
		case action == chActionEndOfChunks:
			if len(chunks) == 0 {
				return nil, errors.WithStack(ErrZeroChunks)
			}
			return chunks, nil
		}

		start := i + adv
		end := start + int(size)
		switch next := bytes.Index(b[start:], []byte("\n#")); {
		case end <= len(b) && bytes.HasPrefix(b[end:], []byte("\n#")):
		case next < 0:
			end = len(b)
		default:
			end = start + next
		}
		chunks = append(chunks, Chunk{Size: int(size), Data: b[start:end], Offset: start})
		i = end
	}
}

func isSpace(c byte) bool { return c == '\n' || c == '\r' || c == ' ' || c == '\t' }

type chunkHeaderAction int

const (
	chActionMoreData chunkHeaderAction = iota
	chActionEndOfChunks
	chActionChunk
)

// detectChunkHeader decodes the chunk header or end-of-chunks token at the
// start of b. The newline preceding the header is not included in b.
func detectChunkHeader(b []byte) (action chunkHeaderAction, advance int, chunksize uint64, err error) {
	if len(b) < 2 {
		if b[0] != '#' {
			err = chunkHeaderLexError{got: b[:1], want: []byte("#")}
		}
		return
	}

	switch {
	case b[0] != '#':
		got := b
		if len(got) > 8 {
			got = got[:8]
		}
		err = chunkHeaderLexError{got: got, want: []byte("#")}
	case b[1] == '#':
		action = chActionEndOfChunks
		advance = 2
	case b[1] >= '1' && b[1] <= '9':
		action = chActionChunk
		bChunksize := b[1:]
		switch lenChunksize := bytes.IndexByte(bChunksize, '\n'); {
		case lenChunksize == -1:
			if len(bChunksize) <= rfc6242maximumAllowedChunkSizeLength {
				action = chActionMoreData
			} else {
				err = ErrChunkSizeTokenTooLong
			}
		case lenChunksize > rfc6242maximumAllowedChunkSizeLength:
			err = ErrChunkSizeTokenTooLong
		default:
			token := bytes.TrimRight(bChunksize[:lenChunksize], "\r")
			if chunksize, err = strconv.ParseUint(string(token), 10, 64); err != nil {
				err = ErrChunkSizeInvalid
			} else if chunksize > rfc6242maximumAllowedChunkSize {
				err = ErrChunkSizeTooLarge
			}
			advance = 1 + lenChunksize + 1
		}
	default:
		err = chunkHeaderLexError{got: b[1:2], wexplicit: []byte("DIGIT1 or HASH")}
	}
	return
}

type chunkHeaderLexError struct{ got, want, wexplicit []byte }

func (e chunkHeaderLexError) Error() string {
	if len(e.wexplicit) > 0 {
		return fmt.Sprintf(
			"invalid chunk header; expected %s, saw %q (%v)",
			e.wexplicit, e.got, e.got)
	}
	return fmt.Sprintf(
		"invalid chunk header; expected %q (%v), saw %q (%v)",
		e.want, e.want, e.got, e.got)
}
