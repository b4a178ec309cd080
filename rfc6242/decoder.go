package rfc6242

import (
	"bytes"
	"regexp"

	"github.com/andaru/ncclient/framing"
	"github.com/andaru/ncclient/xmlutil"
	"github.com/antchfx/xmlquery"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// ErrNoDocumentElement indicates a reply held no XML element.
var ErrNoDocumentElement = errors.New("no document element")

var (
	xmlDeclaration = regexp.MustCompile(`<\?xml[^>]*\?>`)
	controlChars   = regexp.MustCompile(`[\x00-\x1f\x7f-\x9f]`)
)

// Decode removes the framing of version v from the complete reply raw and
// parses the enclosed document.
//
// For chunked framing, every chunk failing ValidChunkSize is reported in
// the returned error (a *multierror.Error of *ChunkSizeError) and no
// document is parsed.
func Decode(raw []byte, v Version) (*xmlquery.Node, error) {
	if v.Chunked() {
		return decodeChunked(raw)
	}
	return decodeEndOfMessage(raw)
}

func decodeEndOfMessage(raw []byte) (*xmlquery.Node, error) {
	b := bytes.ReplaceAll(raw, framing.TokenEOM, nil)
	b = bytes.TrimSpace(xmlDeclaration.ReplaceAll(b, nil))
	doc, err := parse(b)
	if err != nil {
		// devices occasionally emit stray control characters, such as a bell
		if doc, err = parse(controlChars.ReplaceAll(b, nil)); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

func decodeChunked(raw []byte) (*xmlquery.Node, error) {
	chunks, err := Chunks(raw)
	if err != nil {
		return nil, err
	}
	var merr *multierror.Error
	payloads := make([][]byte, 0, len(chunks))
	for _, c := range chunks {
		if !ValidChunkSize(c.Size, c.Data) {
			merr = multierror.Append(merr, &ChunkSizeError{Declared: c.Size, Actual: len(c.Data), Offset: c.Offset})
			continue
		}
		payloads = append(payloads, xmlDeclaration.ReplaceAll(c.Data, nil))
	}
	if err := merr.ErrorOrNil(); err != nil {
		return nil, err
	}
	return parse(bytes.TrimSpace(bytes.Join(payloads, []byte("\n"))))
}

func parse(b []byte) (*xmlquery.Node, error) {
	doc, err := xmlquery.Parse(bytes.NewReader(b))
	if err != nil {
		return nil, errors.Wrap(err, "parse reply")
	}
	if xmlutil.DocumentElement(doc) == nil {
		return nil, errors.WithStack(ErrNoDocumentElement)
	}
	return doc, nil
}
