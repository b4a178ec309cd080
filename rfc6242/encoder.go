package rfc6242

import (
	"strconv"

	"github.com/andaru/ncclient/framing"
)

// XMLDeclaration is written ahead of end-of-message framed documents.
const XMLDeclaration = `<?xml version="1.0" encoding="utf-8"?>`

// Encode frames the serialized document doc for version v.
//
// End-of-message framed output is the XML declaration, the document and
// the end-of-message token, with no line break before the token. Chunked
// output is a single chunk holding exactly doc followed by the
// end-of-chunks marker.
func Encode(doc []byte, v Version) []byte {
	if !v.Chunked() {
		b := make([]byte, 0, len(XMLDeclaration)+len(doc)+len(framing.TokenEOM))
		b = append(b, XMLDeclaration...)
		b = append(b, doc...)
		return append(b, framing.TokenEOM...)
	}
	b := make([]byte, 0, len(doc)+16)
	b = append(b, '#')
	b = strconv.AppendInt(b, int64(len(doc)), 10)
	b = append(b, '\n')
	b = append(b, doc...)
	return append(b, "\n##"...)
}
