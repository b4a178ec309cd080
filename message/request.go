package message

import (
	"github.com/andaru/ncclient/rfc6242"
	"github.com/andaru/ncclient/xmlutil"
)

// Request is a framed <rpc> ready to send.
type Request struct {
	MessageID uint64
	// Operation is the name of the operation element, e.g. "get-config"
	Operation string
	// Element is the <rpc> element
	Element *xmlutil.Node
	// Document is Element serialized, without XML declaration
	Document []byte
	// Payload is Document framed for the session's protocol version
	Payload []byte
}

// NewRequest returns the Request for the <rpc> element rpc.
func NewRequest(messageID uint64, operation string, rpc *xmlutil.Node, v rfc6242.Version) *Request {
	doc := rpc.Bytes()
	return &Request{
		MessageID: messageID,
		Operation: operation,
		Element:   rpc,
		Document:  doc,
		Payload:   rfc6242.Encode(doc, v),
	}
}
