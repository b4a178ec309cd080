/*
Package session offers the client side of a NETCONF session.

A Session holds the state negotiated with a server: protocol version,
server capabilities, the datastores they imply and the message-id counter.

A Channel runs the session protocol over a transport.Transport. Open
exchanges <hello> messages and determines whether the transport echoes
written bytes, then SendInput performs one request/reply cycle.

# Channel flavors

Channels are created with one of two I/O flavors, sharing all protocol
logic:

NewBlockingChannel reads the transport in the calling goroutine. Context
deadlines are enforced by closing the transport, so an expired read or
write leaves the session unusable.

NewAsyncChannel reads the transport in a background goroutine, so each
read may be abandoned when the caller's context is done.

# Echo detection

Transports whose input and output share a pseudo-terminal echo everything
written to them. Other transports are probed: bytes arriving within a
short window of sending the client <hello> mark the session as echoing.
Echoed input is read and discarded before each reply.

Bytes read past the end of a message are kept and returned first by the
next read, so none are lost between messages.
*/
package session
