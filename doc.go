/*
Package ncclient is a NETCONF (RFC6241) client.

The driver sub-package is the entry point: it opens a session over a
registered transport, exchanges capabilities, and performs NETCONF
operations, returning each reply as a message.Response.

Both NETCONF 1.0 (end of message) and 1.1 (chunked framing, RFC6242)
are supported, with the framing chosen by capability exchange. Servers
which echo client input, such as those reached through a terminal, are
detected when the session opens.

See the session sub-directory for how replies are read from a
transport.
*/
package ncclient
