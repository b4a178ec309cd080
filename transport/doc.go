/*
Package transport provides the byte streams NETCONF sessions run over.

A Transport is opened once, then read and written as a single full-duplex
stream. Transports are constructed by name from a registry, so callers
select one with a string from configuration:

	t, err := transport.New("ssh", transport.Config{Host: "10.0.0.1", Port: 830})

The "ssh" transport opens the netconf subsystem with golang.org/x/crypto/ssh.
The "system" transport spawns the OpenSSH client on a pseudo-terminal, so
everything written to it is echoed back on its read side.

Reader and Writer adapt a transport's raw stream for the session layer.
*/
package transport
