/*
Package framing detects the end of RFC6242 NETCONF messages in a growing
read buffer.

A NETCONF client reading from an interactive channel sees bytes arrive in
arbitrary pieces. EndOfMessage reports whether the buffer accumulated so
far holds a complete message for the current framing mode, and where that
message ends; anything past that offset belongs to the next message.
*/
package framing
