// Package message holds NETCONF request and response values.
//
// A Response is recorded once from the raw reply bytes, after which it
// exposes the parsed reply, whether the server reported failure, and the
// <rpc-error> details it gave.
package message
