// Package rpc builds NETCONF <rpc> requests for the RFC6241 operations.
//
// Builder methods validate their arguments against the server
// capabilities and datastores negotiated on a session before taking a
// message-id, so a rejected request consumes no id and sends nothing.
package rpc
