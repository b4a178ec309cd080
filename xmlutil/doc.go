// Package xmlutil offers the XML helpers used to assemble NETCONF
// requests and to tidy parsed replies.
//
// Requests are built from Node trees. Parse reads user supplied fragments
// (filters, configuration) without namespace resolution, so prefixes and
// xmlns declarations are carried through untouched, and Render writes a
// tree back out on a single line with empty elements self-closed.
//
// Replies are parsed with xmlquery; Compress and StripNamespaces adjust
// those documents in place.
package xmlutil
