package rfc6242

import "github.com/andaru/ncclient/ncerr"

// Version is a NETCONF base protocol version.
type Version int

const (
	// VersionUnknown is the version prior to capabilities exchange.
	VersionUnknown Version = iota
	// Version10 is :base:1.0, using end-of-message framing.
	Version10
	// Version11 is :base:1.1, using chunked framing.
	Version11
)

func (v Version) String() string {
	switch v {
	case Version10:
		return "1.0"
	case Version11:
		return "1.1"
	default:
		return "unknown"
	}
}

// Chunked returns true if messages of this version use chunked framing.
func (v Version) Chunked() bool { return v == Version11 }

// ParseVersion parses "1.0" or "1.1". The empty string yields
// VersionUnknown, meaning no preference.
func ParseVersion(s string) (Version, error) {
	switch s {
	case "":
		return VersionUnknown, nil
	case "1.0":
		return Version10, nil
	case "1.1":
		return Version11, nil
	}
	return VersionUnknown, ncerr.InvalidArgument("'preferred_netconf_version' should be one of 1.0|1.1, got '%s'", s)
}
