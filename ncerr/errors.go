package ncerr

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
)

// Type represents the NETCONF error-type enumerate
type Type int

const (
	// TypeApplication is an application layer error
	TypeApplication Type = iota
	// TypeProtocol is a NETCONF protocol layer error
	TypeProtocol
	// TypeRPC is a NETCONF RPC layer error
	TypeRPC
	// TypeTransport is an error at the secure transport layer
	TypeTransport
)

func (t Type) String() string {
	switch t {
	case TypeApplication:
		return "application"
	case TypeProtocol:
		return "protocol"
	case TypeRPC:
		return "rpc"
	case TypeTransport:
		return "transport"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

func (t *Type) UnmarshalText(b []byte) error {
	switch string(bytes.TrimSpace(b)) {
	case "application":
		*t = TypeApplication
	case "protocol":
		*t = TypeProtocol
	case "rpc":
		*t = TypeRPC
	case "transport":
		*t = TypeTransport
	default:
		return errors.New("unknown error-type value")
	}
	return nil
}

func (t Type) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// Severity represents the NETCONF error-severity enumerate
type Severity int

const (
	// SeverityError indicates "error" level
	SeverityError Severity = iota
	// SeverityWarning indicates "warning" level.
	SeverityWarning
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

func (s Severity) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Severity) UnmarshalText(b []byte) error {
	switch string(bytes.TrimSpace(b)) {
	case "error":
		*s = SeverityError
	case "warning":
		*s = SeverityWarning
	default:
		return errors.New("unknown error-severity value")
	}
	return nil
}

// Error is an <rpc-error> reported by a NETCONF server.
//
// XMLName carries no namespace so that errors decode from replies
// regardless of the prefix or default namespace the server used.
type Error struct {
	XMLName  xml.Name  `xml:"rpc-error" json:"-"`
	Type     Type      `xml:"error-type" json:"error-type"`
	Tag      string    `xml:"error-tag" json:"error-tag"`
	Severity Severity  `xml:"error-severity" json:"error-severity"`
	AppTag   string    `xml:"error-app-tag,omitempty" json:"error-app-tag,omitempty"`
	Path     string    `xml:"error-path,omitempty" json:"error-path,omitempty"`
	Message  string    `xml:"error-message,omitempty" json:"error-message,omitempty"`
	Info     *InfoData `xml:"error-info,omitempty" json:"error-info,omitempty"`
}

// InfoData holds the RFC6241 defined <error-info> children.
type InfoData struct {
	BadAttribute string `xml:"bad-attribute,omitempty" json:"bad-attribute,omitempty"`
	BadElement   string `xml:"bad-element,omitempty" json:"bad-element,omitempty"`
	BadNamespace string `xml:"bad-namespace,omitempty" json:"bad-namespace,omitempty"`
	SessionID    string `xml:"session-id,omitempty" json:"session-id,omitempty"`
}

// Decode decodes a single <rpc-error> element. Values are trimmed of the
// surrounding whitespace servers commonly pretty-print them with.
func Decode(b []byte) (Error, error) {
	var e Error
	if err := xml.Unmarshal(b, &e); err != nil {
		return e, err
	}
	e.Tag = strings.TrimSpace(e.Tag)
	e.AppTag = strings.TrimSpace(e.AppTag)
	e.Path = strings.TrimSpace(e.Path)
	e.Message = strings.TrimSpace(e.Message)
	if info := e.Info; info != nil {
		info.BadAttribute = strings.TrimSpace(info.BadAttribute)
		info.BadElement = strings.TrimSpace(info.BadElement)
		info.BadNamespace = strings.TrimSpace(info.BadNamespace)
		info.SessionID = strings.TrimSpace(info.SessionID)
	}
	return e, nil
}

func (e Error) Error() string {
	s := fmt.Sprintf("%s %s tag:%s", e.Type, e.Severity, e.Tag)
	if e.AppTag != "" {
		s += " app-tag:" + e.AppTag
	}
	if e.Path != "" {
		s += " path:" + e.Path
	}
	if info := e.Info; info != nil {
		if info.BadAttribute != "" {
			s += " bad-attribute:" + info.BadAttribute
		}
		if info.BadElement != "" {
			s += " bad-element:" + info.BadElement
		}
		if info.BadNamespace != "" {
			s += " bad-namespace:" + info.BadNamespace
		}
		if info.SessionID != "" {
			s += " session-id:" + info.SessionID
		}
	}
	if e.Message != "" {
		s += " " + e.Message
	}
	return s
}
