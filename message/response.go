package message

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/andaru/ncclient/ncerr"
	"github.com/andaru/ncclient/rfc6242"
	"github.com/andaru/ncclient/xmlutil"
	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// DefaultFailedWhenContains are the reply contents marking a response
// failed.
var DefaultFailedWhenContains = []string{"</rpc-error>", "</rpc-errors>", "<rpc-error>", "<rpc-errors>"}

// ErrAlreadyRecorded is returned by Record on a recorded Response.
var ErrAlreadyRecorded = errors.New("response already recorded")

// Response is the reply to a Request.
type Response struct {
	Host    string
	Request *Request
	Version rfc6242.Version

	// Raw is the reply as read, including framing
	Raw []byte
	// Doc is the parsed reply document
	Doc *xmlquery.Node
	// Result is the reply document element serialized
	Result string

	Failed        bool
	ErrorMessages []string
	Errors        []ncerr.Error
	// DecodeErr is set if Raw could not be decoded
	DecodeErr error

	StartTime  time.Time
	FinishTime time.Time
	Elapsed    time.Duration

	triggers        []trigger
	stripNamespaces bool
	compressed      bool
	recorded        bool
}

// Option configures a Response.
type Option func(*Response)

// WithFailedWhenContains replaces the failure triggers. A trigger shaped
// like an XML tag ("<name>" or "</name>") matches that tag with any
// namespace prefix; other triggers match as substrings.
func WithFailedWhenContains(triggers ...string) Option {
	return func(r *Response) { r.triggers = compileTriggers(triggers) }
}

// WithStripNamespaces removes namespaces from the parsed reply.
func WithStripNamespaces(strip bool) Option {
	return func(r *Response) { r.stripNamespaces = strip }
}

// WithCompressedParser removes whitespace-only text from the parsed reply.
func WithCompressedParser(compressed bool) Option {
	return func(r *Response) { r.compressed = compressed }
}

// WithHost sets the Response host.
func WithHost(host string) Option {
	return func(r *Response) { r.Host = host }
}

// NewResponse returns an unrecorded Response to req on a session using
// protocol version v. It is failed until recorded.
func NewResponse(req *Request, v rfc6242.Version, opts ...Option) *Response {
	r := &Response{
		Request:   req,
		Version:   v,
		Failed:    true,
		StartTime: time.Now(),
		triggers:  defaultTriggers,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var (
	xpRPCError     = xpath.MustCompile(`//*[local-name()='rpc-error']`)
	xpErrorMessage = xpath.MustCompile(`//*[local-name()='rpc-error']/*[local-name()='error-message']`)
	xpData         = xpath.MustCompile(`/*[local-name()='rpc-reply']/*[local-name()='data']`)
)

// Record records the raw reply. It fails only if the Response was
// already recorded; decode failures are recorded in DecodeErr.
func (r *Response) Record(raw []byte) error {
	if r.recorded {
		return errors.WithStack(ErrAlreadyRecorded)
	}
	r.recorded = true
	r.FinishTime = time.Now()
	r.Elapsed = r.FinishTime.Sub(r.StartTime)
	r.Raw = raw

	r.Failed = false
	for _, t := range r.triggers {
		if t.match(raw) {
			r.Failed = true
			break
		}
	}

	doc, err := rfc6242.Decode(raw, r.Version)
	if err != nil {
		glog.Warningf("%s: unable to decode reply: %v", r.Host, err)
		r.DecodeErr = err
		r.Failed = true
		return nil
	}
	if r.compressed {
		xmlutil.Compress(doc)
	}
	if r.Failed {
		r.fetchErrors(doc)
	}
	if r.stripNamespaces {
		xmlutil.StripNamespaces(doc)
	}
	r.Doc = doc
	r.Result = xmlutil.DocumentElement(doc).OutputXML(true)
	return nil
}

func (r *Response) fetchErrors(doc *xmlquery.Node) {
	for _, n := range xmlquery.QuerySelectorAll(doc, xpErrorMessage) {
		r.ErrorMessages = append(r.ErrorMessages, strings.TrimSpace(n.InnerText()))
	}
	for _, n := range xmlquery.QuerySelectorAll(doc, xpRPCError) {
		e, err := ncerr.Decode([]byte(n.OutputXML(true)))
		if err != nil {
			glog.V(1).Infof("%s: undecodable rpc-error: %v", r.Host, err)
			continue
		}
		r.Errors = append(r.Errors, e)
	}
}

// RaiseForStatus returns an error if the response is failed.
func (r *Response) RaiseForStatus() error {
	if !r.Failed {
		return nil
	}
	if !r.recorded {
		return errors.Wrap(ncerr.ErrOperationFailed, "no reply recorded")
	}
	return errors.WithStack(&ncerr.OperationError{Messages: r.ErrorMessages, Errors: r.Errors, Cause: r.DecodeErr})
}

// XMLElements returns the children of the reply's <data> element keyed
// by local name. A later child replaces an earlier one of the same name.
func (r *Response) XMLElements() map[string]*xmlquery.Node {
	elems := map[string]*xmlquery.Node{}
	if r.Doc == nil {
		return elems
	}
	data := xmlquery.QuerySelector(r.Doc, xpData)
	if data == nil {
		return elems
	}
	for _, c := range xmlutil.ChildElements(data) {
		elems[c.Data] = c
	}
	return elems
}

func (r *Response) String() string {
	var op string
	if r.Request != nil {
		op = r.Request.Operation
	}
	return fmt.Sprintf("Response <%s> host:%s failed:%t elapsed:%s", op, r.Host, r.Failed, r.Elapsed)
}

type trigger struct {
	re     *regexp.Regexp
	substr []byte
}

func (t trigger) match(b []byte) bool {
	if t.re != nil {
		return t.re.Match(b)
	}
	return bytes.Contains(b, t.substr)
}

var (
	tagTrigger      = regexp.MustCompile(`^<(/?)([\w.-]+)>$`)
	defaultTriggers = compileTriggers(DefaultFailedWhenContains)
)

func compileTriggers(triggers []string) []trigger {
	out := make([]trigger, 0, len(triggers))
	for _, s := range triggers {
		m := tagTrigger.FindStringSubmatch(s)
		switch {
		case m == nil:
			out = append(out, trigger{substr: []byte(s)})
		case m[1] == "/":
			out = append(out, trigger{re: regexp.MustCompile(`</(?:[\w.-]+:)?` + regexp.QuoteMeta(m[2]) + `\s*>`)})
		default:
			out = append(out, trigger{re: regexp.MustCompile(`<(?:[\w.-]+:)?` + regexp.QuoteMeta(m[2]) + `(?:\s[^>]*)?/?>`)})
		}
	}
	return out
}
