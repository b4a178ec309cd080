package rpc

// FilterType is the type of a <filter>.
type FilterType string

// Filter types.
const (
	Subtree FilterType = "subtree"
	XPath   FilterType = "xpath"
)

// DefaultsMode is an RFC6243 <with-defaults> retrieval mode.
type DefaultsMode string

// With-defaults retrieval modes.
const (
	ReportAll       DefaultsMode = "report-all"
	Trim            DefaultsMode = "trim"
	Explicit        DefaultsMode = "explicit"
	ReportAllTagged DefaultsMode = "report-all-tagged"
)

func (m DefaultsMode) valid() bool {
	switch m {
	case ReportAll, Trim, Explicit, ReportAllTagged:
		return true
	}
	return false
}

type options struct {
	filters    []string
	filterType FilterType
	defaults   DefaultsMode
}

// Option configures a <get> or <get-config> request.
type Option func(*options)

// WithFilter adds filters. Subtree filters are XML fragments, either bare
// or already wrapped in a <filter> element, and are combined in order
// under a single <filter>. An XPath filter is a single expression.
func WithFilter(filters ...string) Option {
	return func(o *options) { o.filters = append(o.filters, filters...) }
}

// WithFilterType sets the filter type, Subtree by default.
func WithFilterType(t FilterType) Option {
	return func(o *options) { o.filterType = t }
}

// WithDefaults requests default handling mode m.
func WithDefaults(m DefaultsMode) Option {
	return func(o *options) { o.defaults = m }
}

type commitOptions struct {
	confirmed      bool
	confirmTimeout uint
	persist        string
	persistID      string
}

// CommitOption configures a <commit> request.
type CommitOption func(*commitOptions)

// Confirmed requests a confirmed commit.
func Confirmed() CommitOption {
	return func(o *commitOptions) { o.confirmed = true }
}

// ConfirmTimeout sets the confirmed commit timeout, in seconds.
func ConfirmTimeout(seconds uint) CommitOption {
	return func(o *commitOptions) { o.confirmTimeout = seconds }
}

// Persist makes a confirmed commit survive the session, identified by token.
func Persist(token string) CommitOption {
	return func(o *commitOptions) { o.persist = token }
}

// PersistID confirms the persistent confirmed commit identified by token.
func PersistID(token string) CommitOption {
	return func(o *commitOptions) { o.persistID = token }
}
