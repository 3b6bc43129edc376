package resolver

import "time"

// Kind identifies one of the closed set of supported browser actions.
type Kind string

const (
	KindNavigate   Kind = "navigate"
	KindClick      Kind = "click"
	KindType       Kind = "type"
	KindSubmit     Kind = "submit"
	KindWait       Kind = "wait"
	KindWaitFor    Kind = "wait_for_element"
	KindScreenshot Kind = "screenshot"
	KindLogin      Kind = "login"
	KindSearch     Kind = "search"
)

// Intent is the resolved, structured form of a natural-language command.
// The set of implementations is closed: the executor switches over the
// concrete types and treats anything else as a programming error.
type Intent interface {
	Kind() Kind
	isIntent()
}

// Navigate loads a URL.
type Navigate struct {
	URL string
}

// Click dispatches a click on the element best matching Target, a
// human-readable description such as "login button" or "Sign In".
type Click struct {
	Target string
}

// Type enters Text into the field best matching Field.
type Type struct {
	Text  string
	Field string
}

// Submit triggers submission of the current form.
type Submit struct{}

// Wait blocks for a fixed duration.
type Wait struct {
	Duration time.Duration
}

// WaitFor blocks until the described element appears, bounded by the
// element-wait timeout.
type WaitFor struct {
	Element string
}

// Screenshot captures the current page to a PNG artifact.
type Screenshot struct{}

// Login is the composite navigate + fill credentials + submit flow. Username
// and Password may be empty, in which case only the login page is opened.
type Login struct {
	Site     string
	Username string
	Password string
}

// Search is the composite navigate + fill search box + submit flow.
type Search struct {
	Query string
	Site  string
}

func (Navigate) Kind() Kind   { return KindNavigate }
func (Click) Kind() Kind      { return KindClick }
func (Type) Kind() Kind       { return KindType }
func (Submit) Kind() Kind     { return KindSubmit }
func (Wait) Kind() Kind       { return KindWait }
func (WaitFor) Kind() Kind    { return KindWaitFor }
func (Screenshot) Kind() Kind { return KindScreenshot }
func (Login) Kind() Kind      { return KindLogin }
func (Search) Kind() Kind     { return KindSearch }

func (Navigate) isIntent()   {}
func (Click) isIntent()      {}
func (Type) isIntent()       {}
func (Submit) isIntent()     {}
func (Wait) isIntent()       {}
func (WaitFor) isIntent()    {}
func (Screenshot) isIntent() {}
func (Login) isIntent()      {}
func (Search) isIntent()     {}
