package annotator

import (
	"log/slog"
	"strings"
)

// Attribute names read and written by the annotator.
const (
	AttrHref   = "href"
	AttrTarget = "target"
	AttrRel    = "rel"
)

// Values applied to external links.
const (
	// TargetBlank opens the link in a new tab or window.
	TargetBlank = "_blank"

	// SafeRel drops the referrer, detaches window.opener and tells crawlers
	// not to endorse the destination.
	SafeRel = "noreferrer nofollow noopener"
)

// schemeMarkers are the substrings that make an href external.
var schemeMarkers = []string{"https://", "http://"}

// Element is a hyperlink element whose attributes can be read and written.
type Element interface {
	// Attr returns the attribute value and whether the attribute is present.
	Attr(name string) (string, bool)

	// SetAttr sets the attribute, adding it if it is absent.
	SetAttr(name, value string)
}

// Document exposes the hyperlink elements currently in a document.
type Document interface {
	// Links returns every hyperlink element, in document order.
	Links() []Element
}

// Result summarizes a single pass over a document.
type Result struct {
	// Links is the number of hyperlink elements visited.
	Links int

	// Matched is the number of external links that were annotated.
	Matched int

	// Modified counts matched links whose target or rel actually changed.
	// It is zero when the document was already annotated.
	Modified int

	// Annotated holds the href of every matched link, in document order.
	Annotated []string
}

// Changed reports whether the pass altered any attribute.
func (r Result) Changed() bool {
	return r.Modified > 0
}

// Annotator applies the external link rule to documents.
// It holds no per-document state and is safe for concurrent use.
type Annotator struct {
	logger *slog.Logger
}

// Option configures an Annotator.
type Option func(*Annotator)

// WithLogger sets the logger that receives the per-link debug trace.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Annotator) {
		a.logger = logger
	}
}

// New creates an Annotator.
func New(opts ...Option) *Annotator {
	a := &Annotator{}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	return a
}

// IsExternal reports whether href contains an absolute HTTP or HTTPS
// scheme marker anywhere in the string.
func IsExternal(href string) bool {
	for _, marker := range schemeMarkers {
		if strings.Contains(href, marker) {
			return true
		}
	}
	return false
}

// Annotate visits every link of doc once and annotates the external ones.
// A nil document is treated as an empty one.
func (a *Annotator) Annotate(doc Document) Result {
	var result Result
	if doc == nil {
		return result
	}

	for _, el := range doc.Links() {
		if el == nil {
			continue
		}
		result.Links++

		href, ok := el.Attr(AttrHref)
		if !ok || href == "" || !IsExternal(href) {
			continue
		}

		prevTarget, _ := el.Attr(AttrTarget)
		prevRel, _ := el.Attr(AttrRel)

		el.SetAttr(AttrTarget, TargetBlank)
		el.SetAttr(AttrRel, SafeRel)

		result.Matched++
		result.Annotated = append(result.Annotated, href)
		if prevTarget == TargetBlank && prevRel == SafeRel {
			continue
		}
		result.Modified++
		a.logger.Debug("annotated external link",
			"href", href,
			"previousTarget", prevTarget,
			"previousRel", prevRel,
		)
	}

	return result
}
