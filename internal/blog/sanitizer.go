package blog

import "github.com/microcosm-cc/bluemonday"

// Sanitizer strips unsafe markup from post bodies before they are stored.
type Sanitizer interface {
	Sanitize(rawHTML string) string
}

type htmlSanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer builds the allow-list policy for post bodies. Headings, lists,
// tables and images are kept; scripts, styles and event handlers are dropped.
// Relative URLs stay allowed so uploaded images under /uploads render.
func NewSanitizer() Sanitizer {
	p := bluemonday.NewPolicy()
	p.AllowElements(
		"p", "br", "hr", "h2", "h3", "h4",
		"ul", "ol", "li", "blockquote", "pre", "code",
		"strong", "em", "b", "i", "figure", "figcaption",
		"table", "thead", "tbody", "tr", "th", "td",
	)
	p.AllowAttrs("href", "title").OnElements("a")
	p.AllowAttrs("src", "alt", "title", "width", "height").OnElements("img")
	p.AllowStandardURLs()
	p.AllowRelativeURLs(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoReferrerOnLinks(true)
	return &htmlSanitizer{policy: p}
}

func (s *htmlSanitizer) Sanitize(rawHTML string) string {
	return s.policy.Sanitize(rawHTML)
}
