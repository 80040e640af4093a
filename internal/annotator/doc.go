// Package annotator marks external hyperlinks so that they open in a new
// browsing context without leaking the referrer or the window opener.
//
// The annotator works on any document that can enumerate its hyperlink
// elements. Concrete documents (parsed HTML files, test fakes) implement
// the Document and Element interfaces.
//
// # Rule
//
// A link is external when its href attribute is present and contains the
// substring "https://" or "http://". The check is a substring check, not a
// URL parse: a relative href such as "/go?to=https://example.com" matches
// too. External links receive:
//
//	target="_blank"
//	rel="noreferrer nofollow noopener"
//
// Every other link is left untouched. A link without an href is not an
// error. Running the pass twice yields the same attributes as running it
// once.
//
// # Usage
//
//	a := annotator.New(annotator.WithLogger(logger))
//	result := a.Annotate(doc)
//	fmt.Println(result.Matched, "external links")
package annotator
