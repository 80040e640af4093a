// Package dom adapts HTML pages to the annotator's Document and Element
// interfaces.
//
// The start tags of a page are read with the tokenizer from
// golang.org/x/net/html, and the page is also parsed into a goquery
// document for queries such as Title. Rendering copies the source bytes
// through unchanged and splices in only the start tags whose attributes
// were set, so fragments, entities, whitespace and implied elements survive
// a rewrite. Pages declared in a legacy encoding are decoded to UTF-8, and
// their charset declaration is rewritten to match.
package dom

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/nao1215/extlink/internal/annotator"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// utf8Label is the canonical name returned by charset.DetermineEncoding
// for UTF-8 content.
const utf8Label = "utf-8"

// Document is a parsed HTML page.
type Document struct {
	doc *goquery.Document

	// src holds the page as UTF-8 text. Rendering starts from these bytes.
	src []byte

	links []*startTag
	metas []*startTag

	// charset is the encoding the page was declared or detected in.
	charset string
}

// startTag is an <a> or <meta> start tag located in src.
type startTag struct {
	name  string
	attrs []html.Attribute

	// start and end delimit the raw tag in src, end exclusive.
	start, end  int
	selfClosing bool

	// orig is the number of attributes written in the source. Attributes
	// past orig were added by SetAttr.
	orig int
	// rewrite is set when a source attribute changed value.
	rewrite bool
}

// Parse reads an entire HTML page from r and parses it.
func Parse(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	return ParseBytes(data)
}

// ParseBytes parses an HTML page held in memory.
func ParseBytes(data []byte) (*Document, error) {
	// Only a BOM is certain. A <meta> declaration or the windows-1252
	// fallback is overridden when the bytes are already valid UTF-8.
	enc, name, certain := charset.DetermineEncoding(data, "text/html")
	if !certain && utf8.Valid(data) {
		name = utf8Label
	}

	src := data
	if name != utf8Label {
		decoded, err := enc.NewDecoder().Bytes(data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s document: %w", name, err)
		}
		src = decoded
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}

	d := &Document{doc: doc, src: src, charset: name}
	d.scan()
	if name != utf8Label {
		d.declareUTF8()
	}
	return d, nil
}

// scan records the position and attributes of every <a> and <meta> start
// tag. Tags inside comments and raw text elements such as <script> are
// skipped by the tokenizer.
func (d *Document) scan() {
	z := html.NewTokenizer(bytes.NewReader(d.src))
	offset := 0
	for {
		tt := z.Next()
		start := offset
		offset += len(z.Raw())

		switch tt {
		case html.ErrorToken:
			return
		case html.StartTagToken, html.SelfClosingTagToken:
		default:
			continue
		}

		// TagName lower-cases the tokenizer's copy of the input, not src.
		tagName, hasAttr := z.TagName()
		name := string(tagName)
		if name != "a" && name != "meta" {
			continue
		}
		if offset == 0 || offset > len(d.src) || d.src[offset-1] != '>' {
			continue
		}

		t := &startTag{
			name:        name,
			start:       start,
			end:         offset,
			selfClosing: tt == html.SelfClosingTagToken,
		}
		for hasAttr {
			var key, val []byte
			key, val, hasAttr = z.TagAttr()
			t.attrs = append(t.attrs, html.Attribute{Key: string(key), Val: string(val)})
		}
		t.orig = len(t.attrs)

		if name == "a" {
			d.links = append(d.links, t)
		} else {
			d.metas = append(d.metas, t)
		}
	}
}

// Charset returns the encoding the page was read in.
func (d *Document) Charset() string {
	return d.charset
}

// Links returns every <a> element of the page in document order.
func (d *Document) Links() []annotator.Element {
	links := make([]annotator.Element, 0, len(d.links))
	for _, t := range d.links {
		links = append(links, &Element{tag: t})
	}
	return links
}

// Title returns the trimmed text of the page's <title> element.
func (d *Document) Title() string {
	return strings.TrimSpace(d.doc.Find("title").First().Text())
}

// Render writes the page as UTF-8 HTML. Bytes outside the changed start
// tags are written exactly as they were read.
func (d *Document) Render(w io.Writer) error {
	var buf bytes.Buffer
	d.splice(&buf)
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to render document: %w", err)
	}
	return nil
}

// Bytes renders the page into a byte slice.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	d.splice(&buf)
	return buf.Bytes(), nil
}

// splice copies src into buf, replacing or extending changed start tags.
func (d *Document) splice(buf *bytes.Buffer) {
	tags := d.changed()
	buf.Grow(len(d.src) + 64*len(tags))

	last := 0
	for _, t := range tags {
		if t.rewrite {
			buf.Write(d.src[last:t.start])
			writeStartTag(buf, t)
			last = t.end
			continue
		}

		// Only new attributes: insert them before the closing "/>" or ">".
		pos := t.end - 1
		if t.selfClosing && pos > t.start && d.src[pos-1] == '/' {
			pos--
		}
		buf.Write(d.src[last:pos])
		writeAttrs(buf, t.attrs[t.orig:])
		last = pos
	}
	buf.Write(d.src[last:])
}

// changed returns the modified start tags in source order.
func (d *Document) changed() []*startTag {
	var tags []*startTag
	i, j := 0, 0
	for i < len(d.links) || j < len(d.metas) {
		var t *startTag
		if j >= len(d.metas) || (i < len(d.links) && d.links[i].start < d.metas[j].start) {
			t = d.links[i]
			i++
		} else {
			t = d.metas[j]
			j++
		}
		if t.rewrite || len(t.attrs) > t.orig {
			tags = append(tags, t)
		}
	}
	return tags
}

func writeStartTag(buf *bytes.Buffer, t *startTag) {
	buf.WriteByte('<')
	buf.WriteString(t.name)
	writeAttrs(buf, t.attrs)
	if t.selfClosing {
		buf.WriteByte('/')
	}
	buf.WriteByte('>')
}

func writeAttrs(buf *bytes.Buffer, attrs []html.Attribute) {
	for _, a := range attrs {
		buf.WriteByte(' ')
		buf.WriteString(a.Key)
		buf.WriteString(`="`)
		buf.WriteString(html.EscapeString(a.Val))
		buf.WriteByte('"')
	}
}

// declareUTF8 rewrites charset declarations after the page was decoded.
func (d *Document) declareUTF8() {
	for _, t := range d.metas {
		if _, ok := t.attr("charset"); ok {
			t.setAttr("charset", utf8Label)
		}
		if equiv, _ := t.attr("http-equiv"); strings.EqualFold(equiv, "content-type") {
			t.setAttr("content", "text/html; charset="+utf8Label)
		}
	}
}

// attr returns the first attribute named key, as the HTML parser does for
// duplicated attributes.
func (t *startTag) attr(key string) (string, bool) {
	for _, a := range t.attrs {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func (t *startTag) setAttr(key, val string) {
	for i := range t.attrs {
		if t.attrs[i].Key != key {
			continue
		}
		if t.attrs[i].Val == val {
			return
		}
		t.attrs[i].Val = val
		if i < t.orig {
			t.rewrite = true
		}
		return
	}
	t.attrs = append(t.attrs, html.Attribute{Key: key, Val: val})
}

// Element is a single <a> element of a Document.
type Element struct {
	tag *startTag
}

// Attr returns the attribute value and whether it is present.
func (e *Element) Attr(name string) (string, bool) {
	return e.tag.attr(strings.ToLower(name))
}

// SetAttr sets the attribute, adding it when absent. Setting an attribute
// to the value it already has leaves the tag untouched.
func (e *Element) SetAttr(name, value string) {
	e.tag.setAttr(strings.ToLower(name), value)
}

var (
	_ annotator.Document = (*Document)(nil)
	_ annotator.Element  = (*Element)(nil)
)
