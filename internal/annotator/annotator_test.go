package annotator

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// fakeElement is an in-memory Element. A nil attrs map entry means absent.
type fakeElement struct {
	attrs map[string]string
	sets  int
}

func newLink(attrs map[string]string) *fakeElement {
	if attrs == nil {
		attrs = map[string]string{}
	}
	return &fakeElement{attrs: attrs}
}

func (e *fakeElement) Attr(name string) (string, bool) {
	v, ok := e.attrs[name]
	return v, ok
}

func (e *fakeElement) SetAttr(name, value string) {
	e.sets++
	e.attrs[name] = value
}

type fakeDocument struct {
	links []*fakeElement
}

func (d *fakeDocument) Links() []Element {
	out := make([]Element, 0, len(d.links))
	for _, l := range d.links {
		out = append(out, l)
	}
	return out
}

func quietAnnotator() *Annotator {
	return New(WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))))
}

func TestIsExternal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		href string
		want bool
	}{
		{name: "https absolute", href: "https://example.com/page", want: true},
		{name: "http absolute", href: "http://example.com", want: true},
		{name: "relative path", href: "/local/page", want: false},
		{name: "mailto", href: "mailto:user@example.com", want: false},
		{name: "fragment", href: "#section", want: false},
		{name: "protocol relative", href: "//example.com", want: false},
		{name: "empty", href: "", want: false},
		{name: "marker inside relative link", href: "/redirect?to=https://example.com", want: true},
		{name: "uppercase scheme is not matched", href: "HTTPS://EXAMPLE.COM", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsExternal(tt.href); got != tt.want {
				t.Errorf("IsExternal(%q) = %v, want %v", tt.href, got, tt.want)
			}
		})
	}
}

func TestAnnotate(t *testing.T) {
	t.Parallel()

	t.Run("https link gets target and rel", func(t *testing.T) {
		t.Parallel()

		link := newLink(map[string]string{"href": "https://example.com/page"})
		result := quietAnnotator().Annotate(&fakeDocument{links: []*fakeElement{link}})

		want := map[string]string{
			"href":   "https://example.com/page",
			"target": "_blank",
			"rel":    "noreferrer nofollow noopener",
		}
		if diff := cmp.Diff(want, link.attrs); diff != "" {
			t.Errorf("attributes mismatch (-want +got):\n%s", diff)
		}
		if result.Matched != 1 || result.Modified != 1 {
			t.Errorf("expected 1 matched and 1 modified, got %+v", result)
		}
	})

	t.Run("relative link is untouched", func(t *testing.T) {
		t.Parallel()

		link := newLink(map[string]string{"href": "/local/page"})
		result := quietAnnotator().Annotate(&fakeDocument{links: []*fakeElement{link}})

		if link.sets != 0 {
			t.Errorf("expected no attribute writes, got %d", link.sets)
		}
		if result.Matched != 0 {
			t.Errorf("expected no match, got %d", result.Matched)
		}
	})

	t.Run("link without href is untouched", func(t *testing.T) {
		t.Parallel()

		link := newLink(map[string]string{"name": "anchor"})
		result := quietAnnotator().Annotate(&fakeDocument{links: []*fakeElement{link}})

		if link.sets != 0 {
			t.Errorf("expected no attribute writes, got %d", link.sets)
		}
		if result.Links != 1 {
			t.Errorf("expected 1 visited link, got %d", result.Links)
		}
	})

	t.Run("empty href is untouched", func(t *testing.T) {
		t.Parallel()

		link := newLink(map[string]string{"href": ""})
		quietAnnotator().Annotate(&fakeDocument{links: []*fakeElement{link}})

		if link.sets != 0 {
			t.Errorf("expected no attribute writes, got %d", link.sets)
		}
	})

	t.Run("mailto link is untouched", func(t *testing.T) {
		t.Parallel()

		link := newLink(map[string]string{"href": "mailto:user@example.com", "rel": "author"})
		quietAnnotator().Annotate(&fakeDocument{links: []*fakeElement{link}})

		if link.attrs["rel"] != "author" {
			t.Errorf("expected rel to stay 'author', got %q", link.attrs["rel"])
		}
		if _, ok := link.attrs["target"]; ok {
			t.Error("expected no target attribute")
		}
	})

	t.Run("existing target and rel are overwritten", func(t *testing.T) {
		t.Parallel()

		link := newLink(map[string]string{
			"href":   "http://example.com",
			"target": "_self",
			"rel":    "external",
		})
		quietAnnotator().Annotate(&fakeDocument{links: []*fakeElement{link}})

		if link.attrs["target"] != TargetBlank {
			t.Errorf("expected target %q, got %q", TargetBlank, link.attrs["target"])
		}
		if link.attrs["rel"] != SafeRel {
			t.Errorf("expected rel %q, got %q", SafeRel, link.attrs["rel"])
		}
	})

	t.Run("empty document", func(t *testing.T) {
		t.Parallel()

		result := quietAnnotator().Annotate(&fakeDocument{})
		if diff := cmp.Diff(Result{}, result); diff != "" {
			t.Errorf("result mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("nil document", func(t *testing.T) {
		t.Parallel()

		result := quietAnnotator().Annotate(nil)
		if result.Links != 0 || result.Changed() {
			t.Errorf("expected zero result, got %+v", result)
		}
	})

	t.Run("mixed document reports hrefs in order", func(t *testing.T) {
		t.Parallel()

		doc := &fakeDocument{links: []*fakeElement{
			newLink(map[string]string{"href": "https://a.example"}),
			newLink(map[string]string{"href": "/docs/"}),
			newLink(nil),
			newLink(map[string]string{"href": "http://b.example/x"}),
		}}
		result := quietAnnotator().Annotate(doc)

		want := Result{
			Links:     4,
			Matched:   2,
			Modified:  2,
			Annotated: []string{"https://a.example", "http://b.example/x"},
		}
		if diff := cmp.Diff(want, result); diff != "" {
			t.Errorf("result mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestAnnotateIdempotent(t *testing.T) {
	t.Parallel()

	doc := &fakeDocument{links: []*fakeElement{
		newLink(map[string]string{"href": "https://example.com"}),
		newLink(map[string]string{"href": "/local"}),
	}}
	a := quietAnnotator()

	first := a.Annotate(doc)
	snapshot := []map[string]string{}
	for _, l := range doc.links {
		c := map[string]string{}
		for k, v := range l.attrs {
			c[k] = v
		}
		snapshot = append(snapshot, c)
	}

	second := a.Annotate(doc)

	for i, l := range doc.links {
		if diff := cmp.Diff(snapshot[i], l.attrs); diff != "" {
			t.Errorf("link %d changed on second pass (-first +second):\n%s", i, diff)
		}
	}
	if !first.Changed() {
		t.Error("expected first pass to change the document")
	}
	if second.Changed() {
		t.Errorf("expected second pass to change nothing, got %d modified", second.Modified)
	}
	if second.Matched != first.Matched {
		t.Errorf("expected same match count, got %d and %d", first.Matched, second.Matched)
	}
}

func TestAnnotateTrace(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	doc := &fakeDocument{links: []*fakeElement{
		newLink(map[string]string{"href": "https://example.com/traced"}),
		newLink(map[string]string{"href": "/not-traced"}),
		newLink(map[string]string{
			"href":   "https://example.com/already-annotated",
			"target": TargetBlank,
			"rel":    SafeRel,
		}),
	}}

	New(WithLogger(logger)).Annotate(doc)

	out := buf.String()
	if !strings.Contains(out, "https://example.com/traced") {
		t.Errorf("expected trace for external link, got %q", out)
	}
	if strings.Contains(out, "/not-traced") {
		t.Errorf("expected no trace for local link, got %q", out)
	}
	if strings.Contains(out, "already-annotated") {
		t.Errorf("expected no trace for unchanged link, got %q", out)
	}
	if n := strings.Count(out, "annotated external link"); n != 1 {
		t.Errorf("expected 1 trace line, got %d", n)
	}
}
