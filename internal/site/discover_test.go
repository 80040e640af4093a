package site

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// buildSite creates files under a temporary directory and returns its path.
func buildSite(t *testing.T, files ...string) string {
	t.Helper()

	root := t.TempDir()
	for _, name := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
			t.Fatalf("failed to create directory: %v", err)
		}
		if err := os.WriteFile(path, []byte("<a href=\"/\">x</a>"), 0600); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
	return root
}

func relAll(t *testing.T, root string, paths []string) []string {
	t.Helper()

	out := make([]string, 0, len(paths))
	for _, p := range paths {
		rel, err := filepath.Rel(root, p)
		if err != nil {
			t.Fatalf("failed to relativize %s: %v", p, err)
		}
		out = append(out, filepath.ToSlash(rel))
	}
	return out
}

func TestDiscover(t *testing.T) {
	t.Parallel()

	t.Run("finds html files recursively", func(t *testing.T) {
		t.Parallel()

		root := buildSite(t,
			"index.html",
			"guide/install.html",
			"guide/legacy.HTM",
			"assets/app.js",
			"assets/style.css",
			"sitemap.xml",
		)

		files, err := Discover([]string{root})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := []string{"guide/install.html", "guide/legacy.HTM", "index.html"}
		if diff := cmp.Diff(want, relAll(t, root, files)); diff != "" {
			t.Errorf("files mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("exclude patterns skip files and directories", func(t *testing.T) {
		t.Parallel()

		root := buildSite(t,
			"index.html",
			"404.html",
			"api/reference.html",
			"api/deep/more.html",
			"blog/post.html",
		)

		files, err := Discover([]string{root}, WithExclude("api", "**/404.html", "404.html"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := []string{"blog/post.html", "index.html"}
		if diff := cmp.Diff(want, relAll(t, root, files)); diff != "" {
			t.Errorf("files mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("custom extensions", func(t *testing.T) {
		t.Parallel()

		root := buildSite(t, "a.html", "b.xhtml")

		files, err := Discover([]string{root}, WithExtensions(".xhtml"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if diff := cmp.Diff([]string{"b.xhtml"}, relAll(t, root, files)); diff != "" {
			t.Errorf("files mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("file roots are kept regardless of extension", func(t *testing.T) {
		t.Parallel()

		root := buildSite(t, "page.txt")
		path := filepath.Join(root, "page.txt")

		files, err := Discover([]string{path, path})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if diff := cmp.Diff([]string{path}, files); diff != "" {
			t.Errorf("files mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("overlapping roots are deduplicated", func(t *testing.T) {
		t.Parallel()

		root := buildSite(t, "index.html", "guide/a.html")

		files, err := Discover([]string{root, filepath.Join(root, "guide")})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(files) != 2 {
			t.Errorf("expected 2 files, got %v", files)
		}
	})

	t.Run("empty directory yields no files", func(t *testing.T) {
		t.Parallel()

		files, err := Discover([]string{t.TempDir()})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(files) != 0 {
			t.Errorf("expected no files, got %v", files)
		}
	})

	t.Run("missing root returns ErrRootNotFound", func(t *testing.T) {
		t.Parallel()

		_, err := Discover([]string{filepath.Join(t.TempDir(), "missing")})
		if !errors.Is(err, ErrRootNotFound) {
			t.Errorf("expected ErrRootNotFound, got %v", err)
		}
	})

	t.Run("invalid pattern is rejected", func(t *testing.T) {
		t.Parallel()

		if _, err := NewFinder(WithExclude("[broken")); err == nil {
			t.Error("expected error for invalid pattern")
		}
	})
}

func TestFinderMatch(t *testing.T) {
	t.Parallel()

	f, err := NewFinder(WithExclude("drafts/**"))
	if err != nil {
		t.Fatalf("failed to create finder: %v", err)
	}

	root := filepath.FromSlash("/srv/site")
	tests := []struct {
		path string
		want bool
	}{
		{path: "/srv/site/index.html", want: true},
		{path: "/srv/site/drafts/wip.html", want: false},
		{path: "/srv/site/img/logo.png", want: false},
	}

	for _, tt := range tests {
		if got := f.Match(root, filepath.FromSlash(tt.path)); got != tt.want {
			t.Errorf("Match(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
