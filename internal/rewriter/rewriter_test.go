package rewriter

import "testing"

func TestRelativePath(t *testing.T) {
	tests := []struct {
		name string
		from string
		to   string
		want string
	}{
		{"sibling file", "h/index.html", "h/a/index.html", "a/index.html"},
		{"back to parent", "h/a/index.html", "h/index.html", "../index.html"},
		{"same directory", "h/a/index.html", "h/a/other.html", "other.html"},
		{"deep divergence", "h/a/b/index.html", "h/x/y/index.html", "../../x/y/index.html"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RelativePath(tt.from, tt.to); got != tt.want {
				t.Errorf("RelativePath(%q, %q) = %q, want %q", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestRewriteTwoPageCycle(t *testing.T) {
	urlToPath := map[string]string{
		"http://h/":  "h/index.html",
		"http://h/a": "h/a/index.html",
	}

	rootBody := `<a href="/a">a</a>`
	rewritten := Rewrite("http://h/", rootBody, urlToPath)
	if rewritten != `<a href="a/index.html">a</a>` {
		t.Errorf("root rewrite = %q", rewritten)
	}

	leafBody := `<a href="/">home</a>`
	rewritten = Rewrite("http://h/a", leafBody, urlToPath)
	if rewritten != `<a href="../index.html">home</a>` {
		t.Errorf("leaf rewrite = %q", rewritten)
	}
}

func TestRewriteSkipsExternalAndFragment(t *testing.T) {
	urlToPath := map[string]string{"http://h/": "h/index.html"}
	body := `<a href="#top">top</a><a href="http://other/x">ext</a>`
	got := Rewrite("http://h/", body, urlToPath)
	if got != body {
		t.Errorf("expected body unchanged, got %q", got)
	}
}

func TestRewriteUnmappedCurrentURLReturnsUnchanged(t *testing.T) {
	body := `<a href="/a">a</a>`
	got := Rewrite("http://h/unknown", body, map[string]string{})
	if got != body {
		t.Errorf("expected unchanged body when current URL has no mapping, got %q", got)
	}
}

func TestRewritePreservesQuoteStyle(t *testing.T) {
	urlToPath := map[string]string{
		"http://h/":  "h/index.html",
		"http://h/a": "h/a/index.html",
	}
	body := `<a href='/a'>a</a>`
	got := Rewrite("http://h/", body, urlToPath)
	if got != `<a href='a/index.html'>a</a>` {
		t.Errorf("got %q", got)
	}
}
