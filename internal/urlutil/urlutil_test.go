package urlutil

import (
	"net/url"
	"testing"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"strips fragment", "http://h/a#frag", "http://h/a"},
		{"collapses slashes", "http://h//a///b", "http://h/a/b"},
		{"strips trailing slash", "http://h/a/", "http://h/a"},
		{"keeps root slash", "http://h/", "http://h/"},
		{"sorts query params", "http://h/a?b=2&a=1", "http://h/a?a=1&b=2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Canonicalize(tt.in)
			if !ok {
				t.Fatalf("Canonicalize(%q) failed", tt.in)
			}
			if got != tt.want {
				t.Errorf("Canonicalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCanonicalizeIdempotent(t *testing.T) {
	inputs := []string{"http://h//a/b/", "http://h/a?z=1&a=2#frag", "http://h/"}
	for _, in := range inputs {
		once, ok := Canonicalize(in)
		if !ok {
			t.Fatalf("Canonicalize(%q) failed", in)
		}
		twice, ok := Canonicalize(once)
		if !ok {
			t.Fatalf("Canonicalize(%q) failed on second pass", once)
		}
		if once != twice {
			t.Errorf("Canonicalize not idempotent: %q -> %q -> %q", in, once, twice)
		}
	}
}

func TestResolve(t *testing.T) {
	base, _ := url.Parse("http://h/dir/page")
	tests := []struct {
		name    string
		href    string
		wantOK  bool
		want    string
	}{
		{"empty", "", false, ""},
		{"fragment only", "#top", false, ""},
		{"javascript scheme", "javascript:alert(1)", false, ""},
		{"data scheme", "data:text/plain,hi", false, ""},
		{"mailto", "mailto:a@b.com", false, ""},
		{"template placeholder", "/x/{{id}}", false, ""},
		{"relative path", "other", true, "http://h/dir/other"},
		{"absolute path", "/top", true, "http://h/top"},
		{"non-http scheme absolute", "ftp://h/x", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Resolve(base, tt.href)
			if ok != tt.wantOK {
				t.Fatalf("Resolve(%q) ok = %v, want %v", tt.href, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.href, got, tt.want)
			}
		})
	}
}

func TestIsEventHandler(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"javascript:void(0)", true},
		{"data:text/plain,hi", true},
		{"foo:bar;baz", true},
		{"onclick(this)", true},
		{"/normal/path", false},
		{"http://h/a", false},
	}
	for _, tt := range tests {
		if got := IsEventHandler(tt.in); got != tt.want {
			t.Errorf("IsEventHandler(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestIsRecursive(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"triple slash", "http://h/a///b", true},
		{"encoded double slash", "http://h/a%2F%2Fb", true},
		{"four dotdot", "http://h/../../../../x", true},
		{"five short segments", "http://h/a/b/c/d/e/f", true},
		{"three identical segments", "http://h/a/a/a", true},
		{"segment repeated thrice non-consecutive", "http://h/a/b/a/c/a", true},
		{"legitimate deep path", "http://h/blog/2024/07/post-title", false},
		{"plain root", "http://h/", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRecursive(tt.in); got != tt.want {
				t.Errorf("IsRecursive(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestIsScope(t *testing.T) {
	tests := []struct {
		name    string
		u       string
		domains []string
		want    bool
	}{
		{"empty allowlist permits all", "http://anything/", nil, true},
		{"exact host match", "http://h/a", []string{"h"}, true},
		{"exact host mismatch", "http://other/a", []string{"h"}, false},
		{"wildcard matches bare suffix", "http://example.com/", []string{"*.example.com"}, true},
		{"wildcard matches subdomain", "http://www.example.com/", []string{"*.example.com"}, true},
		{"wildcard rejects unrelated host", "http://evil.com/", []string{"*.example.com"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsScope(tt.u, tt.domains); got != tt.want {
				t.Errorf("IsScope(%q, %v) = %v, want %v", tt.u, tt.domains, got, tt.want)
			}
		})
	}
}
