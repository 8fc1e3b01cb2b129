package dedup

import "testing"

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://example.com/a", "https://example.com/a"},
		{"HTTP://WWW.Example.COM:80/a/b/?utm_source=x&b=2&a=1#frag", "http://example.com/a/b?a=1&b=2"},
		{"example.com/path", "https://example.com/path"},
		{"//cdn.example.com/x", "https://cdn.example.com/x"},
		{"https://example.com", "https://example.com/"},
		{"https://example.com/", "https://example.com/"},
		{"https://example.com:443/x", "https://example.com/x"},
		{"https://example.com:8443/x", "https://example.com:8443/x"},
		{"https://example.com/a?utm_medium=m", "https://example.com/a"},
		{"  https://example.com/Case  ", "https://example.com/Case"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := NormalizeURL(tt.in); got != tt.want {
				t.Errorf("NormalizeURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeURL_Idempotent(t *testing.T) {
	for _, in := range []string{"HTTP://WWW.Example.COM:80/a/?b=1#x", "example.com", "https://a.b/c/"} {
		once := NormalizeURL(in)
		if twice := NormalizeURL(once); twice != once {
			t.Errorf("not idempotent: %q -> %q -> %q", in, once, twice)
		}
	}
}

func TestContentKey(t *testing.T) {
	a := ContentKey("ab", "c")
	b := ContentKey("a", "bc")
	if a == b {
		t.Error("part boundaries must affect the key")
	}
	if len(a) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(a))
	}
	if ContentKey("x") != ContentKey("x") {
		t.Error("key must be deterministic")
	}
}
