package dedup

import "testing"

func TestCanonicalizeURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "strips tracking params",
			in:   "https://example.com/post/1?utm_source=feed&utm_medium=social",
			want: "https://example.com/post/1",
		},
		{
			name: "keeps meaningful params sorted",
			in:   "https://example.com/watch?v=abc&t=10",
			want: "https://example.com/watch?t=10&v=abc",
		},
		{
			name: "upgrades scheme and lowercases host",
			in:   "http://Example.COM/Post/1",
			want: "https://example.com/Post/1",
		},
		{
			name: "drops fragment and trailing slash",
			in:   "https://example.com/post/1/#comments",
			want: "https://example.com/post/1",
		},
		{
			name: "share token variants collapse",
			in:   "https://www.instagram.com/p/Cxyz/?igsh=token123",
			want: "https://www.instagram.com/p/Cxyz",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanonicalizeURL(tt.in); got != tt.want {
				t.Errorf("CanonicalizeURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCanonicalizeURLVariantsShareDocID(t *testing.T) {
	variants := []string{
		"http://x.com/p/1?ref=abc&utm_campaign=launch",
		"https://x.com/p/1/?utm_campaign=other&ref=abc",
		"https://X.com/p/1?ref=abc#top",
	}

	want := DocID(CanonicalizeURL(variants[0]))
	for _, v := range variants[1:] {
		if got := DocID(CanonicalizeURL(v)); got != want {
			t.Errorf("DocID for %q = %s, want %s", v, got, want)
		}
	}
}

func TestDocIDStable(t *testing.T) {
	id := DocID("https://example.com/post/1")
	if len(id) != 32 {
		t.Errorf("DocID length = %d, want 32", len(id))
	}
	if id != DocID("https://example.com/post/1") {
		t.Error("DocID is not deterministic")
	}
	if id == DocID("https://example.com/post/2") {
		t.Error("distinct URLs produced the same DocID")
	}
}
