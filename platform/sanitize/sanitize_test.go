package sanitize

import "testing"

func TestTextStripsMarkup(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"  building on fire  ", "building on fire"},
		{"<script>alert(1)</script>trapped", "alert(1)trapped"},
		{"&lt;img src=x onerror=alert(1)&gt;help", "help"},
		{"smoke &amp; flames", "smoke & flames"},
	}
	for _, tc := range cases {
		if got := Text(tc.in); got != tc.want {
			t.Fatalf("Text(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
