package extract

import (
	"testing"

	"TranscriptEnricher/internal/domain"
)

func TestNormalizeURL(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases scheme and host", "HTTPS://Example.COM/Path", "https://example.com/Path"},
		{"strips www prefix", "https://www.example.com/a", "https://example.com/a"},
		{"drops default https port", "https://example.com:443/a", "https://example.com/a"},
		{"drops default http port", "http://example.com:80/a", "http://example.com/a"},
		{"keeps custom port", "https://example.com:8443/a", "https://example.com:8443/a"},
		{"strips trailing slash", "https://example.com/a/", "https://example.com/a"},
		{"keeps root path", "https://example.com/", "https://example.com/"},
		{"sorts query parameters", "https://example.com/a?b=2&a=1", "https://example.com/a?a=1&b=2"},
		{"drops fragment", "https://example.com/a#section", "https://example.com/a"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := normalizeURL(tc.in)
			if err != nil {
				t.Fatalf("normalizeURL(%q) returned error: %v", tc.in, err)
			}
			if got != tc.want {
				t.Fatalf("normalizeURL(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalizeURLRejectsMalformed(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"http://:8080", "ftp://example.com/file", "not a url", ""} {
		if _, err := normalizeURL(in); err == nil {
			t.Fatalf("normalizeURL(%q) expected error", in)
		}
	}
}

func TestFingerprintStableAcrossEquivalentForms(t *testing.T) {
	t.Parallel()

	a, err := Fingerprint(domain.KindURL, "https://www.example.com/a/?b=1&a=2")
	if err != nil {
		t.Fatalf("fingerprint a: %v", err)
	}
	b, err := Fingerprint(domain.KindURL, "https://example.com/a?a=2&b=1")
	if err != nil {
		t.Fatalf("fingerprint b: %v", err)
	}
	if a != b {
		t.Fatalf("equivalent urls produced different fingerprints: %s vs %s", a, b)
	}
}

func TestFingerprintSeparatesKinds(t *testing.T) {
	t.Parallel()

	img, err := Fingerprint(domain.KindImage, "IMG-1.jpg")
	if err != nil {
		t.Fatalf("image fingerprint: %v", err)
	}
	vid, err := Fingerprint(domain.KindVideo, "IMG-1.jpg")
	if err != nil {
		t.Fatalf("video fingerprint: %v", err)
	}
	if img == vid {
		t.Fatalf("different kinds must not share a fingerprint")
	}
}

func TestFingerprintMediaCaseInsensitive(t *testing.T) {
	t.Parallel()

	a, err := Fingerprint(domain.KindImage, "IMG-20250101-WA0001.JPG")
	if err != nil {
		t.Fatalf("fingerprint upper: %v", err)
	}
	b, err := Fingerprint(domain.KindImage, "img-20250101-wa0001.jpg")
	if err != nil {
		t.Fatalf("fingerprint lower: %v", err)
	}
	if a != b {
		t.Fatalf("media fingerprints should ignore filename case")
	}
}
