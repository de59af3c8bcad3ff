package extract

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"

	"TranscriptEnricher/internal/domain"
)

// Fingerprint derives the stable cache identity of a reference. The value is
// a UUIDv5 over the URL namespace of "<kind>\n<normalized reference>", so the
// same link shared twice (modulo canonicalization) maps to one key across runs.
func Fingerprint(kind domain.Kind, raw string) (string, error) {
	normalized, err := normalizeReference(kind, raw)
	if err != nil {
		return "", err
	}

	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte(string(kind)+"\n"+normalized))
	return id.String(), nil
}

func normalizeReference(kind domain.Kind, raw string) (string, error) {
	if kind == domain.KindURL {
		return normalizeURL(raw)
	}

	name := strings.ToLower(strings.TrimSpace(path.Base(strings.ReplaceAll(raw, "\\", "/"))))
	if name == "" || name == "." || name == "/" {
		return "", fmt.Errorf("empty media reference")
	}
	return name, nil
}

// normalizeURL canonicalizes a link before hashing: lowercase scheme and
// host, no leading www., no default port, no trailing slash on non-root
// paths, query parameters sorted, fragment dropped. Tracking parameters are
// kept; stripping them would change fingerprints already present in caches.
func normalizeURL(raw string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}

	host := strings.ToLower(parsed.Hostname())
	host = strings.TrimPrefix(host, "www.")
	if host == "" {
		return "", fmt.Errorf("url %q has no host", raw)
	}

	port := parsed.Port()
	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		port = ""
	}
	if port != "" {
		host = host + ":" + port
	}

	cleanPath := parsed.Path
	if len(cleanPath) > 1 {
		cleanPath = strings.TrimSuffix(cleanPath, "/")
	}

	canonical := url.URL{
		Scheme:   scheme,
		Host:     host,
		Path:     cleanPath,
		RawQuery: parsed.Query().Encode(),
	}
	return canonical.String(), nil
}
