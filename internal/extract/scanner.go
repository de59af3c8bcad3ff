package extract

import (
	"regexp"
	"strings"

	"TranscriptEnricher/internal/domain"
)

// Reference is a raw enrichable mention found inside one message.
type Reference struct {
	Kind domain.Kind
	Raw  string
}

// Scanner finds references of a single family in a message text.
type Scanner interface {
	Name() string
	Scan(text string) []Reference
}

// Registry keeps scanners in registration order so extraction output stays
// deterministic for a given transcript.
type Registry struct {
	scanners []Scanner
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends a scanner; later registrations scan after earlier ones.
func (r *Registry) Register(scanner Scanner) {
	r.scanners = append(r.scanners, scanner)
}

// All returns the registered scanners in order.
func (r *Registry) All() []Scanner {
	return r.scanners
}

var urlExpr = regexp.MustCompile(`https?://[^\s>)]+`)

// URLScanner extracts http(s) links from message text.
type URLScanner struct{}

// NewURLScanner builds the link strategy.
func NewURLScanner() *URLScanner {
	return &URLScanner{}
}

// Name identifies the strategy inside the registry.
func (s *URLScanner) Name() string {
	return "url"
}

// Scan returns every link occurrence in order of appearance.
func (s *URLScanner) Scan(text string) []Reference {
	if text == "" {
		return nil
	}

	var refs []Reference
	for _, match := range urlExpr.FindAllString(text, -1) {
		refs = append(refs, Reference{Kind: domain.KindURL, Raw: match})
	}
	return refs
}

// Attachment markers used by chat exports to flag shared media.
var attachmentMarkers = []string{
	"(file attached)",
	"(arquivo anexado)",
	"(archivo adjunto)",
	"<attached:",
}

var (
	markedFileExpr   = regexp.MustCompile(`([\w\-.]+\.\w+)\s*(?:\(file attached\)|\(arquivo anexado\)|\(archivo adjunto\))`)
	angleAttachExpr  = regexp.MustCompile(`<attached:\s*([^>]*)>`)
	exportedFileExpr = regexp.MustCompile(`\b((?:IMG|VID|DOC)-\d+-WA\d+\.\w+)\b`)
)

// Extensions the analysis provider can ingest, mapped to their kind.
var mediaKinds = map[string]domain.Kind{
	".jpg":  domain.KindImage,
	".jpeg": domain.KindImage,
	".png":  domain.KindImage,
	".gif":  domain.KindImage,
	".webp": domain.KindImage,
	".mp4":  domain.KindVideo,
	".mov":  domain.KindVideo,
	".3gp":  domain.KindVideo,
	".avi":  domain.KindVideo,
	".pdf":  domain.KindPDF,
}

// KindForFilename resolves the media kind from a filename extension.
func KindForFilename(name string) (domain.Kind, bool) {
	dot := strings.LastIndex(name, ".")
	if dot < 0 {
		return "", false
	}
	kind, ok := mediaKinds[strings.ToLower(name[dot:])]
	return kind, ok
}

// MediaScanner extracts attached media filenames from message text.
type MediaScanner struct{}

// NewMediaScanner builds the media strategy.
func NewMediaScanner() *MediaScanner {
	return &MediaScanner{}
}

// Name identifies the strategy inside the registry.
func (s *MediaScanner) Name() string {
	return "media"
}

// Scan returns one reference per media mention. Markers without a usable
// filename still yield a reference with an empty kind so the extractor can
// count them as dropped instead of losing them silently.
func (s *MediaScanner) Scan(text string) []Reference {
	if text == "" || !mentionsAttachment(text) {
		return nil
	}

	seen := map[string]struct{}{}
	var refs []Reference

	add := func(name string) {
		name = strings.TrimSpace(name)
		key := strings.ToLower(name)
		if name != "" {
			if _, dup := seen[key]; dup {
				return
			}
			seen[key] = struct{}{}
		}

		kind, ok := KindForFilename(name)
		if !ok {
			// Unsupported or missing filename; dropped downstream.
			refs = append(refs, Reference{Kind: "", Raw: name})
			return
		}
		refs = append(refs, Reference{Kind: kind, Raw: name})
	}

	for _, match := range markedFileExpr.FindAllStringSubmatch(text, -1) {
		add(match[1])
	}
	for _, match := range angleAttachExpr.FindAllStringSubmatch(text, -1) {
		add(match[1])
	}
	for _, match := range exportedFileExpr.FindAllStringSubmatch(text, -1) {
		add(match[1])
	}

	if len(refs) == 0 {
		// A marker was present but no filename could be recovered.
		refs = append(refs, Reference{Kind: "", Raw: ""})
	}

	return refs
}

func mentionsAttachment(text string) bool {
	lower := strings.ToLower(text)
	for _, marker := range attachmentMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return exportedFileExpr.MatchString(text)
}
