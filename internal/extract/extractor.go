package extract

import (
	"fmt"
	"log/slog"

	"TranscriptEnricher/internal/domain"
)

// Result carries the deduplicated items plus the count of references that
// were dropped during extraction (malformed links, unusable media markers).
type Result struct {
	Items   []domain.Item
	Skipped int
}

// Extractor walks an ordered transcript and produces enrichable items.
type Extractor struct {
	registry *Registry
	window   int
	logger   *slog.Logger
}

// New wires the scanner registry with the configured context-window size.
func New(registry *Registry, window int, logger *slog.Logger) *Extractor {
	if window < 0 {
		window = 0
	}
	return &Extractor{registry: registry, window: window, logger: logger}
}

// Extract scans every message in order. Items are deduplicated by
// fingerprint: a reference seen again keeps its first-seen position and has
// the later occurrence's context merged in. Output order matches first
// occurrence in the transcript.
func (e *Extractor) Extract(messages []domain.Message) Result {
	var result Result
	byFingerprint := map[string]int{}

	for idx, message := range messages {
		for _, scanner := range e.registry.All() {
			for _, ref := range scanner.Scan(message.Text) {
				if ref.Kind == "" {
					result.Skipped++
					e.debug("dropped reference without kind", "scanner", scanner.Name(), "raw", ref.Raw)
					continue
				}

				fingerprint, err := Fingerprint(ref.Kind, ref.Raw)
				if err != nil {
					result.Skipped++
					e.debug("dropped malformed reference", "scanner", scanner.Name(), "raw", ref.Raw, "error", err)
					continue
				}

				before, after := e.contextWindow(messages, idx)
				if pos, ok := byFingerprint[fingerprint]; ok {
					item := &result.Items[pos]
					item.ContextBefore = mergeContext(item.ContextBefore, before)
					item.ContextAfter = mergeContext(item.ContextAfter, after)
					continue
				}

				byFingerprint[fingerprint] = len(result.Items)
				result.Items = append(result.Items, domain.Item{
					Fingerprint:    fingerprint,
					Kind:           ref.Kind,
					RawReference:   ref.Raw,
					ContextBefore:  before,
					ContextAfter:   after,
					FirstSeenOrder: len(result.Items),
				})
			}
		}
	}

	return result
}

func (e *Extractor) contextWindow(messages []domain.Message, idx int) (before, after []string) {
	start := idx - e.window
	if start < 0 {
		start = 0
	}
	end := idx + e.window + 1
	if end > len(messages) {
		end = len(messages)
	}

	for _, msg := range messages[start:idx] {
		before = append(before, formatContextLine(msg))
	}
	for _, msg := range messages[idx+1 : end] {
		after = append(after, formatContextLine(msg))
	}
	return before, after
}

func formatContextLine(msg domain.Message) string {
	ts := ""
	if !msg.Timestamp.IsZero() {
		ts = msg.Timestamp.Format("15:04")
	}
	return fmt.Sprintf("%s — %s: %s", ts, msg.Sender, msg.Text)
}

func mergeContext(existing, extra []string) []string {
	seen := make(map[string]struct{}, len(existing))
	for _, line := range existing {
		seen[line] = struct{}{}
	}
	for _, line := range extra {
		if _, dup := seen[line]; dup {
			continue
		}
		seen[line] = struct{}{}
		existing = append(existing, line)
	}
	return existing
}

func (e *Extractor) debug(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Debug(msg, args...)
	}
}
