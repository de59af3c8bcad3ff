package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"TranscriptEnricher/internal/domain"
	"TranscriptEnricher/internal/ports"
)

// FileSource reads a parsed transcript from a JSON file: an array of
// {timestamp, sender, text} objects. Transcript parsing proper happens
// upstream; this is only the hand-off format.
type FileSource struct {
	path string
}

var _ ports.TranscriptSource = (*FileSource)(nil)

// NewFileSource records the transcript path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Load decodes the file and returns messages in timestamp order.
func (s *FileSource) Load(_ context.Context) ([]domain.Message, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read transcript %s: %w", s.path, err)
	}

	var messages []domain.Message
	if err := json.Unmarshal(raw, &messages); err != nil {
		return nil, fmt.Errorf("decode transcript %s: %w", s.path, err)
	}

	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].Timestamp.Before(messages[j].Timestamp)
	})
	return messages, nil
}
