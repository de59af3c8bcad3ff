package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"TranscriptEnricher/internal/config"
	"TranscriptEnricher/internal/domain"
	"TranscriptEnricher/internal/ports"
)

const (
	requestTimeout = 45 * time.Second
	maxRetryTime   = 90 * time.Second
)

// AnalysisClient implements ports.Analyzer against an OpenAI-compatible
// multimodal gateway. The provider ingests the raw reference itself; this
// client only frames the request and parses the structured response.
type AnalysisClient struct {
	endpoint     string
	model        string
	apiKey       string
	systemPrompt string
	httpClient   *http.Client
	fetcher      ports.PageFetcher
	logger       *slog.Logger
}

var _ ports.Analyzer = (*AnalysisClient)(nil)

// NewAnalysisClient builds a client from configuration. The fetcher is
// optional; when present, URL analyses include a page snapshot so the model
// has grounding even if it cannot open the link directly.
func NewAnalysisClient(cfg config.LLMConfig, model string, fetcher ports.PageFetcher, logger *slog.Logger) *AnalysisClient {
	return &AnalysisClient{
		endpoint:     cfg.Endpoint,
		model:        model,
		apiKey:       cfg.APIKey,
		systemPrompt: safePrompt(cfg.SystemPrompt),
		httpClient:   &http.Client{Timeout: requestTimeout},
		fetcher:      fetcher,
		logger:       logger,
	}
}

type analysisPayload struct {
	Summary   string `json:"summary"`
	Relevance int    `json:"relevance"`
}

// Analyze sends one item to the provider and returns its summary and
// relevance score. Transient failures are retried with exponential backoff
// until the per-call budget or the run deadline runs out; HTTP 4xx responses
// are permanent.
func (c *AnalysisClient) Analyze(ctx context.Context, item domain.Item) (ports.Analysis, error) {
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return ports.Analysis{}, fmt.Errorf("analysis client misconfigured")
	}

	body, err := json.Marshal(map[string]any{
		"model":       c.model,
		"temperature": 0.2,
		"messages": []map[string]string{
			{"role": "system", "content": c.systemPrompt},
			{"role": "user", "content": c.buildPrompt(ctx, item)},
		},
	})
	if err != nil {
		return ports.Analysis{}, fmt.Errorf("marshal analysis request: %w", err)
	}

	var payload analysisPayload
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("new request: %w", err))
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("call provider: %w", err)
		}
		defer resp.Body.Close()

		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

		if resp.StatusCode >= http.StatusBadRequest {
			err := fmt.Errorf("provider error %s: %s", resp.Status, strings.TrimSpace(string(raw)))
			if resp.StatusCode < http.StatusInternalServerError {
				return backoff.Permanent(err)
			}
			return err
		}

		parsed, err := parseAnalysis(raw)
		if err != nil {
			return backoff.Permanent(err)
		}
		payload = parsed
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = maxRetryTime
	if err := backoff.Retry(op, backoff.WithContext(policy, ctx)); err != nil {
		return ports.Analysis{}, err
	}

	return ports.Analysis{SummaryText: payload.Summary, RelevanceScore: payload.Relevance}, nil
}

func (c *AnalysisClient) buildPrompt(ctx context.Context, item domain.Item) string {
	var b strings.Builder

	b.WriteString("Analyze the content shared in a group conversation and judge how relevant it is to the discussion.\n")
	b.WriteString("Respond with JSON only, no markdown fences, matching exactly: ")
	b.WriteString(`{"summary": "<2-3 sentence summary>", "relevance": <integer 1-5>}` + "\n\n")

	switch item.Kind {
	case domain.KindURL:
		fmt.Fprintf(&b, "Shared link: %s\n", item.RawReference)
		if c.fetcher != nil {
			if snapshot, err := c.fetcher.Snapshot(ctx, item.RawReference); err == nil && snapshot != "" {
				fmt.Fprintf(&b, "Page snapshot:\n%s\n", snapshot)
			} else if err != nil {
				c.debug("page snapshot unavailable", "url", item.RawReference, "error", err)
			}
		}
	default:
		fmt.Fprintf(&b, "Shared %s attachment: %s\n", item.Kind, item.RawReference)
		b.WriteString("Describe what the attachment most likely contains and why it was shared.\n")
	}

	if len(item.ContextBefore) > 0 {
		fmt.Fprintf(&b, "\nMessages before:\n%s\n", strings.Join(item.ContextBefore, "\n"))
	}
	if len(item.ContextAfter) > 0 {
		fmt.Fprintf(&b, "\nMessages after:\n%s\n", strings.Join(item.ContextAfter, "\n"))
	}

	return b.String()
}

// parseAnalysis reads choices[0].message.content and pulls the first balanced
// JSON object out of it, tolerating markdown fences around the payload.
func parseAnalysis(raw []byte) (analysisPayload, error) {
	var completion struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &completion); err != nil {
		return analysisPayload{}, fmt.Errorf("decode completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return analysisPayload{}, fmt.Errorf("completion has no choices")
	}

	content := extractJSON(completion.Choices[0].Message.Content)
	if content == "" {
		return analysisPayload{}, fmt.Errorf("no JSON object in provider output")
	}

	var payload analysisPayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return analysisPayload{}, fmt.Errorf("decode analysis payload: %w", err)
	}
	return payload, nil
}

// extractJSON returns the first balanced JSON object in s, stripping common
// markdown fences first.
func extractJSON(s string) string {
	for _, fence := range []string{"```json", "```", "`"} {
		s = strings.ReplaceAll(s, fence, "")
	}

	start := strings.Index(s, "{")
	if start == -1 {
		return ""
	}

	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return strings.TrimSpace(s[start : i+1])
			}
		}
	}
	return ""
}

func safePrompt(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "You summarize shared links and media for a conversation digest."
	}
	return prompt
}

func (c *AnalysisClient) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
