// Package content produces platform-tailored post copy for a
// campaign, via an LLM backend with a deterministic fallback.
package content

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
	"unicode"

	"github.com/crierhq/crier/internal/campaign"
	"github.com/crierhq/crier/internal/platform"
)

// GeneratedPost is the copy produced for a single platform.
type GeneratedPost struct {
	Content          string   `json:"content"`
	Hashtags         []string `json:"hashtags"`
	MediaSuggestions []string `json:"media_suggestions"`
	EngagementHooks  []string `json:"engagement_hooks"`
}

// Generator produces a post for one platform. Implementations must
// respect the descriptor's character limit.
type Generator interface {
	Generate(ctx context.Context, desc platform.Descriptor, product campaign.Product) (*GeneratedPost, error)
}

const (
	anthropicVersion  = "2023-06-01"
	defaultModel      = "claude-sonnet-4-20250514"
	defaultMaxTokens  = 1024
	defaultLLMTimeout = 45 * time.Second
)

// LLMGenerator calls an Anthropic-compatible messages endpoint and
// parses the first JSON object out of the reply.
type LLMGenerator struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
	logger  *slog.Logger
}

// NewLLMGenerator builds a generator against the given endpoint. An
// empty model selects the default; a zero timeout selects the default.
func NewLLMGenerator(baseURL, apiKey, model string, timeout time.Duration, logger *slog.Logger) *LLMGenerator {
	if model == "" {
		model = defaultModel
	}
	if timeout <= 0 {
		timeout = defaultLLMTimeout
	}
	return &LLMGenerator{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (g *LLMGenerator) Generate(ctx context.Context, desc platform.Descriptor, product campaign.Product) (*GeneratedPost, error) {
	prompt := buildPrompt(desc, product)

	body, err := json.Marshal(messagesRequest{
		Model:     g.model,
		MaxTokens: defaultMaxTokens,
		Messages:  []message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", g.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("generation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("generation endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var mr messagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	var text string
	for _, block := range mr.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}
	if text == "" {
		return nil, fmt.Errorf("generation response contained no text")
	}

	raw := extractJSON(text)
	if raw == "" {
		return nil, fmt.Errorf("generation response contained no JSON object")
	}

	var post GeneratedPost
	if err := json.Unmarshal([]byte(raw), &post); err != nil {
		return nil, fmt.Errorf("failed to parse generated post: %w", err)
	}
	if post.Content == "" {
		return nil, fmt.Errorf("generated post has no content")
	}

	post.Content = Truncate(post.Content, desc.MaxChars)
	return &post, nil
}

func buildPrompt(desc platform.Descriptor, product campaign.Product) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a %s social media post for %s promoting %q.\n",
		desc.Style, desc.Name, product.Name)
	if product.Description != "" {
		fmt.Fprintf(&b, "Product: %s\n", product.Description)
	}
	if product.Audience != "" {
		fmt.Fprintf(&b, "Audience: %s\n", product.Audience)
	}
	tone := desc.Tone
	if product.Style != "" {
		tone = product.Style
	}
	fmt.Fprintf(&b, "Tone: %s. Hard limit: %d characters.\n", tone, desc.MaxChars)
	b.WriteString(`Reply with a single JSON object: {"content": "...", "hashtags": [...], "media_suggestions": [...], "engagement_hooks": [...]}`)
	return b.String()
}

// extractJSON returns the first balanced {...} object in s, or "".
func extractJSON(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

// Fallback builds a deterministic post when no generator is configured
// or generation fails.
func Fallback(desc platform.Descriptor, product campaign.Product) *GeneratedPost {
	text := fmt.Sprintf("Check out %s!", product.Name)
	if product.Description != "" {
		text += " " + product.Description
	}
	return &GeneratedPost{
		Content:          Truncate(text, desc.MaxChars),
		Hashtags:         []string{"marketing", slug(product.Name)},
		MediaSuggestions: []string{"Product photo"},
		EngagementHooks:  []string{"Learn more!"},
	}
}

// Truncate shortens s to at most maxChars runes, replacing the tail
// with an ellipsis when it cuts.
func Truncate(s string, maxChars int) string {
	if maxChars <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	if maxChars <= 3 {
		return string(runes[:maxChars])
	}
	return string(runes[:maxChars-3]) + "..."
}

func slug(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "product"
	}
	return b.String()
}
