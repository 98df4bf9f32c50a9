package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"
)

const (
	twitterDefaultBaseURL = "https://api.twitter.com"
	twitterMaxChars       = 280
	twitterMaxHashtags    = 5
)

// Twitter posts to X via the v2 create-tweet endpoint.
type Twitter struct {
	apiKey       string
	apiSecret    string
	accessToken  string
	accessSecret string
	bearerToken  string

	baseURL string
	client  *http.Client
	logger  *slog.Logger

	mu            sync.Mutex
	authenticated bool
}

// NewTwitter creates a client with credentials from the environment.
func NewTwitter(logger *slog.Logger) *Twitter {
	return &Twitter{
		apiKey:       os.Getenv("TWITTER_API_KEY"),
		apiSecret:    os.Getenv("TWITTER_API_SECRET"),
		accessToken:  os.Getenv("TWITTER_ACCESS_TOKEN"),
		accessSecret: os.Getenv("TWITTER_ACCESS_SECRET"),
		bearerToken:  os.Getenv("TWITTER_BEARER_TOKEN"),
		baseURL:      twitterDefaultBaseURL,
		client:       &http.Client{Timeout: 30 * time.Second},
		logger:       logger,
	}
}

func (t *Twitter) Platform() string { return "x" }

// Configured reports whether the environment supplied a full
// credential set. The bearer token is required because requests are
// signed with it.
func (t *Twitter) Configured() bool {
	return t.bearerToken != "" &&
		t.apiKey != "" && t.apiSecret != "" && t.accessToken != "" && t.accessSecret != ""
}

// authenticate validates the credential set. Called lazily on first
// post; a failure leaves the client unauthenticated rather than
// erroring.
func (t *Twitter) authenticate() bool {
	if !t.Configured() {
		t.logger.Warn("twitter credentials not configured")
		return false
	}
	t.authenticated = true
	return true
}

type createTweetRequest struct {
	Text string `json:"text"`
}

type createTweetResponse struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

func (t *Twitter) Post(ctx context.Context, post Post) Result {
	t.mu.Lock()
	if !t.authenticated && !t.authenticate() {
		t.mu.Unlock()
		return failure("x", "not authenticated")
	}
	t.mu.Unlock()

	content := withHashtags(post.Content, post.Hashtags, twitterMaxChars)

	body, err := json.Marshal(createTweetRequest{Text: content})
	if err != nil {
		return failure("x", err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/2/tweets", bytes.NewReader(body))
	if err != nil {
		return failure("x", err.Error())
	}
	req.Header.Set("Authorization", "Bearer "+t.bearerToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return failure("x", err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return failure("x", fmt.Sprintf("twitter API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data))))
	}

	var out createTweetResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return failure("x", fmt.Sprintf("failed to decode twitter response: %v", err))
	}

	return Result{
		Success:  true,
		Platform: "x",
		PostID:   out.Data.ID,
		URL:      "https://x.com/i/status/" + out.Data.ID,
	}
}

func (t *Twitter) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Status{Platform: "x", Authenticated: t.authenticated}
}

// withHashtags appends up to max hashtags when they fit inside the
// platform's character limit; otherwise the content is left as-is.
func withHashtags(content string, hashtags []string, maxChars int) string {
	if len(hashtags) == 0 {
		return content
	}
	if len(hashtags) > twitterMaxHashtags {
		hashtags = hashtags[:twitterMaxHashtags]
	}

	tags := make([]string, len(hashtags))
	for i, h := range hashtags {
		tags[i] = "#" + strings.TrimPrefix(h, "#")
	}
	suffix := strings.Join(tags, " ")

	if len(content)+len(suffix)+1 <= maxChars {
		return content + " " + suffix
	}
	return content
}
