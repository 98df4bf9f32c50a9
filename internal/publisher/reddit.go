package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"
)

const (
	redditAuthBaseURL = "https://www.reddit.com"
	redditAPIBaseURL  = "https://oauth.reddit.com"
	redditUserAgent   = "crier/0.1 (campaign scheduler)"
	redditTitleMax    = 100
)

// Reddit submits self posts as a script app (password grant).
type Reddit struct {
	clientID     string
	clientSecret string
	username     string
	password     string

	authBaseURL string
	apiBaseURL  string
	client      *http.Client
	logger      *slog.Logger

	mu            sync.Mutex
	authenticated bool
	token         string
}

// NewReddit creates a client with credentials from the environment.
func NewReddit(logger *slog.Logger) *Reddit {
	return &Reddit{
		clientID:     os.Getenv("REDDIT_CLIENT_ID"),
		clientSecret: os.Getenv("REDDIT_CLIENT_SECRET"),
		username:     os.Getenv("REDDIT_USERNAME"),
		password:     os.Getenv("REDDIT_PASSWORD"),
		authBaseURL:  redditAuthBaseURL,
		apiBaseURL:   redditAPIBaseURL,
		client:       &http.Client{Timeout: 30 * time.Second},
		logger:       logger,
	}
}

func (r *Reddit) Platform() string { return "reddit" }

// Configured reports whether the environment supplied a full
// credential set.
func (r *Reddit) Configured() bool {
	return r.clientID != "" && r.clientSecret != "" && r.username != "" && r.password != ""
}

// authenticate exchanges the script-app credentials for an access
// token. Must be called with the mutex held.
func (r *Reddit) authenticate(ctx context.Context) bool {
	if !r.Configured() {
		r.logger.Warn("reddit credentials not configured")
		return false
	}

	form := url.Values{
		"grant_type": {"password"},
		"username":   {r.username},
		"password":   {r.password},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		r.authBaseURL+"/api/v1/access_token", strings.NewReader(form.Encode()))
	if err != nil {
		r.logger.Error("reddit auth request failed", "error", err)
		return false
	}
	req.SetBasicAuth(r.clientID, r.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", redditUserAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Error("reddit auth failed", "error", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		r.logger.Error("reddit auth rejected", "status", resp.StatusCode)
		return false
	}

	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || out.AccessToken == "" {
		r.logger.Error("reddit auth response invalid", "error", err)
		return false
	}

	r.token = out.AccessToken
	r.authenticated = true
	return true
}

func (r *Reddit) Post(ctx context.Context, post Post) Result {
	r.mu.Lock()
	if !r.authenticated && !r.authenticate(ctx) {
		r.mu.Unlock()
		return failure("reddit", "not authenticated")
	}
	token := r.token
	r.mu.Unlock()

	subreddit := post.Subreddit
	if subreddit == "" {
		subreddit = "test"
	}
	title := post.Title
	if title == "" {
		title = truncateTitle(post.Content)
	}

	form := url.Values{
		"sr":       {subreddit},
		"kind":     {"self"},
		"title":    {title},
		"text":     {post.Content},
		"api_type": {"json"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		r.apiBaseURL+"/api/submit", strings.NewReader(form.Encode()))
	if err != nil {
		return failure("reddit", err.Error())
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", redditUserAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return failure("reddit", err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return failure("reddit", fmt.Sprintf("reddit API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data))))
	}

	var out struct {
		JSON struct {
			Data struct {
				Name string `json:"name"`
				URL  string `json:"url"`
			} `json:"data"`
			Errors [][]any `json:"errors"`
		} `json:"json"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return failure("reddit", fmt.Sprintf("failed to decode reddit response: %v", err))
	}
	if len(out.JSON.Errors) > 0 {
		return failure("reddit", fmt.Sprintf("reddit rejected submission: %v", out.JSON.Errors[0]))
	}

	return Result{
		Success:  true,
		Platform: "reddit",
		PostID:   out.JSON.Data.Name,
		URL:      out.JSON.Data.URL,
	}
}

func (r *Reddit) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Status{Platform: "reddit", Authenticated: r.authenticated}
}

func truncateTitle(content string) string {
	runes := []rune(content)
	if len(runes) <= redditTitleMax {
		return content
	}
	return string(runes[:redditTitleMax])
}
