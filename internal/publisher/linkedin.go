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

const linkedinDefaultBaseURL = "https://api.linkedin.com"

// LinkedIn posts UGC shares on behalf of a member.
type LinkedIn struct {
	accessToken string
	personID    string

	baseURL string
	client  *http.Client
	logger  *slog.Logger

	mu            sync.Mutex
	authenticated bool
}

// NewLinkedIn creates a client with credentials from the environment.
func NewLinkedIn(logger *slog.Logger) *LinkedIn {
	return &LinkedIn{
		accessToken: os.Getenv("LINKEDIN_ACCESS_TOKEN"),
		personID:    os.Getenv("LINKEDIN_PERSON_ID"),
		baseURL:     linkedinDefaultBaseURL,
		client:      &http.Client{Timeout: 30 * time.Second},
		logger:      logger,
	}
}

func (l *LinkedIn) Platform() string { return "linkedin" }

// Configured reports whether the environment supplied credentials.
func (l *LinkedIn) Configured() bool {
	return l.accessToken != "" && l.personID != ""
}

func (l *LinkedIn) authenticate() bool {
	if !l.Configured() {
		l.logger.Warn("linkedin credentials not configured")
		return false
	}
	l.authenticated = true
	return true
}

func (l *LinkedIn) Post(ctx context.Context, post Post) Result {
	l.mu.Lock()
	if !l.authenticated && !l.authenticate() {
		l.mu.Unlock()
		return failure("linkedin", "not authenticated")
	}
	l.mu.Unlock()

	payload := map[string]any{
		"author":         "urn:li:person:" + l.personID,
		"lifecycleState": "PUBLISHED",
		"specificContent": map[string]any{
			"com.linkedin.ugc.ShareContent": map[string]any{
				"shareCommentary":    map[string]string{"text": post.Content},
				"shareMediaCategory": "NONE",
			},
		},
		"visibility": map[string]string{
			"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC",
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return failure("linkedin", err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.baseURL+"/v2/ugcPosts", bytes.NewReader(body))
	if err != nil {
		return failure("linkedin", err.Error())
	}
	req.Header.Set("Authorization", "Bearer "+l.accessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Restli-Protocol-Version", "2.0.0")

	resp, err := l.client.Do(req)
	if err != nil {
		return failure("linkedin", err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return failure("linkedin", fmt.Sprintf("linkedin API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data))))
	}

	return Result{
		Success:  true,
		Platform: "linkedin",
		PostID:   resp.Header.Get("x-restli-id"),
	}
}

func (l *LinkedIn) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Status{Platform: "linkedin", Authenticated: l.authenticated}
}
