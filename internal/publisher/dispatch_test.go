package publisher

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&strings.Builder{}, nil))
}

func TestDispatcherUnknownPlatform(t *testing.T) {
	d := NewDispatcher(testLogger())

	res := d.Post(context.Background(), "myspace", Post{Content: "hi"})
	if res.Success {
		t.Fatal("expected failure for unregistered platform")
	}
	if !strings.Contains(res.Err, "not supported") {
		t.Errorf("unexpected error: %q", res.Err)
	}
	if res.Platform != "myspace" {
		t.Errorf("platform = %q, want myspace", res.Platform)
	}
}

func TestDispatcherMockPost(t *testing.T) {
	d := NewDispatcher(testLogger())
	d.Register(NewMock("instagram"))

	res := d.Post(context.Background(), "instagram", Post{Content: "launch day"})
	if !res.Success {
		t.Fatalf("post failed: %s", res.Err)
	}
	if res.PostID == "" || !strings.HasPrefix(res.PostID, "mock_instagram_") {
		t.Errorf("unexpected post id %q", res.PostID)
	}

	// Same content yields the same id.
	again := d.Post(context.Background(), "instagram", Post{Content: "launch day"})
	if again.PostID != res.PostID {
		t.Errorf("post id not deterministic: %q vs %q", again.PostID, res.PostID)
	}
}

func TestDispatcherStatusesSorted(t *testing.T) {
	d := NewDispatcher(testLogger())
	d.Register(NewMock("x"))
	d.Register(NewMock("instagram"))
	d.Register(NewMock("linkedin"))

	statuses := d.Statuses()
	if len(statuses) != 3 {
		t.Fatalf("got %d statuses, want 3", len(statuses))
	}
	want := []string{"instagram", "linkedin", "x"}
	for i, s := range statuses {
		if s.Platform != want[i] {
			t.Errorf("statuses[%d] = %q, want %q", i, s.Platform, want[i])
		}
		if !s.Mock {
			t.Errorf("statuses[%d].Mock = false, want true", i)
		}
	}
}

func TestTwitterUnconfigured(t *testing.T) {
	tw := &Twitter{
		baseURL: "http://127.0.0.1:0",
		client:  http.DefaultClient,
		logger:  testLogger(),
	}

	res := tw.Post(context.Background(), Post{Content: "hi"})
	if res.Success {
		t.Fatal("expected failure without credentials")
	}
	if !strings.Contains(res.Err, "not authenticated") {
		t.Errorf("unexpected error: %q", res.Err)
	}
}

func TestTwitterMissingBearerToken(t *testing.T) {
	tw := &Twitter{
		apiKey:       "k",
		apiSecret:    "s",
		accessToken:  "at",
		accessSecret: "as",
		baseURL:      "http://127.0.0.1:0",
		client:       http.DefaultClient,
		logger:       testLogger(),
	}

	if tw.Configured() {
		t.Fatal("configured without a bearer token")
	}
	res := tw.Post(context.Background(), Post{Content: "hi"})
	if res.Success {
		t.Fatal("expected failure without a bearer token")
	}
	if !strings.Contains(res.Err, "not authenticated") {
		t.Errorf("unexpected error: %q", res.Err)
	}
}

func TestTwitterPost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/2/tweets" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("auth header = %q", got)
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]string{"id": "12345"},
		})
	}))
	defer srv.Close()

	tw := &Twitter{
		bearerToken:   "tok",
		baseURL:       srv.URL,
		client:        srv.Client(),
		logger:        testLogger(),
		authenticated: true,
	}

	res := tw.Post(context.Background(), Post{Content: "hello world", Hashtags: []string{"launch"}})
	if !res.Success {
		t.Fatalf("post failed: %s", res.Err)
	}
	if res.PostID != "12345" {
		t.Errorf("post id = %q, want 12345", res.PostID)
	}
	if res.URL != "https://x.com/i/status/12345" {
		t.Errorf("url = %q", res.URL)
	}
}

func TestWithHashtags(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		hashtags []string
		want     string
	}{
		{
			name:     "appended when they fit",
			content:  "short post",
			hashtags: []string{"go", "launch"},
			want:     "short post #go #launch",
		},
		{
			name:     "skipped when over the limit",
			content:  strings.Repeat("a", 278),
			hashtags: []string{"toolong"},
			want:     strings.Repeat("a", 278),
		},
		{
			name:    "no hashtags",
			content: "plain",
			want:    "plain",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := withHashtags(tt.content, tt.hashtags, 280)
			if got != tt.want {
				t.Errorf("withHashtags() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRedditPost(t *testing.T) {
	auth := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/access_token" {
			t.Errorf("unexpected auth path %s", r.URL.Path)
		}
		if user, pass, ok := r.BasicAuth(); !ok || user != "cid" || pass != "secret" {
			t.Errorf("bad basic auth %q %q", user, pass)
		}
		json.NewEncoder(w).Encode(map[string]string{"access_token": "rtok"})
	}))
	defer auth.Close()

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/submit" {
			t.Errorf("unexpected submit path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer rtok" {
			t.Errorf("auth header = %q", got)
		}
		r.ParseForm()
		if got := r.Form.Get("sr"); got != "golang" {
			t.Errorf("sr = %q, want golang", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"json": map[string]any{
				"data": map[string]string{
					"name": "t3_abc123",
					"url":  "https://reddit.com/r/golang/comments/abc123",
				},
			},
		})
	}))
	defer api.Close()

	rd := &Reddit{
		clientID:     "cid",
		clientSecret: "secret",
		username:     "bot",
		password:     "pw",
		authBaseURL:  auth.URL,
		apiBaseURL:   api.URL,
		client:       http.DefaultClient,
		logger:       testLogger(),
	}

	res := rd.Post(context.Background(), Post{
		Content:   "a longer body",
		Title:     "launch announcement",
		Subreddit: "golang",
	})
	if !res.Success {
		t.Fatalf("post failed: %s", res.Err)
	}
	if res.PostID != "t3_abc123" {
		t.Errorf("post id = %q", res.PostID)
	}

	st := rd.Status()
	if !st.Authenticated {
		t.Error("expected authenticated after successful post")
	}
}

func TestTruncateTitle(t *testing.T) {
	long := strings.Repeat("x", 150)
	if got := truncateTitle(long); len([]rune(got)) != redditTitleMax {
		t.Errorf("truncated to %d runes, want %d", len([]rune(got)), redditTitleMax)
	}
	if got := truncateTitle("short"); got != "short" {
		t.Errorf("short title changed: %q", got)
	}
}
