package api

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestRequestAPIKey(t *testing.T) {
	tests := []struct {
		name   string
		header string
		value  string
		want   string
	}{
		{"bearer", "Authorization", "Bearer secret", "secret"},
		{"raw authorization", "Authorization", "secret", "secret"},
		{"x-api-key", "X-API-Key", "secret", "secret"},
		{"none", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set(tt.header, tt.value)
			}
			if got := requestAPIKey(r); got != tt.want {
				t.Errorf("requestAPIKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoggingMiddlewareCampaignID(t *testing.T) {
	var buf strings.Builder
	s := &Server{logger: slog.New(slog.NewTextHandler(&buf, nil))}

	r := chi.NewRouter()
	r.Use(s.loggingMiddleware)
	r.Get("/campaigns/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/campaigns/camp_42", nil))

	if !strings.Contains(buf.String(), "campaign_id=camp_42") {
		t.Errorf("log line missing campaign id: %s", buf.String())
	}
}
