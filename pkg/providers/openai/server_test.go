package openai

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/modelport/modelport/pkg/llm"
)

// reply is one canned HTTP response
type reply struct {
	status int
	body   string
	header http.Header
}

func jsonReply(body string) reply {
	return reply{status: http.StatusOK, body: body, header: http.Header{"Content-Type": {"application/json"}}}
}

func errorReply(status int, errType, message string) reply {
	body, _ := json.Marshal(map[string]any{
		"error": map[string]any{"message": message, "type": errType, "code": nil},
	})
	return reply{status: status, body: string(body), header: http.Header{"Content-Type": {"application/json"}}}
}

func sseReply(events ...string) reply {
	var body string
	for _, e := range events {
		body += "data: " + e + "\n\n"
	}
	return reply{status: http.StatusOK, body: body, header: http.Header{"Content-Type": {"text/event-stream"}}}
}

// recorded is what the server saw of one request
type recorded struct {
	method string
	path   string
	query  string
	header http.Header
	raw    []byte
	body   map[string]any
}

// apiServer serves the replies in order and records every request
type apiServer struct {
	*httptest.Server

	mu       sync.Mutex
	replies  []reply
	requests []recorded
}

func newAPIServer(t *testing.T, replies ...reply) *apiServer {
	t.Helper()

	s := &apiServer{replies: replies}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

func (s *apiServer) handle(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	rec := recorded{
		method: r.Method,
		path:   r.URL.Path,
		query:  r.URL.RawQuery,
		header: r.Header.Clone(),
		raw:    raw,
	}
	_ = json.Unmarshal(raw, &rec.body)

	s.mu.Lock()
	idx := len(s.requests)
	s.requests = append(s.requests, rec)
	s.mu.Unlock()

	if idx >= len(s.replies) {
		http.Error(w, `{"error":{"message":"unexpected request","type":"test_error"}}`, http.StatusTeapot)
		return
	}
	rep := s.replies[idx]
	for k, v := range rep.header {
		w.Header()[k] = v
	}
	w.WriteHeader(rep.status)
	_, _ = io.WriteString(w, rep.body)
}

func (s *apiServer) request(i int) recorded {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[i]
}

func (s *apiServer) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func (s *apiServer) config() llm.ClientConfig {
	return llm.ClientConfig{
		Provider: ProviderName,
		APIKey:   "test-key",
		BaseURL:  s.URL + "/v1",
		Timeout:  5 * time.Second,
	}
}

// fastRetry retries quickly so tests exercising retries stay fast
func fastRetry() Option {
	return WithRetryTemplate(llm.NewRetryTemplate(llm.RetryConfig{
		MaxAttempts:     3,
		InitialInterval: time.Millisecond,
		Multiplier:      2,
		MaxInterval:     5 * time.Millisecond,
	}, nil))
}
