package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"testing"
)

// newTestClient points a client at a fake Chat Completions endpoint.
func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	opts = append([]Option{WithEndpoint(srv.URL), WithHTTPClient(srv.Client())}, opts...)
	return NewClient("test-key", opts...)
}

// replyWith returns a handler answering every request with the given
// assistant text.
func replyWith(text string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": text}},
			},
		})
	}
}

func decodeRequest(t *testing.T, r *http.Request) chatRequest {
	t.Helper()
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		t.Fatalf("decoding request: %v", err)
	}
	return req
}

func TestSendUserMessageCommitsPair(t *testing.T) {
	c := newTestClient(t, replyWith("Hello"))

	reply, err := c.SendUserMessage(context.Background(), "Hi")
	if err != nil {
		t.Fatalf("SendUserMessage: %v", err)
	}
	if reply != "Hello" {
		t.Errorf("reply = %q, want Hello", reply)
	}

	want := pair("Hi", "Hello")
	if got := c.History(); !reflect.DeepEqual(got, want) {
		t.Errorf("history = %+v, want %+v", got, want)
	}
}

func TestSendUserMessageGrowsByOnePair(t *testing.T) {
	c := newTestClient(t, replyWith("ack"))

	for i := 0; i < 3; i++ {
		before := len(c.History())
		msg := fmt.Sprintf("message %d", i)
		if _, err := c.SendUserMessage(context.Background(), msg); err != nil {
			t.Fatalf("SendUserMessage: %v", err)
		}

		hist := c.History()
		if len(hist) != before+2 {
			t.Fatalf("history length = %d, want %d", len(hist), before+2)
		}
		last := hist[len(hist)-2:]
		if !reflect.DeepEqual(last, pair(msg, "ack")) {
			t.Errorf("last pair = %+v, want (%q, ack)", last, msg)
		}
	}
}

func TestSendPromptStateless(t *testing.T) {
	var got chatRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = decodeRequest(t, r)
		replyWith("pong")(w, r)
	})
	c.SetSystemInstructions("ignored for stateless calls")

	reply, err := c.SendPrompt(context.Background(), "ping")
	if err != nil {
		t.Fatalf("SendPrompt: %v", err)
	}
	if reply != "pong" {
		t.Errorf("reply = %q, want pong", reply)
	}

	want := []Message{{Role: RoleUser, Content: "ping"}}
	if !reflect.DeepEqual(got.Messages, want) {
		t.Errorf("outgoing messages = %+v, want %+v", got.Messages, want)
	}
	if hist := c.History(); len(hist) != 1 || hist[0].Role != RoleSystem {
		t.Errorf("history after stateless call = %+v, want only the system message", hist)
	}
}

func TestRequestPayloadShape(t *testing.T) {
	var got chatRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("Authorization = %q", auth)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		got = decodeRequest(t, r)
		replyWith("ok")(w, r)
	}, WithModel(ModelGPT4oMini))
	c.SetSystemInstructions("Be concise.")

	if _, err := c.SendUserMessage(context.Background(), "Hi"); err != nil {
		t.Fatalf("SendUserMessage: %v", err)
	}

	if got.Model != ModelGPT4oMini {
		t.Errorf("model = %q, want %q", got.Model, ModelGPT4oMini)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != RoleSystem {
		t.Errorf("outgoing messages = %+v, want system first then user", got.Messages)
	}
}

// Scenario: the system directive stays first across any number of
// exchanges, and setting it twice keeps only the second value.
func TestSystemInstructionsStayFirst(t *testing.T) {
	c := newTestClient(t, replyWith("ok"))
	c.SetSystemInstructions("Be verbose.")
	c.SetSystemInstructions("Be concise.")

	for n := 0; n < 3; n++ {
		if _, err := c.SendUserMessage(context.Background(), "hey"); err != nil {
			t.Fatalf("SendUserMessage: %v", err)
		}
	}

	hist := c.History()
	if hist[0].Role != RoleSystem || hist[0].Content != "Be concise." {
		t.Errorf("history[0] = %+v, want system:\"Be concise.\"", hist[0])
	}
	for _, m := range hist[1:] {
		if m.Role == RoleSystem {
			t.Fatalf("history contains a second system entry: %+v", hist)
		}
	}
}

// Scenario: a budget below the size of two pairs trims the oldest
// exchanges but always keeps at least one.
func TestTokenLimitBoundsHistory(t *testing.T) {
	c := newTestClient(t, replyWith(strings.Repeat("wordy answer ", 10)))
	c.EnableTokenLimit(60)

	for i := 0; i < 3; i++ {
		if _, err := c.SendUserMessage(context.Background(), fmt.Sprintf("question %d", i)); err != nil {
			t.Fatalf("SendUserMessage: %v", err)
		}
	}

	hist := c.History()
	if len(hist) >= 6 {
		t.Errorf("history length = %d, want fewer than three pairs", len(hist))
	}
	if len(hist) < 2 {
		t.Errorf("history length = %d, want at least one pair", len(hist))
	}
	if last := hist[len(hist)-2]; last.Content != "question 2" {
		t.Errorf("most recent user entry = %+v, want question 2 (recency preserved)", last)
	}
}

func TestDisableTokenLimit(t *testing.T) {
	c := newTestClient(t, replyWith(strings.Repeat("wordy answer ", 10)))
	c.EnableTokenLimit(60)
	c.DisableTokenLimit()

	for i := 0; i < 3; i++ {
		if _, err := c.SendUserMessage(context.Background(), fmt.Sprintf("question %d", i)); err != nil {
			t.Fatalf("SendUserMessage: %v", err)
		}
	}

	if got := len(c.History()); got != 6 {
		t.Errorf("history length = %d, want all three pairs kept", got)
	}
}

// Scenario: a 500 with a structured error body surfaces code and
// message, and the failed exchange leaves no trace in history.
func TestAPIErrorRollsBack(t *testing.T) {
	fail := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":{"code":"rate_limited","message":"slow down"}}`))
			return
		}
		replyWith("ok")(w, r)
	})

	if _, err := c.SendUserMessage(context.Background(), "warmup"); err != nil {
		t.Fatalf("SendUserMessage: %v", err)
	}
	before := c.History()

	fail = true
	_, err := c.SendUserMessage(context.Background(), "ping")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.Code != "rate_limited" || apiErr.Message != "slow down" || apiErr.Status != 500 {
		t.Errorf("APIError = %+v", apiErr)
	}
	if got := c.History(); !reflect.DeepEqual(got, before) {
		t.Errorf("history after failure = %+v, want unchanged %+v", got, before)
	}
}

func TestAPIErrorPlaceholders(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode string
		wantMsg  string
	}{
		{"missing code", `{"error":{"message":"nope"}}`, "unknown code", "nope"},
		{"missing message", `{"error":{"code":"bad_request"}}`, "bad_request", "unknown error message"},
		{"unparseable body", `<html>gateway error</html>`, "unknown code", "unknown error message"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(tt.body))
			})

			_, err := c.SendUserMessage(context.Background(), "ping")
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("error = %v, want *APIError", err)
			}
			if apiErr.Code != tt.wantCode || apiErr.Message != tt.wantMsg {
				t.Errorf("APIError = %+v, want code %q message %q", apiErr, tt.wantCode, tt.wantMsg)
			}
		})
	}
}

func TestMalformedResponseRollsBack(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	})

	_, err := c.SendUserMessage(context.Background(), "Hi")
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("error = %v, want ErrMalformedResponse", err)
	}
	if got := c.History(); len(got) != 0 {
		t.Errorf("history after malformed response = %+v, want empty", got)
	}
}

func TestTransportFailureRollsBack(t *testing.T) {
	srv := httptest.NewServer(replyWith("never reached"))
	c := NewClient("test-key", WithEndpoint(srv.URL), WithHTTPClient(srv.Client()))
	srv.Close() // connection refused from here on

	_, err := c.SendUserMessage(context.Background(), "Hi")
	if err == nil {
		t.Fatal("expected a transport error")
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) || errors.Is(err, ErrMalformedResponse) {
		t.Errorf("transport failure surfaced as %v, want a plain communication error", err)
	}
	if got := c.History(); len(got) != 0 {
		t.Errorf("history after transport failure = %+v, want empty", got)
	}
}

// Concurrent exchanges serialize on the client lock: the final history
// must hold only complete, alternating pairs.
func TestConcurrentExchangesKeepPairInvariant(t *testing.T) {
	c := newTestClient(t, replyWith("ack"))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.SendUserMessage(context.Background(), fmt.Sprintf("msg %d", i)); err != nil {
				t.Errorf("SendUserMessage: %v", err)
			}
		}()
	}
	wg.Wait()

	hist := c.History()
	if len(hist) != 16 {
		t.Fatalf("history length = %d, want 16", len(hist))
	}
	for i, m := range hist {
		want := RoleUser
		if i%2 == 1 {
			want = RoleAssistant
		}
		if m.Role != want {
			t.Errorf("history[%d].Role = %q, want %q", i, m.Role, want)
		}
	}
}
