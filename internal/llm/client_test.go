package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, maxAttempts int) *GatewayClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewGatewayClient(Options{
		BaseURL:     srv.URL,
		Model:       "test-model",
		Timeout:     5 * time.Second,
		MaxAttempts: maxAttempts,
	}, nil)
	require.NoError(t, err)
	return client
}

func completionBody(content string) string {
	return `{"choices":[{"message":{"role":"assistant","content":` + jsonString(content) + `}}]}`
}

func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func simpleRequest() CompletionRequest {
	return CompletionRequest{
		Messages:    []Message{{Role: "user", Content: "hello"}},
		Temperature: 0.5,
		MaxTokens:   100,
	}
}

func TestNewGatewayClient_RequiresBaseURLAndModel(t *testing.T) {
	_, err := NewGatewayClient(Options{Model: "m"}, nil)
	assert.Error(t, err)

	_, err = NewGatewayClient(Options{BaseURL: "http://localhost:1234"}, nil)
	assert.Error(t, err)
}

func TestChatCompletion_Success(t *testing.T) {
	var gotPayload chatCompletionPayload
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		w.Write([]byte(completionBody("generated text")))
	}, 1)

	out, err := client.ChatCompletion(context.Background(), simpleRequest())
	require.NoError(t, err)
	assert.Equal(t, "generated text", out)
	assert.Equal(t, "test-model", gotPayload.Model)
	assert.Equal(t, 100, gotPayload.MaxTokens)
	assert.False(t, gotPayload.Stream)
}

func TestChatCompletion_RequiresMessages(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}, 1)

	_, err := client.ChatCompletion(context.Background(), CompletionRequest{})
	assert.Error(t, err)
}

func TestChatCompletion_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "model loading", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(completionBody("after retry")))
	}, 3)

	out, err := client.ChatCompletion(context.Background(), simpleRequest())
	require.NoError(t, err)
	assert.Equal(t, "after retry", out)
	assert.Equal(t, int32(2), calls.Load())
}

func TestChatCompletion_ExhaustsAttempts(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "overloaded", http.StatusTooManyRequests)
	}, 2)

	_, err := client.ChatCompletion(context.Background(), simpleRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 attempts")
	assert.Equal(t, int32(2), calls.Load())
}

func TestChatCompletion_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad request", http.StatusBadRequest)
	}, 3)

	_, err := client.ChatCompletion(context.Background(), simpleRequest())
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestChatCompletion_MalformedBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}, 1)

	_, err := client.ChatCompletion(context.Background(), simpleRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode gateway response")
}

func TestChatCompletion_NoChoices(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}, 1)

	_, err := client.ChatCompletion(context.Background(), simpleRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestChatCompletion_CancelledContext(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(completionBody("unused")))
	}, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.ChatCompletion(ctx, simpleRequest())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProbe(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models", r.URL.Path)
		w.Write([]byte(`{"data":[{"id":"test-model"}]}`))
	}, 1)

	assert.NoError(t, client.Probe(context.Background()))
}

func TestProbe_NonOKStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}, 1)

	err := client.Probe(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}
