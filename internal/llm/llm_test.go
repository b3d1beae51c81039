package llm

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wichananm65/visioneer-backend/internal/config"
	"github.com/wichananm65/visioneer-backend/internal/logger"
)

func completionJSON(content string) string {
	return `{"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"gpt-4o-mini",` +
		`"choices":[{"index":0,"message":{"role":"assistant","content":` + quote(content) + `},"finish_reason":"stop"}]}`
}

func quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)
	return `"` + r.Replace(s) + `"`
}

func testClient(t *testing.T, handler http.HandlerFunc, timeout time.Duration) *OpenAIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOpenAIClient(config.OpenAIConfig{
		APIKey:      "sk-test",
		BaseURL:     srv.URL + "/v1",
		Model:       "gpt-4o-mini",
		VisionModel: "gpt-4o",
		Timeout:     timeout,
		MaxTokens:   2000,
	}, logger.Nop())
}

func TestStripCodeFences(t *testing.T) {
	cases := map[string]string{
		"```json\n[1,2]\n```":  "[1,2]",
		"```\n{\"a\":1}\n```":  `{"a":1}`,
		"  [1]  ":              "[1]",
		"```JSON\n[1]":         "[1]",
		"[1]\n```":             "[1]",
		"```json[{\"x\":1}]```": `[{"x":1}]`,
	}
	for in, want := range cases {
		assert.Equal(t, want, StripCodeFences(in), "input %q", in)
	}
}

func TestComplete_SendsPromptAndReturnsContent(t *testing.T) {
	var body string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, completionJSON("```json\n[]\n```"))
	}, 5*time.Second)

	out, err := c.Complete(context.Background(), Prompt{Operation: "recommend", System: "sys", User: "hello", MaxTokens: 123})
	require.NoError(t, err)
	assert.Equal(t, "```json\n[]\n```", out)
	assert.Contains(t, body, `"model":"gpt-4o-mini"`)
	assert.Contains(t, body, `"max_tokens":123`)
	assert.Contains(t, body, `"role":"system"`)
}

func TestComplete_ImageUsesVisionModel(t *testing.T) {
	var body string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		_, _ = io.WriteString(w, completionJSON("{}"))
	}, 5*time.Second)

	_, err := c.Complete(context.Background(), Prompt{User: "describe", ImageURL: "data:image/png;base64,AAAA"})
	require.NoError(t, err)
	assert.Contains(t, body, `"model":"gpt-4o"`)
	assert.Contains(t, body, `"image_url"`)
	assert.Contains(t, body, "data:image/png;base64,AAAA")
}

func TestComplete_ErrorKinds(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		kind    ErrorKind
		message string
	}{
		{"unauthorized", http.StatusUnauthorized, KindAuth, "Incorrect API key provided"},
		{"forbidden", http.StatusForbidden, KindAuth, "Incorrect API key provided"},
		{"server error", http.StatusInternalServerError, KindHTTP, "Incorrect API key provided"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error","code":"invalid_api_key"}}`)
			}, 5*time.Second)

			_, err := c.Complete(context.Background(), Prompt{User: "x"})
			var se *ExternalServiceError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.kind, se.Kind)
			assert.Equal(t, tt.status, se.StatusCode)
			assert.Contains(t, se.Message, tt.message)
		})
	}
}

func TestComplete_Timeout(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}, 50*time.Millisecond)

	_, err := c.Complete(context.Background(), Prompt{User: "x"})
	var se *ExternalServiceError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, KindTimeout, se.Kind)
}

func TestComplete_EmptyChoices(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"id":"x","object":"chat.completion","created":1,"model":"m","choices":[]}`)
	}, 5*time.Second)

	_, err := c.Complete(context.Background(), Prompt{User: "x"})
	var se *ExternalServiceError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, KindEmpty, se.Kind)
}

func TestComplete_CircuitOpensAfterConsecutiveFailures(t *testing.T) {
	var hits atomic.Int32
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, `{"error":{"message":"upstream down"}}`)
	}, 5*time.Second)

	for i := 0; i < 5; i++ {
		_, _ = c.Complete(context.Background(), Prompt{User: "x"})
	}
	_, err := c.Complete(context.Background(), Prompt{User: "x"})

	var se *ExternalServiceError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, KindCircuit, se.Kind)
	assert.Equal(t, int32(5), hits.Load(), "open circuit must not reach the endpoint")
}

func TestNewClient_DisabledWithoutKey(t *testing.T) {
	c := NewClient(config.OpenAIConfig{}, logger.Nop())
	_, err := c.Complete(context.Background(), Prompt{User: "x"})
	assert.True(t, errors.Is(err, ErrNotConfigured))
}
