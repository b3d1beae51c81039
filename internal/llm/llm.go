// Package llm talks to the external chat-completion endpoint used for room
// analysis and recommendations. Every failure is reported as an
// *ExternalServiceError so callers can degrade without inspecting transport
// details.
package llm

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Prompt is one chat completion request. ImageURL switches to the vision model
// and attaches the image to the user message.
type Prompt struct {
	Operation string
	System    string
	User      string
	MaxTokens int
	ImageURL  string
}

// Client sends a single prompt and returns the raw assistant text. It never
// retries.
type Client interface {
	Complete(ctx context.Context, p Prompt) (string, error)
}

var ErrNotConfigured = errors.New("llm: OPENAI_API_KEY is not set")

type ErrorKind string

const (
	KindTimeout ErrorKind = "timeout"
	KindHTTP    ErrorKind = "http"
	KindAuth    ErrorKind = "auth"
	KindCircuit ErrorKind = "circuit"
	KindEmpty   ErrorKind = "empty"
)

// ExternalServiceError describes a failed call to the LLM endpoint.
type ExternalServiceError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Err        error
}

func (e *ExternalServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("llm %s error (status %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("llm %s error: %s", e.Kind, e.Message)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }

// Disabled is the client used when no API key is configured.
type Disabled struct{}

func (Disabled) Complete(context.Context, Prompt) (string, error) {
	return "", ErrNotConfigured
}

var (
	leadingFence  = regexp.MustCompile("^```[A-Za-z0-9_+-]*[ \t]*\r?\n?")
	trailingFence = regexp.MustCompile("\r?\n?[ \t]*```$")
)

// StripCodeFences removes a markdown code fence (with optional language tag)
// from the start and from the end of s. Each end is handled on its own, so a
// reply that only opens or only closes a fence is still cleaned.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = leadingFence.ReplaceAllString(s, "")
	s = trailingFence.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
