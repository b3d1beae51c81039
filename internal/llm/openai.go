package llm

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/wichananm65/visioneer-backend/internal/config"
	"github.com/wichananm65/visioneer-backend/internal/logger"
	"github.com/wichananm65/visioneer-backend/internal/metrics"
)

const breakerName = "openai-chat"

// OpenAIClient calls the chat completions API through a rate limiter and a
// circuit breaker.
type OpenAIClient struct {
	api         *openai.Client
	model       string
	visionModel string
	maxTokens   int
	timeout     time.Duration
	limiter     *rate.Limiter
	cb          *gobreaker.CircuitBreaker[string]
	log         *logger.Logger
}

var _ Client = (*OpenAIClient)(nil)

// NewClient returns an OpenAI-backed client, or Disabled when no API key is set.
func NewClient(cfg config.OpenAIConfig, log *logger.Logger) Client {
	if strings.TrimSpace(cfg.APIKey) == "" {
		log.Warn("OPENAI_API_KEY not set; AI features will use fallbacks")
		return Disabled{}
	}
	return NewOpenAIClient(cfg, log)
}

func NewOpenAIClient(cfg config.OpenAIConfig, log *logger.Logger) *OpenAIClient {
	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}
	apiCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	limit := rate.Inf
	burst := 1
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
		burst = int(cfg.RatePerSecond) + 1
	}

	l := log.With("service", "OpenAIClient")
	metrics.LLMCircuitState.WithLabelValues(breakerName).Set(0)

	cb := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// auth errors and caller cancellations say nothing about upstream health
		IsSuccessful: func(err error) bool {
			if err == nil || errors.Is(err, context.Canceled) {
				return true
			}
			var se *ExternalServiceError
			return errors.As(err, &se) && (se.Kind == KindAuth || se.Kind == KindEmpty)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			l.Warn("circuit state changed", "breaker", name, "from", from.String(), "to", to.String())
			metrics.LLMCircuitState.WithLabelValues(name).Set(stateValue(to))
		},
	})

	return &OpenAIClient{
		api:         openai.NewClientWithConfig(apiCfg),
		model:       cfg.Model,
		visionModel: cfg.VisionModel,
		maxTokens:   cfg.MaxTokens,
		timeout:     cfg.Timeout,
		limiter:     rate.NewLimiter(limit, burst),
		cb:          cb,
		log:         l,
	}
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

func (c *OpenAIClient) request(p Prompt) openai.ChatCompletionRequest {
	maxTokens := p.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.maxTokens
	}
	req := openai.ChatCompletionRequest{Model: c.model, MaxTokens: maxTokens}
	if p.System != "" {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: p.System,
		})
	}
	if p.ImageURL == "" {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: p.User,
		})
		return req
	}
	req.Model = c.visionModel
	req.Messages = append(req.Messages, openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser,
		MultiContent: []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: p.User},
			{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: p.ImageURL}},
		},
	})
	return req
}

// Complete performs exactly one chat completion.
func (c *OpenAIClient) Complete(ctx context.Context, p Prompt) (string, error) {
	op := p.Operation
	if op == "" {
		op = "chat"
	}
	start := time.Now()

	callCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	text, err := c.cb.Execute(func() (string, error) {
		if err := c.limiter.Wait(callCtx); err != nil {
			return "", classify(callCtx, err)
		}
		resp, err := c.api.CreateChatCompletion(callCtx, c.request(p))
		if err != nil {
			return "", classify(callCtx, err)
		}
		if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
			return "", &ExternalServiceError{Kind: KindEmpty, Message: "no content in completion"}
		}
		return resp.Choices[0].Message.Content, nil
	})

	metrics.LLMRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		err = classify(callCtx, err)
		var se *ExternalServiceError
		status := "error"
		if errors.As(err, &se) {
			status = string(se.Kind)
		}
		metrics.LLMRequests.WithLabelValues(op, status).Inc()
		c.log.Warn("chat completion failed", "operation", op, "kind", status, "duration", time.Since(start), "error", err)
		return "", err
	}

	metrics.LLMRequests.WithLabelValues(op, "ok").Inc()
	c.log.Debug("chat completion ok", "operation", op, "duration", time.Since(start), "chars", len(text))
	return text, nil
}

// classify maps transport, API and breaker errors onto ExternalServiceError.
func classify(ctx context.Context, err error) error {
	var se *ExternalServiceError
	if errors.As(err, &se) {
		return err
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &ExternalServiceError{Kind: KindCircuit, Message: "circuit open", Err: err}
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		return &ExternalServiceError{Kind: KindTimeout, Message: "request timed out", Err: err}
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &ExternalServiceError{Kind: kindForStatus(apiErr.HTTPStatusCode), StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message, Err: err}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		msg := http.StatusText(reqErr.HTTPStatusCode)
		if reqErr.Err != nil {
			msg = reqErr.Err.Error()
		}
		return &ExternalServiceError{Kind: kindForStatus(reqErr.HTTPStatusCode), StatusCode: reqErr.HTTPStatusCode, Message: msg, Err: err}
	}
	return &ExternalServiceError{Kind: KindHTTP, Message: err.Error(), Err: err}
}

func kindForStatus(code int) ErrorKind {
	if code == http.StatusUnauthorized || code == http.StatusForbidden {
		return KindAuth
	}
	return KindHTTP
}
