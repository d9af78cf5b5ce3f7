package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/boddenberg/card-compare-bfa-go/internal/domain"
	"github.com/boddenberg/card-compare-bfa-go/internal/infra/observability"
	"github.com/boddenberg/card-compare-bfa-go/internal/infra/resilience"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("client")

// maxResponseBytes caps non-streamed response bodies.
const maxResponseBytes = 1 << 20

// LLMConfig configures the OpenAI-compatible endpoint.
type LLMConfig struct {
	BaseURL   string
	APIKey    string
	Model     string // classification and composition
	ChatModel string // conversational streaming

	// Timeout bounds a call whose context carries no deadline.
	Timeout time.Duration

	ChatTemperature float64
	ChatMaxTokens   int
}

// LLMClient calls a hosted chat/completions API. It implements
// port.LanguageModel and port.ChatModel.
type LLMClient struct {
	httpClient *http.Client
	cfg        LLMConfig
	guard      *resilience.Guard
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewLLMClient creates a new LLMClient.
func NewLLMClient(httpClient *http.Client, cfg LLMConfig, guard *resilience.Guard, metrics *observability.Metrics, logger *zap.Logger) *LLMClient {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &LLMClient{
		httpClient: httpClient,
		cfg:        cfg,
		guard:      guard,
		metrics:    metrics,
		logger:     logger,
	}
}

// ClassifyQuery asks the model for a structured intent under a strict JSON
// schema, then re-validates the payload locally.
func (c *LLMClient) ClassifyQuery(ctx context.Context, prompt string) (*domain.QueryIntent, error) {
	ctx, span := tracer.Start(ctx, "LLMClient.ClassifyQuery")
	defer span.End()
	span.SetAttributes(attribute.String("llm.model", c.cfg.Model))

	req := chatRequest{
		Model:    c.cfg.Model,
		Messages: []chatMessage{{Role: string(domain.RoleUser), Content: prompt}},
		ResponseFormat: &responseFormat{
			Type: "json_schema",
			JSONSchema: &jsonSchema{
				Name:   "query_intent",
				Strict: true,
				Schema: intentSchema,
			},
		},
	}

	content, err := c.complete(ctx, "classify", req)
	if err != nil {
		return nil, err
	}

	if err := validateIntent(content); err != nil {
		return nil, &domain.ErrMalformedOutput{Reason: err.Error()}
	}
	var payload intentPayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return nil, &domain.ErrMalformedOutput{Reason: err.Error()}
	}

	intent := payload.toDomain()
	if !intent.Intent.Valid() {
		return nil, &domain.ErrMalformedOutput{Reason: "unknown intent " + payload.Intent}
	}
	span.SetAttributes(attribute.String("llm.intent", string(intent.Intent)))
	return intent, nil
}

// Generate returns the model's plain-text answer to prompt.
func (c *LLMClient) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, span := tracer.Start(ctx, "LLMClient.Generate")
	defer span.End()
	span.SetAttributes(attribute.String("llm.model", c.cfg.Model))

	req := chatRequest{
		Model:    c.cfg.Model,
		Messages: []chatMessage{{Role: string(domain.RoleUser), Content: prompt}},
	}
	content, err := c.complete(ctx, "generate", req)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(content), nil
}

// complete performs one non-streamed request through the guard and returns
// the first choice's content.
func (c *LLMClient) complete(ctx context.Context, op string, req chatRequest) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	var out chatResponse
	err = c.guard.Execute(ctx, op, func(ctx context.Context) error {
		resp, err := c.post(ctx, body, false)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return statusError(resp.StatusCode, raw)
		}

		out = chatResponse{}
		if err := json.Unmarshal(raw, &out); err != nil {
			return resilience.Permanent(fmt.Errorf("decode response: %w", err))
		}
		if out.Error != nil {
			return fmt.Errorf("llm API error: %s", out.Error.Message)
		}
		if len(out.Choices) == 0 {
			return resilience.Permanent(errors.New("no completion returned"))
		}
		return nil
	})
	if err != nil {
		c.metrics.IncrExternalError("llm")
		c.logger.Warn("llm call failed", zap.String("operation", op), zap.Error(err))
		return "", err
	}

	if out.Usage != nil {
		c.metrics.RecordTokens(out.Usage.PromptTokens, out.Usage.CompletionTokens)
	}
	return out.Choices[0].Message.Content, nil
}

// StreamChat streams the chat model's answer, calling onDelta for every
// content fragment in arrival order.
func (c *LLMClient) StreamChat(ctx context.Context, system string, turns []domain.ChatTurn, onDelta func(string) error) error {
	ctx, span := tracer.Start(ctx, "LLMClient.StreamChat")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.model", c.cfg.ChatModel),
		attribute.Int("chat.turns", len(turns)),
	)

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	messages := make([]chatMessage, 0, len(turns)+1)
	messages = append(messages, chatMessage{Role: string(domain.RoleSystem), Content: system})
	for _, t := range turns {
		messages = append(messages, chatMessage{Role: string(t.Role), Content: t.Content})
	}

	temp := c.cfg.ChatTemperature
	body, err := json.Marshal(chatRequest{
		Model:         c.cfg.ChatModel,
		Messages:      messages,
		MaxTokens:     c.cfg.ChatMaxTokens,
		Temperature:   &temp,
		Stream:        true,
		StreamOptions: &streamOptions{IncludeUsage: true},
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	deltas := 0
	err = c.guard.Execute(ctx, "stream", func(ctx context.Context) error {
		resp, err := c.post(ctx, body, true)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
			return statusError(resp.StatusCode, raw)
		}

		err = c.readStream(resp.Body, func(s string) error {
			deltas++
			return onDelta(s)
		})
		if err != nil && deltas > 0 {
			// part of the answer already went out; a retry would repeat it
			return resilience.Permanent(err)
		}
		return err
	})
	span.SetAttributes(attribute.Int("chat.deltas", deltas))
	if err != nil {
		c.metrics.IncrExternalError("llm")
		c.logger.Warn("llm stream failed", zap.Int("deltas", deltas), zap.Error(err))
		return err
	}
	return nil
}

// readStream consumes an SSE body: "data:" lines carrying JSON chunks,
// terminated by "data: [DONE]" or EOF.
func (c *LLMClient) readStream(body io.Reader, onDelta func(string) error) error {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" {
			continue
		}
		if data == "[DONE]" {
			return nil
		}

		var chunk chatResponse
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			c.logger.Debug("skipping undecodable stream chunk", zap.Error(err))
			continue
		}
		if chunk.Error != nil {
			return fmt.Errorf("llm API error: %s", chunk.Error.Message)
		}
		if chunk.Usage != nil {
			c.metrics.RecordTokens(chunk.Usage.PromptTokens, chunk.Usage.CompletionTokens)
		}
		if len(chunk.Choices) > 0 && chunk.Choices[0].Delta != nil {
			if delta := chunk.Choices[0].Delta.Content; delta != "" {
				if err := onDelta(delta); err != nil {
					return resilience.Permanent(err)
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("stream error: %w", err)
	}
	return nil
}

func (c *LLMClient) post(ctx context.Context, body []byte, stream bool) (*http.Response, error) {
	url := fmt.Sprintf("%s/chat/completions", c.cfg.BaseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, resilience.Permanent(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
	if stream {
		httpReq.Header.Set("Accept", "text/event-stream")
	}
	return c.httpClient.Do(httpReq)
}

// withTimeout applies the configured timeout when ctx has no deadline.
func (c *LLMClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok || c.cfg.Timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.cfg.Timeout)
}

// statusError turns a non-200 reply into an error. Client errors other than
// 429 are not retried.
func statusError(code int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	if len(msg) > 512 {
		msg = msg[:512]
	}
	err := fmt.Errorf("llm API returned status %d: %s", code, msg)
	if code >= 400 && code < 500 && code != http.StatusTooManyRequests {
		return resilience.Permanent(err)
	}
	return err
}
