// Package content talks to the external content service that generates
// question batches, hints, and answer explanations.
package content

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"

	"github.com/sentinela-pmsp/sentinela/internal/content/prompts"
	"github.com/sentinela-pmsp/sentinela/internal/model"
)

// Service is the capability surface the core consumes. GenerateBatch is
// all-or-nothing; GetHint and ExplainOutcome are best-effort and their
// failures are recovered by the caller.
type Service interface {
	GenerateBatch(ctx context.Context, subject model.Subject, count int) ([]model.Question, error)
	GetHint(ctx context.Context, q model.Question) (string, error)
	ExplainOutcome(ctx context.Context, q model.Question, selected int) (string, error)
}

// DefaultTimeout bounds a single content request.
const DefaultTimeout = 60 * time.Second

// Client implements Service on an OpenAI-compatible API.
type Client struct {
	api     *openai.Client
	model   string
	timeout time.Duration
}

// New creates a content client. An empty baseURL keeps the library default;
// a zero timeout falls back to DefaultTimeout.
func New(baseURL, apiKey, modelName string, timeout time.Duration) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		api:     openai.NewClientWithConfig(config),
		model:   modelName,
		timeout: timeout,
	}
}

// Ping verifies the endpoint is reachable by listing models.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if _, err := c.api.ListModels(ctx); err != nil {
		return fmt.Errorf("content endpoint health check: %w", err)
	}
	return nil
}

// questionPayload is the wire shape of one generated question.
type questionPayload struct {
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
}

type batchPayload struct {
	Questions []questionPayload `json:"questions"`
}

// GenerateBatch requests count questions on a subject. Malformed entries are
// rejected, not coerced: anything short of count well-formed questions is
// reported as model.ErrContentUnavailable.
func (c *Client) GenerateBatch(ctx context.Context, subject model.Subject, count int) ([]model.Question, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompts.BatchSystem()},
			{Role: openai.ChatMessageRoleUser, Content: prompts.Batch(subject, count)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.7,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: batch for %s: %v", model.ErrContentUnavailable, subject, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: batch for %s: no choices", model.ErrContentUnavailable, subject)
	}

	raw := resp.Choices[0].Message.Content
	slog.Debug("batch response", "subject", subject, "raw", raw)

	var payload batchPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("%w: parse batch for %s: %v", model.ErrContentUnavailable, subject, err)
	}

	questions := make([]model.Question, 0, len(payload.Questions))
	for _, p := range payload.Questions {
		q := model.Question{
			ID:            uuid.NewString(),
			Subject:       subject,
			Text:          p.Text,
			Options:       p.Options,
			CorrectAnswer: p.CorrectAnswer,
			Explanation:   p.Explanation,
		}
		if err := q.Validate(); err != nil {
			slog.Warn("rejecting malformed question", "subject", subject, "error", err)
			continue
		}
		questions = append(questions, q)
	}
	if len(questions) < count {
		return nil, fmt.Errorf("%w: batch for %s returned %d well-formed questions, want %d",
			model.ErrContentUnavailable, subject, len(questions), count)
	}
	return questions[:count], nil
}

// GetHint asks for a tactical hint on a question. The prompt never carries
// the answer key.
func (c *Client) GetHint(ctx context.Context, q model.Question) (string, error) {
	return c.complete(ctx, prompts.HintSystem(), prompts.Hint(q))
}

// ExplainOutcome asks for an analysis of the candidate's answer. selected is
// the chosen option index, or model.Unanswered.
func (c *Client) ExplainOutcome(ctx context.Context, q model.Question, selected int) (string, error) {
	return c.complete(ctx, prompts.ExplainSystem(), prompts.Explain(q, selected))
}

func (c *Client) complete(ctx context.Context, system, user string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: 0.6,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", model.ErrContentUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices", model.ErrContentUnavailable)
	}
	return resp.Choices[0].Message.Content, nil
}
