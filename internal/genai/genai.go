// Package genai talks to an OpenAI-compatible endpoint to compose tests and
// to analyze class results. Both calls are external collaborators: failures
// are returned to the caller, never fatal, and never touch stored state.
package genai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	openai "github.com/sashabaranov/go-openai"

	"github.com/nhattran/eduai/internal/model"
)

// Client wraps an OpenAI-compatible API client.
type Client struct {
	api   *openai.Client
	model string
}

// New creates a new generation client.
func New(baseURL, apiKey, modelName string) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:   openai.NewClientWithConfig(config),
		model: modelName,
	}
}

// Ping verifies the endpoint is reachable.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.api.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// GenerateTest asks the model to compose a full test for the given grade,
// unit and test type. The returned test is always a draft; publication is the
// teacher's decision.
func (c *Client) GenerateTest(ctx context.Context, p model.GenerateParams) (*model.TestData, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: buildGeneratePrompt(p)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.7,
	})
	if err != nil {
		return nil, fmt.Errorf("generation API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("generation returned no choices")
	}

	raw := resp.Choices[0].Message.Content
	slog.Debug("generation response", "raw", raw)

	var test model.TestData
	if err := json.Unmarshal([]byte(raw), &test); err != nil {
		return nil, fmt.Errorf("parse generated test: %w", err)
	}
	fillQuestionIDs(&test)
	test.IsPublished = false
	if err := model.ValidateTest(&test); err != nil {
		return nil, fmt.Errorf("generated test rejected: %w", err)
	}
	return &test, nil
}

// AnalyzeResults asks the model for a free-form Vietnamese assessment of the
// class results. Callers substitute a static fallback message on failure.
func (c *Client) AnalyzeResults(ctx context.Context, results []model.StudentResult) (string, error) {
	prompt, err := buildAnalysisPrompt(results)
	if err != nil {
		return "", err
	}
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.3,
	})
	if err != nil {
		return "", fmt.Errorf("analysis API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("analysis returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// fillQuestionIDs assigns positional ids to questions the model left blank,
// so the answer map always has a stable key per question.
func fillQuestionIDs(t *model.TestData) {
	for i := range t.Questions {
		if t.Questions[i].ID == "" {
			t.Questions[i].ID = "q" + strconv.Itoa(i+1)
		}
	}
}
