package analysis

import (
	"context"
	"encoding/base64"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"ChartSentry/internal/domain/models"
)

// Client wraps an OpenAI-compatible endpoint for both vision and reasoning
// calls. The endpoint is configurable so self-hosted gateways work too.
type Client struct {
	api            *openai.Client
	visionModel    string
	reasoningModel string
}

// NewClient creates an analysis client against baseURL.
func NewClient(baseURL, apiKey, visionModel, reasoningModel string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Client{
		api:            openai.NewClientWithConfig(cfg),
		visionModel:    visionModel,
		reasoningModel: reasoningModel,
	}
}

// AnalyzeImage sends one chart frame to the vision model and returns its read.
func (c *Client) AnalyzeImage(ctx context.Context, image models.ChartImage, prompt string) (string, error) {
	dataURI := "data:image/png;base64," + base64.StdEncoding.EncodeToString(image.Data)

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.visionModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: prompt},
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: dataURI},
					},
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("vision call %s: %w", image.Name, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("vision call %s: empty response", image.Name)
	}

	return resp.Choices[0].Message.Content, nil
}

// Reason runs the synthesis pass over the assembled readings.
func (c *Client) Reason(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.reasoningModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("reasoning call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("reasoning call: empty response")
	}

	return resp.Choices[0].Message.Content, nil
}
