package ai

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Completer is the completion surface the rest of the bot depends on.
// Both calls are single-shot: no conversation state is kept between them.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
	DescribeImage(ctx context.Context, image []byte, prompt string) (string, error)
}

type Client struct {
	client      *openai.Client
	model       string
	visionModel string
	maxTokens   int
	temperature float64
	logger      *zap.Logger
}

func NewClient(apiKey, model, visionModel string, maxTokens int, temperature float64, logger *zap.Logger) *Client {
	return &Client{
		client:      openai.NewClient(apiKey),
		model:       model,
		visionModel: visionModel,
		maxTokens:   maxTokens,
		temperature: temperature,
		logger:      logger,
	}
}

func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			MaxTokens:   c.maxTokens,
			Temperature: float32(c.temperature),
		},
	)
	if err != nil {
		c.logger.Error("Failed to get completion", zap.Error(err))
		return "", fmt.Errorf("completion request failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}

// DescribeImage sends a JPEG-encoded image alongside the prompt as a
// data-URL image part.
func (c *Client) DescribeImage(ctx context.Context, image []byte, prompt string) (string, error) {
	dataURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(image)

	resp, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: c.visionModel,
			Messages: []openai.ChatCompletionMessage{
				{
					Role: openai.ChatMessageRoleUser,
					MultiContent: []openai.ChatMessagePart{
						{
							Type: openai.ChatMessagePartTypeText,
							Text: prompt,
						},
						{
							Type: openai.ChatMessagePartTypeImageURL,
							ImageURL: &openai.ChatMessageImageURL{
								URL:    dataURL,
								Detail: openai.ImageURLDetailAuto,
							},
						},
					},
				},
			},
			MaxTokens:   c.maxTokens,
			Temperature: float32(c.temperature),
		},
	)
	if err != nil {
		c.logger.Error("Failed to analyze image", zap.Error(err))
		return "", fmt.Errorf("image analysis request failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("image analysis returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}
