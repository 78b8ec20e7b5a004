package ai

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"

	"animehome/backend/pkg/config"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient talks to any OpenAI-compatible chat completion endpoint.
// Endpoint, key, model and temperature are fixed at construction.
type OpenAIClient struct {
	client      *openai.Client
	model       string
	temperature float32
}

// ClientOptions configures an OpenAIClient. HTTPClient is optional.
type ClientOptions struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float32
	HTTPClient  *http.Client
}

// OptionsFromConfig reads the model section of the application config.
func OptionsFromConfig(cfg *config.Config, apiKey string) ClientOptions {
	return ClientOptions{
		BaseURL:     cfg.Model.BaseURL,
		APIKey:      apiKey,
		Model:       cfg.Model.Name,
		Temperature: cfg.Model.Temperature,
	}
}

func NewOpenAIClient(opts ClientOptions) (*OpenAIClient, error) {
	if opts.Model == "" {
		return nil, errors.New("model name is required")
	}
	if opts.BaseURL == "" {
		return nil, errors.New("model base URL is required")
	}

	clientConfig := openai.DefaultConfig(opts.APIKey)
	clientConfig.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if opts.HTTPClient != nil {
		clientConfig.HTTPClient = opts.HTTPClient
	}

	// The request type omits a zero temperature, which providers read as their default.
	temperature := opts.Temperature
	if temperature == 0 {
		temperature = math.SmallestNonzeroFloat32
	}

	return &OpenAIClient{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       opts.Model,
		temperature: temperature,
	}, nil
}

// StreamChat opens one streaming completion. Connection failures and non-success
// statuses are reported here, before any fragment is read.
func (c *OpenAIClient) StreamChat(ctx context.Context, turns []ChatTurn) (DeltaStream, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(turns))
	for _, t := range turns {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    t.Role,
			Content: t.Content,
		})
	}

	stream, err := c.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
		Stream:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open completion stream: %w", err)
	}

	return &openAIStream{stream: stream}, nil
}

type openAIStream struct {
	stream *openai.ChatCompletionStream
}

func (s *openAIStream) Recv() (string, error) {
	resp, err := s.stream.Recv()
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Delta.Content, nil
}

func (s *openAIStream) Close() error {
	return s.stream.Close()
}
