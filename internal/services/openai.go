package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

type OpenAIAdvisor struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	rate        *tokenBucket
}

func NewOpenAIAdvisor(apiKey, model string, concurrentReqs int, prompt *PromptSpec) *OpenAIAdvisor {
	return &OpenAIAdvisor{
		client:      openai.NewClient(apiKey),
		model:       model,
		temperature: prompt.Style.Temperature,
		maxTokens:   prompt.Style.MaxTokens,
		rate:        newTokenBucket(concurrentReqs, 2*time.Minute),
	}
}

func (a *OpenAIAdvisor) Name() string { return "openai:" + a.model }

func (a *OpenAIAdvisor) Answer(ctx context.Context, req AnswerRequest) (string, error) {
	if err := a.rate.acquire(ctx); err != nil {
		return "", err
	}
	defer a.rate.release()

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.model,
		Temperature: a.temperature,
		MaxTokens:   a.maxTokens,
		Messages:    toOpenAIMessages(req),
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices")
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("OpenAI returned no text")
	}
	return text, nil
}

func toOpenAIMessages(req AnswerRequest) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(req.History)+2)
	out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt})
	for _, m := range req.History {
		role := openai.ChatMessageRoleUser
		if m.Role == "assistant" {
			role = openai.ChatMessageRoleAssistant
		}
		out = append(out, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Question})
	return out
}
