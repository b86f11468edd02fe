package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

type GeminiAdvisor struct {
	client      *genai.Client
	modelName   string
	temperature float32
	maxTokens   int
	rate        *tokenBucket
}

func NewGeminiAdvisor(apiKey, modelName string, concurrentReqs int, prompt *PromptSpec) (*GeminiAdvisor, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiAdvisor{
		client:      client,
		modelName:   modelName,
		temperature: prompt.Style.Temperature,
		maxTokens:   prompt.Style.MaxTokens,
		rate:        newTokenBucket(concurrentReqs, 2*time.Minute),
	}, nil
}

func (a *GeminiAdvisor) Close() {
	a.client.Close()
}

func (a *GeminiAdvisor) Name() string { return "gemini:" + a.modelName }

func (a *GeminiAdvisor) Answer(ctx context.Context, req AnswerRequest) (string, error) {
	if err := a.rate.acquire(ctx); err != nil {
		return "", err
	}
	defer a.rate.release()

	model := a.client.GenerativeModel(a.modelName)
	model.SetTemperature(a.temperature)
	model.SetTopP(0.95)
	model.SetMaxOutputTokens(int32(a.maxTokens))
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.SystemPrompt)}}

	cs := model.StartChat()
	cs.History = toGeminiHistory(req)

	resp, err := cs.SendMessage(ctx, genai.Text(req.Question))
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}

	for i, cand := range resp.Candidates {
		if cand.FinishReason != genai.FinishReasonStop {
			log.Warn().Int("candidate", i).Str("finish_reason", cand.FinishReason.String()).Msg("Gemini stopped early")
		}
	}

	text := strings.TrimSpace(extractText(resp))
	if text == "" {
		return "", fmt.Errorf("Gemini returned no text")
	}
	return text, nil
}

func toGeminiHistory(req AnswerRequest) []*genai.Content {
	history := make([]*genai.Content, 0, len(req.History))
	for _, m := range req.History {
		role := "user"
		if m.Role == "assistant" {
			role = "model"
		}
		history = append(history, &genai.Content{Role: role, Parts: []genai.Part{genai.Text(m.Content)}})
	}
	return history
}

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}
