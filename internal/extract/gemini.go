package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiExtractor runs the fallback extraction against Google's Gemini API.
type GeminiExtractor struct {
	client  *genai.Client
	modelID string
}

func NewGeminiExtractor(ctx context.Context, apiKey, modelID string) (*GeminiExtractor, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("extract: gemini api key is required")
	}
	if strings.TrimSpace(modelID) == "" {
		modelID = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("extract: create gemini client: %w", err)
	}
	return &GeminiExtractor{client: client, modelID: modelID}, nil
}

func (g *GeminiExtractor) Extract(ctx context.Context, input ExtractionInput) (*AIResult, error) {
	model := g.client.GenerativeModel(g.modelID)
	model.SetTemperature(0)
	model.SetMaxOutputTokens(512)
	model.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx, genai.Text(BuildPrompt(input)))
	if err != nil {
		return nil, fmt.Errorf("extract: gemini extraction failed: %w", err)
	}

	text, err := geminiResponseText(resp)
	if err != nil {
		return nil, err
	}
	return ParseAIReply(text)
}

func geminiResponseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("extract: gemini response was empty")
	}
	var builder strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			builder.WriteString(string(text))
		}
	}
	text := builder.String()
	if strings.TrimSpace(text) == "" {
		return "", errors.New("extract: gemini response contained no text parts")
	}
	return text, nil
}
