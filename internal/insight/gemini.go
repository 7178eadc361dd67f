package insight

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const DefaultModel = "gemini-2.5-flash"

// GeminiModel is a TextModel backed by the Gemini API.
type GeminiModel struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func NewGeminiModel(ctx context.Context, apiKey string, modelName string) (*GeminiModel, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini api key not set")
	}
	if modelName == "" {
		modelName = DefaultModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("unable to create Gemini client: %w", err)
	}

	return &GeminiModel{client: client, model: client.GenerativeModel(modelName)}, nil
}

func (m *GeminiModel) Close() error {
	return m.client.Close()
}

func (m *GeminiModel) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := m.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}

	var out strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if txt, ok := part.(genai.Text); ok {
				out.WriteString(string(txt))
			}
		}
		if out.Len() > 0 {
			break
		}
	}

	text := strings.TrimSpace(out.String())
	if text == "" {
		return "", errors.New("empty gemini response")
	}
	return text, nil
}
