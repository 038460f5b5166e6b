package service

import (
	"context"
	"fmt"
	"strings"

	adkmodel "google.golang.org/adk/model"
	"google.golang.org/adk/model/gemini"
	"google.golang.org/genai"
)

// Generator transforma um prompt em texto gerado.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeminiGenerator usa um modelo LLM do ADK para gerar a resposta.
type GeminiGenerator struct {
	llm       adkmodel.LLM
	modelName string
}

// NewGeminiGenerator cria o modelo Gemini a partir da chave de API.
func NewGeminiGenerator(ctx context.Context, modelName, apiKey string) (*GeminiGenerator, error) {
	llm, err := gemini.NewModel(ctx, modelName, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create model: %w", err)
	}
	return NewGeneratorFromLLM(llm, modelName), nil
}

// NewGeneratorFromLLM envolve um model.LLM já construído.
func NewGeneratorFromLLM(llm adkmodel.LLM, modelName string) *GeminiGenerator {
	return &GeminiGenerator{llm: llm, modelName: modelName}
}

// Generate envia o prompt como uma única mensagem do usuário, sem histórico.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	req := &adkmodel.LLMRequest{
		Model: g.modelName,
		Contents: []*genai.Content{
			genai.NewContentFromText(prompt, genai.RoleUser),
		},
		Config: &genai.GenerateContentConfig{},
	}

	var responseText strings.Builder
	for response, err := range g.llm.GenerateContent(ctx, req, false) {
		if err != nil {
			return "", err
		}
		if response == nil {
			continue
		}
		responseText.WriteString(contentText(response.Content))
	}

	return responseText.String(), nil
}
