package service

import (
	"context"
	"strings"
	"time"
)

// ChatResult é o resultado de uma requisição de chat.
type ChatResult struct {
	Text  string
	Audio []byte
}

// ChatOptions ajusta o comportamento do pipeline.
type ChatOptions struct {
	Prompt            *PromptBuilder
	StripMarkdown     bool
	GenerationTimeout time.Duration
	SynthesisTimeout  time.Duration
}

// ChatService executa geração e síntese em sequência.
type ChatService struct {
	generator   Generator
	synthesizer Synthesizer
	opts        ChatOptions
}

// NewChatService cria o pipeline com os clientes informados.
func NewChatService(g Generator, s Synthesizer, opts ChatOptions) *ChatService {
	return &ChatService{generator: g, synthesizer: s, opts: opts}
}

// Reply gera a resposta para o texto do usuário e a sintetiza em áudio.
// Uma falha em qualquer etapa interrompe o pipeline; a síntese só roda
// depois de uma geração bem-sucedida.
func (c *ChatService) Reply(ctx context.Context, text string) (*ChatResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrInvalidInput
	}

	prompt, err := c.opts.Prompt.Build(text)
	if err != nil {
		return nil, upstream(StageGeneration, err)
	}

	reply, err := c.generate(ctx, prompt)
	if err != nil {
		return nil, upstream(StageGeneration, err)
	}
	if c.opts.StripMarkdown {
		reply = StripMarkdown(reply)
	}
	if strings.TrimSpace(reply) == "" {
		return nil, upstream(StageGeneration, ErrEmptyCompletion)
	}

	audio, err := c.synthesize(ctx, reply)
	if err != nil {
		return nil, upstream(StageSynthesis, err)
	}
	if len(audio) == 0 {
		return nil, upstream(StageSynthesis, ErrEmptyAudio)
	}

	return &ChatResult{Text: reply, Audio: audio}, nil
}

func (c *ChatService) generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := withTimeout(ctx, c.opts.GenerationTimeout)
	defer cancel()
	return c.generator.Generate(ctx, prompt)
}

func (c *ChatService) synthesize(ctx context.Context, text string) ([]byte, error) {
	ctx, cancel := withTimeout(ctx, c.opts.SynthesisTimeout)
	defer cancel()
	return c.synthesizer.Synthesize(ctx, text)
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
