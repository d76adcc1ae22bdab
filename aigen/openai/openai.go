// Package openai provides an implementation of core.AIGenerator using the
// OpenAI Chat Completions API. It adapts the engine's prompt/response
// contract into the SDK's message format and back.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"

	"github.com/hupe1980/automesh/core"
)

// Options configure the OpenAI generator adapter. Fields mirror a subset of
// Chat Completion parameters intentionally kept minimal; extend via
// functional options without breaking callers.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64

	// Instructions is an optional system prompt prepended to every call.
	Instructions string
}

// Generator wraps the OpenAI Chat Completions API behind core.AIGenerator.
type Generator struct {
	client *openai.Client
	opts   Options
}

// NewGenerator creates a new OpenAI generator using the official client.
func NewGenerator(optFns ...func(o *Options)) *Generator {
	client := openai.NewClient()
	return NewGeneratorFromClient(&client, optFns...)
}

// NewGeneratorFromClient creates a new OpenAI generator from an existing client.
func NewGeneratorFromClient(client *openai.Client, optFns ...func(o *Options)) *Generator {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 1024,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Generator{client: client, opts: opts}
}

// Generate implements core.AIGenerator via a non-streaming completion call.
func (g *Generator) Generate(ctx context.Context, req core.GenerateRequest) (core.GenerateResponse, error) {
	var messages []openai.ChatCompletionMessageParamUnion
	if g.opts.Instructions != "" {
		messages = append(messages, openai.SystemMessage(g.opts.Instructions))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages:            messages,
		Model:               g.opts.Model,
		Temperature:         openai.Float(g.opts.Temperature),
		MaxCompletionTokens: openai.Int(g.opts.MaxCompletionTokens),
	})
	if err != nil {
		return core.GenerateResponse{}, fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return core.GenerateResponse{}, fmt.Errorf("openai returned no choices")
	}

	return core.GenerateResponse{Content: resp.Choices[0].Message.Content}, nil
}
