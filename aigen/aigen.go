// Package aigen houses implementations of core.AIGenerator, the collaborator
// behind the ai_generate action. Provider adapters live in sub-packages
// (openai, anthropic); this package only carries provider-neutral helpers.
package aigen

import (
	"context"

	"github.com/hupe1980/automesh/core"
)

// Static is a canned AIGenerator useful for tests and offline demos. It
// returns Content for every prompt, or Err when set.
type Static struct {
	Content string
	Err     error
}

// Generate implements core.AIGenerator.
func (s *Static) Generate(_ context.Context, _ core.GenerateRequest) (core.GenerateResponse, error) {
	if s.Err != nil {
		return core.GenerateResponse{}, s.Err
	}
	return core.GenerateResponse{Content: s.Content}, nil
}

// Func adapts a plain function to core.AIGenerator.
type Func func(ctx context.Context, req core.GenerateRequest) (core.GenerateResponse, error)

// Generate implements core.AIGenerator.
func (f Func) Generate(ctx context.Context, req core.GenerateRequest) (core.GenerateResponse, error) {
	return f(ctx, req)
}
