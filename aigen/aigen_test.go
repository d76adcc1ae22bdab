package aigen

import (
	"context"
	"errors"
	"testing"

	"github.com/hupe1980/automesh/core"
	"github.com/stretchr/testify/assert"
)

func TestStatic(t *testing.T) {
	g := Static{Content: "canned"}

	resp, err := g.Generate(context.Background(), core.GenerateRequest{Prompt: "x"})
	assert.NoError(t, err)
	assert.Equal(t, "canned", resp.Content)
}

func TestStatic_Error(t *testing.T) {
	g := Static{Err: errors.New("unavailable")}

	_, err := g.Generate(context.Background(), core.GenerateRequest{Prompt: "x"})
	assert.Error(t, err)
}

func TestFunc(t *testing.T) {
	g := Func(func(ctx context.Context, req core.GenerateRequest) (core.GenerateResponse, error) {
		return core.GenerateResponse{Content: "echo: " + req.Prompt}, nil
	})

	resp, err := g.Generate(context.Background(), core.GenerateRequest{Prompt: "hi"})
	assert.NoError(t, err)
	assert.Equal(t, "echo: hi", resp.Content)
}
