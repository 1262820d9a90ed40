package generator

import (
	"context"
	"errors"
	"testing"
	"time"

	"deepmap_research/tree"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLLM struct {
	reply   string
	err     error
	prompts []Prompt
	sawDL   bool
}

func (r *recordingLLM) Complete(ctx context.Context, p Prompt) (string, error) {
	r.prompts = append(r.prompts, p)
	_, r.sawDL = ctx.Deadline()
	return r.reply, r.err
}

func TestServiceGenerate(t *testing.T) {
	llm := &recordingLLM{reply: "one" + ResponseDelimiter + "two" + ResponseDelimiter + "three"}
	svc, err := NewService(llm, WithProvider("test"))
	require.NoError(t, err)

	got, err := svc.Generate(context.Background(), "root a", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, got)

	require.Len(t, llm.prompts, 1)
	assert.Equal(t, "root a", llm.prompts[0].User)
	assert.Equal(t, 2, llm.prompts[0].MaxBranches)
	assert.Contains(t, llm.prompts[0].System, "maximum of 2")
	assert.Contains(t, llm.prompts[0].System, ResponseDelimiter)
	assert.False(t, llm.sawDL)
}

func TestServiceTimeout(t *testing.T) {
	llm := &recordingLLM{reply: "x"}
	svc, err := NewService(llm, WithTimeout(time.Second))
	require.NoError(t, err)
	_, err = svc.Generate(context.Background(), "p", 1)
	require.NoError(t, err)
	assert.True(t, llm.sawDL)
}

func TestServiceErrors(t *testing.T) {
	_, err := NewService(nil)
	assert.Error(t, err)

	svc, err := NewService(&recordingLLM{err: errors.New("rate limited")})
	require.NoError(t, err)
	_, err = svc.Generate(context.Background(), "p", 3)
	assert.EqualError(t, err, "rate limited")

	svc, err = NewService(&recordingLLM{reply: "   "})
	require.NoError(t, err)
	_, err = svc.Generate(context.Background(), "p", 3)
	assert.Error(t, err)
}

func TestServiceDrivesTreeOperations(t *testing.T) {
	svc, err := NewService(MockLLM{})
	require.NoError(t, err)

	root, err := tree.BuildLevelOneTree(context.Background(), svc, "why is the sky blue", 3)
	require.NoError(t, err)
	require.Len(t, root.Branches, 3)
	assert.Equal(t, "Angle 1 on why is the sky blue", root.Branches[0].Prompt)

	deeper, err := tree.GoDeeper(context.Background(), svc, root, 2)
	require.NoError(t, err)
	assert.Equal(t, 6, deeper.LeafCount())
	assert.Equal(t, 3, root.LeafCount())

	failing, err := NewService(&recordingLLM{err: errors.New("boom")})
	require.NoError(t, err)
	_, err = tree.GoDeeper(context.Background(), failing, root, 2)
	assert.True(t, tree.IsGenerationFailure(err))
}

func TestNewLLM(t *testing.T) {
	ctx := context.Background()

	_, err := NewLLM(ctx, nil)
	assert.Error(t, err)
	_, err = NewLLM(ctx, &LLMSettings{Provider: "nope"})
	assert.Error(t, err)
	_, err = NewLLM(ctx, &LLMSettings{Provider: "deepseek", Model: "deepseek-chat", APIKey: "k"})
	assert.Error(t, err)
	_, err = NewLLM(ctx, &LLMSettings{Provider: "openai", Model: "gpt-4o-mini"})
	assert.Error(t, err)

	llm, err := NewLLM(ctx, &LLMSettings{Provider: "mock"})
	require.NoError(t, err)
	assert.IsType(t, MockLLM{}, llm)

	llm, err = NewLLM(ctx, &LLMSettings{Provider: "openrouter", Model: "deepseek/deepseek-r1:free", APIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAILLM{}, llm)
}
