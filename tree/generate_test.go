package tree

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	responses map[string][]string
	fallback  []string
	failOn    string
	calls     []string
	counts    []int
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string, maxBranches int) ([]string, error) {
	f.calls = append(f.calls, prompt)
	f.counts = append(f.counts, maxBranches)
	if f.failOn != "" && prompt == f.failOn {
		return nil, errors.New("upstream unavailable")
	}
	if r, ok := f.responses[prompt]; ok {
		return r, nil
	}
	return f.fallback, nil
}

func TestBuildLevelOneTreeFiltersBlank(t *testing.T) {
	gen := &fakeGenerator{fallback: []string{"a", "", "  ", "b"}}
	root, err := BuildLevelOneTree(context.Background(), gen, "topic", 4)
	require.NoError(t, err)

	assert.Equal(t, "topic", root.Prompt)
	require.Len(t, root.Branches, 2)
	assert.Equal(t, "a", root.Branches[0].Prompt)
	assert.Equal(t, "b", root.Branches[1].Prompt)
	for _, b := range root.Branches {
		assert.True(t, b.IsLeaf())
	}
	assert.Equal(t, []string{"topic"}, gen.calls)
	assert.Equal(t, []int{4}, gen.counts)
}

func TestBuildLevelOneTreeEmptyResult(t *testing.T) {
	root, err := BuildLevelOneTree(context.Background(), &fakeGenerator{}, "topic", 3)
	require.NoError(t, err)
	assert.True(t, root.IsLeaf())
	assert.NotNil(t, root.Branches)
}

func TestBuildLevelOneTreeTruncates(t *testing.T) {
	gen := &fakeGenerator{fallback: []string{"1", "2", "3", "4"}}
	root, err := BuildLevelOneTree(context.Background(), gen, "topic", 2)
	require.NoError(t, err)
	require.Len(t, root.Branches, 2)
	assert.Equal(t, "2", root.Branches[1].Prompt)
}

func TestBuildLevelOneTreeInvalidInput(t *testing.T) {
	gen := &fakeGenerator{fallback: []string{"a"}}
	_, err := BuildLevelOneTree(context.Background(), gen, "   ", 3)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = BuildLevelOneTree(context.Background(), gen, "topic", 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Empty(t, gen.calls)
}

func TestBuildLevelOneTreeGenerationFailure(t *testing.T) {
	gen := &fakeGenerator{failOn: "topic"}
	root, err := BuildLevelOneTree(context.Background(), gen, "topic", 3)
	assert.Nil(t, root)
	require.Error(t, err)

	var gf *GenerationFailure
	require.True(t, errors.As(err, &gf))
	assert.Equal(t, "topic", gf.Context)
	assert.EqualError(t, gf.Unwrap(), "upstream unavailable")
	assert.True(t, IsGenerationFailure(err))
	assert.False(t, errors.Is(err, ErrInvalidInput))
}

func TestGoDeeperSingleLeaf(t *testing.T) {
	gen := &fakeGenerator{fallback: []string{"Y", "Z"}}
	in := NewLeaf("X")

	out, err := GoDeeper(context.Background(), gen, in, 2)
	require.NoError(t, err)

	want := NewNode("X", NewLeaf("Y"), NewLeaf("Z"))
	assert.True(t, want.Equal(out))
	assert.True(t, in.IsLeaf())
	assert.Equal(t, []string{"X"}, gen.calls)
}

func TestGoDeeperUsesPathContext(t *testing.T) {
	in := NewNode("r", NewNode("a", NewLeaf("a1")), NewLeaf("b"))
	gen := &fakeGenerator{responses: map[string][]string{
		"r a a1": {"a1-x"},
		"r b":    {"b-x", "b-y"},
	}}

	out, err := GoDeeper(context.Background(), gen, in, 2)
	require.NoError(t, err)

	assert.Equal(t, []string{"r a a1", "r b"}, gen.calls)
	assert.Equal(t, []int{2, 2}, gen.counts)

	want := NewNode("r",
		NewNode("a", NewNode("a1", NewLeaf("a1-x"))),
		NewNode("b", NewLeaf("b-x"), NewLeaf("b-y")),
	)
	assert.True(t, want.Equal(out))
}

func TestGoDeeperOnlyExpandsExistingLeaves(t *testing.T) {
	in := sampleTree()
	gen := &fakeGenerator{fallback: []string{"new"}}

	out, err := GoDeeper(context.Background(), gen, in, 3)
	require.NoError(t, err)

	assert.Len(t, gen.calls, in.LeafCount())
	assert.Equal(t, in.LeafCount(), out.LeafCount())
	assert.Equal(t, in.Depth()+1, out.Depth())

	// internal nodes keep their children, in order
	assert.Equal(t, "a1", out.Branches[0].Branches[0].Prompt)
	assert.Equal(t, "a2x", out.Branches[0].Branches[1].Branches[0].Prompt)
	for _, p := range TracePaths(out, nil) {
		assert.Equal(t, "new", p[len(p)-1])
	}
}

func TestGoDeeperDoesNotMutateInput(t *testing.T) {
	in := sampleTree()
	snapshot := in.Clone()

	_, err := GoDeeper(context.Background(), &fakeGenerator{fallback: []string{"x", "y"}}, in, 2)
	require.NoError(t, err)
	assert.True(t, snapshot.Equal(in))
}

func TestGoDeeperFailsWholeCall(t *testing.T) {
	in := sampleTree()
	snapshot := in.Clone()
	gen := &fakeGenerator{fallback: []string{"x"}, failOn: "root a a2 a2x"}

	out, err := GoDeeper(context.Background(), gen, in, 2)
	assert.Nil(t, out)
	require.Error(t, err)
	assert.True(t, IsGenerationFailure(err))
	assert.True(t, snapshot.Equal(in))
	// stops at the failing leaf
	assert.Equal(t, []string{"root a a1", "root a a2 a2x"}, gen.calls)
}

func TestGoDeeperFiltersBlank(t *testing.T) {
	out, err := GoDeeper(context.Background(), &fakeGenerator{fallback: []string{" ", "ok", ""}}, NewLeaf("X"), 3)
	require.NoError(t, err)
	require.Len(t, out.Branches, 1)
	assert.Equal(t, "ok", out.Branches[0].Prompt)
}

func TestGoDeeperInvalidInput(t *testing.T) {
	gen := &fakeGenerator{fallback: []string{"x"}}
	_, err := GoDeeper(context.Background(), gen, nil, 2)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = GoDeeper(context.Background(), gen, NewLeaf("X"), 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Empty(t, gen.calls)
}

func TestGoDeeperRepeated(t *testing.T) {
	calls := 0
	gen := GeneratorFunc(func(_ context.Context, prompt string, n int) ([]string, error) {
		calls++
		out := make([]string, n)
		for i := range out {
			out[i] = fmt.Sprintf("%d", i)
		}
		return out, nil
	})

	tr, err := BuildLevelOneTree(context.Background(), gen, "seed", 2)
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		tr, err = GoDeeper(context.Background(), gen, tr, 2)
		require.NoError(t, err)
	}
	assert.Equal(t, 8, tr.LeafCount())
	assert.Equal(t, 3, tr.Depth())
	assert.Equal(t, 1+2+4, calls)
}

func TestGoDeeperLeafWithoutCandidatesStaysLeaf(t *testing.T) {
	in := NewNode("r", NewLeaf("quiet"), NewLeaf("busy"))
	gen := &fakeGenerator{responses: map[string][]string{
		"r quiet": {},
		"r busy":  {"b1", "b2"},
	}}

	out, err := GoDeeper(context.Background(), gen, in, 2)
	require.NoError(t, err)

	want := NewNode("r", NewLeaf("quiet"), NewNode("busy", NewLeaf("b1"), NewLeaf("b2")))
	assert.True(t, want.Equal(out))
	assert.True(t, out.Branches[0].IsLeaf())
	assert.Equal(t, []string{"r quiet", "r busy"}, gen.calls)
}

func TestBlankRootPromptRejectedByBothOperations(t *testing.T) {
	gen := &fakeGenerator{fallback: []string{"x"}}

	_, err := BuildLevelOneTree(context.Background(), gen, " \t ", 2)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = GoDeeper(context.Background(), gen, NewLeaf(" \n "), 2)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Empty(t, gen.calls)
}
