package tree

import (
	"context"
	"log/slog"
	"strings"

	"github.com/cockroachdb/errors"
)

const (
	// DefaultMaxBranches is used when a caller does not ask for a branch count.
	DefaultMaxBranches = 3

	// ContextSeparator joins the prompts of a root-to-leaf path into the context
	// sent when a leaf is expanded.
	ContextSeparator = " "
)

// Generator produces up to maxBranches candidate continuations of prompt, in
// order. Implementations may return fewer candidates than asked for.
type Generator interface {
	Generate(ctx context.Context, prompt string, maxBranches int) ([]string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, prompt string, maxBranches int) ([]string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string, maxBranches int) ([]string, error) {
	return f(ctx, prompt, maxBranches)
}

// BuildLevelOneTree asks gen for up to maxBranches responses to prompt and
// returns a root holding one leaf per non-blank response.
func BuildLevelOneTree(ctx context.Context, gen Generator, prompt string, maxBranches int) (*Node, error) {
	if gen == nil {
		return nil, errors.New("tree: generator is required")
	}
	if strings.TrimSpace(prompt) == "" {
		return nil, errors.Wrap(ErrInvalidInput, "prompt is required")
	}
	if maxBranches <= 0 {
		return nil, errors.Wrapf(ErrInvalidInput, "max branches must be positive, got %d", maxBranches)
	}

	branches, err := generateBranches(ctx, gen, prompt, maxBranches)
	if err != nil {
		return nil, err
	}
	slog.DebugContext(ctx, "built level one tree", "prompt_len", len(prompt), "branches", len(branches))
	return &Node{Prompt: prompt, Branches: branches}, nil
}

// GoDeeper returns a copy of t in which every leaf of t has been expanded one
// level, using the prompts from the root down to that leaf as context. t is
// never modified. The first generation error aborts the whole expansion.
func GoDeeper(ctx context.Context, gen Generator, t *Node, maxBranchesPerLeaf int) (*Node, error) {
	if gen == nil {
		return nil, errors.New("tree: generator is required")
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if maxBranchesPerLeaf <= 0 {
		return nil, errors.Wrapf(ErrInvalidInput, "max branches must be positive, got %d", maxBranchesPerLeaf)
	}

	out := t.Clone()
	leaves := len(TracePaths(out, nil))
	slog.DebugContext(ctx, "expanding tree", "leaves", leaves, "depth", out.Depth())

	if err := expand(ctx, gen, out, []string{out.Prompt}, maxBranchesPerLeaf); err != nil {
		return nil, err
	}
	return out, nil
}

// expand only descends into branches that existed before the call: a leaf gets
// its new children and returns without visiting them.
func expand(ctx context.Context, gen Generator, node *Node, path []string, maxBranches int) error {
	if node.IsLeaf() {
		branches, err := generateBranches(ctx, gen, strings.Join(path, ContextSeparator), maxBranches)
		if err != nil {
			return err
		}
		node.Branches = branches
		return nil
	}
	for _, child := range node.Branches {
		if err := expand(ctx, gen, child, appendPath(path, child.Prompt), maxBranches); err != nil {
			return err
		}
	}
	return nil
}

// generateBranches calls gen and turns its candidates into leaves. Blank
// candidates are dropped and anything past maxBranches is ignored.
func generateBranches(ctx context.Context, gen Generator, prompt string, maxBranches int) ([]*Node, error) {
	candidates, err := gen.Generate(ctx, prompt, maxBranches)
	if err != nil {
		if IsGenerationFailure(err) {
			return nil, err
		}
		return nil, &GenerationFailure{Context: prompt, Err: err}
	}
	branches := make([]*Node, 0, len(candidates))
	for _, c := range candidates {
		if strings.TrimSpace(c) == "" {
			continue
		}
		if len(branches) == maxBranches {
			break
		}
		branches = append(branches, NewLeaf(c))
	}
	return branches, nil
}
