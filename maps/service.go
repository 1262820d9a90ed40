// Package maps ties tree building and expansion to persistence: each build or
// expansion produces a new stored map, and expansions point back at the map
// they grew from.
package maps

import (
	"context"
	"log/slog"
	"time"

	"deepmap_research/metrics"
	"deepmap_research/store"
	"deepmap_research/tree"

	"github.com/cockroachdb/errors"
)

// Service 持有生成器与存储，负责建树、加深与查询。
type Service struct {
	gen   tree.Generator
	store store.Store
	now   func() time.Time
	log   *slog.Logger

	defaultBranches int
	maxBranches     int
}

type Option func(*Service)

// WithBranchLimits sets the count used when callers pass 0 and the largest
// count a caller may ask for.
func WithBranchLimits(defaultBranches, maxBranches int) Option {
	return func(s *Service) {
		s.defaultBranches = defaultBranches
		s.maxBranches = maxBranches
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(gen tree.Generator, st store.Store, opts ...Option) (*Service, error) {
	if gen == nil {
		return nil, errors.New("generator required")
	}
	if st == nil {
		return nil, errors.New("store required")
	}
	s := &Service{
		gen:             gen,
		store:           st,
		now:             time.Now,
		log:             slog.Default(),
		defaultBranches: tree.DefaultMaxBranches,
		maxBranches:     10,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// branches resolves a requested count: 0 means the default.
func (s *Service) branches(n int) (int, error) {
	if n == 0 {
		return s.defaultBranches, nil
	}
	if n < 0 || n > s.maxBranches {
		return 0, errors.Wrapf(tree.ErrInvalidInput, "max_br must be between 1 and %d, got %d", s.maxBranches, n)
	}
	return n, nil
}

// Build returns a level one tree for prompt without storing it.
func (s *Service) Build(ctx context.Context, prompt string, maxBranches int) (*tree.Node, error) {
	n, err := s.branches(maxBranches)
	if err != nil {
		return nil, err
	}
	return tree.BuildLevelOneTree(ctx, s.gen, prompt, n)
}

// Create builds a level one tree for prompt and stores it as a new map.
func (s *Service) Create(ctx context.Context, prompt string, maxBranches int) (*store.Record, error) {
	root, err := s.Build(ctx, prompt, maxBranches)
	if err != nil {
		return nil, err
	}
	rec := &store.Record{ID: store.NewID(), Prompt: root.Prompt, Tree: root, CreatedAt: s.now()}
	if err := s.store.Save(ctx, rec); err != nil {
		return nil, errors.Wrap(err, "save map")
	}
	metrics.TreesBuiltTotal.Inc()
	s.log.InfoContext(ctx, "map created", "id", rec.ID, "branches", len(root.Branches))
	return rec, nil
}

// Deeper expands every leaf of map id and stores the result as a new map whose
// ParentID is id. The original map is left as it was.
func (s *Service) Deeper(ctx context.Context, id string, maxBranches int) (*store.Record, error) {
	n, err := s.branches(maxBranches)
	if err != nil {
		return nil, err
	}
	parent, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	expanded, err := tree.GoDeeper(ctx, s.gen, parent.Tree, n)
	if err != nil {
		s.log.WarnContext(ctx, "go deeper failed", "id", id, "error", err)
		return nil, err
	}
	leaves := parent.Tree.LeafCount()
	rec := &store.Record{ID: store.NewID(), ParentID: id, Prompt: expanded.Prompt, Tree: expanded, CreatedAt: s.now()}
	if err := s.store.Save(ctx, rec); err != nil {
		return nil, errors.Wrap(err, "save map")
	}
	metrics.TreesExpandedTotal.Inc()
	metrics.LeavesExpanded.Observe(float64(leaves))
	s.log.InfoContext(ctx, "map expanded", "id", rec.ID, "parent", id, "leaves", leaves, "depth", expanded.Depth())
	return rec, nil
}

// Expand grows a tree that is not stored, such as one read from a file.
func (s *Service) Expand(ctx context.Context, t *tree.Node, maxBranches int) (*tree.Node, error) {
	n, err := s.branches(maxBranches)
	if err != nil {
		return nil, err
	}
	return tree.GoDeeper(ctx, s.gen, t, n)
}

func (s *Service) Get(ctx context.Context, id string) (*store.Record, error) {
	return s.store.Load(ctx, id)
}

// Paths returns every root-to-leaf prompt path of map id.
func (s *Service) Paths(ctx context.Context, id string) ([][]string, error) {
	rec, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return tree.TracePaths(rec.Tree, nil), nil
}

// Lineage returns id followed by its ancestors, nearest first.
func (s *Service) Lineage(ctx context.Context, id string) ([]string, error) {
	var chain []string
	seen := map[string]bool{}
	for id != "" && !seen[id] {
		rec, err := s.store.Load(ctx, id)
		if errors.Is(err, store.ErrNotFound) && len(chain) > 0 {
			// ancestor was deleted
			break
		}
		if err != nil {
			return nil, err
		}
		seen[id] = true
		chain = append(chain, id)
		id = rec.ParentID
	}
	return chain, nil
}

func (s *Service) List(ctx context.Context) ([]string, error) {
	return s.store.List(ctx)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}
