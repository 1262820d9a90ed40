package generator

import (
	"context"
	"log/slog"
	"time"

	"deepmap_research/metrics"
	"deepmap_research/tree"

	"github.com/cockroachdb/errors"
)

// Service 负责把 prompt 交给 LLM 并解析出多个并行回答，实现 tree.Generator。
type Service struct {
	llm      LLMClient
	provider string
	timeout  time.Duration
	logger   *slog.Logger
}

var _ tree.Generator = (*Service)(nil)

type Option func(*Service)

// WithProvider labels metrics and logs with the provider name.
func WithProvider(name string) Option {
	return func(s *Service) { s.provider = name }
}

// WithTimeout bounds every single model call.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func NewService(llm LLMClient, opts ...Option) (*Service, error) {
	if llm == nil {
		return nil, errors.New("llm client is required")
	}
	s := &Service{llm: llm, provider: "unknown", logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Generate returns at most maxBranches trimmed, non-empty responses to prompt.
func (s *Service) Generate(ctx context.Context, prompt string, maxBranches int) ([]string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := s.llm.Complete(ctx, BuildBranchPrompt(prompt, maxBranches))
	metrics.LLMRequestDuration.WithLabelValues(s.provider).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues(s.provider, "error").Inc()
		s.logger.WarnContext(ctx, "llm call failed", "provider", s.provider, "error", err)
		return nil, err
	}

	responses, err := ParseResponses(raw, maxBranches)
	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues(s.provider, "malformed").Inc()
		s.logger.WarnContext(ctx, "unusable llm output", "provider", s.provider, "raw_len", len(raw), "error", err)
		return nil, err
	}
	metrics.LLMRequestsTotal.WithLabelValues(s.provider, "ok").Inc()
	s.logger.DebugContext(ctx, "llm responses", "provider", s.provider, "count", len(responses), "elapsed", time.Since(start))
	return responses, nil
}
