package generator

import (
	"context"
	"fmt"
	"strings"
)

// MockLLM 一个简单的占位实现，便于本地调试，不调用外部模型。
type MockLLM struct{}

func (m MockLLM) Complete(_ context.Context, prompt Prompt) (string, error) {
	n := prompt.MaxBranches
	if n <= 0 {
		n = 1
	}
	topic := lastWords(prompt.User, 6)
	parts := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		parts = append(parts, fmt.Sprintf("Angle %d on %s", i, topic))
	}
	return strings.Join(parts, "\n"+ResponseDelimiter+"\n"), nil
}

func lastWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) > n {
		words = words[len(words)-n:]
	}
	return strings.Join(words, " ")
}
