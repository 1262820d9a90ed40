package generator

import (
	"fmt"
	"strings"
)

// ResponseDelimiter separates the parallel responses in a model reply.
const ResponseDelimiter = "#other_parallel_response#"

// Prompt 表示发送给 LLM 的消息集合。
type Prompt struct {
	System string
	User   string
	// MaxBranches is the upper bound on responses the model was asked for.
	MaxBranches int
}

// BuildBranchPrompt asks for at most maxBranches independent continuations of
// input, which is either a root prompt or a joined root-to-leaf path.
func BuildBranchPrompt(input string, maxBranches int) Prompt {
	var sb strings.Builder
	sb.WriteString("You are DeepMapResearch, an AI researcher.\n")
	sb.WriteString(fmt.Sprintf("Given a topic or a question, generate a maximum of %d independent parallel responses expanding on the main topic.\n", maxBranches))
	sb.WriteString("If the input is a chain of earlier responses, continue from the last one while keeping the whole chain in mind.\n")
	sb.WriteString(fmt.Sprintf("Use ONLY this delimiter %s to separate the responses, with no extra text or explanations.\n", ResponseDelimiter))

	return Prompt{
		System:      sb.String(),
		User:        input,
		MaxBranches: maxBranches,
	}
}
