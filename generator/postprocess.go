package generator

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/kaptinlin/jsonrepair"
)

var (
	thinkBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)
	codeFence  = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*\\n?(.*?)\\n?```$")
)

// ParseResponses 把模型原始输出拆成候选回答。
//
// Two reply shapes are accepted: a JSON array of strings (repaired when the
// model produced slightly broken JSON) or plain text split on
// ResponseDelimiter. Candidates are trimmed, blanks dropped, and at most
// maxBranches kept. A reply with no usable candidate is an error.
func ParseResponses(raw string, maxBranches int) ([]string, error) {
	text := strings.TrimSpace(thinkBlock.ReplaceAllString(raw, ""))
	if m := codeFence.FindStringSubmatch(text); len(m) == 2 {
		text = strings.TrimSpace(m[1])
	}
	if text == "" {
		return nil, errors.New("model returned empty output")
	}

	var parts []string
	if strings.HasPrefix(text, "[") {
		if err := unmarshalJSON([]byte(text), &parts); err != nil {
			return nil, errors.Wrap(err, "model returned malformed response list")
		}
	} else {
		parts = strings.Split(text, ResponseDelimiter)
	}

	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if maxBranches > 0 && len(out) == maxBranches {
			break
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil, errors.New("model returned no usable responses")
	}
	return out, nil
}

// unmarshalJSON retries through jsonrepair when the input is not valid JSON.
func unmarshalJSON(data []byte, v any) error {
	err := json.Unmarshal(data, v)
	if err == nil {
		return nil
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		fixed, rerr := jsonrepair.JSONRepair(string(data))
		if rerr != nil {
			return rerr
		}
		return json.Unmarshal([]byte(fixed), v)
	}
	return err
}
