// Package tree holds the branching response tree: the node model, path tracing,
// and the build/expand operations that grow a tree through a Generator.
package tree

import (
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
)

// Node is a prompt (or generated response) together with its ordered branches.
// A node exclusively owns its children; use Clone before handing a tree to code
// that may change it.
type Node struct {
	Prompt   string  `json:"prompt"`
	Branches []*Node `json:"branches"`
}

// NewLeaf returns a node without branches.
func NewLeaf(prompt string) *Node {
	return &Node{Prompt: prompt, Branches: []*Node{}}
}

// NewNode returns an internal node owning the given children.
func NewNode(prompt string, children ...*Node) *Node {
	branches := make([]*Node, 0, len(children))
	branches = append(branches, children...)
	return &Node{Prompt: prompt, Branches: branches}
}

// IsLeaf reports whether the node has no branches.
func (n *Node) IsLeaf() bool {
	return len(n.Branches) == 0
}

// Clone returns a deep copy of the subtree rooted at n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	out := &Node{Prompt: n.Prompt, Branches: make([]*Node, 0, len(n.Branches))}
	for _, child := range n.Branches {
		out.Branches = append(out.Branches, child.Clone())
	}
	return out
}

// Equal compares two trees by value.
func (n *Node) Equal(other *Node) bool {
	if n == nil || other == nil {
		return n == other
	}
	if n.Prompt != other.Prompt || len(n.Branches) != len(other.Branches) {
		return false
	}
	for i := range n.Branches {
		if !n.Branches[i].Equal(other.Branches[i]) {
			return false
		}
	}
	return true
}

// LeafCount returns the number of leaves reachable from n.
func (n *Node) LeafCount() int {
	if n.IsLeaf() {
		return 1
	}
	total := 0
	for _, child := range n.Branches {
		total += child.LeafCount()
	}
	return total
}

// NodeCount returns the number of nodes in the subtree, n included.
func (n *Node) NodeCount() int {
	total := 1
	for _, child := range n.Branches {
		total += child.NodeCount()
	}
	return total
}

// Depth is the number of edges on the longest root-to-leaf path. A lone root
// has depth 0.
func (n *Node) Depth() int {
	deepest := 0
	for _, child := range n.Branches {
		if d := child.Depth() + 1; d > deepest {
			deepest = d
		}
	}
	return deepest
}

// Validate checks a tree that came from outside the process (a request body, a
// stored document): the root needs a prompt and no branch may be null.
func (n *Node) Validate() error {
	if n == nil {
		return errors.Wrap(ErrInvalidInput, "tree is nil")
	}
	if strings.TrimSpace(n.Prompt) == "" {
		return errors.Wrap(ErrInvalidInput, "root prompt is empty")
	}
	return n.validateBranches()
}

func (n *Node) validateBranches() error {
	for i, child := range n.Branches {
		if child == nil {
			return errors.Wrapf(ErrInvalidInput, "branch %d of %q is null", i, n.Prompt)
		}
		if err := child.validateBranches(); err != nil {
			return err
		}
	}
	return nil
}

type nodeJSON struct {
	Prompt   string  `json:"prompt"`
	Branches []*Node `json:"branches"`
}

// MarshalJSON always writes branches as an array so leaves read back as
// {"prompt": ..., "branches": []}.
func (n *Node) MarshalJSON() ([]byte, error) {
	branches := n.Branches
	if branches == nil {
		branches = []*Node{}
	}
	return json.Marshal(nodeJSON{Prompt: n.Prompt, Branches: branches})
}
