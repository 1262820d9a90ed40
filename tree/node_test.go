package tree

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTree() *Node {
	return NewNode("root",
		NewNode("a",
			NewLeaf("a1"),
			NewNode("a2", NewLeaf("a2x")),
		),
		NewLeaf("b"),
	)
}

func TestNewLeafIsLeaf(t *testing.T) {
	leaf := NewLeaf("x")
	assert.True(t, leaf.IsLeaf())
	assert.NotNil(t, leaf.Branches)

	node := NewNode("p", leaf)
	assert.False(t, node.IsLeaf())
	assert.True(t, NewNode("empty").IsLeaf())
}

func TestCloneIsIndependent(t *testing.T) {
	orig := sampleTree()
	cp := orig.Clone()
	require.True(t, orig.Equal(cp))

	cp.Branches[0].Prompt = "changed"
	cp.Branches[1].Branches = append(cp.Branches[1].Branches, NewLeaf("new"))

	assert.Equal(t, "a", orig.Branches[0].Prompt)
	assert.True(t, orig.Branches[1].IsLeaf())
	assert.False(t, orig.Equal(cp))
}

func TestCounts(t *testing.T) {
	tr := sampleTree()
	assert.Equal(t, 3, tr.LeafCount())
	assert.Equal(t, 6, tr.NodeCount())
	assert.Equal(t, 3, tr.Depth())
	assert.Equal(t, 0, NewLeaf("solo").Depth())
}

func TestJSONShape(t *testing.T) {
	tr := NewNode("X", NewLeaf("Y"), &Node{Prompt: "Z"})
	data, err := json.Marshal(tr)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"prompt":"X","branches":[{"prompt":"Y","branches":[]},{"prompt":"Z","branches":[]}]}`,
		string(data))

	var back Node
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, back.Equal(tr))
}

func TestJSONMissingBranchesIsLeaf(t *testing.T) {
	var n Node
	require.NoError(t, json.Unmarshal([]byte(`{"prompt":"only"}`), &n))
	assert.True(t, n.IsLeaf())
	require.NoError(t, n.Validate())
}

func TestValidate(t *testing.T) {
	var nilTree *Node
	assert.ErrorIs(t, nilTree.Validate(), ErrInvalidInput)
	assert.ErrorIs(t, NewLeaf("").Validate(), ErrInvalidInput)

	var n Node
	require.NoError(t, json.Unmarshal([]byte(`{"prompt":"r","branches":[{"prompt":"a","branches":[null]}]}`), &n))
	assert.ErrorIs(t, n.Validate(), ErrInvalidInput)

	assert.NoError(t, sampleTree().Validate())
}
