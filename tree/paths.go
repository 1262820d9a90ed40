package tree

// TracePaths returns one root-first path of prompts per leaf reachable from
// node, depth-first and left to right. prefix holds the prompts above node and
// is never modified.
func TracePaths(node *Node, prefix []string) [][]string {
	path := appendPath(prefix, node.Prompt)
	if node.IsLeaf() {
		return [][]string{path}
	}
	var paths [][]string
	for _, child := range node.Branches {
		paths = append(paths, TracePaths(child, path)...)
	}
	return paths
}

// appendPath copies prefix so sibling paths never share a backing array.
func appendPath(prefix []string, prompt string) []string {
	out := make([]string, len(prefix), len(prefix)+1)
	copy(out, prefix)
	return append(out, prompt)
}
