package descent

import "github.com/hdp-go/hdp/internal/trienode"

// GeneratePreimage builds the hash -> children lookup table the planner
// walks, from an ordered list of trie nodes (typically a membership proof's
// node path). Ported from tree.rs's generate_preimage.
func GeneratePreimage(nodes []trienode.Node) Preimage {
	pre := make(Preimage, len(nodes))
	for _, n := range nodes {
		h := n.Hash()
		if n.IsEdge() {
			pre[h] = PreimageNode{
				IsEdge: true,
				Length: uint64(n.Length),
				Path:   n.Path,
				Child:  n.Child,
			}
			continue
		}
		pre[h] = PreimageNode{
			IsEdge: false,
			Left:   n.Left,
			Right:  n.Right,
		}
	}
	return pre
}
