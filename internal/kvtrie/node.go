package kvtrie

import "github.com/hdp-go/hdp/internal/trienode"

// Node, Kind and friends are re-exported from internal/trienode, which holds
// the node representation shared with the Patricia Descent Planner
// (internal/descent) so both operate on one hash formula and one on-disk
// encoding.
type (
	Node = trienode.Node
	Kind = trienode.Kind
)

const (
	Height         = trienode.Height
	KindBinary     = trienode.KindBinary
	KindEdge       = trienode.KindEdge
	KindLeafBinary = trienode.KindLeafBinary
	KindLeafEdge   = trienode.KindLeafEdge
)

var (
	NewBinary = trienode.NewBinary
	NewEdge   = trienode.NewEdge
	Decode    = trienode.Decode
)
