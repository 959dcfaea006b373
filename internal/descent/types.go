// Package descent ports the Patricia Descent Planner (spec.md §4.B): an
// off-chain precomputation that lets the in-VM proof-of-update skip chains of
// single-direction descents instead of enumerating every intermediate node.
// Ported from original_source/crates/hints/src/patricia/tree.rs, preserving
// the three-way tandem tree walk and its length>1 gating rule verbatim.
package descent

import "github.com/hdp-go/hdp/internal/field"

// UpdateTree is the bottom-up tree of (key, leaf) modifications built by
// BuildUpdateTree. A nil *UpdateTree represents an unmodified subtree.
type UpdateTree struct {
	// Leaf is populated at a modification's exact tree index.
	Leaf    *field.F
	IsLeaf  bool
	Left    *UpdateTree
	Right   *UpdateTree
}

// Triplet is the canonical (length, path, hash) encoding of a preimage node:
// length == 0 means a binary node whose children live directly in Preimage
// under node hash; length > 0 means an edge node of that many path bits.
type Triplet struct {
	Length uint64
	Path   field.F
	Hash   field.F
}

// EmptyTriplet is the canonical empty subtree, "(0, 0, 0)" in spec.md §4.B.
var EmptyTriplet = Triplet{}

// IsEmpty reports whether t is the canonical empty triplet.
func (t Triplet) IsEmpty() bool {
	return t.Length == 0 && t.Path.IsZero() && t.Hash.IsZero()
}

// PreimageNode is one entry in the Preimage map: either a binary node's two
// child hashes, or an edge node's (length, path, child).
type PreimageNode struct {
	IsEdge bool

	// Binary.
	Left, Right field.F

	// Edge.
	Length uint64
	Path   field.F
	Child  field.F
}

// Preimage maps a node hash to its decoded children, the historical-state
// lookup table the planner walks alongside the update tree.
type Preimage map[field.F]PreimageNode

// DescentStart identifies where a descent begins: a height and the 0/1 path
// taken to reach it from the root.
type DescentStart struct {
	Height uint
	Path   field.F
}

// DescentEntry is the recorded shortcut: how many levels the descent spans,
// and the relative path (the low `Length` bits of the full path) taken.
type DescentEntry struct {
	Length uint
	Path   field.F
}

// DescentMap is the planner's output: spec.md §3's "mapping (height,
// path_from_root) -> (descend_length, relative_subpath)".
type DescentMap map[DescentStart]DescentEntry
