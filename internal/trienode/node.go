// Package trienode defines the node shapes of the height-251 binary Patricia
// trie (spec.md §4.A) independent of any persistence mechanism, so both the
// KV-Trie Engine (internal/kvtrie) and the Patricia Descent Planner
// (internal/descent) can share one node representation and one hash formula.
package trienode

import (
	"encoding/binary"
	"fmt"

	"github.com/hdp-go/hdp/internal/field"
	"github.com/hdp-go/hdp/internal/fieldhash"
)

// Height is the binary Patricia trie's fixed depth: keys are a 251-bit path
// from the root, most-significant bit first.
const Height = 251

// Kind discriminates the four node shapes a trie can persist. Binary/Edge
// point at further internal nodes; LeafBinary/LeafEdge sit at the bottom of
// the tree and point directly at a leaf value. The hash formula within each
// pair (Binary vs LeafBinary, Edge vs LeafEdge) is identical — Kind only
// changes how the decoder interprets the child pointers on reload.
type Kind uint8

const (
	KindBinary Kind = iota
	KindEdge
	KindLeafBinary
	KindLeafEdge
)

// Node is one trie node. Exactly one of the Binary or Edge shapes is
// populated, selected by Kind.
type Node struct {
	Kind Kind

	// Binary / LeafBinary.
	Left, Right field.F

	// Edge / LeafEdge: Length is the number of path bits consumed by this
	// edge, Path holds those bits right-aligned in a field element, Child is
	// the node (or leaf value) this edge points at.
	Length uint
	Path   field.F
	Child  field.F
}

// Empty is the canonical empty subtree, spec.md §4.B's "(0, 0, 0)" universal
// no-descent triplet.
var Empty = Node{}

// IsEmpty reports whether n is the canonical empty-subtree triplet.
func (n Node) IsEmpty() bool {
	return n.Kind == KindBinary && n.Left.IsZero() && n.Right.IsZero()
}

// NewBinary builds a binary node from its two children's hashes (or, at the
// bottom level, their leaf values).
func NewBinary(left, right field.F, leafLevel bool) Node {
	k := KindBinary
	if leafLevel {
		k = KindLeafBinary
	}
	return Node{Kind: k, Left: left, Right: right}
}

// NewEdge builds an edge node.
func NewEdge(length uint, path, child field.F, leafLevel bool) Node {
	k := KindEdge
	if leafLevel {
		k = KindLeafEdge
	}
	return Node{Kind: k, Length: length, Path: path, Child: child}
}

// IsLeafLevel reports whether this node's children are raw leaf values
// rather than further internal nodes.
func (n Node) IsLeafLevel() bool {
	return n.Kind == KindLeafBinary || n.Kind == KindLeafEdge
}

// IsEdge reports whether n is an edge-shaped node (Edge or LeafEdge).
func (n Node) IsEdge() bool {
	return n.Kind == KindEdge || n.Kind == KindLeafEdge
}

// Hash computes n's content-addressed identity. Binary nodes hash their two
// children; edge nodes hash (child, path-with-length-prefix), matching the
// classic binary-Merkle-Patricia construction the KV-trie is built on.
func (n Node) Hash() field.F {
	if n.IsEdge() {
		lengthAndPath := encodeEdgeHeader(n.Length, n.Path)
		return fieldhash.Default.Hash2(n.Child, lengthAndPath)
	}
	return fieldhash.Default.Hash2(n.Left, n.Right)
}

// encodeEdgeHeader packs an edge's (length, path) into a single field element
// for hashing: the path occupies the low 251 bits, the length the next byte.
func encodeEdgeHeader(length uint, path field.F) field.F {
	pb := path.Bytes32()
	var lenByte [1]byte
	lenByte[0] = byte(length)
	combined := append(lenByte[:], pb[:]...)
	return field.FromBytes(combined)
}

// Encode serializes n into its canonical on-disk form, stored in the
// trie_nodes.data column (spec.md §4.A).
func (n Node) Encode() []byte {
	buf := make([]byte, 0, 1+8+64)
	buf = append(buf, byte(n.Kind))
	switch n.Kind {
	case KindBinary, KindLeafBinary:
		l := n.Left.Bytes32()
		r := n.Right.Bytes32()
		buf = append(buf, l[:]...)
		buf = append(buf, r[:]...)
	case KindEdge, KindLeafEdge:
		var lengthBuf [8]byte
		binary.BigEndian.PutUint64(lengthBuf[:], uint64(n.Length))
		buf = append(buf, lengthBuf[:]...)
		p := n.Path.Bytes32()
		c := n.Child.Bytes32()
		buf = append(buf, p[:]...)
		buf = append(buf, c[:]...)
	}
	return buf
}

// Decode parses a node's canonical on-disk form.
func Decode(data []byte) (Node, error) {
	if len(data) < 1 {
		return Node{}, fmt.Errorf("trienode: empty node encoding")
	}
	k := Kind(data[0])
	rest := data[1:]
	switch k {
	case KindBinary, KindLeafBinary:
		if len(rest) != 64 {
			return Node{}, fmt.Errorf("trienode: malformed binary node encoding (%d bytes)", len(rest))
		}
		var l, r [32]byte
		copy(l[:], rest[:32])
		copy(r[:], rest[32:])
		return Node{Kind: k, Left: field.FromBytes32(l), Right: field.FromBytes32(r)}, nil
	case KindEdge, KindLeafEdge:
		if len(rest) != 8+32+32 {
			return Node{}, fmt.Errorf("trienode: malformed edge node encoding (%d bytes)", len(rest))
		}
		length := binary.BigEndian.Uint64(rest[:8])
		var p, c [32]byte
		copy(p[:], rest[8:40])
		copy(c[:], rest[40:72])
		return Node{Kind: k, Length: uint(length), Path: field.FromBytes32(p), Child: field.FromBytes32(c)}, nil
	default:
		return Node{}, fmt.Errorf("trienode: unknown node kind %d", k)
	}
}
